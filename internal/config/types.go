package config

import (
	"fmt"
	"time"
)

// Duration wraps time.Duration for YAML unmarshalling.
type Duration struct {
	time.Duration
	explicit bool
}

// UnmarshalText parses a textual duration, accepting empty strings.
func (d *Duration) UnmarshalText(text []byte) error {
	d.explicit = true
	if len(text) == 0 {
		d.Duration = 0
		return nil
	}
	dur, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = dur
	return nil
}

// MarshalText renders the duration using time.Duration formatting.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// IsSet reports whether the duration was explicitly provided or non-zero.
func (d Duration) IsSet() bool {
	return d.explicit || d.Duration != 0
}

// Topology mirrors the topology.yaml document structure.
type Topology struct {
	Version  string       `yaml:"version"`
	Meta     TopologyMeta `yaml:"topology"`
	Logging  *LoggingSpec `yaml:"logging"`
	Services ServicesSpec `yaml:"services"`
	Nodes    []*NodeSpec  `yaml:"nodes"`
	Startup  StartupSpec  `yaml:"startup"`
	Shutdown ShutdownSpec `yaml:"shutdown"`
}

// TopologyMeta contains metadata about the simulation run.
type TopologyMeta struct {
	Name    string `yaml:"name"`
	RootDir string `yaml:"rootDir"`
	BinDir  string `yaml:"binDir"`
}

// LoggingSpec configures the uniform logging flags passed to every role.
type LoggingSpec struct {
	Level  string `yaml:"level"`
	Stdout *bool  `yaml:"stdout"`
}

// ServicesSpec enumerates the fixed single-instance roles of the topology.
// Full nodes are configured separately via Nodes since there may be several.
type ServicesSpec struct {
	Farmer           *RoleSpec       `yaml:"farmer"`
	Harvester        *RoleSpec       `yaml:"harvester"`
	Timelord         *RoleSpec       `yaml:"timelord"`
	TimelordLauncher *RoleSpec       `yaml:"timelordLauncher"`
	Introducer       *IntroducerSpec `yaml:"introducer"`
	Daemon           *RoleSpec       `yaml:"daemon"`
}

// RoleSpec describes one non-node role.
type RoleSpec struct {
	Port    int    `yaml:"port"`
	RPCPort int    `yaml:"rpcPort"`
	Binary  string `yaml:"binary"`
}

// IntroducerSpec describes the bootstrap peer the full nodes dial. The host
// is also handed to every node as its introducer address.
type IntroducerSpec struct {
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`
	Binary string `yaml:"binary"`
}

// NodeSpec describes a single full node instance.
type NodeSpec struct {
	Port         int    `yaml:"port"`
	RPCPort      int    `yaml:"rpcPort"`
	DatabasePath string `yaml:"databasePath"`
	Binary       string `yaml:"binary"`
}

// StartupSpec controls the gate between consecutive full node launches.
type StartupSpec struct {
	// NodeDelay is the fixed pause used when probing is disabled.
	NodeDelay Duration `yaml:"nodeDelay"`
	// DisableProbe falls back to the fixed NodeDelay pause.
	DisableProbe bool       `yaml:"disableProbe"`
	Probe        *ProbeSpec `yaml:"probe"`
}

// ProbeSpec configures the TCP readiness probe run against a node's
// peer-to-peer port before the next node is started.
type ProbeSpec struct {
	GracePeriod      Duration `yaml:"gracePeriod"`
	Interval         Duration `yaml:"interval"`
	Timeout          Duration `yaml:"timeout"`
	FailureThreshold int      `yaml:"failureThreshold"`
	SuccessThreshold int      `yaml:"successThreshold"`
}

// Clone creates a deep copy of the probe configuration.
func (p *ProbeSpec) Clone() *ProbeSpec {
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}

// ShutdownSpec controls the bounded wait between the graceful termination
// signal and the forceful kill of surviving process groups.
type ShutdownSpec struct {
	StopTimeout Duration `yaml:"stopTimeout"`
}
