package config

import "time"

// Default port assignments for the managed fleet. These are a documented
// contract: other tooling keys off them when talking to a locally launched
// simulation. The simulation deliberately uses its own node/introducer port
// set (8445/8555/8556) distinct from the production defaults.
const (
	DefaultDaemonPort           = 4400
	DefaultFarmerPort           = 4447
	DefaultFarmerRPCPort        = 4457
	DefaultHarvesterPort        = 4448
	DefaultHarvesterRPCPort     = 4458
	DefaultWalletPort           = 4449
	DefaultWalletRPCPort        = 4456
	DefaultTimelordLauncherPort = 4050
	DefaultTimelordPort         = 8446

	DefaultNodePort    = 4044
	DefaultNodeRPCPort = 4555

	SimIntroducerPort  = 8445
	SimNode1RPCPort    = 8555
	SimNode2Port       = 8002
	SimNode2RPCPort    = 8556
	DefaultIntroducer  = "127.0.0.1"
	DefaultNetworkName = "local-sim"
)

// Binary names for each role. The sweep matches NodeBinary and VDFBinary;
// the remaining names are the default role commands.
const (
	NodeBinary             = "tad_full_node"
	VDFBinary              = "vdf_client"
	FarmerBinary           = "tad_farmer"
	HarvesterBinary        = "tad_harvester"
	TimelordBinary         = "tad_timelord"
	TimelordLauncherBinary = "tad_timelord_launcher"
	IntroducerBinary       = "tad_introducer"
	DaemonBinary           = "tad_daemon"
)

const (
	defaultLogLevel    = "INFO"
	defaultNodeDelay   = 5 * time.Second
	defaultStopTimeout = 10 * time.Second

	defaultProbeInterval         = 100 * time.Millisecond
	defaultProbeTimeout          = 2 * time.Second
	defaultProbeFailureThreshold = 150
	defaultProbeSuccessThreshold = 1
)

// Default returns the built-in two-node simulation topology used when no
// topology file is supplied.
func Default() *Topology {
	doc := &Topology{
		Version: "1",
		Meta:    TopologyMeta{Name: DefaultNetworkName},
		Nodes: []*NodeSpec{
			{Port: DefaultNodePort, RPCPort: SimNode1RPCPort, DatabasePath: "db/node-1.sqlite"},
			{Port: SimNode2Port, RPCPort: SimNode2RPCPort, DatabasePath: "db/node-2.sqlite"},
		},
	}
	doc.ApplyDefaults()
	return doc
}

// ApplyDefaults fills unset fields with the documented port contract and the
// built-in role binaries.
func (t *Topology) ApplyDefaults() {
	if t.Meta.Name == "" {
		t.Meta.Name = DefaultNetworkName
	}
	if t.Logging == nil {
		t.Logging = &LoggingSpec{}
	}
	if t.Logging.Level == "" {
		t.Logging.Level = defaultLogLevel
	}
	if t.Logging.Stdout == nil {
		stdout := true
		t.Logging.Stdout = &stdout
	}

	svc := &t.Services
	if svc.Farmer == nil {
		svc.Farmer = &RoleSpec{}
	}
	applyRoleDefaults(svc.Farmer, FarmerBinary, DefaultFarmerPort, DefaultFarmerRPCPort)
	if svc.Harvester == nil {
		svc.Harvester = &RoleSpec{}
	}
	applyRoleDefaults(svc.Harvester, HarvesterBinary, DefaultHarvesterPort, DefaultHarvesterRPCPort)
	if svc.Timelord == nil {
		svc.Timelord = &RoleSpec{}
	}
	applyRoleDefaults(svc.Timelord, TimelordBinary, DefaultTimelordPort, 0)
	if svc.TimelordLauncher == nil {
		svc.TimelordLauncher = &RoleSpec{}
	}
	applyRoleDefaults(svc.TimelordLauncher, TimelordLauncherBinary, DefaultTimelordLauncherPort, 0)
	if svc.Daemon == nil {
		svc.Daemon = &RoleSpec{}
	}
	applyRoleDefaults(svc.Daemon, DaemonBinary, DefaultDaemonPort, 0)
	if svc.Introducer == nil {
		svc.Introducer = &IntroducerSpec{}
	}
	if svc.Introducer.Host == "" {
		svc.Introducer.Host = DefaultIntroducer
	}
	if svc.Introducer.Port == 0 {
		svc.Introducer.Port = SimIntroducerPort
	}
	if svc.Introducer.Binary == "" {
		svc.Introducer.Binary = IntroducerBinary
	}

	for _, node := range t.Nodes {
		if node == nil {
			continue
		}
		if node.Binary == "" {
			node.Binary = NodeBinary
		}
	}

	if !t.Startup.NodeDelay.IsSet() {
		t.Startup.NodeDelay = Duration{Duration: defaultNodeDelay}
	}
	if t.Startup.Probe == nil {
		t.Startup.Probe = &ProbeSpec{}
	}
	probe := t.Startup.Probe
	if !probe.Interval.IsSet() {
		probe.Interval = Duration{Duration: defaultProbeInterval}
	}
	if !probe.Timeout.IsSet() {
		probe.Timeout = Duration{Duration: defaultProbeTimeout}
	}
	if probe.FailureThreshold <= 0 {
		probe.FailureThreshold = defaultProbeFailureThreshold
	}
	if probe.SuccessThreshold <= 0 {
		probe.SuccessThreshold = defaultProbeSuccessThreshold
	}

	if !t.Shutdown.StopTimeout.IsSet() {
		t.Shutdown.StopTimeout = Duration{Duration: defaultStopTimeout}
	}
}

func applyRoleDefaults(role *RoleSpec, binary string, port, rpcPort int) {
	if role.Binary == "" {
		role.Binary = binary
	}
	if role.Port == 0 {
		role.Port = port
	}
	if role.RPCPort == 0 && rpcPort != 0 {
		role.RPCPort = rpcPort
	}
}
