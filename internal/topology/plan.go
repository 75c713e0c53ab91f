package topology

import (
	"fmt"
	"net"
	"path/filepath"
	"strconv"

	"github.com/tad-network/tadsim/internal/config"
)

// Process is one entry in the launch plan: a role binary plus the argument
// vector it is started with. Plan order is startup order and, later, the
// supervisor's signalling order.
type Process struct {
	Name   string
	Binary string
	Args   []string

	// ProbeAddr, when non-empty, is the TCP address the supervisor confirms
	// is accepting connections before the next plan entry is started. Only
	// set on full nodes that are followed by another full node.
	ProbeAddr string
}

// Plan is the fixed, dependency-ordered set of processes for one run.
type Plan struct {
	Processes []Process
}

// Build derives the launch plan from a validated topology document. Order is
// fixed: farmer, harvester, timelord, timelord-launcher, introducer, the full
// nodes in declaration order, then the daemon.
func Build(doc *config.Topology) *Plan {
	logFlags := loggingArgs(doc.Logging)
	svc := &doc.Services

	plan := &Plan{}
	plan.add("farmer", svc.Farmer.Binary, roleArgs(svc.Farmer, logFlags))
	plan.add("harvester", svc.Harvester.Binary, roleArgs(svc.Harvester, logFlags))
	plan.add("timelord", svc.Timelord.Binary, roleArgs(svc.Timelord, logFlags))
	plan.add("timelord-launcher", svc.TimelordLauncher.Binary, roleArgs(svc.TimelordLauncher, logFlags))
	plan.add("introducer", svc.Introducer.Binary, introducerArgs(svc.Introducer, logFlags))

	for idx, node := range doc.Nodes {
		name := fmt.Sprintf("node-%d", idx+1)
		entry := Process{
			Name:   name,
			Binary: node.Binary,
			Args:   nodeArgs(doc, node, logFlags),
		}
		if idx < len(doc.Nodes)-1 {
			entry.ProbeAddr = net.JoinHostPort("127.0.0.1", strconv.Itoa(node.Port))
		}
		plan.Processes = append(plan.Processes, entry)
	}

	plan.add("daemon", svc.Daemon.Binary, roleArgs(svc.Daemon, logFlags))

	for i := range plan.Processes {
		plan.Processes[i].Binary = resolveBinary(doc.Meta.BinDir, plan.Processes[i].Binary)
	}
	return plan
}

func (p *Plan) add(name, binary string, args []string) {
	p.Processes = append(p.Processes, Process{Name: name, Binary: binary, Args: args})
}

func loggingArgs(spec *config.LoggingSpec) []string {
	if spec == nil {
		return nil
	}
	args := []string{"--log-level=" + spec.Level}
	if spec.Stdout == nil || *spec.Stdout {
		args = append(args, "--log-stdout")
	}
	return args
}

func roleArgs(role *config.RoleSpec, logFlags []string) []string {
	args := append([]string(nil), logFlags...)
	if role.Port != 0 {
		args = append(args, "--port="+strconv.Itoa(role.Port))
	}
	if role.RPCPort != 0 {
		args = append(args, "--rpc-port="+strconv.Itoa(role.RPCPort))
	}
	return args
}

func introducerArgs(intro *config.IntroducerSpec, logFlags []string) []string {
	args := append([]string(nil), logFlags...)
	args = append(args, "--port="+strconv.Itoa(intro.Port))
	return args
}

func nodeArgs(doc *config.Topology, node *config.NodeSpec, logFlags []string) []string {
	args := append([]string(nil), logFlags...)
	args = append(args,
		"--port="+strconv.Itoa(node.Port),
		"--rpc-port="+strconv.Itoa(node.RPCPort),
		"--database-path="+resolveDatabasePath(doc.Meta.RootDir, node.DatabasePath),
		"--introducer-host="+doc.Services.Introducer.Host,
		"--introducer-port="+strconv.Itoa(doc.Services.Introducer.Port),
	)
	return args
}

func resolveDatabasePath(rootDir, path string) string {
	if rootDir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(rootDir, path)
}

func resolveBinary(binDir, binary string) string {
	if binDir == "" || filepath.IsAbs(binary) {
		return binary
	}
	return filepath.Join(binDir, binary)
}
