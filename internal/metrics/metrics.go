package metrics

import (
	"runtime"
	"runtime/debug"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registry = prometheus.NewRegistry()

	processesRunning = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "tadsim",
		Name:      "processes_running",
		Help:      "Number of managed processes currently recorded as running.",
	})

	sweepKills = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "tadsim",
		Name:      "sweep_kills_total",
		Help:      "Total number of leftover processes killed by name sweeps.",
	})

	spawnFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tadsim",
		Name:      "spawn_failures_total",
		Help:      "Total number of process spawn attempts that failed.",
	}, []string{"process"})

	buildInfo = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "tadsim",
		Name:      "build_info",
		Help:      "Build metadata for the running tadsim binary.",
	}, []string{"go_version", "vcs", "vcs_revision", "vcs_time", "vcs_modified"})

	buildInfoOnce sync.Once
)

func init() {
	registry.MustRegister(processesRunning, sweepKills, spawnFailures, buildInfo)
}

// Registry returns the Prometheus registry containing all tadsim metrics.
func Registry() *prometheus.Registry {
	return registry
}

// SetProcessesRunning records the current size of the managed process group.
func SetProcessesRunning(n int) {
	if n < 0 {
		n = 0
	}
	processesRunning.Set(float64(n))
}

// AddSweepKills adds to the running total of processes killed by sweeps.
func AddSweepKills(n int) {
	if n <= 0 {
		return
	}
	sweepKills.Add(float64(n))
}

// IncSpawnFailures increments the spawn failure counter for the named process.
func IncSpawnFailures(process string) {
	if process == "" {
		process = "unknown"
	}
	spawnFailures.WithLabelValues(process).Inc()
}

// EmitBuildInfo publishes build metadata about the running binary. It is safe
// to call multiple times; only the first call records the gauge.
func EmitBuildInfo() {
	buildInfoOnce.Do(func() {
		labels := prometheus.Labels{
			"go_version":   runtime.Version(),
			"vcs":          "",
			"vcs_revision": "",
			"vcs_time":     "",
			"vcs_modified": "",
		}
		if info, ok := debug.ReadBuildInfo(); ok {
			if info.GoVersion != "" {
				labels["go_version"] = info.GoVersion
			}
			for _, setting := range info.Settings {
				switch setting.Key {
				case "vcs":
					labels["vcs"] = setting.Value
				case "vcs.revision":
					labels["vcs_revision"] = setting.Value
				case "vcs.time":
					labels["vcs_time"] = setting.Value
				case "vcs.modified":
					labels["vcs_modified"] = setting.Value
				}
			}
		}
		buildInfo.With(labels).Set(1)
	})
}
