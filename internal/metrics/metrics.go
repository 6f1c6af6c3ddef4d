package metrics

import (
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Rebuild result labels reported by the file watcher.
const (
	RebuildResultDone   = "done"
	RebuildResultFailed = "failed"
)

var (
	registry = prometheus.NewRegistry()

	childExits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hotrun",
		Name:      "child_exits_total",
		Help:      "Exits observed per supervised child.",
	}, []string{"child"})

	initialBuildDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "hotrun",
		Name:      "initial_build_duration_seconds",
		Help:      "Duration of the one-shot workspace build in seconds.",
	})

	watchRebuilds = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hotrun",
		Name:      "watch_rebuilds_total",
		Help:      "Rebuilds triggered by the file watcher, by result.",
	}, []string{"result"})

	buildInfo = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "hotrun",
		Name:      "build_info",
		Help:      "Build metadata for the running hotrun binary.",
	}, []string{"go_version", "vcs", "vcs_revision", "vcs_time", "vcs_modified"})

	buildInfoOnce sync.Once
)

func init() {
	registry.MustRegister(childExits, initialBuildDuration, watchRebuilds, buildInfo)
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
}

// Registry returns the Prometheus registry containing all hotrun metrics.
func Registry() *prometheus.Registry {
	return registry
}

// IncrementChildExit records an observed exit of the named child.
func IncrementChildExit(child string) {
	if child == "" {
		return
	}
	childExits.WithLabelValues(child).Inc()
}

// ObserveInitialBuild records the duration of the one-shot build.
func ObserveInitialBuild(d time.Duration) {
	initialBuildDuration.Observe(d.Seconds())
}

// IncrementWatchRebuild records a watcher-triggered rebuild outcome.
func IncrementWatchRebuild(result string) {
	if result == "" {
		result = RebuildResultFailed
	}
	watchRebuilds.WithLabelValues(result).Inc()
}

// EmitBuildInfo publishes build metadata about the running binary.
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
