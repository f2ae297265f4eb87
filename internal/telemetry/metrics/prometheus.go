package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const unknownVersion = "unknown"

// BuildInfo labels the padcontrol_build_info gauge of a registry
type BuildInfo struct {
	Service string
	Version string
}

// NewBuildInfoGauge is a constant 1 gauge labeled with the running service and its version,
// so dashboards can join any padcontrol series against a deploy
func NewBuildInfoGauge(info BuildInfo) prometheus.Gauge {
	version := info.Version
	if version == "" {
		version = unknownVersion
	}
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "padcontrol",
		Name:      "build_info",
		Help:      "Running padcontrol service and version, always 1.",
		ConstLabels: prometheus.Labels{
			"service": info.Service,
			"version": version,
		},
	})
	gauge.Set(1)
	return gauge
}

func SetupPrometheus(info BuildInfo, extraCollectors ...prometheus.Collector) *prometheus.Registry {
	promRegistry := prometheus.NewRegistry()

	// Go module build info, runtime and process collectors, plus our own build info.
	promRegistry.MustRegister(
		collectors.NewBuildInfoCollector(),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		NewBuildInfoGauge(info),
	)
	promRegistry.MustRegister(extraCollectors...)

	return promRegistry
}
