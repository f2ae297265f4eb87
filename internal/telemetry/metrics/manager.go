package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Manager struct {
	// counters
	CounterRequests           *prometheus.CounterVec
	CounterHandleRequestPanic prometheus.Counter
	CounterDeviceRequests     *prometheus.CounterVec
	CounterDeviceRetries      prometheus.Counter
	CounterPolls              *prometheus.CounterVec
	CounterCommands           *prometheus.CounterVec
	CounterOutages            prometheus.Counter

	// gauges
	GaugeRequests            prometheus.Gauge
	GaugeLifeSignal          prometheus.Gauge
	GaugeDeviceConnected     prometheus.Gauge
	GaugeReconnecting        prometheus.Gauge
	GaugeConsecutiveFailures prometheus.Gauge
	GaugeCurrentSpeed        prometheus.Gauge

	// histograms
	HistogramRequestDuration       *prometheus.HistogramVec
	HistogramDeviceRequestDuration *prometheus.HistogramVec
}

func NewTestManager() *Manager {
	return NewManager("padcontrol", "test_server", prometheus.NewRegistry())
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("padcontrol", "test_server", reg), reg
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	counterRequests := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request",
		Help:      "The total number of incoming dashboard requests",
	}, []string{"method", "status"})
	counterHandleRequestPanic := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "handle_request_panic",
		Help:      "The total number of serve request panics",
	})
	counterDeviceRequests := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "device_request",
		Help:      "The total number of requests sent to the device API (attempts included)",
	}, []string{"endpoint", "result"})
	counterDeviceRetries := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "device_request_retries",
		Help:      "The total number of retried device API requests",
	})
	counterPolls := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "status_polls",
		Help:      "The total number of device status polls",
	}, []string{"result"})
	counterCommands := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "commands",
		Help:      "The total number of issued pad commands",
	}, []string{"command", "result"})
	counterOutages := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "device_outages",
		Help:      "The total number of device outage episodes",
	})

	gaugeRequests := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "current_requests",
		Help:      "Current number of requests served",
	})
	gaugeLifeSignal := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "life_signal",
		Help:      "Shows whether the service is alive",
	})
	gaugeDeviceConnected := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "device_connected",
		Help:      "1 if the last status poll succeeded, 0 otherwise",
	})
	gaugeReconnecting := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "device_reconnecting",
		Help:      "1 while the poller is in the reconnecting state",
	})
	gaugeConsecutiveFailures := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "device_consecutive_failures",
		Help:      "Number of consecutive failed status polls",
	})
	gaugeCurrentSpeed := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "pad_speed_kmh",
		Help:      "Last reported belt speed in km/h",
	})

	histogramRequestDuration := factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request_duration_seconds",
		Help:      "Histogram of response time for dashboard requests in seconds",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"route", "method", "status_code"})
	histogramDeviceRequestDuration := factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "device_request_duration_seconds",
		Help:      "Histogram of device API response time in seconds",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"endpoint"})

	return &Manager{
		CounterRequests:                counterRequests,
		CounterHandleRequestPanic:      counterHandleRequestPanic,
		CounterDeviceRequests:          counterDeviceRequests,
		CounterDeviceRetries:           counterDeviceRetries,
		CounterPolls:                   counterPolls,
		CounterCommands:                counterCommands,
		CounterOutages:                 counterOutages,
		GaugeRequests:                  gaugeRequests,
		GaugeLifeSignal:                gaugeLifeSignal,
		GaugeDeviceConnected:           gaugeDeviceConnected,
		GaugeReconnecting:              gaugeReconnecting,
		GaugeConsecutiveFailures:       gaugeConsecutiveFailures,
		GaugeCurrentSpeed:              gaugeCurrentSpeed,
		HistogramRequestDuration:       histogramRequestDuration,
		HistogramDeviceRequestDuration: histogramDeviceRequestDuration,
	}
}
