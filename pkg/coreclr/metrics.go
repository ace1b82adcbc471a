package coreclr

import "github.com/prometheus/client_golang/prometheus"

var (
	hostCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clrhost",
			Subsystem: "host",
			Name:      "calls_total",
			Help:      "Calls into the CoreCLR hosting API by result",
		},
		[]string{"op", "result"},
	)

	hostsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "clrhost",
			Subsystem: "host",
			Name:      "active",
			Help:      "Initialized runtimes that have not been shut down",
		},
	)
)

func init() {
	prometheus.MustRegister(hostCalls, hostsActive)
}

func observe(op string, hr HResult) {
	result := "ok"
	if hr.Failed() {
		result = "error"
	}
	hostCalls.WithLabelValues(op, result).Inc()
}
