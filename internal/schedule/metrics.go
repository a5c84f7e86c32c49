package schedule

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds Prometheus metrics for supervised schedules.
type Metrics struct {
	StartsTotal *prometheus.CounterVec
	TicksTotal  *prometheus.CounterVec
}

// NewMetrics registers and returns schedule metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		StartsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "crisisnet_schedule_starts_total",
			Help: "Schedule start requests by job and result (armed, extended).",
		}, []string{"job", "result"}),
		TicksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "crisisnet_schedule_ticks_total",
			Help: "Tick firings by job and result (ok, error, skipped).",
		}, []string{"job", "result"}),
	}

	reg.MustRegister(
		m.StartsTotal,
		m.TicksTotal,
	)

	return m
}
