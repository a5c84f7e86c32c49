package dispatch

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds Prometheus metrics for the dispatch subsystem.
type Metrics struct {
	BatchesTotal *prometheus.CounterVec
	SendsTotal   *prometheus.CounterVec
	QueuedTotal  prometheus.Counter
}

// NewMetrics registers and returns dispatch metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		BatchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "crisisnet_detection_batches_total",
			Help: "Detection batches evaluated, by hazard outcome.",
		}, []string{"hazard"}),
		SendsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "crisisnet_alert_sends_total",
			Help: "Alert broadcast attempts by result (sent, error).",
		}, []string{"result"}),
		QueuedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "crisisnet_alerts_queued_total",
			Help: "Alert attempts deferred waiting for a location fix.",
		}),
	}

	reg.MustRegister(
		m.BatchesTotal,
		m.SendsTotal,
		m.QueuedTotal,
	)

	return m
}
