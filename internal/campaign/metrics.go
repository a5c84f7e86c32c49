package campaign

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds Prometheus metrics for the campaign subsystem.
type Metrics struct {
	MentionListsTotal *prometheus.CounterVec
	RepliesTotal      *prometheus.CounterVec
	AlertsRecorded    prometheus.Counter
}

// NewMetrics registers and returns campaign metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		MentionListsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "crisisnet_mention_lists_total",
			Help: "Mention listing calls by result.",
		}, []string{"result"}),
		RepliesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "crisisnet_replies_total",
			Help: "Reply attempts by result (sent, generation_error, post_error).",
		}, []string{"result"}),
		AlertsRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "crisisnet_alert_records_total",
			Help: "Alert records written to the campaign store.",
		}),
	}

	reg.MustRegister(
		m.MentionListsTotal,
		m.RepliesTotal,
		m.AlertsRecorded,
	)

	return m
}

func (r *Responder) observeList(result string) {
	if r.metrics != nil {
		r.metrics.MentionListsTotal.WithLabelValues(result).Inc()
	}
}

func (r *Responder) observeReply(result string) {
	if r.metrics != nil {
		r.metrics.RepliesTotal.WithLabelValues(result).Inc()
	}
}
