package sweep

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts sweep outcomes. Registered on the registry supplied by the
// caller so tests can use a fresh one.
type Metrics struct {
	Runs     prometheus.Counter
	Expired  prometheus.Counter
	Notified prometheus.Counter
	Archived prometheus.Counter
	Skipped  prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Runs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "compliance_sweep_runs_total",
			Help: "Completed expiry sweep passes.",
		}),
		Expired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "compliance_sweep_expired_total",
			Help: "Verified records transitioned to expired by the sweep.",
		}),
		Notified: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "compliance_sweep_notified_total",
			Help: "Expiring-soon notifications emitted by the sweep.",
		}),
		Archived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "compliance_sweep_archived_total",
			Help: "Rejected records archived by the sweep.",
		}),
		Skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "compliance_sweep_skipped_total",
			Help: "Records skipped by the sweep because of per-record errors.",
		}),
	}
	for _, c := range []prometheus.Counter{m.Runs, m.Expired, m.Notified, m.Archived, m.Skipped} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}
