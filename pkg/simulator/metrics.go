package simulator

import "github.com/prometheus/client_golang/prometheus"

const metricsNamespace = "smartdoor_sim"

// metrics holds the lock counters.
type metrics struct {
	connections      prometheus.Gauge
	tokensAccepted   prometheus.Counter
	tokensRejected   prometheus.Counter
	unlocks          prometheus.Counter
	commandsRejected *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "connections",
			Help:      "Open client connections.",
		}),
		tokensAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "tokens_accepted_total",
			Help:      "Signed tokens that verified.",
		}),
		tokensRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "tokens_rejected_total",
			Help:      "Signed tokens that failed verification.",
		}),
		unlocks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "unlocks_total",
			Help:      "Accepted unlock commands.",
		}),
		commandsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "commands_rejected_total",
			Help:      "Rejected unlock commands by reason.",
		}, []string{"reason"}),
	}

	for _, c := range []prometheus.Collector{m.connections, m.tokensAccepted, m.tokensRejected, m.unlocks, m.commandsRejected} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}
