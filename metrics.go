package netagg

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"paepcke.de/netagg/prefix"
)

// Metrics are the run counters, a nil *Metrics records nothing.
type Metrics struct {
	tokens      *prometheus.CounterVec
	prefixesIn  *prometheus.CounterVec
	filtered    prometheus.Counter
	prefixesOut *prometheus.GaugeVec
	duration    prometheus.Gauge
}

// NewMetrics creates the run metrics and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		tokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: _app,
			Name:      "tokens_total",
			Help:      "Number of input tokens read, by parse result.",
		}, []string{"result"}),
		prefixesIn: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: _app,
			Name:      "prefixes_in_total",
			Help:      "Number of prefixes accepted for aggregation, by address family.",
		}, []string{"family"}),
		filtered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: _app,
			Name:      "prefixes_filtered_total",
			Help:      "Number of parsed prefixes dropped by the family or length filter.",
		}),
		prefixesOut: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: _app,
			Name:      "prefixes_out",
			Help:      "Number of prefixes in the last aggregated result, by address family.",
		}, []string{"family"}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: _app,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last run.",
		}),
	}
	reg.MustRegister(m.tokens, m.prefixesIn, m.filtered, m.prefixesOut, m.duration)
	return m
}

func (m *Metrics) observeParse(st parseStats) {
	if m == nil {
		return
	}
	m.tokens.WithLabelValues("valid").Add(float64(st.tokens - st.bad))
	m.tokens.WithLabelValues("invalid").Add(float64(st.bad))
	m.filtered.Add(float64(st.filtered))
	m.prefixesIn.WithLabelValues(prefix.IPv4.String()).Add(float64(st.v4))
	m.prefixesIn.WithLabelValues(prefix.IPv6.String()).Add(float64(st.v6))
}

func (m *Metrics) observeResult(pfxs []prefix.Prefix) {
	if m == nil {
		return
	}
	var v4, v6 int
	for _, p := range pfxs {
		if p.Family() == prefix.IPv4 {
			v4++
		} else {
			v6++
		}
	}
	m.prefixesOut.WithLabelValues(prefix.IPv4.String()).Set(float64(v4))
	m.prefixesOut.WithLabelValues(prefix.IPv6.String()).Set(float64(v6))
}

func (m *Metrics) observeDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.duration.Set(d.Seconds())
}
