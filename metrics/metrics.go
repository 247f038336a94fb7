package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics instruments the query paths: which route answered, how often the
// orchestrator fell back, and what the model calls cost.
type Metrics struct {
	Requests          *prometheus.CounterVec
	Fallbacks         *prometheus.CounterVec
	ModelCalls        prometheus.Counter
	ModelCallErrors   prometheus.Counter
	ModelCallDuration prometheus.Histogram
	ModelTokens       *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pharmadb",
			Name:      "requests_total",
			Help:      "Questions answered, by serving route.",
		}, []string{"route"}),
		Fallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pharmadb",
			Name:      "fallbacks_total",
			Help:      "Fallback transitions, by triggering condition.",
		}, []string{"reason"}),
		ModelCalls: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "pharmadb",
			Name:      "model_calls_total",
			Help:      "Completion requests issued to the inference server.",
		}),
		ModelCallErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "pharmadb",
			Name:      "model_call_errors_total",
			Help:      "Completion requests that returned an error.",
		}),
		ModelCallDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pharmadb",
			Name:      "model_call_duration_seconds",
			Help:      "Wall time of individual completion requests.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
		ModelTokens: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pharmadb",
			Name:      "model_tokens_total",
			Help:      "Token counts reported by the inference server.",
		}, []string{"kind"}),
	}
}

// ObserveModelCall records one completion request.
func (m *Metrics) ObserveModelCall(d time.Duration, promptTokens, evalTokens int, failed bool) {
	if m == nil {
		return
	}
	m.ModelCalls.Inc()
	m.ModelCallDuration.Observe(d.Seconds())
	if failed {
		m.ModelCallErrors.Inc()
	}
	m.ModelTokens.WithLabelValues("prompt").Add(float64(promptTokens))
	m.ModelTokens.WithLabelValues("eval").Add(float64(evalTokens))
}

// Request counts one answered question on a route.
func (m *Metrics) Request(route string) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(route).Inc()
}

// Fallback counts one fallback transition.
func (m *Metrics) Fallback(reason string) {
	if m == nil {
		return
	}
	m.Fallbacks.WithLabelValues(reason).Inc()
}
