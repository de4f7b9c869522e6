package mocktracer

import (
	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exports finished-span counts and durations to Prometheus.
// Register Observe as a finish handler.
type Metrics struct {
	finished *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics registers the span metrics on reg with a constant service
// label. Metrics already registered on reg by an earlier call are reused.
func NewMetrics(reg prometheus.Registerer, serviceName string) (*Metrics, error) {
	wrapped := prometheus.WrapRegistererWith(prometheus.Labels{"service": serviceName}, reg)

	finished := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "opentracez",
		Name:      "spans_finished_total",
		Help:      "Total number of finished spans.",
	}, []string{"operation"})

	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "opentracez",
		Name:      "span_duration_seconds",
		Help:      "Duration of finished spans.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})

	var err error
	if finished, err = register(wrapped, finished); err != nil {
		return nil, err
	}
	if duration, err = register(wrapped, duration); err != nil {
		return nil, err
	}
	return &Metrics{finished: finished, duration: duration}, nil
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, errors.Wrap(err, "registering span metrics")
	}
	return c, nil
}

// Observe records a finished span.
func (m *Metrics) Observe(span FinishedSpan) {
	m.finished.WithLabelValues(span.Name).Inc()
	m.duration.WithLabelValues(span.Name).Observe(span.Duration.Seconds())
}
