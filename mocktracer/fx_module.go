package mocktracer

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/zoobzio/opentracez"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// FXModule provides *MockTracer and opentracez.Tracer from a Config, and
// closes the tracer when the application stops.
//
//	app := fx.New(
//	    mocktracer.FXModule,
//	    fx.Provide(func() mocktracer.Config {
//	        return mocktracer.Config{ServiceName: "checkout"}
//	    }),
//	)
var FXModule = fx.Module("mocktracer",
	fx.Provide(
		NewFromParams,
		fx.Annotate(
			func(t *MockTracer) opentracez.Tracer { return t },
			fx.As(new(opentracez.Tracer)),
		),
	),
	fx.Invoke(RegisterTracerLifecycle),
)

// Params are the fx dependencies of NewFromParams. Logger and Registerer
// are optional.
type Params struct {
	fx.In

	Config     Config
	Logger     *zap.Logger           `optional:"true"`
	Registerer prometheus.Registerer `optional:"true"`
}

// NewFromParams builds a tracer from fx-supplied dependencies.
func NewFromParams(p Params) (*MockTracer, error) {
	return NewFromConfig(p.Config, p.Logger, p.Registerer)
}

// NewFromConfig builds a tracer from cfg. A nil logger disables logging.
// When cfg.Metrics is set, span metrics are registered on reg, or on the
// default registerer when reg is nil.
func NewFromConfig(cfg Config, logger *zap.Logger, reg prometheus.Registerer) (*MockTracer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ServiceName != "" {
		logger = logger.With(zap.String("service", cfg.ServiceName))
	}

	opts := []Option{
		WithLogger(logger),
		WithSampled(cfg.sampled()),
	}
	if cfg.IDPoolSize > 0 {
		opts = append(opts, WithIDPool(cfg.IDPoolSize))
	}
	for _, name := range cfg.codecNames() {
		format, _ := codecFormat(name)
		injector, extractor, _ := codecFor(format)
		opts = append(opts, WithCodec(format, injector, extractor))
	}

	t := New(opts...)

	if cfg.Workers > 0 {
		if err := t.EnableWorkerPool(cfg.Workers, cfg.QueueSize); err != nil {
			t.Close()
			return nil, err
		}
	}

	if cfg.Metrics {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		m, err := NewMetrics(reg, cfg.ServiceName)
		if err != nil {
			t.Close()
			return nil, err
		}
		t.OnSpanFinish(m.Observe)
	}

	logger.Info("tracer configured",
		zap.Bool("sampled", cfg.sampled()),
		zap.Int("id_pool_size", cfg.IDPoolSize),
		zap.Int("workers", cfg.Workers),
		zap.Strings("codecs", cfg.codecNames()),
		zap.Bool("metrics", cfg.Metrics),
	)
	return t, nil
}

// RegisterTracerLifecycle closes the tracer on application stop.
func RegisterTracerLifecycle(lc fx.Lifecycle, tracer *MockTracer) {
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			tracer.logger.Info("shutting down tracer",
				zap.Int("recorded_spans", len(tracer.Spans())),
				zap.Uint64("dropped_spans", tracer.DroppedSpans()),
			)
			tracer.Close()
			return nil
		},
	})
}
