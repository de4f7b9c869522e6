package opentracez

import "time"

// NoopSpanContext is a context without trace identity or baggage.
type NoopSpanContext struct{}

// TraceID implements SpanContext.
func (NoopSpanContext) TraceID() string { return "" }

// SpanID implements SpanContext.
func (NoopSpanContext) SpanID() string { return "" }

// ParentID implements SpanContext.
func (NoopSpanContext) ParentID() string { return "" }

// Sampled implements SpanContext.
func (NoopSpanContext) Sampled() bool { return false }

// BaggageItem implements SpanContext.
func (NoopSpanContext) BaggageItem(string) (string, bool) { return "", false }

// WithBaggageItem implements SpanContext. Baggage is dropped.
func (n NoopSpanContext) WithBaggageItem(string, string) SpanContext { return n }

// ForeachBaggageItem implements SpanContext.
func (NoopSpanContext) ForeachBaggageItem(func(k, v string) bool) {}

// NoopTracer is a Tracer that records nothing. Its spans carry a
// NoopSpanContext and its scope manager still tracks activation so that
// instrumented code keeps the same control flow.
type NoopTracer struct {
	scopes ScopeManager
}

// NewNoopTracer returns a NoopTracer with a goroutine-local scope manager.
func NewNoopTracer() *NoopTracer {
	return &NoopTracer{scopes: NewGoroutineScopeManager()}
}

// BuildSpan implements Tracer.
func (t *NoopTracer) BuildSpan(operationName string) *SpanBuilder {
	return NewSpanBuilder(operationName, t)
}

// StartSpan implements Tracer.
func (t *NoopTracer) StartSpan(operationName string, _ StartSpanOptions) (Span, error) {
	return noopSpan{tracer: t, name: operationName}, nil
}

// StartActiveSpan implements Tracer.
func (t *NoopTracer) StartActiveSpan(operationName string, opts StartSpanOptions) (Scope, error) {
	span, _ := t.StartSpan(operationName, opts)
	return t.scopes.Activate(span, opts.FinishSpanOnClose()), nil
}

// Inject implements Tracer.
func (*NoopTracer) Inject(SpanContext, any, any) error { return nil }

// Extract implements Tracer.
func (*NoopTracer) Extract(any, any) (SpanContext, error) { return NoopSpanContext{}, nil }

// ActiveSpan implements Tracer.
func (t *NoopTracer) ActiveSpan() Span {
	if sc := t.scopes.Active(); sc != nil {
		return sc.Span()
	}
	return nil
}

// ScopeManager implements Tracer.
func (t *NoopTracer) ScopeManager() ScopeManager {
	return t.scopes
}

type noopSpan struct {
	tracer *NoopTracer
	name   string
}

func (noopSpan) Context() SpanContext { return NoopSpanContext{} }
func (s noopSpan) OperationName() string { return s.name }
func (s noopSpan) SetOperationName(string) Span { return s }
func (s noopSpan) SetTag(string, string) Span { return s }
func (noopSpan) Tag(string) (string, bool) { return "", false }
func (noopSpan) Tags() map[string]string { return map[string]string{} }
func (noopSpan) StartTime() time.Time { return time.Time{} }
func (noopSpan) Finish() {}
func (noopSpan) FinishWithTime(time.Time) {}
func (noopSpan) IsFinished() bool { return false }
func (s noopSpan) Tracer() Tracer { return s.tracer }
