package opentracez

// Injector writes sc into carrier for a single propagation format.
type Injector func(sc SpanContext, carrier any) error

// Extractor reads a SpanContext from carrier for a single propagation
// format. It returns a nil context and nil error when the carrier holds no
// trace state.
type Extractor func(carrier any) (SpanContext, error)

// Tracer creates spans, resolves their parents and propagates contexts.
type Tracer interface {
	// BuildSpan returns a builder for a span named operationName.
	BuildSpan(operationName string) *SpanBuilder

	// StartSpan creates a span using the resolved options.
	StartSpan(operationName string, opts StartSpanOptions) (Span, error)

	// StartActiveSpan creates a span and activates it on the tracer's
	// ScopeManager.
	StartActiveSpan(operationName string, opts StartSpanOptions) (Scope, error)

	// Inject writes sc into carrier using the codec registered for format.
	Inject(sc SpanContext, format any, carrier any) error

	// Extract reads a context from carrier using the codec registered for
	// format. A nil context with a nil error means nothing was found.
	Extract(format any, carrier any) (SpanContext, error)

	// ActiveSpan returns the span of the active scope, or nil.
	ActiveSpan() Span

	// ScopeManager returns the tracer's scope manager.
	ScopeManager() ScopeManager
}
