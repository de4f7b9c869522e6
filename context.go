package opentracez

// SpanContext carries trace identity and baggage between spans.
// Implementations must be immutable: every derivation returns a new value.
type SpanContext interface {
	// TraceID returns the id shared by every span of the trace.
	// The empty string marks a context without trace identity.
	TraceID() string

	// SpanID returns the id of the span owning this context.
	SpanID() string

	// ParentID returns the span id of the parent, or "" for a root span.
	ParentID() string

	// Sampled reports whether the trace is sampled.
	Sampled() bool

	// BaggageItem returns the baggage value stored under key.
	BaggageItem(key string) (string, bool)

	// WithBaggageItem returns a new context with key set to value.
	// The receiver is left untouched.
	WithBaggageItem(key, value string) SpanContext

	// ForeachBaggageItem calls handler for each baggage pair until it
	// returns false. Iteration order is unspecified.
	ForeachBaggageItem(handler func(key, value string) bool)
}

// DebugIDCarrier is implemented by contexts that can carry a debug
// correlation id independently of trace identity.
type DebugIDCarrier interface {
	DebugID() string
}

// IsValid reports whether sc has both a trace id and a span id.
func IsValid(sc SpanContext) bool {
	return sc != nil && sc.TraceID() != "" && sc.SpanID() != ""
}

// IsTraceIDValid reports whether sc has a trace id.
func IsTraceIDValid(sc SpanContext) bool {
	return sc != nil && sc.TraceID() != ""
}

// DebugID returns the debug id carried by sc, if any.
func DebugID(sc SpanContext) string {
	if c, ok := sc.(DebugIDCarrier); ok {
		return c.DebugID()
	}
	return ""
}

// BaggageCount returns the number of baggage items in sc.
func BaggageCount(sc SpanContext) int {
	if sc == nil {
		return 0
	}
	n := 0
	sc.ForeachBaggageItem(func(_, _ string) bool {
		n++
		return true
	})
	return n
}

// Baggage copies every baggage item of sc into a new map.
func Baggage(sc SpanContext) map[string]string {
	items := make(map[string]string)
	if sc == nil {
		return items
	}
	sc.ForeachBaggageItem(func(k, v string) bool {
		items[k] = v
		return true
	})
	return items
}
