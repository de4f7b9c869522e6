package mocktracer

import (
	"github.com/zoobzio/opentracez"
)

// MockSpanContext is the SpanContext produced by MockTracer.
// Values are immutable; every derivation returns a new context.
//
//nolint:govet // Field order kept readable
type MockSpanContext struct {
	baggage  map[string]string
	traceID  string
	spanID   string
	parentID string
	debugID  string
	sampled  bool
}

var _ opentracez.SpanContext = (*MockSpanContext)(nil)

// NewSpanContext builds a context from explicit ids. The baggage map is
// copied.
func NewSpanContext(traceID, spanID string, sampled bool, baggage map[string]string) *MockSpanContext {
	return &MockSpanContext{
		traceID: traceID,
		spanID:  spanID,
		sampled: sampled,
		baggage: copyBaggage(baggage, 0),
	}
}

// CreateAsRoot mints a context for a new trace. A nil ids uses
// RandomIDs.
func CreateAsRoot(ids IDGenerator, sampled bool, baggage map[string]string) *MockSpanContext {
	if ids == nil {
		ids = RandomIDs{}
	}
	return NewSpanContext(ids.TraceID(), ids.SpanID(), sampled, baggage)
}

// CreateAsChildOf mints a context for a child of parent. The trace id,
// sampled flag and baggage are inherited.
func CreateAsChildOf(ids IDGenerator, parent *MockSpanContext) *MockSpanContext {
	if ids == nil {
		ids = RandomIDs{}
	}
	return &MockSpanContext{
		traceID:  parent.traceID,
		spanID:   ids.SpanID(),
		parentID: parent.spanID,
		sampled:  parent.sampled,
		baggage:  parent.baggage, // never mutated, safe to share
	}
}

// TraceID implements opentracez.SpanContext.
func (c *MockSpanContext) TraceID() string { return c.traceID }

// SpanID implements opentracez.SpanContext.
func (c *MockSpanContext) SpanID() string { return c.spanID }

// ParentID implements opentracez.SpanContext.
func (c *MockSpanContext) ParentID() string { return c.parentID }

// Sampled implements opentracez.SpanContext.
func (c *MockSpanContext) Sampled() bool { return c.sampled }

// DebugID implements opentracez.DebugIDCarrier.
func (c *MockSpanContext) DebugID() string { return c.debugID }

// IsValid reports whether the context has a trace id and a span id.
func (c *MockSpanContext) IsValid() bool {
	return opentracez.IsValid(c)
}

// BaggageItem implements opentracez.SpanContext.
func (c *MockSpanContext) BaggageItem(key string) (string, bool) {
	v, ok := c.baggage[key]
	return v, ok
}

// WithBaggageItem implements opentracez.SpanContext.
func (c *MockSpanContext) WithBaggageItem(key, value string) opentracez.SpanContext {
	next := c.clone()
	next.baggage = copyBaggage(c.baggage, 1)
	next.baggage[key] = value
	return next
}

// ForeachBaggageItem implements opentracez.SpanContext.
func (c *MockSpanContext) ForeachBaggageItem(handler func(key, value string) bool) {
	for k, v := range c.baggage {
		if !handler(k, v) {
			return
		}
	}
}

// Baggage returns a copy of all baggage items.
func (c *MockSpanContext) Baggage() map[string]string {
	return copyBaggage(c.baggage, 0)
}

// WithParentID returns a copy of the context with the given parent id.
func (c *MockSpanContext) WithParentID(parentID string) *MockSpanContext {
	next := c.clone()
	next.parentID = parentID
	return next
}

// WithDebugID returns a copy of the context carrying a debug id.
func (c *MockSpanContext) WithDebugID(debugID string) *MockSpanContext {
	next := c.clone()
	next.debugID = debugID
	return next
}

func (c *MockSpanContext) clone() *MockSpanContext {
	next := *c
	return &next
}

func copyBaggage(src map[string]string, extra int) map[string]string {
	dst := make(map[string]string, len(src)+extra)
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
