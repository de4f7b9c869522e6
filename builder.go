package opentracez

import "time"

// builderState tracks how the builder decided on a parent.
// Transitions are only allowed out of builderEmpty.
type builderState int

const (
	builderEmpty builderState = iota
	builderParentSet
	builderIgnoringActive
)

// SpanBuilder accumulates creation options for a single span. All methods
// are chainable. The first misuse is recorded and returned by Start,
// StartActive, Options and Err; later calls are ignored.
//
// A builder is meant to start exactly one span.
type SpanBuilder struct {
	startTime     time.Time
	tracer        Tracer
	err           error
	operationName string
	tags          []Tag
	references    []Reference
	state         builderState
	finishOnClose bool
}

// NewSpanBuilder returns a builder that starts spans on tracer.
func NewSpanBuilder(operationName string, tracer Tracer) *SpanBuilder {
	return &SpanBuilder{
		operationName: operationName,
		tracer:        tracer,
		finishOnClose: true,
	}
}

// advance moves the builder to next. Self transitions are allowed so that
// several references may be added.
func (b *SpanBuilder) advance(next builderState, call string) bool {
	if b.err != nil {
		return false
	}
	if b.state == builderEmpty || b.state == next {
		b.state = next
		return true
	}
	if next == builderIgnoringActive {
		b.err = UsageError("%s after asChildOf() or addReference() is useless", call)
	} else {
		b.err = UsageError("%s after ignoreActiveSpan() contradicts it", call)
	}
	return false
}

// AsChildOf adds a ChildOf reference to parent. A nil parent is ignored.
func (b *SpanBuilder) AsChildOf(parent SpanContext) *SpanBuilder {
	return b.AddReference(ChildOfRef, parent)
}

// AsChildOfSpan adds a ChildOf reference to the context of span.
func (b *SpanBuilder) AsChildOfSpan(span Span) *SpanBuilder {
	if isNil(span) {
		return b
	}
	return b.AddReference(ChildOfRef, span.Context())
}

// AddReference appends a reference of type t to sc. A nil sc, including a
// typed nil, is ignored.
func (b *SpanBuilder) AddReference(t ReferenceType, sc SpanContext) *SpanBuilder {
	if isNil(sc) {
		return b
	}
	if b.advance(builderParentSet, "addReference()") {
		b.references = append(b.references, NewReference(t, sc))
	}
	return b
}

// AddSpanReference appends a reference of type t to the context of span.
func (b *SpanBuilder) AddSpanReference(t ReferenceType, span Span) *SpanBuilder {
	if isNil(span) {
		return b
	}
	return b.AddReference(t, span.Context())
}

// IgnoreActiveSpan stops the active span from being used as implicit
// parent. It is a usage error once a reference was added.
func (b *SpanBuilder) IgnoreActiveSpan() *SpanBuilder {
	b.advance(builderIgnoringActive, "ignoreActiveSpan()")
	return b
}

// WithTag adds an initial tag.
func (b *SpanBuilder) WithTag(key, value string) *SpanBuilder {
	if b.err == nil {
		b.tags = append(b.tags, Tag{Key: key, Value: value})
	}
	return b
}

// WithStartTimestamp sets an explicit start time.
func (b *SpanBuilder) WithStartTimestamp(t time.Time) *SpanBuilder {
	if b.err == nil {
		b.startTime = t
	}
	return b
}

// FinishSpanOnClose controls whether closing the scope returned by
// StartActive finishes the span. Defaults to true.
func (b *SpanBuilder) FinishSpanOnClose(finish bool) *SpanBuilder {
	if b.err == nil {
		b.finishOnClose = finish
	}
	return b
}

// With applies opts in order.
func (b *SpanBuilder) With(opts ...StartSpanOption) *SpanBuilder {
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Err returns the first recorded misuse.
func (b *SpanBuilder) Err() error {
	return b.err
}

// Options freezes the pending options.
func (b *SpanBuilder) Options() (StartSpanOptions, error) {
	if b.err != nil {
		return StartSpanOptions{}, b.err
	}
	opts := StartSpanOptions{
		startTime:         b.startTime,
		finishSpanOnClose: b.finishOnClose,
		ignoreActiveSpan:  b.state == builderIgnoringActive,
		tags:              make([]Tag, len(b.tags)),
		references:        make([]Reference, len(b.references)),
	}
	copy(opts.tags, b.tags)
	copy(opts.references, b.references)
	return opts, nil
}

// Start creates the span.
func (b *SpanBuilder) Start() (Span, error) {
	opts, err := b.Options()
	if err != nil {
		return nil, err
	}
	if b.tracer == nil {
		return nil, UsageError("span builder for %q has no tracer", b.operationName)
	}
	return b.tracer.StartSpan(b.operationName, opts)
}

// StartActive creates the span and activates it.
func (b *SpanBuilder) StartActive() (Scope, error) {
	opts, err := b.Options()
	if err != nil {
		return nil, err
	}
	if b.tracer == nil {
		return nil, UsageError("span builder for %q has no tracer", b.operationName)
	}
	return b.tracer.StartActiveSpan(b.operationName, opts)
}
