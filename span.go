package opentracez

import "time"

// Span is a timed unit of work with tags and a fixed SpanContext.
// Spans are created only by a Tracer. Once finished, further mutation
// is ignored.
type Span interface {
	// Context returns the span's immutable context.
	Context() SpanContext

	// OperationName returns the current operation name.
	OperationName() string

	// SetOperationName overrides the operation name.
	SetOperationName(name string) Span

	// SetTag sets a string tag on the span.
	SetTag(key, value string) Span

	// Tag returns the value of a tag.
	Tag(key string) (string, bool)

	// Tags returns a copy of all tags.
	Tags() map[string]string

	// StartTime returns the time the span started.
	StartTime() time.Time

	// Finish ends the span at the tracer's current time.
	// Calling Finish more than once has no effect.
	Finish()

	// FinishWithTime ends the span at t.
	FinishWithTime(t time.Time)

	// IsFinished reports whether the span has been finished.
	IsFinished() bool

	// Tracer returns the tracer that created the span.
	Tracer() Tracer
}
