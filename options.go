package opentracez

import "time"

// StartSpanOptions is the immutable set of resolved creation parameters for
// one span. Build it with SpanBuilder.Options or NewStartSpanOptions.
type StartSpanOptions struct {
	startTime         time.Time
	tags              []Tag
	references        []Reference
	finishSpanOnClose bool
	ignoreActiveSpan  bool
}

// StartSpanOption configures span creation.
type StartSpanOption func(b *SpanBuilder)

// NewStartSpanOptions applies opts to an empty builder and freezes the
// result. Conflicting options return an ErrUsage error.
func NewStartSpanOptions(opts ...StartSpanOption) (StartSpanOptions, error) {
	return NewSpanBuilder("", nil).With(opts...).Options()
}

// DefaultStartSpanOptions returns options with no references, no tags and
// finish-on-close enabled.
func DefaultStartSpanOptions() StartSpanOptions {
	return StartSpanOptions{finishSpanOnClose: true}
}

// StartTime returns the requested start time. The zero time means the
// tracer's clock is used.
func (o StartSpanOptions) StartTime() time.Time {
	return o.startTime
}

// FinishSpanOnClose reports whether closing the span's scope finishes it.
func (o StartSpanOptions) FinishSpanOnClose() bool {
	return o.finishSpanOnClose
}

// IgnoreActiveSpan reports whether the active span is skipped as implicit
// parent.
func (o StartSpanOptions) IgnoreActiveSpan() bool {
	return o.ignoreActiveSpan
}

// Tags returns the initial tags in insertion order.
func (o StartSpanOptions) Tags() []Tag {
	tags := make([]Tag, len(o.tags))
	copy(tags, o.tags)
	return tags
}

// References returns the explicit references in insertion order.
func (o StartSpanOptions) References() []Reference {
	refs := make([]Reference, len(o.references))
	copy(refs, o.references)
	return refs
}

// ChildOf adds a ChildOf reference to sc.
func ChildOf(sc SpanContext) StartSpanOption {
	return func(b *SpanBuilder) { b.AddReference(ChildOfRef, sc) }
}

// FollowsFrom adds a FollowsFrom reference to sc.
func FollowsFrom(sc SpanContext) StartSpanOption {
	return func(b *SpanBuilder) { b.AddReference(FollowsFromRef, sc) }
}

// WithReference adds ref.
func WithReference(ref Reference) StartSpanOption {
	return func(b *SpanBuilder) { b.AddReference(ref.Type(), ref.Context()) }
}

// WithTag adds an initial tag.
func WithTag(key, value string) StartSpanOption {
	return func(b *SpanBuilder) { b.WithTag(key, value) }
}

// WithStartTime sets an explicit start time.
func WithStartTime(t time.Time) StartSpanOption {
	return func(b *SpanBuilder) { b.WithStartTimestamp(t) }
}

// IgnoreActiveSpan prevents the active span from becoming the parent.
func IgnoreActiveSpan() StartSpanOption {
	return func(b *SpanBuilder) { b.IgnoreActiveSpan() }
}

// FinishOnClose controls whether closing the scope finishes the span.
func FinishOnClose(finish bool) StartSpanOption {
	return func(b *SpanBuilder) { b.FinishSpanOnClose(finish) }
}
