// Package opentracez provides a distributed tracing instrumentation API.
//
// opentracez defines how spans are created, how each new span is linked to
// its causal parent, and how identity and baggage travel through an
// immutable SpanContext. Concrete tracers plug in behind the Tracer
// interface; the mocktracer package ships an in-memory recording tracer.
//
// Core Components:
//   - SpanContext: Immutable trace identity plus baggage.
//   - Reference: Typed edge (ChildOf, FollowsFrom) to an existing context.
//   - SpanBuilder: Accumulates creation intent and starts the span.
//   - ScopeManager: Stack of active spans for implicit parent inference.
//   - Tracer: Resolves parents, mints contexts and records spans.
//
// Basic Usage:
//
//	tracer := mocktracer.New()
//	defer tracer.Close()
//
//	scope, err := tracer.BuildSpan("handle-request").
//		WithTag("http.method", "GET").
//		StartActive()
//	if err != nil {
//		return err
//	}
//	defer scope.Close()
//
//	// Spans started while scope is open become its children.
//	span, err := tracer.BuildSpan("db-query").Start()
//
// Parent Resolution:
//
// The first ChildOf reference always wins. Without one, the first reference
// of any type is used, then the active span unless IgnoreActiveSpan was
// requested. IgnoreActiveSpan and explicit references are mutually
// exclusive and mixing them is a usage error.
//
// Thread Safety:
//
// Tracers are safe for concurrent use. A StackScopeManager must be owned by
// a single logical call chain; GoroutineScopeManager keeps an independent
// stack per goroutine.
package opentracez

// Tag is a single initial span tag. Tags are applied in order, so a later
// Tag with the same key overwrites an earlier one.
type Tag struct {
	Key   string
	Value string
}
