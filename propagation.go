package opentracez

import "context"

// spanKeyType is a private type for context keys to avoid collisions.
type spanKeyType string

const spanKey spanKeyType = "opentracez.span"

// ContextWithSpan returns a copy of ctx carrying span.
func ContextWithSpan(ctx context.Context, span Span) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, spanKey, span)
}

// SpanFromContext returns the span stored in ctx, or nil.
func SpanFromContext(ctx context.Context) Span {
	if ctx == nil {
		return nil
	}
	if span, ok := ctx.Value(spanKey).(Span); ok {
		return span
	}
	return nil
}

// StartSpanFromContext starts a span on tracer as a child of the span in
// ctx, if any, and returns a context carrying the new span.
func StartSpanFromContext(
	ctx context.Context, tracer Tracer, operationName string, opts ...StartSpanOption,
) (context.Context, Span, error) {
	b := tracer.BuildSpan(operationName)
	if parent := SpanFromContext(ctx); parent != nil {
		b.AsChildOfSpan(parent)
	}
	span, err := b.With(opts...).Start()
	if err != nil {
		return ctx, nil, err
	}
	return ContextWithSpan(ctx, span), span, nil
}

// ChildSpan starts a ChildOf span of the span in ctx on the parent's
// tracer. Without a span in ctx it returns ctx and a nil span.
func ChildSpan(ctx context.Context, operationName string) (context.Context, Span, error) {
	return deriveSpan(ctx, operationName, ChildOfRef)
}

// ForkSpan starts a FollowsFrom span of the span in ctx, for work that may
// outlive the current operation. Without a span in ctx it returns ctx and a
// nil span.
func ForkSpan(ctx context.Context, operationName string) (context.Context, Span, error) {
	return deriveSpan(ctx, operationName, FollowsFromRef)
}

func deriveSpan(
	ctx context.Context, operationName string, t ReferenceType,
) (context.Context, Span, error) {
	parent := SpanFromContext(ctx)
	if parent == nil {
		return ctx, nil, nil
	}
	span, err := parent.Tracer().BuildSpan(operationName).
		AddSpanReference(t, parent).
		Start()
	if err != nil {
		return ctx, nil, err
	}
	return ContextWithSpan(ctx, span), span, nil
}

// FinishSpan finishes span if it is not nil.
func FinishSpan(span Span) {
	if span != nil {
		span.Finish()
	}
}
