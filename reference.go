package opentracez

import "reflect"

// ReferenceType describes the causal relationship of a Reference.
type ReferenceType int

const (
	// ChildOfRef marks a parent the new span's work depends on.
	ChildOfRef ReferenceType = iota

	// FollowsFromRef marks a predecessor that does not wait on the new span.
	FollowsFromRef
)

func (t ReferenceType) String() string {
	switch t {
	case ChildOfRef:
		return "child_of"
	case FollowsFromRef:
		return "follows_from"
	default:
		return "unknown"
	}
}

// Reference is an immutable, typed edge from a span under construction to
// an existing SpanContext.
type Reference struct {
	ctx SpanContext
	typ ReferenceType
}

// NewReference builds a reference of type t to sc. A nil sc, typed or
// not, leaves the reference without a context.
func NewReference(t ReferenceType, sc SpanContext) Reference {
	if isNil(sc) {
		return Reference{typ: t}
	}
	return Reference{typ: t, ctx: sc}
}

// ReferenceForSpan builds a reference of type t to the context of span.
// A nil span, typed or not, leaves the reference without a context.
func ReferenceForSpan(t ReferenceType, span Span) Reference {
	if isNil(span) {
		return Reference{typ: t}
	}
	return NewReference(t, span.Context())
}

// Type returns the reference type.
func (r Reference) Type() ReferenceType {
	return r.typ
}

// Context returns the referenced context.
func (r Reference) Context() SpanContext {
	return r.ctx
}

// IsType reports whether r has type t.
func (r Reference) IsType(t ReferenceType) bool {
	return r.typ == t
}

// isNil reports whether v is nil or an interface holding a nil pointer,
// map, slice, func or channel.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}
