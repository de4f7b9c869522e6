package opentracez

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

var (
	// ErrUnsupportedFormat is returned by Inject and Extract when no codec
	// is registered for the requested format.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrInvalidReferenceArgument is returned when a parent context was
	// produced by an incompatible tracer implementation.
	ErrInvalidReferenceArgument = errors.New("invalid reference argument")

	// ErrUsage marks instrumentation mistakes such as mixing
	// IgnoreActiveSpan with explicit references or closing scopes out of
	// order.
	ErrUsage = errors.New("usage error")
)

// UnsupportedFormatError reports that format has no registered codec.
func UnsupportedFormatError(format any) error {
	err := errors.Wrapf(ErrUnsupportedFormat, "format %s", formatName(format))
	return errors.WithHint(err, "register an injector and extractor for the format on the tracer")
}

// InvalidReferenceError reports that sc is not a context this tracer
// understands.
func InvalidReferenceError(sc SpanContext) error {
	return errors.Wrapf(ErrInvalidReferenceArgument, "context of type %T", sc)
}

// UsageError wraps ErrUsage with a description of the misuse.
func UsageError(format string, args ...any) error {
	return errors.Wrapf(ErrUsage, format, args...)
}

func formatName(format any) string {
	if s, ok := format.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%v", format)
}
