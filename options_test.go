package opentracez

import (
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStartSpanOptions(t *testing.T) {
	parent := NoopSpanContext{}
	start := time.Unix(1700000000, 0)

	opts, err := NewStartSpanOptions(
		ChildOf(parent),
		FollowsFrom(parent),
		WithReference(NewReference(FollowsFromRef, parent)),
		WithTag("k", "v"),
		WithStartTime(start),
		FinishOnClose(false),
	)
	require.NoError(t, err)

	assert.Len(t, opts.References(), 3)
	assert.Equal(t, []Tag{{Key: "k", Value: "v"}}, opts.Tags())
	assert.Equal(t, start, opts.StartTime())
	assert.False(t, opts.FinishSpanOnClose())
	assert.False(t, opts.IgnoreActiveSpan())
}

func TestNewStartSpanOptionsConflict(t *testing.T) {
	_, err := NewStartSpanOptions(IgnoreActiveSpan(), ChildOf(NoopSpanContext{}))
	assert.True(t, errors.Is(err, ErrUsage))

	_, err = NewStartSpanOptions(ChildOf(NoopSpanContext{}), IgnoreActiveSpan())
	assert.True(t, errors.Is(err, ErrUsage))
}

func TestDefaultStartSpanOptions(t *testing.T) {
	opts := DefaultStartSpanOptions()
	assert.True(t, opts.FinishSpanOnClose())
	assert.False(t, opts.IgnoreActiveSpan())
	assert.Empty(t, opts.References())
	assert.Empty(t, opts.Tags())
}

func TestReferenceAccessors(t *testing.T) {
	sc := NoopSpanContext{}
	ref := NewReference(FollowsFromRef, sc)

	assert.Equal(t, FollowsFromRef, ref.Type())
	assert.Equal(t, sc, ref.Context())
	assert.True(t, ref.IsType(FollowsFromRef))
	assert.False(t, ref.IsType(ChildOfRef))

	assert.Equal(t, "child_of", ChildOfRef.String())
	assert.Equal(t, "follows_from", FollowsFromRef.String())

	span := noopSpan{name: "op"}
	assert.True(t, ReferenceForSpan(ChildOfRef, span).IsType(ChildOfRef))
}

func TestErrorConstructors(t *testing.T) {
	err := UnsupportedFormatError("binary")
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
	assert.Contains(t, err.Error(), "binary")
	assert.NotEmpty(t, errors.GetAllHints(err))

	err = InvalidReferenceError(NoopSpanContext{})
	assert.True(t, errors.Is(err, ErrInvalidReferenceArgument))
	assert.Contains(t, err.Error(), "NoopSpanContext")

	err = UsageError("scope %q closed twice", "op")
	assert.True(t, errors.Is(err, ErrUsage))
	assert.False(t, errors.Is(err, ErrUnsupportedFormat))
}
