package mocktracer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/zoobzio/opentracez"
)

func TestBaggageImmutability(t *testing.T) {
	ctx1 := NewSpanContext("t", "s", true, map[string]string{"k": "old"})

	ctx2 := ctx1.WithBaggageItem("k", "new")
	ctx3 := ctx2.WithBaggageItem("added", "v")

	v, _ := ctx1.BaggageItem("k")
	assert.Equal(t, "old", v)
	v, _ = ctx2.BaggageItem("k")
	assert.Equal(t, "new", v)

	_, ok := ctx2.BaggageItem("added")
	assert.False(t, ok)
	v, ok = ctx3.BaggageItem("added")
	assert.True(t, ok)
	assert.Equal(t, "v", v)

	// Identity is carried over unchanged.
	assert.Equal(t, "t", ctx3.TraceID())
	assert.Equal(t, "s", ctx3.SpanID())
}

func TestNewSpanContextCopiesBaggage(t *testing.T) {
	items := map[string]string{"k": "v"}
	sc := NewSpanContext("t", "s", false, items)
	items["k"] = "mutated"

	v, _ := sc.BaggageItem("k")
	assert.Equal(t, "v", v)

	out := sc.Baggage()
	out["k"] = "mutated"
	v, _ = sc.BaggageItem("k")
	assert.Equal(t, "v", v)
}

func TestCreateAsChildOf(t *testing.T) {
	parent := CreateAsRoot(nil, false, map[string]string{"k": "v"}).WithDebugID("dbg")
	child := CreateAsChildOf(nil, parent)

	assert.Equal(t, parent.TraceID(), child.TraceID())
	assert.Equal(t, parent.SpanID(), child.ParentID())
	assert.NotEqual(t, parent.SpanID(), child.SpanID())
	assert.False(t, child.Sampled())
	assert.Empty(t, child.DebugID(), "debug ids are not inherited by children")
	assert.Equal(t, map[string]string{"k": "v"}, child.Baggage())
}

func TestSpanContextValidity(t *testing.T) {
	tests := []struct {
		name       string
		sc         *MockSpanContext
		valid      bool
		traceValid bool
	}{
		{"full", NewSpanContext("t", "s", true, nil), true, true},
		{"trace only", NewSpanContext("t", "", true, nil), false, true},
		{"empty", NewSpanContext("", "", true, nil), false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.sc.IsValid())
			assert.Equal(t, tt.traceValid, opentracez.IsTraceIDValid(tt.sc))
		})
	}
}

func TestForeachBaggageItemStops(t *testing.T) {
	sc := NewSpanContext("t", "s", true, map[string]string{"a": "1", "b": "2", "c": "3"})

	var visited int
	sc.ForeachBaggageItem(func(string, string) bool {
		visited++
		return false
	})
	assert.Equal(t, 1, visited)
	assert.Equal(t, 3, opentracez.BaggageCount(sc))
}
