package mocktracer

import (
	"encoding/hex"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomIDsLengths(t *testing.T) {
	var ids RandomIDs

	traceID := ids.TraceID()
	assert.Len(t, traceID, 32)
	_, err := hex.DecodeString(traceID)
	assert.NoError(t, err, "trace id is hex")

	assert.Len(t, ids.SpanID(), 16)
}

func TestRandomIDsUnique(t *testing.T) {
	var ids RandomIDs
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		id := ids.SpanID()
		require.NotContains(t, seen, id, "duplicate span id after %d draws", i)
		seen[id] = struct{}{}
	}
}

func TestIDPoolServesFactoryIDs(t *testing.T) {
	pool := NewIDPool(4, func() string { return "pooled" })
	defer pool.Close()

	assert.Equal(t, "pooled", pool.Get())
}

func TestIDPoolFallsBackWhenDrained(t *testing.T) {
	var calls atomic.Int64
	pool := NewIDPool(1, func() string {
		calls.Add(1)
		return "id"
	})
	defer pool.Close()

	for i := 0; i < 10; i++ {
		assert.Equal(t, "id", pool.Get())
	}
	// Ten ids from a pool of one means the factory ran on demand too.
	assert.GreaterOrEqual(t, calls.Load(), int64(2))
}

func TestIDPoolConcurrentGet(t *testing.T) {
	var n atomic.Int64
	pool := NewIDPool(32, func() string {
		return hex.EncodeToString([]byte{byte(n.Add(1))})
	})
	defer pool.Close()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				assert.NotEmpty(t, pool.Get())
			}
		}()
	}
	wg.Wait()
}

func TestIDPoolCloseIsIdempotent(t *testing.T) {
	pool := NewIDPool(2, func() string { return "x" })
	pool.Close()
	pool.Close()

	// Get keeps working after Close.
	done := make(chan string, 1)
	go func() { done <- pool.Get() }()
	select {
	case id := <-done:
		assert.Equal(t, "x", id)
	case <-time.After(time.Second):
		t.Fatal("Get blocked after Close")
	}
}

func TestPooledIDs(t *testing.T) {
	ids := NewPooledIDs(8)
	defer ids.Close()

	assert.Len(t, ids.TraceID(), 32)
	assert.Len(t, ids.SpanID(), 16)
}
