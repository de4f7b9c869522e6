package integration

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zoobzio/opentracez"
	"github.com/zoobzio/opentracez/mocktracer"
)

// TestConcurrentCallChains runs independent request chains on one tracer
// and checks no chain picks up another goroutine's active span.
func TestConcurrentCallChains(t *testing.T) {
	tracer := mocktracer.New(mocktracer.WithIDPool(256))
	defer tracer.Close()

	collector := mocktracer.NewCollector("chains", 4096)
	collector.SetSyncMode(true)
	defer collector.Close()
	tracer.AddCollector("chains", collector)

	const goroutines, depth = 16, 5

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()

			scopes := make([]opentracez.Scope, 0, depth)
			for d := 0; d < depth; d++ {
				scope, err := tracer.BuildSpan(fmt.Sprintf("g%d.d%d", g, d)).StartActive()
				if !assert.NoError(t, err) {
					return
				}
				scopes = append(scopes, scope)
			}
			if ActiveName(tracer) != fmt.Sprintf("g%d.d%d", g, depth-1) {
				t.Errorf("goroutine %d sees active span %q", g, ActiveName(tracer))
			}
			for i := len(scopes) - 1; i >= 0; i-- {
				assert.NoError(t, scopes[i].Close())
			}
		}(g)
	}
	wg.Wait()

	spans := collector.Export()
	require.Len(t, spans, goroutines*depth)

	a := NewTraceAnalyzer(spans)
	assert.Equal(t, goroutines, a.CountTrees())
	assert.Len(t, a.TraceIDs(), goroutines)
	for g := 0; g < goroutines; g++ {
		names := make([]string, depth)
		for d := range names {
			names[d] = fmt.Sprintf("g%d.d%d", g, d)
		}
		assert.NoError(t, a.VerifyChain(names...))
	}

	assert.Zero(t, tracer.ScopeManager().(*opentracez.GoroutineScopeManager).Goroutines())
}

// TestConcurrentHandlersAndFlush races span completion with handler
// registration and Flush.
func TestConcurrentHandlersAndFlush(t *testing.T) {
	tracer := mocktracer.New()
	defer tracer.Close()
	require.NoError(t, tracer.EnableWorkerPool(4, 1024))

	var mu sync.Mutex
	seen := make(map[string]struct{})
	tracer.OnSpanFinishAsync(func(s mocktracer.FinishedSpan) {
		mu.Lock()
		seen[s.SpanID] = struct{}{}
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				span, err := tracer.BuildSpan("op").Start()
				if !assert.NoError(t, err) {
					return
				}
				span.SetTag("i", fmt.Sprint(i))
				span.Finish()
				if i%10 == 0 {
					tracer.Flush()
				}
			}
		}()
	}
	wg.Wait()
	tracer.Close()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, uint64(400), uint64(len(seen))+tracer.DroppedSpans())
}
