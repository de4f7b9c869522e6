package mocktracer

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"
)

// IDGenerator mints trace and span ids.
type IDGenerator interface {
	// TraceID returns a new trace id.
	TraceID() string

	// SpanID returns a new span id.
	SpanID() string
}

// RandomIDs generates W3C-sized hex ids from crypto/rand: 16 bytes for
// trace ids and 8 bytes for span ids.
type RandomIDs struct{}

// TraceID implements IDGenerator.
func (RandomIDs) TraceID() string {
	return randomHex(16)
}

// SpanID implements IDGenerator.
func (RandomIDs) SpanID() string {
	return randomHex(8)
}

func randomHex(n int) string {
	bytes := make([]byte, n)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to a time-based id if crypto/rand fails.
		now := uint64(time.Now().UnixNano())
		for i := range bytes {
			bytes[i] = byte(now >> (8 * (i % 8)))
		}
	}
	return hex.EncodeToString(bytes)
}

// IDPool manages a pool of pre-generated IDs to amortize crypto/rand overhead.
type IDPool struct {
	factory func() string
	ids     chan string
	stopCh  chan struct{}
	mu      sync.Mutex
	closed  bool
}

// NewIDPool creates a new ID pool with the specified capacity.
func NewIDPool(capacity int, factory func() string) *IDPool {
	pool := &IDPool{
		ids:     make(chan string, capacity),
		factory: factory,
		stopCh:  make(chan struct{}),
	}
	// Start background refill goroutine.
	go pool.refill()
	return pool
}

// Get retrieves an ID from the pool or generates one if pool is empty.
func (p *IDPool) Get() string {
	select {
	case id := <-p.ids:
		return id
	default:
		// Pool empty, generate directly (fallback for burst load).
		return p.factory()
	}
}

// refill maintains the pool by generating IDs in background.
func (p *IDPool) refill() {
	for {
		select {
		case <-p.stopCh:
			return
		case p.ids <- p.factory():
		}
	}
}

// Close stops the refill goroutine. Get keeps working afterwards by
// generating ids directly.
func (p *IDPool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.closed {
		close(p.stopCh)
		p.closed = true
	}
}

// PooledIDs is an IDGenerator backed by two IDPools.
type PooledIDs struct {
	traceIDs *IDPool
	spanIDs  *IDPool
}

// NewPooledIDs returns RandomIDs-compatible ids served from pools holding up
// to size ids each.
func NewPooledIDs(size int) *PooledIDs {
	var gen RandomIDs
	return &PooledIDs{
		traceIDs: NewIDPool(size, gen.TraceID),
		spanIDs:  NewIDPool(size, gen.SpanID),
	}
}

// TraceID implements IDGenerator.
func (p *PooledIDs) TraceID() string {
	return p.traceIDs.Get()
}

// SpanID implements IDGenerator.
func (p *PooledIDs) SpanID() string {
	return p.spanIDs.Get()
}

// Close stops both pools.
func (p *PooledIDs) Close() {
	p.traceIDs.Close()
	p.spanIDs.Close()
}
