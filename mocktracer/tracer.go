// Package mocktracer provides an in-memory recording implementation of
// opentracez.Tracer.
//
// MockTracer records every span it starts so tests can inspect them, and
// dispatches a snapshot of every finished span to registered handlers and
// collectors. Propagation codecs are registered per format token; the
// package ships a text map codec and a W3C Trace Context codec.
//
// Basic Usage:
//
//	tracer := mocktracer.New(mocktracer.WithDefaultCodecs())
//	defer tracer.Close()
//
//	span, err := tracer.BuildSpan("operation").WithTag("k", "v").Start()
//	if err != nil {
//		return err
//	}
//	span.Finish()
//
//	for _, s := range tracer.FinishedSpans() {
//		fmt.Println(s.OperationName(), s.Context().TraceID())
//	}
package mocktracer

import (
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/zoobzio/clockz"
	"github.com/zoobzio/opentracez"
	"go.uber.org/zap"
)

// SpanHandler is called when a span finishes.
type SpanHandler func(span FinishedSpan)

type handlerEntry struct {
	handler SpanHandler
	id      uint64
	async   bool
}

// MockTracer is an in-memory recording tracer.
// Safe for concurrent use by multiple goroutines.
//
//nolint:govet // Field order optimized for functionality over memory
type MockTracer struct {
	spans        []*MockSpan
	handlers     []handlerEntry
	collectors   map[string]*Collector
	injectors    map[any]opentracez.Injector
	extractors   map[any]opentracez.Extractor
	scopes       opentracez.ScopeManager
	ids          IDGenerator
	clock        clockz.Clock
	logger       *zap.Logger
	panicHook    func(handlerID uint64, r interface{})
	workers      *workerPool
	mu           sync.Mutex
	handlersLock sync.RWMutex
	codecsLock   sync.RWMutex
	nextID       atomic.Uint64
	droppedSpans atomic.Uint64
	sampled      bool
}

var _ opentracez.Tracer = (*MockTracer)(nil)

// Option configures a MockTracer.
type Option func(t *MockTracer)

// WithClock sets the clock used for start and finish times.
// Enables clock injection for deterministic testing.
func WithClock(clock clockz.Clock) Option {
	return func(t *MockTracer) { t.clock = clock }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(t *MockTracer) { t.logger = logger }
}

// WithScopeManager replaces the default goroutine-local scope manager.
func WithScopeManager(scopes opentracez.ScopeManager) Option {
	return func(t *MockTracer) { t.scopes = scopes }
}

// WithIDGenerator sets the id source for new contexts.
func WithIDGenerator(ids IDGenerator) Option {
	return func(t *MockTracer) { t.ids = ids }
}

// WithIDPool serves ids from background-filled pools of the given size.
// The pools are stopped by Close.
func WithIDPool(size int) Option {
	return func(t *MockTracer) { t.ids = NewPooledIDs(size) }
}

// WithSampled sets the sampled flag of new root contexts. Defaults to true.
func WithSampled(sampled bool) Option {
	return func(t *MockTracer) { t.sampled = sampled }
}

// WithInjector registers an injector for format. Format tokens must be
// comparable.
func WithInjector(format any, injector opentracez.Injector) Option {
	return func(t *MockTracer) { t.injectors[format] = injector }
}

// WithExtractor registers an extractor for format.
func WithExtractor(format any, extractor opentracez.Extractor) Option {
	return func(t *MockTracer) { t.extractors[format] = extractor }
}

// WithCodec registers both directions for format.
func WithCodec(format any, injector opentracez.Injector, extractor opentracez.Extractor) Option {
	return func(t *MockTracer) {
		t.injectors[format] = injector
		t.extractors[format] = extractor
	}
}

// New creates a tracer. Without options it uses the real clock, a no-op
// logger, a goroutine-local scope manager, random ids and no codecs.
func New(opts ...Option) *MockTracer {
	t := &MockTracer{
		collectors: make(map[string]*Collector),
		injectors:  make(map[any]opentracez.Injector),
		extractors: make(map[any]opentracez.Extractor),
		scopes:     opentracez.NewGoroutineScopeManager(),
		ids:        RandomIDs{},
		clock:      clockz.RealClock,
		logger:     zap.NewNop(),
		sampled:    true,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// BuildSpan implements opentracez.Tracer.
func (t *MockTracer) BuildSpan(operationName string) *opentracez.SpanBuilder {
	return opentracez.NewSpanBuilder(operationName, t)
}

// StartSpan implements opentracez.Tracer.
func (t *MockTracer) StartSpan(operationName string, opts opentracez.StartSpanOptions) (opentracez.Span, error) {
	span, err := t.startSpan(operationName, opts)
	if err != nil {
		return nil, err
	}
	return span, nil
}

// StartActiveSpan implements opentracez.Tracer.
func (t *MockTracer) StartActiveSpan(operationName string, opts opentracez.StartSpanOptions) (opentracez.Scope, error) {
	span, err := t.startSpan(operationName, opts)
	if err != nil {
		return nil, err
	}
	return t.scopes.Activate(span, opts.FinishSpanOnClose()), nil
}

func (t *MockTracer) startSpan(operationName string, opts opentracez.StartSpanOptions) (*MockSpan, error) {
	parent := t.parentContext(opts)

	var sc *MockSpanContext
	if !opentracez.IsValid(parent) {
		sc = t.rootContext(parent)
	} else {
		mockParent, ok := parent.(*MockSpanContext)
		if !ok {
			return nil, opentracez.InvalidReferenceError(parent)
		}
		sc = CreateAsChildOf(t.ids, mockParent)
	}

	start := opts.StartTime()
	if start.IsZero() {
		start = t.clock.Now()
	}

	span := newMockSpan(t, operationName, sc, start)
	for _, tag := range opts.Tags() {
		span.tags[tag.Key] = tag.Value
	}

	t.mu.Lock()
	t.spans = append(t.spans, span)
	t.mu.Unlock()

	t.logger.Debug("span started",
		zap.String("operation", operationName),
		zap.String("trace_id", sc.traceID),
		zap.String("span_id", sc.spanID),
		zap.String("parent_id", sc.parentID),
	)
	return span, nil
}

// parentContext picks the effective parent: the first ChildOf reference,
// else the first reference, else the active span. Candidates that are not
// ChildOf must be valid or carry a debug id or baggage.
func (t *MockTracer) parentContext(opts opentracez.StartSpanOptions) opentracez.SpanContext {
	var candidate opentracez.SpanContext
	for _, ref := range opts.References() {
		if ref.IsType(opentracez.ChildOfRef) {
			return ref.Context()
		}
		if candidate == nil {
			candidate = ref.Context()
		}
	}

	if candidate == nil && !opts.IgnoreActiveSpan() {
		if active := t.ActiveSpan(); active != nil {
			candidate = active.Context()
		}
	}

	if candidate == nil {
		return nil
	}
	if opentracez.IsValid(candidate) ||
		(!opentracez.IsTraceIDValid(candidate) && opentracez.DebugID(candidate) != "") ||
		opentracez.BaggageCount(candidate) > 0 {
		return candidate
	}
	return nil
}

// rootContext mints a root context. An accepted parent without trace
// identity hands down its baggage and debug id.
func (t *MockTracer) rootContext(parent opentracez.SpanContext) *MockSpanContext {
	if parent == nil {
		return CreateAsRoot(t.ids, t.sampled, nil)
	}
	debugID := opentracez.DebugID(parent)
	sc := CreateAsRoot(t.ids, t.sampled || debugID != "", opentracez.Baggage(parent))
	if debugID != "" {
		sc = sc.WithDebugID(debugID)
	}
	return sc
}

// Inject implements opentracez.Tracer.
func (t *MockTracer) Inject(sc opentracez.SpanContext, format any, carrier any) error {
	t.codecsLock.RLock()
	injector, ok := t.injectors[format]
	t.codecsLock.RUnlock()

	if !ok {
		return opentracez.UnsupportedFormatError(format)
	}
	return injector(sc, carrier)
}

// Extract implements opentracez.Tracer.
func (t *MockTracer) Extract(format any, carrier any) (opentracez.SpanContext, error) {
	t.codecsLock.RLock()
	extractor, ok := t.extractors[format]
	t.codecsLock.RUnlock()

	if !ok {
		return nil, opentracez.UnsupportedFormatError(format)
	}
	return extractor(carrier)
}

// RegisterCodec adds or replaces the codec for format.
func (t *MockTracer) RegisterCodec(format any, injector opentracez.Injector, extractor opentracez.Extractor) {
	t.codecsLock.Lock()
	defer t.codecsLock.Unlock()
	t.injectors[format] = injector
	t.extractors[format] = extractor
}

// ActiveSpan implements opentracez.Tracer.
func (t *MockTracer) ActiveSpan() opentracez.Span {
	if scope := t.scopes.Active(); scope != nil {
		return scope.Span()
	}
	return nil
}

// ScopeManager implements opentracez.Tracer.
func (t *MockTracer) ScopeManager() opentracez.ScopeManager {
	return t.scopes
}

// Spans returns every recorded span in start order.
func (t *MockTracer) Spans() []*MockSpan {
	t.mu.Lock()
	defer t.mu.Unlock()

	spans := make([]*MockSpan, len(t.spans))
	copy(spans, t.spans)
	return spans
}

// FinishedSpans returns the recorded spans that have finished.
func (t *MockTracer) FinishedSpans() []*MockSpan {
	var finished []*MockSpan
	for _, span := range t.Spans() {
		if span.IsFinished() {
			finished = append(finished, span)
		}
	}
	return finished
}

// Flush discards all recorded spans.
func (t *MockTracer) Flush() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.spans = nil
}

// AddCollector registers a collector that buffers finished spans.
func (t *MockTracer) AddCollector(name string, collector *Collector) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.collectors[name] = collector
}

// RemoveCollector unregisters a collector by name.
func (t *MockTracer) RemoveCollector(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.collectors, name)
}

// OnSpanFinish registers a synchronous handler called when spans finish.
func (t *MockTracer) OnSpanFinish(handler SpanHandler) uint64 {
	return t.registerHandler(handler, false)
}

// OnSpanFinishAsync registers an asynchronous handler called when spans
// finish.
func (t *MockTracer) OnSpanFinishAsync(handler SpanHandler) uint64 {
	return t.registerHandler(handler, true)
}

func (t *MockTracer) registerHandler(handler SpanHandler, async bool) uint64 {
	if handler == nil {
		return 0
	}

	id := t.nextID.Add(1)

	t.handlersLock.Lock()
	defer t.handlersLock.Unlock()

	t.handlers = append(t.handlers, handlerEntry{
		id:      id,
		handler: handler,
		async:   async,
	})

	return id
}

// RemoveHandler removes a handler by ID.
func (t *MockTracer) RemoveHandler(id uint64) {
	t.handlersLock.Lock()
	defer t.handlersLock.Unlock()

	// Preserve order
	for i, h := range t.handlers {
		if h.id == id {
			copy(t.handlers[i:], t.handlers[i+1:])
			t.handlers = t.handlers[:len(t.handlers)-1]
			return
		}
	}
}

// HasHandlers reports whether any finish handler is registered.
func (t *MockTracer) HasHandlers() bool {
	t.handlersLock.RLock()
	defer t.handlersLock.RUnlock()
	return len(t.handlers) > 0
}

// SetPanicHook sets a function to be called when a handler panics.
func (t *MockTracer) SetPanicHook(hook func(handlerID uint64, r interface{})) {
	t.handlersLock.Lock()
	defer t.handlersLock.Unlock()
	t.panicHook = hook
}

// spanFinished fans a finished span out to collectors and handlers.
func (t *MockTracer) spanFinished(span FinishedSpan) {
	t.logger.Debug("span finished",
		zap.String("operation", span.Name),
		zap.String("trace_id", span.TraceID),
		zap.String("span_id", span.SpanID),
		zap.Duration("duration", span.Duration),
	)

	t.mu.Lock()
	collectors := make([]*Collector, 0, len(t.collectors))
	for _, c := range t.collectors {
		collectors = append(collectors, c)
	}
	t.mu.Unlock()

	for _, c := range collectors {
		c.Collect(span)
	}

	t.executeHandlers(span)
}

// executeHandlers calls all registered handlers with the finished span.
func (t *MockTracer) executeHandlers(span FinishedSpan) {
	t.handlersLock.RLock()
	if len(t.handlers) == 0 {
		t.handlersLock.RUnlock()
		return
	}

	handlers := make([]handlerEntry, len(t.handlers))
	copy(handlers, t.handlers)
	workers := t.workers
	t.handlersLock.RUnlock()

	for _, h := range handlers {
		if !h.async {
			t.safeCall(h, span)
			continue
		}
		entry := h
		if workers != nil {
			if !workers.submit(func() { t.safeCall(entry, span) }) {
				t.droppedSpans.Add(1)
				t.logger.Warn("async span handler queue full or closed, dropping span",
					zap.Uint64("handler_id", entry.id),
					zap.String("span_id", span.SpanID),
				)
			}
		} else {
			go t.safeCall(entry, span)
		}
	}
}

func (t *MockTracer) safeCall(entry handlerEntry, span FinishedSpan) {
	defer func() {
		if r := recover(); r != nil {
			t.logger.Warn("span handler panicked",
				zap.Uint64("handler_id", entry.id),
				zap.String("span_id", span.SpanID),
				zap.Any("panic", r),
			)
			t.handlersLock.RLock()
			hook := t.panicHook
			t.handlersLock.RUnlock()
			if hook != nil {
				hook(entry.id, r)
			}
		}
	}()
	entry.handler(span)
}

// ignoredMutation logs a write to a finished span. The caller holds the
// span's lock.
func (t *MockTracer) ignoredMutation(s *MockSpan, field zap.Field) {
	t.logger.Warn("ignoring mutation of finished span",
		zap.String("operation", s.operationName),
		zap.String("trace_id", s.context.traceID),
		zap.String("span_id", s.context.spanID),
		field,
	)
}

// EnableWorkerPool creates a bounded worker pool for async handlers.
func (t *MockTracer) EnableWorkerPool(workers, queueSize int) error {
	if workers <= 0 {
		return errors.New("workers must be > 0")
	}
	if queueSize <= 0 {
		return errors.New("queueSize must be > 0")
	}

	t.handlersLock.Lock()
	defer t.handlersLock.Unlock()

	if t.workers != nil {
		return errors.New("worker pool already enabled")
	}
	t.workers = newWorkerPool(workers, queueSize)
	return nil
}

// DroppedSpans returns the number of spans dropped due to full worker queue.
func (t *MockTracer) DroppedSpans() uint64 {
	return t.droppedSpans.Load()
}

// Close shuts down the tracer gracefully and cleans up resources.
// Recorded spans stay available for inspection.
func (t *MockTracer) Close() {
	// Stop new handler executions
	t.handlersLock.Lock()
	t.handlers = nil
	workers := t.workers
	t.workers = nil
	t.handlersLock.Unlock()

	// Wait for in-flight async tasks
	if workers != nil {
		workers.shutdown()
	}

	if pooled, ok := t.ids.(*PooledIDs); ok {
		pooled.Close()
	}
}

// workerPool manages a fixed number of workers for processing async handlers.
//
//nolint:govet // Field order optimized for functionality over memory
type workerPool struct {
	tasks   chan func()
	stop    chan struct{}
	wg      sync.WaitGroup
	mu      sync.RWMutex
	stopped bool
}

func newWorkerPool(workers, queueSize int) *workerPool {
	w := &workerPool{
		tasks: make(chan func(), queueSize),
		stop:  make(chan struct{}),
	}
	w.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go w.run()
	}
	return w
}

func (w *workerPool) run() {
	defer w.wg.Done()
	for {
		select {
		case task := <-w.tasks:
			task()
		case <-w.stop:
			// Run what was queued before shutdown.
			for {
				select {
				case task := <-w.tasks:
					task()
				default:
					return
				}
			}
		}
	}
}

// submit queues task. It reports false when the queue is full or the pool
// has shut down.
func (w *workerPool) submit(task func()) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.stopped {
		return false
	}
	select {
	case w.tasks <- task:
		return true
	default:
		return false
	}
}

// shutdown stops accepting tasks, then waits for the queued ones to run.
func (w *workerPool) shutdown() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	close(w.stop)
	w.mu.Unlock()
	w.wg.Wait()
}
