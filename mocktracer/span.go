package mocktracer

import (
	"sync"
	"time"

	"github.com/zoobzio/opentracez"
	"go.uber.org/zap"
)

// FinishedSpan is an immutable snapshot of a span taken when it finishes.
// It is what handlers and collectors receive.
//
//nolint:govet // Field alignment optimized for JSON serialization order
type FinishedSpan struct {
	Tags       map[string]string `json:"tags,omitempty"`
	Baggage    map[string]string `json:"baggage,omitempty"`
	StartTime  time.Time         `json:"start_time"`
	FinishTime time.Time         `json:"finish_time"`
	Duration   time.Duration     `json:"duration"`
	TraceID    string            `json:"trace_id"`
	SpanID     string            `json:"span_id"`
	ParentID   string            `json:"parent_id,omitempty"`
	Name       string            `json:"name"`
	Sampled    bool              `json:"sampled"`
}

// MockSpan is the Span produced by MockTracer.
// Safe for concurrent use by multiple goroutines. Mutations after Finish
// are ignored.
type MockSpan struct {
	startTime     time.Time
	finishTime    time.Time
	tracer        *MockTracer
	context       *MockSpanContext
	tags          map[string]string
	operationName string
	mu            sync.Mutex
	finished      bool
}

var _ opentracez.Span = (*MockSpan)(nil)

func newMockSpan(tracer *MockTracer, name string, sc *MockSpanContext, start time.Time) *MockSpan {
	return &MockSpan{
		tracer:        tracer,
		operationName: name,
		context:       sc,
		startTime:     start,
		tags:          make(map[string]string),
	}
}

// Context implements opentracez.Span.
func (s *MockSpan) Context() opentracez.SpanContext {
	return s.context
}

// MockContext returns the span's context with its concrete type.
func (s *MockSpan) MockContext() *MockSpanContext {
	return s.context
}

// OperationName implements opentracez.Span.
func (s *MockSpan) OperationName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.operationName
}

// SetOperationName implements opentracez.Span.
func (s *MockSpan) SetOperationName(name string) opentracez.Span {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.finished {
		s.tracer.ignoredMutation(s, zap.String("operation_name", name))
		return s
	}
	s.operationName = name
	return s
}

// SetTag implements opentracez.Span.
func (s *MockSpan) SetTag(key, value string) opentracez.Span {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Don't modify finished spans.
	if s.finished {
		s.tracer.ignoredMutation(s, zap.String("tag", key))
		return s
	}
	s.tags[key] = value
	return s
}

// Tag implements opentracez.Span.
func (s *MockSpan) Tag(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.tags[key]
	return v, ok
}

// Tags implements opentracez.Span.
func (s *MockSpan) Tags() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyBaggage(s.tags, 0)
}

// StartTime implements opentracez.Span.
func (s *MockSpan) StartTime() time.Time {
	return s.startTime
}

// FinishTime returns the finish time, or the zero time while the span is
// open.
func (s *MockSpan) FinishTime() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finishTime
}

// Duration returns the span duration, or zero while the span is open.
func (s *MockSpan) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.finished {
		return 0
	}
	return s.finishTime.Sub(s.startTime)
}

// Finish implements opentracez.Span.
// Safe to call multiple times - subsequent calls are no-ops.
func (s *MockSpan) Finish() {
	s.FinishWithTime(s.tracer.clock.Now())
}

// FinishWithTime implements opentracez.Span.
func (s *MockSpan) FinishWithTime(t time.Time) {
	s.mu.Lock()
	// Prevent double-finishing.
	if s.finished {
		s.mu.Unlock()
		return
	}
	s.finished = true
	s.finishTime = t
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	// Dispatch outside the lock so handlers may read the span.
	s.tracer.spanFinished(snapshot)
}

// IsFinished implements opentracez.Span.
func (s *MockSpan) IsFinished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finished
}

// Tracer implements opentracez.Span.
func (s *MockSpan) Tracer() opentracez.Tracer {
	return s.tracer
}

// Snapshot returns the current state of the span.
func (s *MockSpan) Snapshot() FinishedSpan {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *MockSpan) snapshotLocked() FinishedSpan {
	fs := FinishedSpan{
		Name:       s.operationName,
		TraceID:    s.context.traceID,
		SpanID:     s.context.spanID,
		ParentID:   s.context.parentID,
		Sampled:    s.context.sampled,
		StartTime:  s.startTime,
		FinishTime: s.finishTime,
		Tags:       copyBaggage(s.tags, 0),
		Baggage:    s.context.Baggage(),
	}
	if s.finished {
		fs.Duration = s.finishTime.Sub(s.startTime)
	}
	return fs
}
