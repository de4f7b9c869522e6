// Package integration holds cross-package tests that run several tracers
// as if they were separate services.
package integration

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/opentracing/opentracing-go"
	"github.com/zoobzio/clockz"
	"github.com/zoobzio/opentracez"
	"github.com/zoobzio/opentracez/mocktracer"
)

// advancingClock is a clock tests can move forward.
type advancingClock interface {
	clockz.Clock
	Advance(d time.Duration)
}

// Mesh is a set of services whose tracers all feed one collector.
//
//nolint:govet // Field alignment optimized for test helper readability
type Mesh struct {
	Collector *mocktracer.Collector
	Clock     advancingClock
	services  map[string]*Service
	mu        sync.Mutex
}

// NewMesh returns an empty mesh with a synchronous collector.
func NewMesh(t *testing.T) *Mesh {
	t.Helper()
	collector := mocktracer.NewCollector("mesh", 1024)
	collector.SetSyncMode(true)

	m := &Mesh{
		Collector: collector,
		Clock:     clockz.NewFakeClock(),
		services:  make(map[string]*Service),
	}
	t.Cleanup(func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for _, svc := range m.services {
			svc.Tracer.Close()
		}
		collector.Close()
	})
	return m
}

// AddService registers a service with its own tracer.
func (m *Mesh) AddService(name string, opts ...mocktracer.Option) *Service {
	opts = append([]mocktracer.Option{
		mocktracer.WithDefaultCodecs(),
		mocktracer.WithClock(m.Clock),
	}, opts...)

	tracer := mocktracer.New(opts...)
	tracer.AddCollector("mesh", m.Collector)

	svc := &Service{Name: name, Tracer: tracer, mesh: m}
	m.mu.Lock()
	m.services[name] = svc
	m.mu.Unlock()
	return svc
}

// Service is a simulated process that receives trace context in HTTP
// headers.
type Service struct {
	Tracer *mocktracer.MockTracer
	mesh   *Mesh
	Name   string
}

// Handle runs operation as a server span continuing the trace found in
// header, then calls each downstream service in turn.
func (s *Service) Handle(header http.Header, operation string, downstream ...*Service) error {
	parent, err := s.Tracer.Extract(opentracing.HTTPHeaders, opentracing.HTTPHeadersCarrier(header))
	if err != nil {
		return errors.Wrapf(err, "%s: extract", s.Name)
	}

	scope, err := s.Tracer.BuildSpan(s.Name+"."+operation).
		AsChildOf(parent).
		WithTag("service", s.Name).
		StartActive()
	if err != nil {
		return err
	}
	defer scope.Close()

	s.mesh.Clock.Advance(time.Millisecond)

	for _, next := range downstream {
		if err := s.Call(next, operation); err != nil {
			scope.Span().SetTag("error", "true")
			return err
		}
	}
	return nil
}

// Call makes a client span under the active span and forwards its context
// to next.
func (s *Service) Call(next *Service, operation string) error {
	client, err := s.Tracer.BuildSpan("call." + next.Name).
		WithTag("peer.service", next.Name).
		Start()
	if err != nil {
		return err
	}
	defer client.Finish()

	header := http.Header{}
	if err := s.Tracer.Inject(client.Context(), opentracing.HTTPHeaders, opentracing.HTTPHeadersCarrier(header)); err != nil {
		return err
	}
	return next.Handle(header, operation)
}

// Root starts a trace at s and runs operation through downstream.
func (s *Service) Root(operation string, downstream ...*Service) error {
	return s.Handle(http.Header{}, operation, downstream...)
}

// SpanTree is a hierarchical view of finished spans.
type SpanTree struct {
	Span     mocktracer.FinishedSpan
	Children []*SpanTree
}

// BuildSpanTree links spans by parent id. Spans whose parent is not in the
// list become roots.
func BuildSpanTree(spans []mocktracer.FinishedSpan) []*SpanTree {
	nodes := make(map[string]*SpanTree, len(spans))
	for _, span := range spans {
		nodes[span.SpanID] = &SpanTree{Span: span}
	}

	var roots []*SpanTree
	for _, span := range spans {
		node := nodes[span.SpanID]
		if parent, ok := nodes[span.ParentID]; ok && span.ParentID != "" {
			parent.Children = append(parent.Children, node)
			continue
		}
		roots = append(roots, node)
	}
	return roots
}

// PrintSpanTree formats trees for failure messages.
func PrintSpanTree(trees []*SpanTree) string {
	var sb strings.Builder
	for _, tree := range trees {
		printTreeNode(&sb, tree, 0)
	}
	return sb.String()
}

func printTreeNode(sb *strings.Builder, node *SpanTree, depth int) {
	fmt.Fprintf(sb, "%s%s [%s]\n", strings.Repeat("  ", depth), node.Span.Name, node.Span.SpanID)
	for _, child := range node.Children {
		printTreeNode(sb, child, depth+1)
	}
}

// TraceAnalyzer answers questions about a set of finished spans.
type TraceAnalyzer struct {
	byID   map[string]mocktracer.FinishedSpan
	byName map[string][]mocktracer.FinishedSpan
	trees  []*SpanTree
}

// NewTraceAnalyzer indexes spans.
func NewTraceAnalyzer(spans []mocktracer.FinishedSpan) *TraceAnalyzer {
	a := &TraceAnalyzer{
		byID:   make(map[string]mocktracer.FinishedSpan, len(spans)),
		byName: make(map[string][]mocktracer.FinishedSpan),
		trees:  BuildSpanTree(spans),
	}
	for _, span := range spans {
		a.byID[span.SpanID] = span
		a.byName[span.Name] = append(a.byName[span.Name], span)
	}
	return a
}

// Named returns spans with the given operation name.
func (a *TraceAnalyzer) Named(name string) []mocktracer.FinishedSpan {
	return a.byName[name]
}

// CountTrees returns the number of root spans.
func (a *TraceAnalyzer) CountTrees() int {
	return len(a.trees)
}

// TraceIDs returns the distinct trace ids.
func (a *TraceAnalyzer) TraceIDs() map[string]struct{} {
	ids := make(map[string]struct{})
	for _, span := range a.byID {
		ids[span.TraceID] = struct{}{}
	}
	return ids
}

// VerifyChain checks that the first span of each name is the child of the
// first span of the previous name.
func (a *TraceAnalyzer) VerifyChain(names ...string) error {
	if len(names) < 2 {
		return errors.New("chain requires at least 2 spans")
	}

	var prev *mocktracer.FinishedSpan
	for i, name := range names {
		spans := a.byName[name]
		if len(spans) == 0 {
			return errors.Newf("span %q not found", name)
		}
		span := spans[0]
		if prev != nil {
			if span.ParentID != prev.SpanID {
				return errors.Newf("broken chain: %s is not a child of %s", name, names[i-1])
			}
			if span.TraceID != prev.TraceID {
				return errors.Newf("broken chain: %s left trace %s", name, prev.TraceID)
			}
		}
		prev = &span
	}
	return nil
}

// ActiveName returns the operation name of tracer's active span, or "".
func ActiveName(tracer opentracez.Tracer) string {
	if span := tracer.ActiveSpan(); span != nil {
		return span.OperationName()
	}
	return ""
}
