package opentracez

import (
	"sync"

	"github.com/petermattis/goid"
)

// GoroutineScopeManager keeps one stack of active scopes per goroutine, so
// concurrent call chains never observe each other's active span. A scope
// belongs to the goroutine that activated it, even if it is closed from
// elsewhere.
type GoroutineScopeManager struct {
	stacks map[int64]scopeStack
	mu     sync.Mutex
}

// NewGoroutineScopeManager returns an empty GoroutineScopeManager.
func NewGoroutineScopeManager() *GoroutineScopeManager {
	return &GoroutineScopeManager{
		stacks: make(map[int64]scopeStack),
	}
}

// Activate implements ScopeManager.
func (m *GoroutineScopeManager) Activate(span Span, finishOnClose bool) Scope {
	gid := goid.Get()
	sc := &scope{span: span, finishOnClose: finishOnClose}
	sc.release = func(s *scope) error { return m.release(gid, s) }

	m.mu.Lock()
	defer m.mu.Unlock()
	m.stacks[gid] = append(m.stacks[gid], sc)
	return sc
}

// Active implements ScopeManager for the calling goroutine.
func (m *GoroutineScopeManager) Active() Scope {
	gid := goid.Get()

	m.mu.Lock()
	defer m.mu.Unlock()

	if top := m.stacks[gid].top(); top != nil {
		return top
	}
	return nil
}

// Goroutines returns the number of goroutines with at least one open scope.
func (m *GoroutineScopeManager) Goroutines() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.stacks)
}

func (m *GoroutineScopeManager) release(gid int64, sc *scope) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stack, err := m.stacks[gid].pop(sc)
	if err != nil {
		return err
	}
	if len(stack) == 0 {
		// Drop empty stacks so finished goroutines do not leak entries.
		delete(m.stacks, gid)
		return nil
	}
	m.stacks[gid] = stack
	return nil
}
