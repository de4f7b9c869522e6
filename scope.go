package opentracez

import "sync"

// Scope marks a span as active until it is closed.
type Scope interface {
	// Span returns the span held by the scope.
	Span() Span

	// Close deactivates the scope and, if requested at activation,
	// finishes its span. Closing a scope that is not the innermost active
	// scope, or closing it twice, returns an ErrUsage error and leaves the
	// active stack untouched.
	Close() error
}

// ScopeManager tracks the stack of active scopes.
type ScopeManager interface {
	// Activate pushes span as the new active span.
	Activate(span Span, finishOnClose bool) Scope

	// Active returns the innermost open scope, or nil.
	Active() Scope
}

// scopeStack is a LIFO of open scopes. Callers provide locking.
type scopeStack []*scope

func (s scopeStack) top() *scope {
	if len(s) == 0 {
		return nil
	}
	return s[len(s)-1]
}

// pop removes sc if it is the top of the stack.
func (s scopeStack) pop(sc *scope) (scopeStack, error) {
	top := s.top()
	if top == sc {
		s[len(s)-1] = nil
		return s[:len(s)-1], nil
	}
	for _, open := range s {
		if open == sc {
			return s, UsageError("scope for %q closed out of order", sc.span.OperationName())
		}
	}
	return s, UsageError("scope for %q is not active", sc.span.OperationName())
}

type scope struct {
	span          Span
	release       func(*scope) error
	finishOnClose bool
}

func (s *scope) Span() Span {
	return s.span
}

func (s *scope) Close() error {
	if err := s.release(s); err != nil {
		return err
	}
	if s.finishOnClose {
		s.span.Finish()
	}
	return nil
}

// StackScopeManager keeps a single stack of active scopes. It is meant to
// be owned by one logical call chain, such as a request handler.
type StackScopeManager struct {
	stack scopeStack
	mu    sync.Mutex
}

// NewStackScopeManager returns an empty StackScopeManager.
func NewStackScopeManager() *StackScopeManager {
	return &StackScopeManager{}
}

// Activate implements ScopeManager.
func (m *StackScopeManager) Activate(span Span, finishOnClose bool) Scope {
	sc := &scope{span: span, finishOnClose: finishOnClose, release: m.release}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.stack = append(m.stack, sc)
	return sc
}

// Active implements ScopeManager.
func (m *StackScopeManager) Active() Scope {
	m.mu.Lock()
	defer m.mu.Unlock()

	if top := m.stack.top(); top != nil {
		return top
	}
	return nil
}

// Depth returns the number of open scopes.
func (m *StackScopeManager) Depth() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.stack)
}

func (m *StackScopeManager) release(sc *scope) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stack, err := m.stack.pop(sc)
	if err != nil {
		return err
	}
	m.stack = stack
	return nil
}
