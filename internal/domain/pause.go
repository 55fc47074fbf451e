package domain

import "sync"

// PauseGate is the engine-wide circuit breaker. Every value-moving operation
// consults it before touching state. The gate starts open (unpaused) and is
// toggled only through the two guarded transitions below; callers hold an
// explicit handle rather than reading package-global state.
type PauseGate struct {
	mu     sync.RWMutex
	paused bool
}

func NewPauseGate() *PauseGate {
	return &PauseGate{}
}

func (g *PauseGate) Pause() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.paused {
		return ErrAlreadyPaused
	}
	g.paused = true
	return nil
}

func (g *PauseGate) Unpause() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.paused {
		return ErrNotPaused
	}
	g.paused = false
	return nil
}

// RequireNotPaused fails with ErrEnginePaused while the gate is closed.
// Invoked before any state mutation, so no partial transfer can occur
// during a pause window.
func (g *PauseGate) RequireNotPaused() error {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.paused {
		return ErrEnginePaused
	}
	return nil
}

func (g *PauseGate) Paused() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.paused
}
