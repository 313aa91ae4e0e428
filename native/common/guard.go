package common

import "errors"

var (
	ErrModulePaused  = errors.New("module paused")
	ErrReentrantCall = errors.New("reentrant call rejected")
)

type PauseView interface {
	IsPaused(module string) bool
}

func Guard(p PauseView, module string) error {
	if p == nil || module == "" {
		return nil
	}
	if p.IsPaused(module) {
		return ErrModulePaused
	}
	return nil
}

// OpGuard is the per-engine operation state machine. An engine is either idle
// or inside a mutating operation; entering twice without an intervening Exit
// is rejected so intermediate accounting state is never observable.
type OpGuard struct {
	inOperation bool
}

// Enter transitions the guard to the in-operation state.
func (g *OpGuard) Enter() error {
	if g == nil {
		return nil
	}
	if g.inOperation {
		return ErrReentrantCall
	}
	g.inOperation = true
	return nil
}

// Exit returns the guard to idle. Safe on every exit path, including failures.
func (g *OpGuard) Exit() {
	if g == nil {
		return
	}
	g.inOperation = false
}
