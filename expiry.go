package goSession

import (
	"context"
	"sync"
	"time"
)

// expiryScheduler owns the single pending expiry action.
//
// Arming always cancels the previous action first, so at most one action is live. Each
// action runs with a context that is cancelled when it is superseded or cancelled.
type expiryScheduler struct {
	mu     sync.Mutex
	clock  Clock
	gen    uint64
	timer  Timer
	cancel context.CancelFunc
}

func newExpiryScheduler(clock Clock) *expiryScheduler {
	return &expiryScheduler{clock: clock}
}

// arm replaces any pending action with fn, due after d.
func (s *expiryScheduler) arm(d time.Duration, fn func(ctx context.Context)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()
	s.gen++
	gen := s.gen
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.timer = s.clock.AfterFunc(d, func() {
		s.mu.Lock()
		if s.gen != gen {
			s.mu.Unlock()
			return
		}
		s.timer = nil
		s.mu.Unlock()
		fn(ctx)
	})
}

// stop cancels the pending action and any action task still running.
func (s *expiryScheduler) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *expiryScheduler) stopLocked() {
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// pending reports whether an action is armed and has not fired.
func (s *expiryScheduler) pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

type expiryAction uint8

const (
	expiryNone expiryAction = iota
	expiryNow
	expiryLogout
	expiryPrompt
)

// expiryPlan decides what to do with a credential that has timeLeft remaining.
func expiryPlan(timeLeft, buffer time.Duration, privileged bool) (expiryAction, time.Duration) {
	switch {
	case timeLeft <= 0:
		return expiryNow, 0
	case !privileged:
		return expiryLogout, timeLeft
	case timeLeft <= buffer:
		return expiryNow, 0
	default:
		return expiryPrompt, timeLeft - buffer
	}
}
