package reconcile

import (
	"sync"
	"time"
)

// DefaultDuration is the length of every chart transition.
const DefaultDuration = 600 * time.Millisecond

// Ease maps linear progress in [0,1] to eased progress in [0,1].
type Ease func(float64) float64

// CubicInOut accelerates through the first half and decelerates through the
// second.
func CubicInOut(t float64) float64 {
	t *= 2
	if t <= 1 {
		return t * t * t / 2
	}
	t -= 2
	return (t*t*t + 2) / 2
}

// Linear is the identity easing.
func Linear(t float64) float64 { return t }

// Transition is one timed animation shared by all changes of a [Result].
// A Transition may be canceled from any goroutine.
type Transition struct {
	Duration time.Duration
	Ease     Ease
	Start    time.Time

	once sync.Once
	done chan struct{}
}

// NewTransition starts a transition at start. A zero duration finishes
// immediately; a nil ease is [CubicInOut].
func NewTransition(start time.Time, d time.Duration, ease Ease) *Transition {
	if ease == nil {
		ease = CubicInOut
	}
	return &Transition{Duration: d, Ease: ease, Start: start, done: make(chan struct{})}
}

// Progress returns the eased progress at now, clamped to [0,1].
func (t *Transition) Progress(now time.Time) float64 {
	if t.Duration <= 0 || t.Canceled() {
		return 1
	}
	lin := float64(now.Sub(t.Start)) / float64(t.Duration)
	switch {
	case lin <= 0:
		return 0
	case lin >= 1:
		return 1
	}
	return t.Ease(lin)
}

// Finished reports whether the transition has run its course at now.
func (t *Transition) Finished(now time.Time) bool {
	return t.Canceled() || !now.Before(t.Start.Add(t.Duration))
}

// Cancel stops the transition. Canceling twice is harmless.
func (t *Transition) Cancel() {
	t.once.Do(func() { close(t.done) })
}

// Canceled reports whether Cancel was called.
func (t *Transition) Canceled() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Done is closed when the transition is canceled.
func (t *Transition) Done() <-chan struct{} { return t.done }
