package timer

import "errors"

// ErrBusy is returned when an animation is started while another runs.
var ErrBusy = errors.New("animation in progress")

// Phase is the animation state of a moving piece.
type Phase string

const (
	Idle      Phase = "idle"
	Animating Phase = "animating"
	Settled   Phase = "settled"
)

// Animation tracks a single piece's phase. Input is accepted only while
// the piece is not animating.
type Animation struct {
	phase Phase
}

// Phase returns the current phase; the zero value is Idle.
func (a *Animation) Phase() Phase {
	if a.phase == "" {
		return Idle
	}
	return a.phase
}

// Busy reports whether an animation is running.
func (a *Animation) Busy() bool {
	return a.phase == Animating
}

// Begin moves to Animating.
func (a *Animation) Begin() error {
	if a.Busy() {
		return ErrBusy
	}
	a.phase = Animating
	return nil
}

// Settle ends the running animation. It reports false if none was running.
func (a *Animation) Settle() bool {
	if !a.Busy() {
		return false
	}
	a.phase = Settled
	return true
}

// Reset returns to Idle.
func (a *Animation) Reset() {
	a.phase = Idle
}

// Restore sets the phase when resuming a level. An animation cannot be
// resumed, so Animating is restored as Settled.
func (a *Animation) Restore(p Phase) {
	if p == Animating {
		p = Settled
	}
	a.phase = p
}
