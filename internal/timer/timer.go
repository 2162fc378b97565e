// Package timer implements the focus/break countdown used while working
// through a task's sessions.
package timer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/p-n-ai/aura-planner/internal/plan"
)

// Phase is the part of the cycle the timer is in.
type Phase string

const (
	PhaseFocus Phase = "focus"
	PhaseBreak Phase = "break"
)

// Snapshot is a point-in-time view of a Timer.
type Snapshot struct {
	Phase     Phase
	Remaining time.Duration
	Progress  int // percent of the current phase elapsed
	Active    bool
	Cycles    int // focus phases completed
}

// Timer counts down a focus block followed by a break. It does not own a
// clock: callers advance it with Tick, or drive it with Run.
type Timer struct {
	mu         sync.Mutex
	focus      time.Duration
	brk        time.Duration
	phase      Phase
	remaining  time.Duration
	active     bool
	cycles     int
	onComplete func()
}

// New creates a paused timer at the start of a focus phase. onComplete, if
// set, fires each time a focus phase runs out.
func New(focus, brk time.Duration, onComplete func()) *Timer {
	return &Timer{
		focus:      focus,
		brk:        brk,
		phase:      PhaseFocus,
		remaining:  focus,
		onComplete: onComplete,
	}
}

// FromPreferences sizes the phases from the pomodoro and break lengths.
func FromPreferences(p plan.Preferences, onComplete func()) *Timer {
	return New(
		time.Duration(p.PomodoroLength)*time.Minute,
		time.Duration(p.BreakLength)*time.Minute,
		onComplete,
	)
}

func (t *Timer) Start() {
	t.mu.Lock()
	t.active = true
	t.mu.Unlock()
}

func (t *Timer) Pause() {
	t.mu.Lock()
	t.active = false
	t.mu.Unlock()
}

// Toggle flips between running and paused.
func (t *Timer) Toggle() {
	t.mu.Lock()
	t.active = !t.active
	t.mu.Unlock()
}

// Reset stops the timer and rewinds it to a full focus phase. Completed
// cycles are kept.
func (t *Timer) Reset() {
	t.mu.Lock()
	t.active = false
	t.phase = PhaseFocus
	t.remaining = t.focus
	t.mu.Unlock()
}

// Tick advances a running timer by elapsed. When the phase runs out the
// timer stops and switches phase; elapsed beyond the end of a phase is
// dropped. It reports whether a phase ended.
func (t *Timer) Tick(elapsed time.Duration) bool {
	t.mu.Lock()
	if !t.active || elapsed <= 0 {
		t.mu.Unlock()
		return false
	}

	t.remaining -= elapsed
	if t.remaining > 0 {
		t.mu.Unlock()
		return false
	}

	t.active = false
	var fire func()
	if t.phase == PhaseFocus {
		t.cycles++
		t.phase = PhaseBreak
		t.remaining = t.brk
		fire = t.onComplete
	} else {
		t.phase = PhaseFocus
		t.remaining = t.focus
	}
	t.mu.Unlock()

	if fire != nil {
		fire()
	}
	return true
}

// Snapshot returns the current state.
func (t *Timer) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	total := t.focus
	if t.phase == PhaseBreak {
		total = t.brk
	}
	progress := 0
	if total > 0 {
		progress = int((total - t.remaining) * 100 / total)
	}
	return Snapshot{
		Phase:     t.phase,
		Remaining: t.remaining,
		Progress:  progress,
		Active:    t.active,
		Cycles:    t.cycles,
	}
}

// Run drives the timer through the given number of focus+break cycles,
// advancing it by step on every receive from ticks and restarting it at
// each phase boundary. onTick, if set, sees the state after every step.
func (t *Timer) Run(ctx context.Context, ticks <-chan time.Time, step time.Duration, cycles int, onTick func(Snapshot)) error {
	if cycles <= 0 {
		return nil
	}
	if step <= 0 {
		return fmt.Errorf("timer step must be positive, got %s", step)
	}

	start := t.Snapshot().Cycles
	t.Start()
	for {
		select {
		case <-ctx.Done():
			t.Pause()
			return ctx.Err()
		case <-ticks:
		}

		ended := t.Tick(step)
		snap := t.Snapshot()
		if onTick != nil {
			onTick(snap)
		}
		if !ended {
			continue
		}
		if snap.Phase == PhaseFocus && snap.Cycles-start >= cycles {
			return nil
		}
		t.Start()
	}
}

// Format renders d as m:ss, rounding up to the next whole second.
func Format(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int((d + time.Second - 1) / time.Second)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}
