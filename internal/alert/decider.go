// Package alert decides when a map's status change warrants a notification.
//
// Each target moves through a small state machine keyed on its overall level
// and whether an alert has been sent for the current incident. An incident is
// a contiguous run of Error cycles; it is notified once, when it starts.
package alert

import (
	"sync"
	"time"

	"github.com/sznuper/prtgwatch/internal/status"
)

// Action is what the caller should do after a decision.
type Action int

const (
	None Action = iota
	SendAlert
	SendRecovery
	LogOnly
)

func (a Action) String() string {
	switch a {
	case SendAlert:
		return "send_alert"
	case SendRecovery:
		return "send_recovery"
	case LogOnly:
		return "log_only"
	default:
		return "none"
	}
}

// State is what the decider remembers about one target between cycles.
// AlertActive is only ever true while LastLevel is status.Error.
type State struct {
	LastLevel   status.Level
	AlertActive bool
	// Since is when LastLevel was first observed.
	Since time.Time
}

// Decision is the outcome of one Decide call.
type Decision struct {
	Action Action
	Prev   State
	Next   State
}

// Changed reports whether the overall level moved.
func (d Decision) Changed() bool {
	return d.Prev.LastLevel != d.Next.LastLevel
}

// Decider owns the per-target state. It is safe for concurrent use; every
// Decide is a read-modify-write under one lock, so no caller observes a
// half-updated state.
type Decider struct {
	recovery bool
	now      func() time.Time

	mu     sync.Mutex
	states map[string]State
}

// New creates a Decider. With recovery set, leaving an active incident
// produces SendRecovery instead of None.
func New(recovery bool) *Decider {
	return &Decider{
		recovery: recovery,
		now:      time.Now,
		states:   make(map[string]State),
	}
}

// Decide compares a target's overall level with its state, updates the state
// and returns the action to take. Individual sensor counts play no part.
func (d *Decider) Decide(key string, r status.Result) Decision {
	level := r.Overall

	d.mu.Lock()
	defer d.mu.Unlock()

	prev := d.states[key]
	next := prev
	next.LastLevel = level
	if level != prev.LastLevel || prev.Since.IsZero() {
		next.Since = d.now()
	}

	var action Action
	switch level {
	case status.Error:
		if !prev.AlertActive {
			action = SendAlert
			next.AlertActive = true
		}
	case status.Warning:
		next.AlertActive = false
		switch {
		case prev.AlertActive && d.recovery:
			action = SendRecovery
		case prev.AlertActive:
			action = None
		default:
			action = LogOnly
		}
	default:
		next.AlertActive = false
		if prev.AlertActive && d.recovery {
			action = SendRecovery
		}
	}

	d.states[key] = next
	return Decision{Action: action, Prev: prev, Next: next}
}

// Rearm clears AlertActive for a target still in Error so the next Error
// cycle alerts again. It reports whether anything changed.
func (d *Decider) Rearm(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	s, ok := d.states[key]
	if !ok || !s.AlertActive {
		return false
	}
	s.AlertActive = false
	d.states[key] = s
	return true
}

// State returns a copy of the state for key.
func (d *Decider) State(key string) (State, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.states[key]
	return s, ok
}

// Snapshot returns a copy of every tracked state.
func (d *Decider) Snapshot() map[string]State {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make(map[string]State, len(d.states))
	for k, v := range d.states {
		out[k] = v
	}
	return out
}
