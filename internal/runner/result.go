package runner

import (
	"time"

	"github.com/sznuper/prtgwatch/internal/alert"
	"github.com/sznuper/prtgwatch/internal/status"
)

// Result captures the outcome of processing one target in one cycle.
// Errors are stored in Err/ErrStage rather than returned, so the caller always
// has something to display.
type Result struct {
	Target   string
	MapID    int
	URL      string
	Counts   status.Counts
	Status   status.Result
	Action   alert.Action
	State    alert.State // state after the decision
	Notified []string    // services notified (or would-notify)
	Attempts int
	DryRun   bool
	Duration time.Duration
	Err      error
	ErrStage string // "inspect", "classify", "notify", "panic", "skipped"
}

// Updated reports whether the target's state was evaluated this cycle.
func (r Result) Updated() bool {
	return r.ErrStage == "" || r.ErrStage == "notify"
}
