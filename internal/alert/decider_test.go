package alert

import (
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/sznuper/prtgwatch/internal/status"
)

func result(level status.Level) status.Result {
	return status.Result{Overall: level}
}

func TestDecide_Scenarios(t *testing.T) {
	d := New(false)

	// A: all ok from the initial state
	r, err := status.Classify(status.Counts{status.MarkerOK: 5})
	if err != nil {
		t.Fatal(err)
	}
	dec := d.Decide("core", r)
	if r.Overall != status.OK || dec.Action != None {
		t.Errorf("A: level=%s action=%s, want ok/none", r.Overall, dec.Action)
	}

	// B: one error sensor
	r, _ = status.Classify(status.Counts{status.MarkerError: 1, status.MarkerOK: 4})
	dec = d.Decide("core", r)
	if r.Overall != status.Error || dec.Action != SendAlert {
		t.Errorf("B: level=%s action=%s, want error/send_alert", r.Overall, dec.Action)
	}
	if s, _ := d.State("core"); s.LastLevel != status.Error || !s.AlertActive {
		t.Errorf("B: state = %+v, want (error, true)", s)
	}

	// C: same again, deduplicated
	dec = d.Decide("core", r)
	if dec.Action != None {
		t.Errorf("C: action = %s, want none", dec.Action)
	}
	if s, _ := d.State("core"); s.LastLevel != status.Error || !s.AlertActive {
		t.Errorf("C: state = %+v, want (error, true)", s)
	}

	// D: back to ok
	r, _ = status.Classify(status.Counts{status.MarkerOK: 5})
	dec = d.Decide("core", r)
	if dec.Action != None {
		t.Errorf("D: action = %s, want none", dec.Action)
	}
	if s, _ := d.State("core"); s.LastLevel != status.OK || s.AlertActive {
		t.Errorf("D: state = %+v, want (ok, false)", s)
	}
}

func TestDecide_Transitions(t *testing.T) {
	tests := []struct {
		name     string
		recovery bool
		seq      []status.Level
		want     []Action
	}{
		{"warning is log only", false, []status.Level{status.OK, status.Warning, status.Warning}, []Action{None, LogOnly, LogOnly}},
		{"first observation warning", false, []status.Level{status.Warning}, []Action{LogOnly}},
		{"first observation error", false, []status.Level{status.Error}, []Action{SendAlert}},
		{"error to warning clears silently", false, []status.Level{status.Error, status.Warning, status.Error}, []Action{SendAlert, None, SendAlert}},
		{"warning to error alerts", false, []status.Level{status.Warning, status.Error, status.Error}, []Action{LogOnly, SendAlert, None}},
		{"recovery to ok", true, []status.Level{status.Error, status.OK, status.OK}, []Action{SendAlert, SendRecovery, None}},
		{"recovery to warning", true, []status.Level{status.Error, status.Warning, status.Warning}, []Action{SendAlert, SendRecovery, LogOnly}},
		{"no recovery without incident", true, []status.Level{status.Warning, status.OK}, []Action{LogOnly, None}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := New(tt.recovery)
			for i, level := range tt.seq {
				got := d.Decide("t", result(level)).Action
				if got != tt.want[i] {
					t.Errorf("step %d (%s): action = %s, want %s", i, level, got, tt.want[i])
				}
			}
		})
	}
}

// One SendAlert per maximal run of Error results, for arbitrary sequences.
func TestDecide_OneAlertPerIncident(t *testing.T) {
	levels := []status.Level{status.OK, status.Warning, status.Error}
	rng := rand.New(rand.NewSource(42))

	for run := 0; run < 200; run++ {
		d := New(run%2 == 0)
		seq := make([]status.Level, 30)
		for i := range seq {
			seq[i] = levels[rng.Intn(len(levels))]
		}

		alerts, incidents := 0, 0
		for i, level := range seq {
			if level == status.Error && (i == 0 || seq[i-1] != status.Error) {
				incidents++
			}
			dec := d.Decide("t", result(level))
			if dec.Action == SendAlert {
				alerts++
			}
			if dec.Next.AlertActive && dec.Next.LastLevel != status.Error {
				t.Fatalf("run %d step %d: alert active while %s", run, i, dec.Next.LastLevel)
			}
		}
		if alerts != incidents {
			t.Fatalf("run %d: %d alerts for %d incidents in %v", run, alerts, incidents, seq)
		}
	}
}

func TestDecide_TargetsIsolated(t *testing.T) {
	d := New(false)
	d.Decide("a", result(status.Error))

	if dec := d.Decide("b", result(status.Error)); dec.Action != SendAlert {
		t.Errorf("b action = %s, want send_alert", dec.Action)
	}
	if s, ok := d.State("c"); ok {
		t.Errorf("c should be untracked, got %+v", s)
	}
	if len(d.Snapshot()) != 2 {
		t.Errorf("snapshot = %v, want 2 targets", d.Snapshot())
	}
}

func TestDecide_Since(t *testing.T) {
	d := New(false)
	var tick int64
	d.now = func() time.Time {
		tick++
		return time.Unix(tick, 0)
	}

	first := d.Decide("t", result(status.Error)).Next.Since
	again := d.Decide("t", result(status.Error)).Next.Since
	if !again.Equal(first) {
		t.Errorf("since moved from %s to %s while level unchanged", first, again)
	}
	changed := d.Decide("t", result(status.OK))
	if changed.Next.Since.Equal(first) {
		t.Error("since should move on level change")
	}
	if !changed.Changed() {
		t.Error("Changed() = false, want true")
	}
}

func TestRearm(t *testing.T) {
	d := New(false)

	if d.Rearm("t") {
		t.Error("Rearm on unknown target should be a no-op")
	}

	d.Decide("t", result(status.Error))
	if !d.Rearm("t") {
		t.Fatal("Rearm should clear an active alert")
	}
	if dec := d.Decide("t", result(status.Error)); dec.Action != SendAlert {
		t.Errorf("action after rearm = %s, want send_alert", dec.Action)
	}

	d.Decide("t", result(status.OK))
	if d.Rearm("t") {
		t.Error("Rearm should not change a target outside an incident")
	}
}

func TestDecide_Concurrent(t *testing.T) {
	d := New(false)

	var wg sync.WaitGroup
	alerts := make([]int, 8)
	for w := range alerts {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			key := fmt.Sprintf("target-%d", w)
			for i := 0; i < 100; i++ {
				if d.Decide(key, result(status.Error)).Action == SendAlert {
					alerts[w]++
				}
			}
		}(w)
	}
	wg.Wait()

	for w, n := range alerts {
		if n != 1 {
			t.Errorf("target-%d: %d alerts, want 1", w, n)
		}
	}
}
