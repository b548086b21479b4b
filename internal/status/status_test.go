package status

import (
	"errors"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		counts  Counts
		overall Level
	}{
		{"all ok", Counts{MarkerOK: 5}, OK},
		{"one error among ok", Counts{MarkerError: 1, MarkerOK: 4}, Error},
		{"warning", Counts{MarkerWarning: 2, MarkerOK: 3}, Warning},
		{"error beats warning", Counts{MarkerError: 1, MarkerWarning: 9, MarkerOK: 90}, Error},
		{"zero counts ignored", Counts{MarkerError: 0, MarkerWarning: 0, MarkerOK: 5}, OK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Classify(tt.counts)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if r.Overall != tt.overall {
				t.Errorf("overall = %s, want %s", r.Overall, tt.overall)
			}
		})
	}
}

func TestClassify_Counts(t *testing.T) {
	r, err := Classify(Counts{MarkerError: 1, MarkerWarning: 2, MarkerOK: 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Error != 1 || r.Warning != 2 || r.OK != 4 {
		t.Errorf("counts = %d/%d/%d, want 1/2/4", r.Error, r.Warning, r.OK)
	}
	if got := r.Detail(); got != "1 error, 2 warning, 4 ok" {
		t.Errorf("detail = %q", got)
	}
}

func TestClassify_ErrorIsMonotonic(t *testing.T) {
	for ok := 0; ok <= 50; ok += 10 {
		for warn := 0; warn <= 50; warn += 10 {
			r, err := Classify(Counts{MarkerError: 1, MarkerWarning: warn, MarkerOK: ok})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if r.Overall != Error {
				t.Errorf("ok=%d warning=%d: overall = %s, want error", ok, warn, r.Overall)
			}
		}
	}
}

func TestClassify_NoMarkers(t *testing.T) {
	for _, counts := range []Counts{nil, {}, {MarkerOK: 0}} {
		_, err := Classify(counts)
		if !errors.Is(err, ErrNoMarkers) {
			t.Errorf("Classify(%v) error = %v, want ErrNoMarkers", counts, err)
		}
	}
}

func TestClassify_UnknownOnly(t *testing.T) {
	_, err := Classify(Counts{"sensb": 3})
	if !errors.Is(err, ErrUnknownMarker) {
		t.Fatalf("error = %v, want ErrUnknownMarker", err)
	}
}

func TestClassify_UnknownAlongsideKnown(t *testing.T) {
	r, err := Classify(Counts{"sensb": 3, MarkerOK: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Overall != OK {
		t.Errorf("overall = %s, want ok", r.Overall)
	}
	if r.Unmapped["sensb"] != 3 {
		t.Errorf("unmapped = %v, want sensb=3", r.Unmapped)
	}
	if r.OK != 2 {
		t.Errorf("ok = %d, want 2; unmapped sensors must not count as ok", r.OK)
	}
}

func TestLevelString(t *testing.T) {
	if Error.String() != "error" || Warning.String() != "warning" || OK.String() != "ok" || Unknown.String() != "unknown" {
		t.Error("unexpected level names")
	}
	if !(OK < Warning && Warning < Error) {
		t.Error("levels must be ordered by severity")
	}
}
