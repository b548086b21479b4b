// Package status classifies PRTG map markers into health levels.
package status

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Level is the health of a sensor or of a whole map. Levels are ordered by
// severity; Unknown only means "never observed".
type Level int

const (
	Unknown Level = iota
	OK
	Warning
	Error
)

func (l Level) String() string {
	switch l {
	case OK:
		return "ok"
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Marker is a class token PRTG puts on a map object to show its state.
type Marker string

const (
	MarkerError   Marker = "sensr"
	MarkerWarning Marker = "sensy"
	MarkerOK      Marker = "sensg"
)

// Markers lists the known tokens, worst first.
var Markers = []Marker{MarkerError, MarkerWarning, MarkerOK}

var markerLevels = map[Marker]Level{
	MarkerError:   Error,
	MarkerWarning: Warning,
	MarkerOK:      OK,
}

// LevelOf returns the level a marker stands for.
func LevelOf(m Marker) (Level, bool) {
	l, ok := markerLevels[m]
	return l, ok
}

var (
	ErrNoMarkers     = errors.New("no status markers found")
	ErrUnknownMarker = errors.New("unknown status marker")
)

// Counts is the number of sensors seen per marker.
type Counts map[Marker]int

// Result is the classification of one map for one cycle.
type Result struct {
	OK       int
	Warning  int
	Error    int
	Overall  Level
	Unmapped Counts
}

// Detail summarises the counts for logs and notifications.
func (r Result) Detail() string {
	parts := []string{fmt.Sprintf("%d error", r.Error), fmt.Sprintf("%d warning", r.Warning), fmt.Sprintf("%d ok", r.OK)}
	if len(r.Unmapped) > 0 {
		parts = append(parts, "unmapped "+r.Unmapped.String())
	}
	return strings.Join(parts, ", ")
}

// Classify maps marker counts to a Result. The overall level is the worst
// level with a nonzero count, so a single error sensor makes the whole map
// Error. Tokens that do not map to a level are kept in Unmapped and never
// count as OK; if nothing maps, Classify fails.
func Classify(counts Counts) (Result, error) {
	var r Result
	seen := false

	for m, n := range counts {
		if n <= 0 {
			continue
		}
		seen = true

		level, ok := LevelOf(m)
		if !ok {
			if r.Unmapped == nil {
				r.Unmapped = make(Counts)
			}
			r.Unmapped[m] = n
			continue
		}

		switch level {
		case Error:
			r.Error += n
		case Warning:
			r.Warning += n
		case OK:
			r.OK += n
		}
		if level > r.Overall {
			r.Overall = level
		}
	}

	if !seen {
		return Result{}, ErrNoMarkers
	}
	if r.Overall == Unknown {
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownMarker, r.Unmapped)
	}
	return r, nil
}

func (c Counts) String() string {
	keys := make([]string, 0, len(c))
	for m := range c {
		keys = append(keys, string(m))
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%d", k, c[Marker(k)])
	}
	return strings.Join(parts, " ")
}
