package errlog

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrTrailingMarker means a series ends in a gap marker, which a well-formed
// log never produces.
var ErrTrailingMarker = errors.New("error log series ends with a gap marker")

// NoElapsed is shown in place of a duration when no job is selected.
const NoElapsed = "-"

// IterationCount returns the iteration of the last element of a transformed
// series, or 0 if it is empty.
func IterationCount(series []IterationRecord) (int64, error) {
	if len(series) == 0 {
		return 0, nil
	}
	last := series[len(series)-1]
	if last.IsMarker() {
		return 0, ErrTrailingMarker
	}
	return *last.Iteration, nil
}

// Elapsed is a duration split into calendar-style units.
type Elapsed struct {
	Days    int64 `json:"days"`
	Hours   int64 `json:"hours"`
	Minutes int64 `json:"minutes"`
	Seconds int64 `json:"seconds"`
}

// SplitElapsed decomposes a number of seconds. Fractions are floored and
// negative input is treated as zero.
func SplitElapsed(seconds float64) Elapsed {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	total := int64(math.Floor(seconds))
	minutes := total / 60
	hours := minutes / 60
	return Elapsed{
		Days:    hours / 24,
		Hours:   hours % 24,
		Minutes: minutes % 60,
		Seconds: total % 60,
	}
}

// String renders e in short English units, omitting zero units.
func (e Elapsed) String() string {
	parts := make([]string, 0, 4)
	for _, u := range []struct {
		n    int64
		name string
	}{
		{e.Days, "day"},
		{e.Hours, "hr"},
		{e.Minutes, "min"},
		{e.Seconds, "sec"},
	} {
		if u.n == 0 {
			continue
		}
		name := u.name
		if u.n > 1 && name == "day" {
			name = "days"
		}
		parts = append(parts, fmt.Sprintf("%d %s", u.n, name))
	}
	if len(parts) == 0 {
		return "0 sec"
	}
	return strings.Join(parts, ", ")
}
