// Package clip normalizes user-supplied trim boundaries.
package clip

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	shortForm = regexp.MustCompile(`^\d{1,2}:\d{2}$`)
	longForm  = regexp.MustCompile(`^\d{1,2}:\d{2}:\d{2}$`)
)

// FormatError reports a time string that matches neither mm:ss nor hh:mm:ss.
type FormatError struct {
	Input string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid time %q: use mm:ss or hh:mm:ss (e.g. 04:34 or 00:04:34)", e.Input)
}

// RangeError reports an end boundary that does not come after the start.
// Start and End are the raw user strings, not the normalized forms.
type RangeError struct {
	Start string
	End   string
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("end must be greater than start (start=%s, end=%s)", e.Start, e.End)
}

// Normalize canonicalizes a time string to hh:mm:ss, zero-padding a
// single-digit leading field. A blank input is "not provided": it
// returns ok=false with no error.
func Normalize(t string) (norm string, ok bool, err error) {
	t = strings.TrimSpace(t)
	if t == "" {
		return "", false, nil
	}
	if shortForm.MatchString(t) {
		if len(t) == len("m:ss") {
			t = "0" + t
		}
		return "00:" + t, true, nil
	}
	if longForm.MatchString(t) {
		if len(t) == len("h:mm:ss") {
			t = "0" + t
		}
		return t, true, nil
	}
	return "", false, &FormatError{Input: t}
}

// Seconds converts a canonical hh:mm:ss string to total seconds.
func Seconds(canonical string) int {
	parts := strings.SplitN(canonical, ":", 3)
	if len(parts) != 3 {
		return 0
	}
	h, _ := strconv.Atoi(parts[0])
	m, _ := strconv.Atoi(parts[1])
	s, _ := strconv.Atoi(parts[2])
	return h*3600 + m*60 + s
}

// Range holds normalized clip boundaries. An empty field means the
// boundary was not provided.
type Range struct {
	Start string
	End   string
}

// Active reports whether at least one boundary is set.
func (r Range) Active() bool {
	return r.Start != "" || r.End != ""
}

// NewRange normalizes both boundaries and enforces end > start when both
// are present.
func NewRange(start, end string) (Range, error) {
	s, sok, err := Normalize(start)
	if err != nil {
		return Range{}, err
	}
	e, eok, err := Normalize(end)
	if err != nil {
		return Range{}, err
	}
	if sok && eok && Seconds(e) <= Seconds(s) {
		return Range{}, &RangeError{Start: start, End: end}
	}
	var r Range
	if sok {
		r.Start = s
	}
	if eok {
		r.End = e
	}
	return r, nil
}
