package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// UnreachableMarker is the textual form of an unreachable time.
const UnreachableMarker = "inf"

var ErrMalformedTime = errors.New("malformed time")

// Time is a minute of day that is either reached or unreachable.
// The zero value is Unreachable.
type Time struct {
	minute  int
	reached bool
}

// Unreachable orders after every reached time.
var Unreachable = Time{}

// At returns the reached time m minutes after midnight.
func At(m int) Time {
	return Time{minute: m, reached: true}
}

func (t Time) Reached() bool {
	return t.reached
}

// Minute returns the minutes since midnight and false when t is unreachable.
func (t Time) Minute() (int, bool) {
	return t.minute, t.reached
}

func (t Time) Before(o Time) bool {
	switch {
	case !t.reached:
		return false
	case !o.reached:
		return true
	default:
		return t.minute < o.minute
	}
}

func (t Time) After(o Time) bool {
	return o.Before(t)
}

func (t Time) String() string {
	return FormatTime(t)
}

// ParseTime parses "HH:MM" or the unreachable marker.
// Hours are not capped at 24 so that after-midnight service times such as
// "25:10" survive.
func ParseTime(text string) (Time, error) {
	text = strings.TrimSpace(text)
	if text == UnreachableMarker {
		return Unreachable, nil
	}

	hh, mm, ok := strings.Cut(text, ":")
	if !ok || strings.Contains(mm, ":") {
		return Unreachable, fmt.Errorf("%w: %q", ErrMalformedTime, text)
	}

	hours, err := strconv.Atoi(hh)
	if err != nil || hours < 0 {
		return Unreachable, fmt.Errorf("%w: %q: bad hours", ErrMalformedTime, text)
	}
	minutes, err := strconv.Atoi(mm)
	if err != nil || minutes < 0 || minutes > 59 {
		return Unreachable, fmt.Errorf("%w: %q: bad minutes", ErrMalformedTime, text)
	}

	return At(60*hours + minutes), nil
}

// FormatTime renders t as zero-padded "HH:MM", or the unreachable marker.
func FormatTime(t Time) string {
	if !t.reached {
		return UnreachableMarker
	}
	return fmt.Sprintf("%02d:%02d", t.minute/60, t.minute%60)
}
