// Package alarm implements the wake-up scheduling core: randomized
// early-fire computation with day rollover, plus the append-only savings
// history and its weekly/all-time aggregation. Everything here is pure;
// callers pass the current instant and the random Draw explicitly.
package alarm

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrInvalidProfile - offset bounds or target time violate the profile invariants.
	ErrInvalidProfile = errors.New("invalid alarm profile")

	// ErrInvalidTimeOfDay - text is not a valid HH:MM wall-clock time.
	ErrInvalidTimeOfDay = errors.New("invalid time of day")
)

// minutesPerDay bounds offsets: the single-day rollover in Schedule is only
// correct while every offset stays under 24 hours.
const minutesPerDay = 24 * 60

// Kind names one of the two stored profiles.
type Kind string

const (
	Weekday Kind = "weekday"
	Weekend Kind = "weekend"
)

// Valid reports whether k is one of the two known profile names.
func (k Kind) Valid() bool {
	return k == Weekday || k == Weekend
}

// TimeOfDay is a 24h wall-clock target with minute precision, no seconds.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses "HH:MM" (e.g. "07:00") into a TimeOfDay.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return TimeOfDay{}, fmt.Errorf("%w: expected HH:MM, got %q", ErrInvalidTimeOfDay, s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return TimeOfDay{}, fmt.Errorf("%w: bad hour in %q", ErrInvalidTimeOfDay, s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return TimeOfDay{}, fmt.Errorf("%w: bad minute in %q", ErrInvalidTimeOfDay, s)
	}
	return TimeOfDay{Hour: h, Minute: m}, nil
}

// Valid reports whether the hour/minute pair is a real wall-clock time.
func (t TimeOfDay) Valid() bool {
	return t.Hour >= 0 && t.Hour <= 23 && t.Minute >= 0 && t.Minute <= 59
}

// String returns the canonical HH:MM form.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// On pins the wall-clock time to day's calendar date in day's location,
// with seconds and nanoseconds zeroed.
func (t TimeOfDay) On(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour, t.Minute, 0, 0, day.Location())
}

// MarshalText encodes the time as "HH:MM" for JSON and friends.
func (t TimeOfDay) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %d:%d", ErrInvalidTimeOfDay, t.Hour, t.Minute)
	}
	return []byte(t.String()), nil
}

// UnmarshalText decodes "HH:MM".
func (t *TimeOfDay) UnmarshalText(b []byte) error {
	parsed, err := ParseTimeOfDay(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Profile is one named wake-up configuration: the target time and the
// inclusive bounds of the random early-fire offset, in minutes.
type Profile struct {
	Target    TimeOfDay `json:"targetTime"`
	MinOffset int       `json:"minOffset"`
	MaxOffset int       `json:"maxOffset"`
}

// Validate checks the profile invariants: a real target time and
// 0 <= MinOffset < MaxOffset < 1440. The upper bound keeps the single-day
// rollover in Schedule sufficient; presentation may cap MaxOffset tighter.
func (p Profile) Validate() error {
	if !p.Target.Valid() {
		return fmt.Errorf("%w: target %02d:%02d out of range", ErrInvalidProfile, p.Target.Hour, p.Target.Minute)
	}
	if p.MinOffset < 0 {
		return fmt.Errorf("%w: minOffset %d is negative", ErrInvalidProfile, p.MinOffset)
	}
	if p.MinOffset >= p.MaxOffset {
		return fmt.Errorf("%w: minOffset %d >= maxOffset %d", ErrInvalidProfile, p.MinOffset, p.MaxOffset)
	}
	if p.MaxOffset >= minutesPerDay {
		return fmt.Errorf("%w: maxOffset %d exceeds one day", ErrInvalidProfile, p.MaxOffset)
	}
	return nil
}

// DefaultWeekday is the documented weekday default: 07:00, 5-30 minutes early.
func DefaultWeekday() Profile {
	return Profile{Target: TimeOfDay{Hour: 7}, MinOffset: 5, MaxOffset: 30}
}

// DefaultWeekend is the documented weekend default: 09:00, 5-30 minutes early.
func DefaultWeekend() Profile {
	return Profile{Target: TimeOfDay{Hour: 9}, MinOffset: 5, MaxOffset: 30}
}
