package store

import (
	"encoding/json"
	"fmt"

	"github.com/ryutarou1/lucky-alarm-native/internal/alarm"
)

// Settings holds the two named profiles and the spoiler-free display toggle.
type Settings struct {
	Weekday     alarm.Profile `json:"weekday"`
	Weekend     alarm.Profile `json:"weekend"`
	SpoilerFree bool          `json:"spoilerFree"`
}

// Profile returns the profile stored under kind; unknown kinds fall back to
// the weekday profile.
func (s Settings) Profile(k alarm.Kind) alarm.Profile {
	if k == alarm.Weekend {
		return s.Weekend
	}
	return s.Weekday
}

// SetProfile replaces the profile stored under kind.
func (s *Settings) SetProfile(k alarm.Kind, p alarm.Profile) {
	if k == alarm.Weekend {
		s.Weekend = p
		return
	}
	s.Weekday = p
}

// State is the full persisted shape, serialized as one JSON blob per chat.
type State struct {
	Settings   Settings      `json:"settings"`
	History    alarm.History `json:"history"`
	TotalSaved int           `json:"totalSaved"`
}

// Default returns the initial state used when no blob has been persisted yet.
func Default() State {
	return State{
		Settings: Settings{
			Weekday: alarm.DefaultWeekday(),
			Weekend: alarm.DefaultWeekend(),
		},
		History:    alarm.History{},
		TotalSaved: 0,
	}
}

// Encode serializes the state into the persisted blob.
func Encode(s State) ([]byte, error) {
	return json.Marshal(s)
}

// Decode parses a persisted blob. A running total that drifted from the
// recorded history is repaired to the sum recomputed from history, which is
// the authoritative value.
func Decode(b []byte) (State, error) {
	var s State
	if err := json.Unmarshal(b, &s); err != nil {
		return State{}, fmt.Errorf("decode session state: %w", err)
	}
	if recomputed := alarm.TotalSaved(s.History); s.TotalSaved != recomputed {
		s.TotalSaved = recomputed
	}
	return s, nil
}
