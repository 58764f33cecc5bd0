package alarm

import "time"

// dateLayout keys history records by calendar day.
const dateLayout = "2006-01-02"

// Record is one past firing. Records are immutable once appended; trimming
// old entries is a presentation concern, not handled here.
type Record struct {
	Date         string    `json:"date"` // YYYY-MM-DD, local calendar day of the firing
	SavedMinutes int       `json:"savedMinutes"`
	Target       TimeOfDay `json:"targetTime"`
	ActualTime   time.Time `json:"actualTime"`
}

// Day parses the record's calendar day at midnight in loc.
func (r Record) Day(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(dateLayout, r.Date, loc)
}

// History is the most-recent-first sequence of past firings.
type History []Record

// RecordFiring converts a fired instance into a Record, prepends it, and adds
// the realized offset to the running total. The caller's history is left
// untouched; the new sequence and total are returned for the caller to
// persist.
func RecordFiring(h History, inst Instance, firedAt time.Time, total int) (History, int) {
	rec := Record{
		Date:         firedAt.Format(dateLayout),
		SavedMinutes: inst.OffsetMinutes,
		Target:       inst.Target,
		ActualTime:   firedAt,
	}
	out := make(History, 0, len(h)+1)
	out = append(out, rec)
	out = append(out, h...)
	return out, total + inst.OffsetMinutes
}

// WeekStart returns the local Sunday 00:00:00 that begins now's calendar week.
func WeekStart(now time.Time) time.Time {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return day.AddDate(0, 0, -int(day.Weekday()))
}

// WeeklySaved sums the saved minutes of records whose calendar day falls in
// the current Sunday-through-Saturday week. Recomputed from history on every
// call so a week boundary crossing between calls never shows stale sums.
func WeeklySaved(h History, now time.Time) int {
	start := WeekStart(now)
	end := start.AddDate(0, 0, 7)
	sum := 0
	for _, r := range h {
		day, err := r.Day(now.Location())
		if err != nil {
			continue
		}
		if !day.Before(start) && day.Before(end) {
			sum += r.SavedMinutes
		}
	}
	return sum
}

// TotalSaved recomputes the all-time sum from history alone. The persisted
// running total must always equal this; the store repairs any drift on load.
func TotalSaved(h History) int {
	sum := 0
	for _, r := range h {
		sum += r.SavedMinutes
	}
	return sum
}
