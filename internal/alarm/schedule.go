package alarm

import (
	"math/rand"
	"time"
)

// Draw produces a uniformly distributed integer in [min, max], both ends
// inclusive. It is the core's only source of randomness; tests substitute
// fixed or seeded implementations.
type Draw func(min, max int) int

// SystemDraw returns a Draw backed by the shared math/rand source, which is
// safe for concurrent use.
func SystemDraw() Draw {
	return func(min, max int) int {
		return min + rand.Intn(max-min+1)
	}
}

// SeededDraw returns a deterministic Draw for reproducible runs. The returned
// Draw must not be shared across goroutines.
func SeededDraw(seed int64) Draw {
	r := rand.New(rand.NewSource(seed))
	return func(min, max int) int {
		return min + r.Intn(max-min+1)
	}
}

// Instance is one scheduled wake-up: the realized random offset and the
// absolute instant it fires, with the target copied from the profile at
// schedule time.
type Instance struct {
	Target        TimeOfDay
	OffsetMinutes int
	FireAt        time.Time
}

// Schedule computes the next firing for profile p as seen from now.
//
// The candidate instant is now's calendar date at the target time minus a
// drawn offset. When the candidate is not strictly in the future it is
// advanced by exactly one calendar day; one day is always enough because
// Validate bounds offsets under 24 hours. The returned FireAt is therefore
// strictly after now and precedes the nominal target by exactly the offset,
// modulo the day shift.
func Schedule(p Profile, now time.Time, draw Draw) (Instance, error) {
	if err := p.Validate(); err != nil {
		return Instance{}, err
	}

	offset := draw(p.MinOffset, p.MaxOffset)
	candidate := p.Target.On(now).Add(-time.Duration(offset) * time.Minute)
	if !candidate.After(now) {
		// AddDate keeps the wall-clock reading across DST edges.
		candidate = candidate.AddDate(0, 0, 1)
	}

	return Instance{
		Target:        p.Target,
		OffsetMinutes: offset,
		FireAt:        candidate,
	}, nil
}
