package alarm

import (
	"errors"
	"testing"
	"time"
)

// helper: build a local instant in a DST-free zone
func mustLocal(t *testing.T, y int, m time.Month, d, hh, mm int) time.Time {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Fatalf("load tz: %v", err)
	}
	return time.Date(y, m, d, hh, mm, 0, 0, loc)
}

func fixedDraw(v int) Draw {
	return func(min, max int) int { return v }
}

func TestScheduleFiresBeforeTarget(t *testing.T) {
	p := Profile{Target: TimeOfDay{Hour: 7}, MinOffset: 5, MaxOffset: 30}
	now := mustLocal(t, 2026, time.March, 4, 6, 0)

	inst, err := Schedule(p, now, fixedDraw(25))
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	want := mustLocal(t, 2026, time.March, 4, 6, 35)
	if !inst.FireAt.Equal(want) {
		t.Fatalf("want fire at %v, got %v", want, inst.FireAt)
	}
	if !inst.FireAt.After(now) {
		t.Fatalf("fire time %v is not after now %v", inst.FireAt, now)
	}
	if inst.OffsetMinutes != 25 {
		t.Fatalf("want offset 25, got %d", inst.OffsetMinutes)
	}
	if got := p.Target.On(now).Sub(inst.FireAt); got != 25*time.Minute {
		t.Fatalf("want target-fire gap 25m, got %v", got)
	}
}

func TestScheduleSameDayWindow(t *testing.T) {
	p := Profile{Target: TimeOfDay{Hour: 7}, MinOffset: 5, MaxOffset: 30}
	now := mustLocal(t, 2026, time.March, 4, 6, 0)
	earliest := mustLocal(t, 2026, time.March, 4, 6, 30)
	latest := mustLocal(t, 2026, time.March, 4, 6, 55)

	draw := SystemDraw()
	for i := 0; i < 200; i++ {
		inst, err := Schedule(p, now, draw)
		if err != nil {
			t.Fatalf("schedule: %v", err)
		}
		if inst.FireAt.Before(earliest) || inst.FireAt.After(latest) {
			t.Fatalf("fire time %v outside [%v, %v]", inst.FireAt, earliest, latest)
		}
		if inst.OffsetMinutes < p.MinOffset || inst.OffsetMinutes > p.MaxOffset {
			t.Fatalf("offset %d outside [%d, %d]", inst.OffsetMinutes, p.MinOffset, p.MaxOffset)
		}
	}
}

func TestScheduleRollsOverWhenCandidatePassed(t *testing.T) {
	p := Profile{Target: TimeOfDay{Hour: 7}, MinOffset: 5, MaxOffset: 30}
	now := mustLocal(t, 2026, time.March, 4, 6, 50)

	inst, err := Schedule(p, now, fixedDraw(30))
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	want := mustLocal(t, 2026, time.March, 5, 6, 30)
	if !inst.FireAt.Equal(want) {
		t.Fatalf("want rollover to %v, got %v", want, inst.FireAt)
	}
}

func TestScheduleCandidateEqualNowRollsOver(t *testing.T) {
	// 07:00 minus 10 lands exactly on now; fire times must be strictly future.
	p := Profile{Target: TimeOfDay{Hour: 7}, MinOffset: 5, MaxOffset: 30}
	now := mustLocal(t, 2026, time.March, 4, 6, 50)

	inst, err := Schedule(p, now, fixedDraw(10))
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	want := mustLocal(t, 2026, time.March, 5, 6, 50)
	if !inst.FireAt.Equal(want) {
		t.Fatalf("want rollover to %v, got %v", want, inst.FireAt)
	}
}

func TestScheduleKeepsFutureCandidateSameDay(t *testing.T) {
	p := Profile{Target: TimeOfDay{Hour: 7}, MinOffset: 5, MaxOffset: 30}
	now := mustLocal(t, 2026, time.March, 4, 6, 50)

	inst, err := Schedule(p, now, fixedDraw(5))
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	want := mustLocal(t, 2026, time.March, 4, 6, 55)
	if !inst.FireAt.Equal(want) {
		t.Fatalf("want same-day fire at %v, got %v", want, inst.FireAt)
	}
}

func TestScheduleAcrossMidnight(t *testing.T) {
	// Target just past midnight: candidates land on the previous calendar
	// day and the rollover still only ever adds a single day.
	p := Profile{Target: TimeOfDay{Hour: 0, Minute: 10}, MinOffset: 5, MaxOffset: 30}
	now := mustLocal(t, 2026, time.March, 4, 23, 0)

	inst, err := Schedule(p, now, fixedDraw(30))
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	want := mustLocal(t, 2026, time.March, 4, 23, 40)
	if !inst.FireAt.Equal(want) {
		t.Fatalf("want fire at %v, got %v", want, inst.FireAt)
	}
	// Nominal target is 00:10 the next day, 30 minutes after firing.
	target := mustLocal(t, 2026, time.March, 5, 0, 10)
	if got := target.Sub(inst.FireAt); got != 30*time.Minute {
		t.Fatalf("want target-fire gap 30m, got %v", got)
	}
}

func TestScheduleGapEqualsOffsetModuloDayShift(t *testing.T) {
	p := Profile{Target: TimeOfDay{Hour: 7}, MinOffset: 5, MaxOffset: 30}
	draw := SeededDraw(7)
	nows := []time.Time{
		mustLocal(t, 2026, time.March, 4, 6, 0),
		mustLocal(t, 2026, time.March, 4, 6, 50),
		mustLocal(t, 2026, time.March, 4, 12, 0),
		mustLocal(t, 2026, time.March, 4, 23, 59),
	}
	for _, now := range nows {
		for i := 0; i < 50; i++ {
			inst, err := Schedule(p, now, draw)
			if err != nil {
				t.Fatalf("schedule: %v", err)
			}
			if !inst.FireAt.After(now) {
				t.Fatalf("fire time %v not after now %v", inst.FireAt, now)
			}
			offset := time.Duration(inst.OffsetMinutes) * time.Minute
			sameDay := p.Target.On(now).Sub(inst.FireAt)
			nextDay := p.Target.On(now).AddDate(0, 0, 1).Sub(inst.FireAt)
			if sameDay != offset && nextDay != offset {
				t.Fatalf("no day shift makes gap equal offset %v (same-day %v, next-day %v)", offset, sameDay, nextDay)
			}
		}
	}
}

func TestScheduleInvalidBounds(t *testing.T) {
	p := Profile{Target: TimeOfDay{Hour: 7}, MinOffset: 30, MaxOffset: 5}
	now := mustLocal(t, 2026, time.March, 4, 6, 0)

	inst, err := Schedule(p, now, fixedDraw(5))
	if !errors.Is(err, ErrInvalidProfile) {
		t.Fatalf("want ErrInvalidProfile, got %v", err)
	}
	if inst != (Instance{}) {
		t.Fatalf("want zero instance on failure, got %+v", inst)
	}
}

func TestScheduleRejectsOffsetsOverOneDay(t *testing.T) {
	p := Profile{Target: TimeOfDay{Hour: 7}, MinOffset: 5, MaxOffset: 1500}
	now := mustLocal(t, 2026, time.March, 4, 6, 0)

	if _, err := Schedule(p, now, fixedDraw(5)); !errors.Is(err, ErrInvalidProfile) {
		t.Fatalf("want ErrInvalidProfile for day-long offsets, got %v", err)
	}
}

func TestDrawUniformity(t *testing.T) {
	// Chi-square over a seeded draw: 26 buckets, 500 expected per bucket.
	// Critical value for 25 degrees of freedom at p=0.0001 is ~62.
	const (
		min    = 5
		max    = 30
		rounds = 13000
	)
	draw := SeededDraw(1)
	counts := make(map[int]int)
	for i := 0; i < rounds; i++ {
		v := draw(min, max)
		if v < min || v > max {
			t.Fatalf("draw %d outside [%d, %d]", v, min, max)
		}
		counts[v]++
	}

	expected := float64(rounds) / float64(max-min+1)
	chi := 0.0
	for v := min; v <= max; v++ {
		diff := float64(counts[v]) - expected
		chi += diff * diff / expected
	}
	if chi > 65 {
		t.Fatalf("draw distribution not uniform: chi-square %.2f", chi)
	}
}
