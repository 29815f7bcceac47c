// Package scheduler expands a rotation definition into concrete shifts.
//
// The teacher computes this inside Postgres via the generate_rotation_schedules
// stored function; ExpandRotation is the same cadence logic ported to Go so it
// is unit-testable without a database and safe to call from a request
// handler before the result is persisted.
package scheduler

import (
	"time"

	"github.com/phonginreallife/inres/db"
)

// ExpandRotation generates the shifts a rotation cycle produces over the
// next `horizon` starting at `now`. It is a pure function: same inputs
// always produce the same output, so running it twice for the same
// (rotation, horizon, now) yields byte-identical shifts, and the caller is
// expected to persist them with an idempotent INSERT.
func ExpandRotation(r db.RotationCycle, horizon time.Duration, now time.Time) []db.Shift {
	if len(r.MemberOrder) == 0 || r.RotationDays <= 0 {
		return nil
	}

	startHour, startMin := parseClock(r.StartTime, 0, 0)
	endHour, endMin := parseClock(r.EndTime, 23, 59)

	cycleStart := time.Date(r.StartDate.Year(), r.StartDate.Month(), r.StartDate.Day(), 0, 0, 0, 0, time.UTC)
	cycleLen := time.Duration(r.RotationDays) * 24 * time.Hour

	deadline := now.Add(horizon)

	var shifts []db.Shift
	cycleIndex := 0

	// Fast-forward to the first cycle that could still be active or future,
	// rather than walking from the rotation's epoch one cycle at a time.
	if elapsed := now.Sub(cycleStart); elapsed > 0 {
		cycleIndex = int(elapsed / cycleLen)
	}

	for {
		periodStart := cycleStart.Add(time.Duration(cycleIndex) * cycleLen)
		if periodStart.After(deadline) {
			break
		}

		shiftStart := time.Date(periodStart.Year(), periodStart.Month(), periodStart.Day(), startHour, startMin, 0, 0, time.UTC)
		shiftEnd := time.Date(periodStart.Year(), periodStart.Month(), periodStart.Day(), endHour, endMin, 0, 0, time.UTC).
			Add(time.Duration(r.RotationDays-1) * 24 * time.Hour)

		if !shiftEnd.Before(now) {
			member := r.MemberOrder[cycleIndex%len(r.MemberOrder)]
			shifts = append(shifts, db.Shift{
				RotationCycleID: &r.ID,
				GroupID:         r.GroupID,
				UserID:          member,
				ShiftType:       r.RotationType,
				StartTime:       shiftStart,
				EndTime:         shiftEnd,
				IsActive:        true,
				IsRecurring:     true,
				RotationDays:    r.RotationDays,
			})
		}

		cycleIndex++
	}

	return shifts
}

func parseClock(hhmm string, defaultHour, defaultMin int) (int, int) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return defaultHour, defaultMin
	}
	return t.Hour(), t.Minute()
}

// WindowContains reports whether [innerStart, innerEnd] falls entirely
// within [outerStart, outerEnd]. A schedule override only makes sense for
// the span of the shift it replaces; an override window that starts before
// or ends after the original shift would leave part of its range with no
// assigned on-call user at all.
func WindowContains(outerStart, outerEnd, innerStart, innerEnd time.Time) bool {
	if innerEnd.Before(innerStart) {
		return false
	}
	return !innerStart.Before(outerStart) && !innerEnd.After(outerEnd)
}
