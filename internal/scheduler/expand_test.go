package scheduler

import (
	"testing"
	"time"

	"github.com/phonginreallife/inres/db"
)

func testRotation() db.RotationCycle {
	return db.RotationCycle{
		ID:           "rotation-1",
		GroupID:      "group-1",
		RotationType: "weekly",
		RotationDays: 7,
		StartDate:    time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
		StartTime:    "09:00",
		EndTime:      "17:00",
		MemberOrder:  []string{"user-a", "user-b", "user-c"},
	}
}

func TestExpandRotationIsDeterministic(t *testing.T) {
	r := testRotation()
	now := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)

	first := ExpandRotation(r, 21*24*time.Hour, now)
	second := ExpandRotation(r, 21*24*time.Hour, now)

	if len(first) != len(second) {
		t.Fatalf("expected identical shift counts, got %d and %d", len(first), len(second))
	}
	for i := range first {
		if !first[i].StartTime.Equal(second[i].StartTime) || first[i].UserID != second[i].UserID {
			t.Fatalf("shift %d differs between runs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestExpandRotationCyclesThroughMembers(t *testing.T) {
	r := testRotation()
	now := r.StartDate

	shifts := ExpandRotation(r, 21*24*time.Hour, now)
	if len(shifts) < 3 {
		t.Fatalf("expected at least 3 shifts over 3 weeks, got %d", len(shifts))
	}

	for i, want := range []string{"user-a", "user-b", "user-c"} {
		if shifts[i].UserID != want {
			t.Errorf("shift %d: got user %q, want %q", i, shifts[i].UserID, want)
		}
	}
}

func TestExpandRotationEmptyMemberOrder(t *testing.T) {
	r := testRotation()
	r.MemberOrder = nil

	if shifts := ExpandRotation(r, 7*24*time.Hour, r.StartDate); shifts != nil {
		t.Fatalf("expected nil shifts for empty member order, got %v", shifts)
	}
}

func TestWindowContains(t *testing.T) {
	outerStart := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	outerEnd := time.Date(2026, 1, 12, 17, 0, 0, 0, time.UTC)

	tests := []struct {
		name             string
		innerStart       time.Time
		innerEnd         time.Time
		expectContainted bool
	}{
		{
			name:             "fully inside",
			innerStart:       outerStart.Add(time.Hour),
			innerEnd:         outerEnd.Add(-time.Hour),
			expectContainted: true,
		},
		{
			name:             "exact match",
			innerStart:       outerStart,
			innerEnd:         outerEnd,
			expectContainted: true,
		},
		{
			name:             "starts before outer window",
			innerStart:       outerStart.Add(-time.Hour),
			innerEnd:         outerEnd.Add(-time.Hour),
			expectContainted: false,
		},
		{
			name:             "ends after outer window",
			innerStart:       outerStart.Add(time.Hour),
			innerEnd:         outerEnd.Add(time.Hour),
			expectContainted: false,
		},
		{
			name:             "inverted inner window",
			innerStart:       outerEnd,
			innerEnd:         outerStart,
			expectContainted: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WindowContains(outerStart, outerEnd, tt.innerStart, tt.innerEnd)
			if got != tt.expectContainted {
				t.Errorf("WindowContains() = %v, want %v", got, tt.expectContainted)
			}
		})
	}
}
