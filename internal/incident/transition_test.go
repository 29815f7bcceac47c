package incident

import (
	"testing"

	"github.com/phonginreallife/inres/db"
)

func TestCanTransitionMatrix(t *testing.T) {
	statuses := []string{
		db.IncidentStatusTriggered,
		db.IncidentStatusAcknowledged,
		db.IncidentStatusResolved,
	}

	allowed := map[[2]string]bool{
		{db.IncidentStatusTriggered, db.IncidentStatusTriggered}:       true,
		{db.IncidentStatusTriggered, db.IncidentStatusAcknowledged}:    true,
		{db.IncidentStatusTriggered, db.IncidentStatusResolved}:        true,
		{db.IncidentStatusAcknowledged, db.IncidentStatusResolved}:     true,
	}

	for _, from := range statuses {
		for _, to := range statuses {
			want := allowed[[2]string{from, to}]
			if got := CanTransition(from, to); got != want {
				t.Errorf("CanTransition(%q, %q) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestCanTransitionRejectsUnknownStatus(t *testing.T) {
	if CanTransition("bogus", db.IncidentStatusResolved) {
		t.Fatal("expected unknown source status to be rejected")
	}
}
