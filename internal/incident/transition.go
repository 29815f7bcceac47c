// Package incident holds the state-machine rules shared by the incident
// lifecycle handlers; the persistence itself stays in services.IncidentService.
package incident

import "github.com/phonginreallife/inres/db"

// transitionTable lists every (from, to) pair allowed by the lifecycle.
// Status only ever moves forward; triggered may re-fire on itself (a
// duplicate alert bumping alert_count) but acknowledged/resolved cannot
// loop back.
var transitionTable = map[string]map[string]bool{
	db.IncidentStatusTriggered: {
		db.IncidentStatusTriggered:    true,
		db.IncidentStatusAcknowledged: true,
		db.IncidentStatusResolved:     true,
	},
	db.IncidentStatusAcknowledged: {
		db.IncidentStatusResolved: true,
	},
	db.IncidentStatusResolved: {},
}

// CanTransition reports whether moving an incident from `from` to `to` is
// legal. Unknown statuses are always rejected.
func CanTransition(from, to string) bool {
	allowed, ok := transitionTable[from]
	if !ok {
		return false
	}
	return allowed[to]
}
