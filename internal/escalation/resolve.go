// Package escalation resolves an escalation policy's levels down to a
// single assignable user.
//
// The teacher's GetAssigneeFromEscalationPolicy only ever looked at
// level_number = 1 and returned whatever that level produced (including
// "no one", for target types like external). Resolve walks every level in
// order, the way the escalation chain itself is walked at notification
// time, and keeps going until a level actually produces a user or the
// chain is exhausted. A level-1 row with no explicit target type defaults
// to current_schedule, so it still pages whoever is on call; rows at other
// levels with no target type are skipped, and a policy with no level rows
// resolves to nobody.
package escalation

import "github.com/phonginreallife/inres/db"

// DefaultTargetType is assumed for a level-1 row whose target type is empty.
const DefaultTargetType = db.EscalationTargetCurrentSchedule

// Lookup resolves a target to a user ID. It returns ("", nil) when the
// target currently has nobody assigned (e.g. an empty rotation) rather than
// treating that as an error.
type Lookup func(targetID, groupID string) (string, error)

// Resolver carries the callbacks Resolve needs to turn a scheduler or
// current_schedule target into a user. Direct "user" targets need no
// lookup since the target ID is already the user.
type Resolver struct {
	Scheduler Lookup // resolves target_type = scheduler
	Group     Lookup // resolves target_type = current_schedule or group
}

// Resolve walks levels in ascending level_number order and returns the
// first user any level resolves to, along with the target_type that
// produced it. An empty userID with a nil error means no level in the
// policy currently resolves to anyone.
func (r Resolver) Resolve(levels []db.EscalationLevel, groupID string) (userID string, method string, err error) {
	if len(levels) == 0 {
		return "", "", nil
	}

	for _, level := range levels {
		targetType := level.TargetType
		if targetType == "" && level.LevelNumber == 1 {
			targetType = DefaultTargetType
		}

		switch targetType {
		case db.EscalationTargetUser:
			if level.TargetID != "" {
				return level.TargetID, db.EscalationTargetUser, nil
			}

		case db.EscalationTargetScheduler:
			uid, lookupErr := r.Scheduler(level.TargetID, groupID)
			if lookupErr != nil {
				return "", "", lookupErr
			}
			if uid != "" {
				return uid, db.EscalationTargetScheduler, nil
			}

		case db.EscalationTargetCurrentSchedule, db.EscalationTargetGroup:
			uid, lookupErr := r.Group(level.TargetID, groupID)
			if lookupErr != nil {
				return "", "", lookupErr
			}
			if uid != "" {
				return uid, targetType, nil
			}

		case db.EscalationTargetExternal:
			// externals page a webhook, not a user; keep walking.
		}
	}

	return "", "", nil
}
