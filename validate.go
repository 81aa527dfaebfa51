package showgate

import (
	"errors"
	"fmt"
	"sort"
)

// ErrRecursivePolicy is returned by ValidatePortGraph when the declared port
// read manifest would let an entity's rule query its own entity's port.
var ErrRecursivePolicy = errors.New("showgate: recursive policy dependency")

// portDependencies is the audited manifest of which entity ports each
// entity's rule reads, directly or through the relationship predicates it
// composes. The sets are already flattened: a rule that calls a predicate
// owns every port that predicate touches. Ports are raw row reads, never
// policy evaluations, so reading another entity's port pulls in nothing
// beyond what is listed here.
//
// The manifest mirrors the capability values built in New; the engine's own
// tests check the two against each other, and ValidatePortGraph proves the
// manifest free of unsanctioned self-reads.
var portDependencies = map[EntityType][]EntityType{
	TypeShow:                    {},
	TypeShowSeries:              {},
	TypeShowParticipation:       {TypeShow, TypePlannedAttendance},
	TypePlannedAttendance:       {TypeShow, TypePlannedAttendance},
	TypeWantList:                {TypeSharedWantList, TypeShow, TypePlannedAttendance},
	TypeSharedWantList:          {TypeWantList, TypeShow, TypePlannedAttendance},
	TypeConversation:            {TypeConversationParticipant},
	TypeConversationParticipant: {TypeConversationParticipant},
	TypeMessage:                 {TypeConversationParticipant},
	TypeFavorite:                {},
	TypeReview:                  {TypeShow, TypePlannedAttendance},
}

// selfEdgeAllowed lists the entities whose rules may touch their own port,
// restricted to a bounded single-row probe keyed on the requesting principal.
var selfEdgeAllowed = map[EntityType]bool{
	// Membership is checked against the requester's own row only; one point
	// query, no join over other rows, so evaluation terminates.
	TypeConversationParticipant: true,
	// Attendance existence for (principal, show) is likewise a point probe
	// and never widens into other attendance rows.
	TypePlannedAttendance: true,
}

// ValidatePortGraph checks the port read manifest for forbidden self-reads:
// an entity whose rule, directly or through the predicates it composes,
// queries its own entity's port. The two sanctioned bounded self-probes are
// exempt.
//
// The capability types already make violations unrepresentable in code; this
// check guards the manifest itself and gives the doctor command and the test
// suite something executable to assert.
func ValidatePortGraph() error {
	return validatePortGraph(portDependencies, selfEdgeAllowed)
}

func validatePortGraph(reads map[EntityType][]EntityType, allowedSelf map[EntityType]bool) error {
	types := make([]EntityType, 0, len(reads))
	for t := range reads {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	for _, t := range types {
		for _, dep := range reads[t] {
			if dep != t {
				continue
			}
			if allowedSelf[t] {
				continue
			}
			return fmt.Errorf("%w: %s reads its own port", ErrRecursivePolicy, t)
		}
	}
	return nil
}
