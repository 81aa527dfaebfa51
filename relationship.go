package showgate

import "context"

// Relationship resolvers: side-effect-free predicates that establish
// ownership and participation facts. Each entity's rule evaluates against a
// narrowed capability value defined here, holding only the ports of *other*
// entity types. That typing is the non-recursion invariant made structural:
// the rule for show_participation receives a showAccess, which has no
// ParticipationStore field, so the historical recursive lookup is not
// expressible. portDependencies in validate.go is the audited manifest of
// which ports each capability reaches.
//
// All predicates return (false, err) on a store fault; the evaluator turns
// that into a fail-closed deny plus an evaluation-fault audit event.

// showAccess establishes show ownership and safe participation. It backs the
// rules for show, show_series, show_participation, planned_attendance,
// favorite, and review, and is embedded in wantListAccess.
type showAccess struct {
	shows      ShowStore
	attendance PlannedAttendanceStore
}

// organizesShow reports whether p owns the show.
func (r showAccess) organizesShow(ctx context.Context, p Principal, showID string) (bool, error) {
	show, ok, err := r.shows.ShowByID(ctx, showID)
	if err != nil || !ok {
		return false, err
	}
	return show.OrganizerID == p.ID, nil
}

// participatesInShowSafe reports whether p is associated with the show
// through any non-cyclic path: organizing it, appearing in the legacy
// dealer list, or a planned attendance row. It never consults
// show_participation, whose own visibility rule depends on this predicate.
func (r showAccess) participatesInShowSafe(ctx context.Context, p Principal, showID string) (bool, error) {
	show, ok, err := r.shows.ShowByID(ctx, showID)
	if err != nil {
		return false, err
	}
	if ok {
		if show.OrganizerID == p.ID || show.HasDealer(p.ID) {
			return true, nil
		}
	}
	return r.attendance.AttendanceExists(ctx, p.ID, showID)
}

// wantListAccess establishes want-list visibility: ownership plus the
// shared-with-show path. Excludes the want list port for the sharing
// predicate; the rule already holds the row under evaluation.
type wantListAccess struct {
	showAccess
	shared SharedWantListStore
}

// sharedWithReachableShow reports whether the want list is shared with any
// show that p organizes or safely participates in.
func (r wantListAccess) sharedWithReachableShow(ctx context.Context, p Principal, wantListID string) (bool, error) {
	showIDs, err := r.shared.ShowsForWantList(ctx, wantListID)
	if err != nil {
		return false, err
	}
	for _, showID := range showIDs {
		ok, err := r.participatesInShowSafe(ctx, p, showID)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// sharedWantListAccess resolves the owning want list and the show
// relationship for shared_want_list rows.
type sharedWantListAccess struct {
	showAccess
	wantLists WantListStore
}

// ownsWantList reports whether p owns the want list.
func (r sharedWantListAccess) ownsWantList(ctx context.Context, p Principal, wantListID string) (bool, error) {
	wl, ok, err := r.wantLists.WantListByID(ctx, wantListID)
	if err != nil || !ok {
		return false, err
	}
	return wl.UserID == p.ID, nil
}

// conversationAccess establishes conversation membership. Used by the rules
// for conversation, message, and conversation_participant. For the last of
// these it is the sanctioned bounded self-reference: IsParticipant is a
// single indexed point query on the requester's own row, so evaluation
// terminates in O(1) lookups even though the rule consults its own table.
type conversationAccess struct {
	participants ConversationParticipantStore
}

// isConversationParticipant reports whether p is a member of the conversation.
func (r conversationAccess) isConversationParticipant(ctx context.Context, p Principal, conversationID string) (bool, error) {
	return r.participants.IsParticipant(ctx, conversationID, p.ID)
}
