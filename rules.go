package showgate

import "context"

// Per-entity rules. Each rule mirrors one row of the policy matrix:
// predicates combine with OR, cheapest first, and the first allow wins.
// Admin and service principals never reach these; decide short-circuits
// them. Returned errors are store faults and fail closed upstream.

func (a *Authorizer) ruleShow(_ context.Context, p Principal, op Operation, s Show) (Decision, error) {
	switch op {
	case OpSelect:
		return allow(ReasonPublicRead), nil
	case OpInsert:
		if !p.Role.IsOrganizer() {
			return deny(ReasonDenyRoleRequired), nil
		}
		if s.OrganizerID != p.ID {
			return deny(ReasonDenyNotResourceOwner), nil
		}
		return allow(ReasonRoleAllowed), nil
	case OpUpdate, OpDelete:
		if s.OrganizerID == p.ID {
			return allow(ReasonShowOrganizer), nil
		}
		return deny(ReasonDenyNotResourceOwner), nil
	}
	return deny(ReasonDenyOperationUnsupported), nil
}

func (a *Authorizer) ruleShowSeries(p Principal, op Operation, s ShowSeries) (Decision, error) {
	switch op {
	case OpSelect:
		return allow(ReasonPublicRead), nil
	case OpInsert:
		if !p.Role.IsOrganizer() {
			return deny(ReasonDenyRoleRequired), nil
		}
		if s.OrganizerID != p.ID {
			return deny(ReasonDenyNotResourceOwner), nil
		}
		return allow(ReasonRoleAllowed), nil
	case OpUpdate, OpDelete:
		if s.OrganizerID == p.ID {
			return allow(ReasonShowOrganizer), nil
		}
		return deny(ReasonDenyNotResourceOwner), nil
	}
	return deny(ReasonDenyOperationUnsupported), nil
}

// ruleParticipation is the rule whose history forced the structural
// non-recursion guarantee. It sees only showAccess: show rows and planned
// attendance, never other participation rows.
func (a *Authorizer) ruleParticipation(ctx context.Context, p Principal, op Operation, r ShowParticipation) (Decision, error) {
	switch op {
	case OpSelect:
		if r.UserID == p.ID {
			return allow(ReasonResourceOwner), nil
		}
		if ok, err := a.showAcc.organizesShow(ctx, p, r.ShowID); err != nil || ok {
			return allow(ReasonShowOrganizer), err
		}
		if p.Role.IsMvpDealer() {
			if ok, err := a.showAcc.participatesInShowSafe(ctx, p, r.ShowID); err != nil || ok {
				return allow(ReasonShowParticipant), err
			}
		}
		return deny(ReasonDenyNoRelationship), nil
	case OpInsert:
		if r.UserID == p.ID {
			return allow(ReasonResourceOwner), nil
		}
		return deny(ReasonDenyNotResourceOwner), nil
	case OpUpdate:
		if r.UserID == p.ID {
			return allow(ReasonResourceOwner), nil
		}
		if ok, err := a.showAcc.organizesShow(ctx, p, r.ShowID); err != nil || ok {
			return allow(ReasonShowOrganizer), err
		}
		return deny(ReasonDenyNotResourceOwner), nil
	case OpDelete:
		if r.UserID == p.ID {
			return allow(ReasonResourceOwner), nil
		}
		return deny(ReasonDenyNotResourceOwner), nil
	}
	return deny(ReasonDenyOperationUnsupported), nil
}

func (a *Authorizer) rulePlannedAttendance(ctx context.Context, p Principal, op Operation, r PlannedAttendance) (Decision, error) {
	switch op {
	case OpSelect:
		if r.UserID == p.ID {
			return allow(ReasonResourceOwner), nil
		}
		if ok, err := a.showAcc.organizesShow(ctx, p, r.ShowID); err != nil || ok {
			return allow(ReasonShowOrganizer), err
		}
		if p.Role.IsAnyDealer() {
			if ok, err := a.showAcc.participatesInShowSafe(ctx, p, r.ShowID); err != nil || ok {
				return allow(ReasonShowParticipant), err
			}
		}
		return deny(ReasonDenyNoRelationship), nil
	case OpInsert, OpUpdate, OpDelete:
		if r.UserID == p.ID {
			return allow(ReasonResourceOwner), nil
		}
		return deny(ReasonDenyNotResourceOwner), nil
	}
	return deny(ReasonDenyOperationUnsupported), nil
}

func (a *Authorizer) ruleWantList(ctx context.Context, p Principal, op Operation, w WantList) (Decision, error) {
	switch op {
	case OpSelect:
		if w.UserID == p.ID {
			return allow(ReasonResourceOwner), nil
		}
		if p.Role.IsMvpDealer() || p.Role.IsOrganizer() {
			if ok, err := a.wantAcc.sharedWithReachableShow(ctx, p, w.ID); err != nil || ok {
				return allow(ReasonSharedWithShow), err
			}
		}
		return deny(ReasonDenyNoRelationship), nil
	case OpInsert, OpUpdate, OpDelete:
		if w.UserID == p.ID {
			return allow(ReasonResourceOwner), nil
		}
		return deny(ReasonDenyNotResourceOwner), nil
	}
	return deny(ReasonDenyOperationUnsupported), nil
}

func (a *Authorizer) ruleSharedWantList(ctx context.Context, p Principal, op Operation, s SharedWantList) (Decision, error) {
	switch op {
	case OpSelect:
		if ok, err := a.sharedAcc.ownsWantList(ctx, p, s.WantListID); err != nil || ok {
			return allow(ReasonResourceOwner), err
		}
		if p.Role.IsMvpDealer() || p.Role.IsOrganizer() {
			if ok, err := a.sharedAcc.organizesShow(ctx, p, s.ShowID); err != nil || ok {
				return allow(ReasonShowOrganizer), err
			}
			if ok, err := a.sharedAcc.participatesInShowSafe(ctx, p, s.ShowID); err != nil || ok {
				return allow(ReasonShowParticipant), err
			}
		}
		return deny(ReasonDenyNoRelationship), nil
	case OpInsert, OpDelete:
		if ok, err := a.sharedAcc.ownsWantList(ctx, p, s.WantListID); err != nil || ok {
			return allow(ReasonResourceOwner), err
		}
		return deny(ReasonDenyNotResourceOwner), nil
	case OpUpdate:
		// Shares are immutable join rows: create and revoke only.
		return deny(ReasonDenyOperationUnsupported), nil
	}
	return deny(ReasonDenyOperationUnsupported), nil
}

func (a *Authorizer) ruleConversation(ctx context.Context, p Principal, op Operation, c Conversation) (Decision, error) {
	switch op {
	case OpInsert:
		if c.CreatedBy == p.ID {
			return allow(ReasonResourceOwner), nil
		}
		return deny(ReasonDenyNotResourceOwner), nil
	case OpSelect, OpUpdate, OpDelete:
		if ok, err := a.convAcc.isConversationParticipant(ctx, p, c.ID); err != nil || ok {
			return allow(ReasonConversationParticipant), err
		}
		return deny(ReasonDenyNoRelationship), nil
	}
	return deny(ReasonDenyOperationUnsupported), nil
}

// ruleConversationParticipant is the one sanctioned self-reference: the
// SELECT arm consults the participant table it protects, but only through
// the requester's own (conversation, user) row via a single indexed point
// query, so evaluation terminates without re-entering this rule.
func (a *Authorizer) ruleConversationParticipant(ctx context.Context, p Principal, op Operation, r ConversationParticipant) (Decision, error) {
	switch op {
	case OpSelect:
		if r.UserID == p.ID {
			return allow(ReasonResourceOwner), nil
		}
		if ok, err := a.convAcc.isConversationParticipant(ctx, p, r.ConversationID); err != nil || ok {
			return allow(ReasonConversationParticipant), err
		}
		return deny(ReasonDenyNoRelationship), nil
	case OpInsert, OpUpdate, OpDelete:
		if r.UserID == p.ID {
			return allow(ReasonResourceOwner), nil
		}
		return deny(ReasonDenyNotResourceOwner), nil
	}
	return deny(ReasonDenyOperationUnsupported), nil
}

func (a *Authorizer) ruleMessage(ctx context.Context, p Principal, op Operation, m Message) (Decision, error) {
	switch op {
	case OpSelect:
		if ok, err := a.convAcc.isConversationParticipant(ctx, p, m.ConversationID); err != nil || ok {
			return allow(ReasonConversationParticipant), err
		}
		return deny(ReasonDenyNoRelationship), nil
	case OpInsert:
		if m.SenderID != p.ID {
			return deny(ReasonDenyNotResourceOwner), nil
		}
		if ok, err := a.convAcc.isConversationParticipant(ctx, p, m.ConversationID); err != nil || ok {
			return allow(ReasonConversationParticipant), err
		}
		return deny(ReasonDenyNoRelationship), nil
	case OpUpdate, OpDelete:
		if m.SenderID == p.ID {
			return allow(ReasonResourceOwner), nil
		}
		return deny(ReasonDenyNotResourceOwner), nil
	}
	return deny(ReasonDenyOperationUnsupported), nil
}

func (a *Authorizer) ruleFavorite(p Principal, op Operation, f Favorite) (Decision, error) {
	if f.UserID == p.ID {
		return allow(ReasonResourceOwner), nil
	}
	if op == OpSelect {
		return deny(ReasonDenyNoRelationship), nil
	}
	return deny(ReasonDenyNotResourceOwner), nil
}

func (a *Authorizer) ruleReview(ctx context.Context, p Principal, op Operation, r Review) (Decision, error) {
	switch op {
	case OpSelect:
		// Reviews are public to signed-in marketplace users; anonymous and
		// unknown-role principals are stopped by the gate.
		return allow(ReasonPublicRead), nil
	case OpInsert:
		if r.UserID != p.ID {
			return deny(ReasonDenyNotResourceOwner), nil
		}
		// Only attendees of the show may review it.
		if ok, err := a.showAcc.participatesInShowSafe(ctx, p, r.ShowID); err != nil || ok {
			return allow(ReasonResourceOwner), err
		}
		return deny(ReasonDenyNoRelationship), nil
	case OpUpdate:
		if r.UserID == p.ID {
			return allow(ReasonResourceOwner), nil
		}
		// Organizers may respond to reviews of their shows.
		if ok, err := a.showAcc.organizesShow(ctx, p, r.ShowID); err != nil || ok {
			return allow(ReasonShowOrganizer), err
		}
		return deny(ReasonDenyNotResourceOwner), nil
	case OpDelete:
		if r.UserID == p.ID {
			return allow(ReasonResourceOwner), nil
		}
		return deny(ReasonDenyNotResourceOwner), nil
	}
	return deny(ReasonDenyOperationUnsupported), nil
}
