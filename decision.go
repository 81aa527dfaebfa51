package showgate

// Effect is the outcome of a policy evaluation.
type Effect int

const (
	// EffectDeny is the default: the policy completed and denied the request.
	EffectDeny Effect = iota

	// EffectAllow grants the request.
	EffectAllow

	// EffectUnauthenticated means no principal was resolvable and the entity
	// is not public-readable. Callers surface it as "must sign in" rather
	// than "not permitted".
	EffectUnauthenticated
)

// String returns the lowercase effect name.
func (e Effect) String() string {
	switch e {
	case EffectAllow:
		return "allow"
	case EffectUnauthenticated:
		return "unauthenticated"
	}
	return "deny"
}

// Reason codes attached to decisions and audit events. Allow reasons say
// which predicate granted access. Deny reasons are for audit events and
// operators; callers should expose only the effect, so a correct deny stays
// indistinguishable from a missing entity on the outside.
const (
	ReasonAdminOverride            = "admin_override"
	ReasonServiceOverride          = "service_override"
	ReasonOverride                 = "override"
	ReasonPublicRead               = "public_read"
	ReasonResourceOwner            = "resource_owner"
	ReasonShowOrganizer            = "show_organizer"
	ReasonShowParticipant          = "show_participant"
	ReasonConversationParticipant  = "conversation_participant"
	ReasonSharedWithShow           = "shared_with_show"
	ReasonRoleAllowed              = "role_allowed"
	ReasonDenyUnauthenticated      = "unauthenticated"
	ReasonDenyRoleRequired         = "role_required"
	ReasonDenyNotResourceOwner     = "not_resource_owner"
	ReasonDenyNoRelationship       = "no_relationship"
	ReasonDenyNotFound             = "not_found"
	ReasonDenyEvaluationFault      = "evaluation_fault"
	ReasonDenyOperationUnsupported = "operation_unsupported"
)

// Decision is the result of one authorization evaluation.
type Decision struct {
	Effect Effect
	Reason string
}

// Allowed reports whether the decision grants the request.
func (d Decision) Allowed() bool { return d.Effect == EffectAllow }

func allow(reason string) Decision {
	return Decision{Effect: EffectAllow, Reason: reason}
}

func deny(reason string) Decision {
	return Decision{Effect: EffectDeny, Reason: reason}
}

// Err converts the decision into the corresponding sentinel error, or nil
// for an allow. Every deny maps to ErrUnauthorized regardless of the
// internal reason, so callers converting decisions to errors cannot leak
// whether an entity exists. Admins, who are entitled to the distinction,
// receive ErrNotFound from Authorize directly.
func (d Decision) Err() error {
	switch d.Effect {
	case EffectAllow:
		return nil
	case EffectUnauthenticated:
		return ErrUnauthenticated
	}
	return ErrUnauthorized
}
