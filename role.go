package showgate

import "strings"

// Role is the closed role enum. Profiles store roles as free-text,
// case-varying strings; ParseRole normalizes them exactly once when the
// principal is resolved, so predicates never re-normalize per check.
type Role int

const (
	// RoleUnknown is the sentinel for unrecognized role strings. It is never
	// promoted to a privileged role and denies everything except public reads.
	RoleUnknown Role = iota
	RoleAttendee
	RoleDealer
	RoleMvpDealer
	RoleShowOrganizer
	RoleAdmin
)

// ParseRole normalizes a stored role string into the closed enum.
// Matching is case-insensitive and tolerant of surrounding whitespace.
// Unrecognized values map to RoleUnknown.
func ParseRole(s string) Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "attendee", "collector", "user":
		return RoleAttendee
	case "dealer":
		return RoleDealer
	case "mvp_dealer", "mvp dealer", "mvpdealer":
		return RoleMvpDealer
	case "show_organizer", "show organizer", "organizer":
		return RoleShowOrganizer
	case "admin":
		return RoleAdmin
	}
	return RoleUnknown
}

// String returns the canonical lowercase role name.
func (r Role) String() string {
	switch r {
	case RoleAttendee:
		return "attendee"
	case RoleDealer:
		return "dealer"
	case RoleMvpDealer:
		return "mvp_dealer"
	case RoleShowOrganizer:
		return "show_organizer"
	case RoleAdmin:
		return "admin"
	}
	return "unknown"
}

// IsAdmin reports whether the role is the administrative escape hatch.
func (r Role) IsAdmin() bool { return r == RoleAdmin }

// IsOrganizer reports whether the role may own shows and show series.
func (r Role) IsOrganizer() bool { return r == RoleShowOrganizer }

// IsMvpDealer reports whether the role has the paid dealer tier, which
// unlocks show-scoped visibility (participant lists, shared want lists).
func (r Role) IsMvpDealer() bool { return r == RoleMvpDealer }

// IsDealer reports whether the role is the base dealer tier.
func (r Role) IsDealer() bool { return r == RoleDealer }

// IsAnyDealer reports whether the role is either dealer tier.
func (r Role) IsAnyDealer() bool { return r == RoleDealer || r == RoleMvpDealer }

// Principal is the resolved identity making a request. The zero value is the
// anonymous principal (no session), which only public-readable entities admit.
type Principal struct {
	ID   string
	Role Role
}

// Anonymous reports whether the principal carries no authenticated identity.
func (p Principal) Anonymous() bool { return p.ID == "" }
