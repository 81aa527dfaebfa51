// Package showgate provides the visibility and authorization engine for a
// marketplace of trading-card shows, dealers, organizers, and attendees.
//
// # Design
//
// Showgate answers one question: may this principal perform this operation on
// this entity? Decisions are computed from a fixed, closed policy matrix over
// eleven entity types rather than a general policy language. The matrix
// combines three kinds of facts:
//
//   - role classification (admin, show organizer, MVP dealer, dealer, attendee)
//   - ownership (the row belongs to the requesting principal)
//   - participation (the principal organizes or takes part in the related show)
//
// # Basic Usage
//
//	auth := showgate.New(ports)
//	d, err := auth.Authorize(ctx, principal, showgate.OpSelect, showgate.Ref{
//		Type: showgate.TypeWantList,
//		ID:   wantListID,
//	})
//	if d.Effect != showgate.EffectAllow { ... }
//
// For inserts (and for filtering already-loaded rows) use AuthorizeRecord,
// which evaluates the policy against a caller-supplied row instead of loading
// it through the data-access ports:
//
//	d, err := auth.AuthorizeRecord(ctx, principal, showgate.OpInsert, draft)
//
// # Transaction Support
//
// The engine reads application data only through the Ports interfaces. The
// store/postgres implementation accepts *sql.DB, *sql.Tx, or *sql.Conn, so a
// caller that builds its Ports over its own transaction gets decisions
// evaluated against the same snapshot as the guarded read or write. Callers
// must enforce the returned decision inside that transaction to avoid a
// check-then-act race.
//
// # Non-Recursion By Construction
//
// The recurring production failure this engine replaces was self-referential
// policy evaluation: the visibility rule for show participation consulting the
// show participation table, which re-enters the same rule. Showgate removes
// the hazard structurally. Each entity's rule receives a narrowed capability
// value holding only the ports of other entity types, so the forbidden lookup
// cannot be written. See relationship.go and the port dependency manifest in
// validate.go.
//
// # Fail-Closed
//
// Any failure to reach a relationship data source denies the request and
// reports an evaluation fault through the audit emitter. Unknown roles deny
// everything except the public-readable entities (shows, show series,
// reviews).
package showgate

// EntityType identifies one of the protected entity types.
type EntityType string

// The closed set of protected entity types.
const (
	TypeShow                    EntityType = "show"
	TypeShowSeries              EntityType = "show_series"
	TypeShowParticipation       EntityType = "show_participation"
	TypePlannedAttendance       EntityType = "planned_attendance"
	TypeWantList                EntityType = "want_list"
	TypeSharedWantList          EntityType = "shared_want_list"
	TypeConversation            EntityType = "conversation"
	TypeConversationParticipant EntityType = "conversation_participant"
	TypeMessage                 EntityType = "message"
	TypeFavorite                EntityType = "favorite"
	TypeReview                  EntityType = "review"
)

// String returns the string representation of the entity type.
func (t EntityType) String() string {
	return string(t)
}

// EntityTypes lists every protected entity type. The order is stable and
// used by the conformance harness and the port dependency manifest.
func EntityTypes() []EntityType {
	return []EntityType{
		TypeShow,
		TypeShowSeries,
		TypeShowParticipation,
		TypePlannedAttendance,
		TypeWantList,
		TypeSharedWantList,
		TypeConversation,
		TypeConversationParticipant,
		TypeMessage,
		TypeFavorite,
		TypeReview,
	}
}

// Operation is one of the four data operations a policy guards.
type Operation string

// The guarded operations.
const (
	OpSelect Operation = "select"
	OpInsert Operation = "insert"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// String returns the string representation of the operation.
func (op Operation) String() string {
	return string(op)
}

// Ref identifies an entity row by type and ID.
//
// Refs are value types and safe to copy. The canonical string format is
// "type:id", used in audit events and debugging.
type Ref struct {
	Type EntityType
	ID   string
}

// String returns the canonical representation "type:id".
func (r Ref) String() string {
	return r.Type.String() + ":" + r.ID
}

// Record is implemented by every entity row the engine can evaluate. It lets
// AuthorizeRecord accept already-loaded rows (list filtering, insert drafts)
// without a second round trip through the data-access ports.
type Record interface {
	EntityRef() Ref
}
