package showgate

import "context"

// Data-access ports, one per entity type. The storage layer supplies
// implementations; the engine only ever reads through them. Point lookups
// return (row, false, nil) when no row exists so callers can distinguish
// absence from a store fault. Any non-nil error is treated as an evaluation
// fault and denies the request (fail-closed).
//
// The narrowed capability values in relationship.go decide which of these
// ports each entity's rule may touch; rules never receive the full Ports
// value directly.

// ShowStore reads show rows.
type ShowStore interface {
	ShowByID(ctx context.Context, id string) (Show, bool, error)
}

// ShowSeriesStore reads show series rows.
type ShowSeriesStore interface {
	SeriesByID(ctx context.Context, id string) (ShowSeries, bool, error)
}

// ParticipationStore reads show participation rows.
type ParticipationStore interface {
	ParticipationByID(ctx context.Context, id string) (ShowParticipation, bool, error)
}

// PlannedAttendanceStore reads planned attendance rows.
type PlannedAttendanceStore interface {
	AttendanceByID(ctx context.Context, id string) (PlannedAttendance, bool, error)
	// AttendanceExists is the indexed point probe for (userID, showID).
	AttendanceExists(ctx context.Context, userID, showID string) (bool, error)
}

// WantListStore reads want list rows.
type WantListStore interface {
	WantListByID(ctx context.Context, id string) (WantList, bool, error)
}

// SharedWantListStore reads shared want list join rows.
type SharedWantListStore interface {
	SharedWantListByID(ctx context.Context, id string) (SharedWantList, bool, error)
	// ShowsForWantList returns the show IDs a want list has been shared with.
	ShowsForWantList(ctx context.Context, wantListID string) ([]string, error)
}

// ConversationStore reads conversation rows.
type ConversationStore interface {
	ConversationByID(ctx context.Context, id string) (Conversation, bool, error)
}

// ConversationParticipantStore reads conversation membership rows.
type ConversationParticipantStore interface {
	ParticipantByID(ctx context.Context, id string) (ConversationParticipant, bool, error)
	// IsParticipant is the indexed point probe for (conversationID, userID).
	// Rules must use this single-row form, never an enumeration of other
	// participant rows; it is what keeps the one sanctioned self-reference
	// bounded.
	IsParticipant(ctx context.Context, conversationID, userID string) (bool, error)
}

// MessageStore reads message rows.
type MessageStore interface {
	MessageByID(ctx context.Context, id string) (Message, bool, error)
}

// FavoriteStore reads favorite rows.
type FavoriteStore interface {
	FavoriteByID(ctx context.Context, id string) (Favorite, bool, error)
}

// ReviewStore reads review rows.
type ReviewStore interface {
	ReviewByID(ctx context.Context, id string) (Review, bool, error)
}

// ProfileStore reads account profiles for principal resolution.
type ProfileStore interface {
	ProfileByID(ctx context.Context, id string) (Profile, bool, error)
}

// Ports aggregates the data-access ports the engine consumes. All fields are
// required by New; a nil port is a construction error, not a runtime deny.
type Ports struct {
	Shows                    ShowStore
	Series                   ShowSeriesStore
	Participation            ParticipationStore
	PlannedAttendance        PlannedAttendanceStore
	WantLists                WantListStore
	SharedWantLists          SharedWantListStore
	Conversations            ConversationStore
	ConversationParticipants ConversationParticipantStore
	Messages                 MessageStore
	Favorites                FavoriteStore
	Reviews                  ReviewStore
}

// validate returns the name of the first nil port, or "".
func (p Ports) validate() string {
	switch {
	case p.Shows == nil:
		return "Shows"
	case p.Series == nil:
		return "Series"
	case p.Participation == nil:
		return "Participation"
	case p.PlannedAttendance == nil:
		return "PlannedAttendance"
	case p.WantLists == nil:
		return "WantLists"
	case p.SharedWantLists == nil:
		return "SharedWantLists"
	case p.Conversations == nil:
		return "Conversations"
	case p.ConversationParticipants == nil:
		return "ConversationParticipants"
	case p.Messages == nil:
		return "Messages"
	case p.Favorites == nil:
		return "Favorites"
	case p.Reviews == nil:
		return "Reviews"
	}
	return ""
}
