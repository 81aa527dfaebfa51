package showgate

import "time"

// Show is a trading-card show. Owned by its organizer; publicly readable.
// Dealers is the legacy membership list kept alongside the normalized
// show_participation rows; both establish "associated with show" and neither
// has been declared authoritative yet (see participatesInShowSafe).
type Show struct {
	ID          string
	OrganizerID string
	Status      string
	StartDate   time.Time
	EndDate     time.Time
	Latitude    float64
	Longitude   float64
	Dealers     []string
}

// EntityRef implements Record.
func (s Show) EntityRef() Ref { return Ref{Type: TypeShow, ID: s.ID} }

// HasDealer reports whether userID appears in the legacy dealer list.
func (s Show) HasDealer(userID string) bool {
	for _, id := range s.Dealers {
		if id == userID {
			return true
		}
	}
	return false
}

// ShowSeries is a recurring show grouping. Owned by its organizer;
// publicly readable.
type ShowSeries struct {
	ID          string
	OrganizerID string
	Name        string
}

// EntityRef implements Record.
func (s ShowSeries) EntityRef() Ref { return Ref{Type: TypeShowSeries, ID: s.ID} }

// ShowParticipation links a user to a show with a role and lifecycle status
// (registered, confirmed). Its visibility rule is the one that must never
// consult other show_participation rows.
type ShowParticipation struct {
	ID     string
	ShowID string
	UserID string
	Role   string
	Status string
}

// EntityRef implements Record.
func (p ShowParticipation) EntityRef() Ref { return Ref{Type: TypeShowParticipation, ID: p.ID} }

// PlannedAttendance is the independent "I plan to attend" signal. It doubles
// as the non-cyclic path for establishing show participation.
type PlannedAttendance struct {
	ID     string
	UserID string
	ShowID string
}

// EntityRef implements Record.
func (a PlannedAttendance) EntityRef() Ref { return Ref{Type: TypePlannedAttendance, ID: a.ID} }

// WantList is a collector's list of cards they are hunting for. Owned by its
// creator; exposed to dealers and organizers only through SharedWantList rows.
type WantList struct {
	ID      string
	UserID  string
	Content string
}

// EntityRef implements Record.
func (w WantList) EntityRef() Ref { return Ref{Type: TypeWantList, ID: w.ID} }

// SharedWantList exposes a want list to the dealers and organizer of one show.
type SharedWantList struct {
	ID         string
	WantListID string
	ShowID     string
}

// EntityRef implements Record.
func (s SharedWantList) EntityRef() Ref { return Ref{Type: TypeSharedWantList, ID: s.ID} }

// Conversation is a message thread. Visibility is participant-gated.
type Conversation struct {
	ID        string
	CreatedBy string
	Subject   string
}

// EntityRef implements Record.
func (c Conversation) EntityRef() Ref { return Ref{Type: TypeConversation, ID: c.ID} }

// ConversationParticipant is a membership row in a conversation. Its own
// visibility rule is the one sanctioned bounded self-reference: it checks the
// requesting principal's membership with a single point query, never a join
// over other participant rows.
type ConversationParticipant struct {
	ID             string
	ConversationID string
	UserID         string
}

// EntityRef implements Record.
func (p ConversationParticipant) EntityRef() Ref {
	return Ref{Type: TypeConversationParticipant, ID: p.ID}
}

// Message is a single message in a conversation. Mutation additionally
// requires the sender to be the authenticated principal.
type Message struct {
	ID             string
	ConversationID string
	SenderID       string
	Body           string
}

// EntityRef implements Record.
func (m Message) EntityRef() Ref { return Ref{Type: TypeMessage, ID: m.ID} }

// Favorite marks a show as saved by a user. Strictly owner-scoped.
type Favorite struct {
	ID     string
	UserID string
	ShowID string
}

// EntityRef implements Record.
func (f Favorite) EntityRef() Ref { return Ref{Type: TypeFavorite, ID: f.ID} }

// Review is a user's review of a show. Publicly readable; the reviewed show's
// organizer may update it (organizer replies), only the author may delete it.
type Review struct {
	ID      string
	ShowID  string
	UserID  string
	Rating  int
	Comment string
}

// EntityRef implements Record.
func (r Review) EntityRef() Ref { return Ref{Type: TypeReview, ID: r.ID} }

// Profile is the stored account record a principal resolves from. Role is the
// raw stored string; ParseRole normalizes it during principal resolution.
type Profile struct {
	ID   string
	Role string
}
