// Package postgres implements the showgate data-access ports over
// PostgreSQL.
//
// The Store works with *sql.DB, *sql.Tx, or *sql.Conn through the Querier
// interface. Building a Store over the caller's transaction is how feature
// code gets the critical ordering guarantee: the authorization decision and
// the guarded read or write evaluate against the same snapshot, closing the
// check-then-act window.
//
//	tx, _ := db.BeginTx(ctx, nil)
//	auth := showgate.New(postgres.NewStore(tx).Ports())
//	d, _ := auth.Authorize(ctx, p, showgate.OpUpdate, ref)
//	// ... perform the guarded write on tx, then commit
//
// Works with both the pgx stdlib driver and lib/pq; SQLSTATE extraction uses
// interface detection so neither driver is imported here.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/showgate/showgate"
)

// Querier executes queries against PostgreSQL.
// Implemented by *sql.DB, *sql.Tx, and *sql.Conn.
type Querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Execer extends Querier with ExecContext for migrations. Only Migrate needs
// it; runtime lookups are read-only.
type Execer interface {
	Querier
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// ErrMissingSchema is returned when a showgate table does not exist.
// Run Migrate (or `showgate migrate`) to create the schema.
var ErrMissingSchema = errors.New("postgres: showgate schema missing")

// IsMissingSchemaErr returns true if err is or wraps ErrMissingSchema.
func IsMissingSchemaErr(err error) bool {
	return errors.Is(err, ErrMissingSchema)
}

// PostgreSQL error code for undefined_table, used to detect a missing schema.
const pgUndefinedTable = "42P01"

// Store implements every showgate port with indexed point queries.
type Store struct {
	q Querier
}

// NewStore creates a store over a database handle or transaction.
func NewStore(q Querier) *Store {
	return &Store{q: q}
}

// Ports returns the store wired into a showgate.Ports value.
func (s *Store) Ports() showgate.Ports {
	return showgate.Ports{
		Shows:                    s,
		Series:                   s,
		Participation:            s,
		PlannedAttendance:        s,
		WantLists:                s,
		SharedWantLists:          s,
		Conversations:            s,
		ConversationParticipants: s,
		Messages:                 s,
		Favorites:                s,
		Reviews:                  s,
	}
}

// mapError wraps undefined-table failures in ErrMissingSchema so callers can
// print a useful setup hint instead of a raw SQLSTATE.
func mapError(operation string, err error) error {
	if sqlState(err) == pgUndefinedTable {
		return fmt.Errorf("%w: %s: %v", ErrMissingSchema, operation, err)
	}
	return fmt.Errorf("%s: %w", operation, err)
}

// sqlState extracts the SQLSTATE code from a PostgreSQL error.
// Works with multiple drivers via interface detection:
//   - pgx/pgconn: SQLState() string
//   - lib/pq: Code() via error interface
//
// Returns empty string if the error doesn't carry a SQLSTATE.
func sqlState(err error) string {
	type sqlStateErr interface{ SQLState() string }
	var se sqlStateErr
	if errors.As(err, &se) {
		return se.SQLState()
	}

	type codeErr interface{ Code() string }
	var ce codeErr
	if errors.As(err, &ce) {
		return ce.Code()
	}

	// Fallback: extract from "... (SQLSTATE 42P01)" message text.
	errStr := err.Error()
	for _, prefix := range []string{"SQLSTATE ", "SQLSTATE: "} {
		if idx := strings.Index(errStr, prefix); idx >= 0 {
			start := idx + len(prefix)
			if start+5 <= len(errStr) {
				return errStr[start : start+5]
			}
		}
	}
	return ""
}

func (s *Store) ProfileByID(ctx context.Context, id string) (showgate.Profile, bool, error) {
	var p showgate.Profile
	err := s.q.QueryRowContext(ctx,
		`SELECT id, role FROM profiles WHERE id = $1`, id,
	).Scan(&p.ID, &p.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return showgate.Profile{}, false, nil
	}
	if err != nil {
		return showgate.Profile{}, false, mapError("profiles lookup", err)
	}
	return p, true, nil
}

func (s *Store) ShowByID(ctx context.Context, id string) (showgate.Show, bool, error) {
	var (
		v       showgate.Show
		dealers []byte
	)
	err := s.q.QueryRowContext(ctx,
		`SELECT id, organizer_id, status, start_date, end_date,
		        latitude, longitude, COALESCE(array_to_string(dealers, ','), '')
		   FROM shows WHERE id = $1`, id,
	).Scan(&v.ID, &v.OrganizerID, &v.Status, &v.StartDate, &v.EndDate,
		&v.Latitude, &v.Longitude, &dealers)
	if errors.Is(err, sql.ErrNoRows) {
		return showgate.Show{}, false, nil
	}
	if err != nil {
		return showgate.Show{}, false, mapError("shows lookup", err)
	}
	if len(dealers) > 0 {
		v.Dealers = strings.Split(string(dealers), ",")
	}
	return v, true, nil
}

func (s *Store) SeriesByID(ctx context.Context, id string) (showgate.ShowSeries, bool, error) {
	var v showgate.ShowSeries
	err := s.q.QueryRowContext(ctx,
		`SELECT id, organizer_id, name FROM show_series WHERE id = $1`, id,
	).Scan(&v.ID, &v.OrganizerID, &v.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return showgate.ShowSeries{}, false, nil
	}
	if err != nil {
		return showgate.ShowSeries{}, false, mapError("show_series lookup", err)
	}
	return v, true, nil
}

func (s *Store) ParticipationByID(ctx context.Context, id string) (showgate.ShowParticipation, bool, error) {
	var v showgate.ShowParticipation
	err := s.q.QueryRowContext(ctx,
		`SELECT id, show_id, user_id, role, status FROM show_participation WHERE id = $1`, id,
	).Scan(&v.ID, &v.ShowID, &v.UserID, &v.Role, &v.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return showgate.ShowParticipation{}, false, nil
	}
	if err != nil {
		return showgate.ShowParticipation{}, false, mapError("show_participation lookup", err)
	}
	return v, true, nil
}

func (s *Store) AttendanceByID(ctx context.Context, id string) (showgate.PlannedAttendance, bool, error) {
	var v showgate.PlannedAttendance
	err := s.q.QueryRowContext(ctx,
		`SELECT id, user_id, show_id FROM planned_attendance WHERE id = $1`, id,
	).Scan(&v.ID, &v.UserID, &v.ShowID)
	if errors.Is(err, sql.ErrNoRows) {
		return showgate.PlannedAttendance{}, false, nil
	}
	if err != nil {
		return showgate.PlannedAttendance{}, false, mapError("planned_attendance lookup", err)
	}
	return v, true, nil
}

func (s *Store) AttendanceExists(ctx context.Context, userID, showID string) (bool, error) {
	var exists bool
	err := s.q.QueryRowContext(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM planned_attendance WHERE user_id = $1 AND show_id = $2
		 )`, userID, showID,
	).Scan(&exists)
	if err != nil {
		return false, mapError("planned_attendance probe", err)
	}
	return exists, nil
}

func (s *Store) WantListByID(ctx context.Context, id string) (showgate.WantList, bool, error) {
	var v showgate.WantList
	err := s.q.QueryRowContext(ctx,
		`SELECT id, user_id, content FROM want_lists WHERE id = $1`, id,
	).Scan(&v.ID, &v.UserID, &v.Content)
	if errors.Is(err, sql.ErrNoRows) {
		return showgate.WantList{}, false, nil
	}
	if err != nil {
		return showgate.WantList{}, false, mapError("want_lists lookup", err)
	}
	return v, true, nil
}

func (s *Store) SharedWantListByID(ctx context.Context, id string) (showgate.SharedWantList, bool, error) {
	var v showgate.SharedWantList
	err := s.q.QueryRowContext(ctx,
		`SELECT id, want_list_id, show_id FROM shared_want_lists WHERE id = $1`, id,
	).Scan(&v.ID, &v.WantListID, &v.ShowID)
	if errors.Is(err, sql.ErrNoRows) {
		return showgate.SharedWantList{}, false, nil
	}
	if err != nil {
		return showgate.SharedWantList{}, false, mapError("shared_want_lists lookup", err)
	}
	return v, true, nil
}

func (s *Store) ShowsForWantList(ctx context.Context, wantListID string) ([]string, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT show_id FROM shared_want_lists WHERE want_list_id = $1`, wantListID,
	)
	if err != nil {
		return nil, mapError("shared_want_lists scan", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) ConversationByID(ctx context.Context, id string) (showgate.Conversation, bool, error) {
	var v showgate.Conversation
	err := s.q.QueryRowContext(ctx,
		`SELECT id, created_by, subject FROM conversations WHERE id = $1`, id,
	).Scan(&v.ID, &v.CreatedBy, &v.Subject)
	if errors.Is(err, sql.ErrNoRows) {
		return showgate.Conversation{}, false, nil
	}
	if err != nil {
		return showgate.Conversation{}, false, mapError("conversations lookup", err)
	}
	return v, true, nil
}

func (s *Store) ParticipantByID(ctx context.Context, id string) (showgate.ConversationParticipant, bool, error) {
	var v showgate.ConversationParticipant
	err := s.q.QueryRowContext(ctx,
		`SELECT id, conversation_id, user_id FROM conversation_participants WHERE id = $1`, id,
	).Scan(&v.ID, &v.ConversationID, &v.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return showgate.ConversationParticipant{}, false, nil
	}
	if err != nil {
		return showgate.ConversationParticipant{}, false, mapError("conversation_participants lookup", err)
	}
	return v, true, nil
}

func (s *Store) IsParticipant(ctx context.Context, conversationID, userID string) (bool, error) {
	// Single indexed point probe; the bounded form required by the
	// conversation_participant policy.
	var exists bool
	err := s.q.QueryRowContext(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM conversation_participants
		    WHERE conversation_id = $1 AND user_id = $2
		 )`, conversationID, userID,
	).Scan(&exists)
	if err != nil {
		return false, mapError("conversation_participants probe", err)
	}
	return exists, nil
}

func (s *Store) MessageByID(ctx context.Context, id string) (showgate.Message, bool, error) {
	var v showgate.Message
	err := s.q.QueryRowContext(ctx,
		`SELECT id, conversation_id, sender_id, body FROM messages WHERE id = $1`, id,
	).Scan(&v.ID, &v.ConversationID, &v.SenderID, &v.Body)
	if errors.Is(err, sql.ErrNoRows) {
		return showgate.Message{}, false, nil
	}
	if err != nil {
		return showgate.Message{}, false, mapError("messages lookup", err)
	}
	return v, true, nil
}

func (s *Store) FavoriteByID(ctx context.Context, id string) (showgate.Favorite, bool, error) {
	var v showgate.Favorite
	err := s.q.QueryRowContext(ctx,
		`SELECT id, user_id, show_id FROM favorites WHERE id = $1`, id,
	).Scan(&v.ID, &v.UserID, &v.ShowID)
	if errors.Is(err, sql.ErrNoRows) {
		return showgate.Favorite{}, false, nil
	}
	if err != nil {
		return showgate.Favorite{}, false, mapError("favorites lookup", err)
	}
	return v, true, nil
}

func (s *Store) ReviewByID(ctx context.Context, id string) (showgate.Review, bool, error) {
	var v showgate.Review
	err := s.q.QueryRowContext(ctx,
		`SELECT id, show_id, user_id, rating, comment FROM reviews WHERE id = $1`, id,
	).Scan(&v.ID, &v.ShowID, &v.UserID, &v.Rating, &v.Comment)
	if errors.Is(err, sql.ErrNoRows) {
		return showgate.Review{}, false, nil
	}
	if err != nil {
		return showgate.Review{}, false, mapError("reviews lookup", err)
	}
	return v, true, nil
}

// Interface assertions.
var (
	_ showgate.ShowStore                    = (*Store)(nil)
	_ showgate.ShowSeriesStore              = (*Store)(nil)
	_ showgate.ParticipationStore           = (*Store)(nil)
	_ showgate.PlannedAttendanceStore       = (*Store)(nil)
	_ showgate.WantListStore                = (*Store)(nil)
	_ showgate.SharedWantListStore          = (*Store)(nil)
	_ showgate.ConversationStore            = (*Store)(nil)
	_ showgate.ConversationParticipantStore = (*Store)(nil)
	_ showgate.MessageStore                 = (*Store)(nil)
	_ showgate.FavoriteStore                = (*Store)(nil)
	_ showgate.ReviewStore                  = (*Store)(nil)
	_ showgate.ProfileStore                 = (*Store)(nil)
)
