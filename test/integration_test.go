package test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/showgate/showgate"
	"github.com/showgate/showgate/conformance"
	pgstore "github.com/showgate/showgate/store/postgres"
	"github.com/showgate/showgate/test/testutil"
)

// seedFixture loads a conformance fixture into a live database.
func seedFixture(t *testing.T, db *sql.DB, f conformance.Fixture) {
	t.Helper()
	ctx := context.Background()

	exec := func(query string, args ...any) {
		t.Helper()
		_, err := db.ExecContext(ctx, query, args...)
		require.NoError(t, err)
	}

	for _, v := range f.Profiles {
		exec(`INSERT INTO profiles (id, role) VALUES ($1, $2)`, v.ID, v.Role)
	}
	for _, v := range f.Shows {
		status := v.Status
		if status == "" {
			status = "active"
		}
		dealers := v.Dealers
		if dealers == nil {
			dealers = []string{}
		}
		exec(`INSERT INTO shows (id, organizer_id, status, dealers) VALUES ($1, $2, $3, $4)`,
			v.ID, v.OrganizerID, status, dealers)
	}
	for _, v := range f.Series {
		exec(`INSERT INTO show_series (id, organizer_id, name) VALUES ($1, $2, $3)`,
			v.ID, v.OrganizerID, v.Name)
	}
	for _, v := range f.Participation {
		role := v.Role
		if role == "" {
			role = "dealer"
		}
		status := v.Status
		if status == "" {
			status = "registered"
		}
		exec(`INSERT INTO show_participation (id, show_id, user_id, role, status) VALUES ($1, $2, $3, $4, $5)`,
			v.ID, v.ShowID, v.UserID, role, status)
	}
	for _, v := range f.Attendance {
		exec(`INSERT INTO planned_attendance (id, user_id, show_id) VALUES ($1, $2, $3)`,
			v.ID, v.UserID, v.ShowID)
	}
	for _, v := range f.WantLists {
		exec(`INSERT INTO want_lists (id, user_id, content) VALUES ($1, $2, $3)`,
			v.ID, v.UserID, v.Content)
	}
	for _, v := range f.Shared {
		exec(`INSERT INTO shared_want_lists (id, want_list_id, show_id) VALUES ($1, $2, $3)`,
			v.ID, v.WantListID, v.ShowID)
	}
	for _, v := range f.Conversations {
		exec(`INSERT INTO conversations (id, created_by, subject) VALUES ($1, $2, $3)`,
			v.ID, v.CreatedBy, v.Subject)
	}
	for _, v := range f.Participants {
		exec(`INSERT INTO conversation_participants (id, conversation_id, user_id) VALUES ($1, $2, $3)`,
			v.ID, v.ConversationID, v.UserID)
	}
	for _, v := range f.Messages {
		exec(`INSERT INTO messages (id, conversation_id, sender_id, body) VALUES ($1, $2, $3, $4)`,
			v.ID, v.ConversationID, v.SenderID, v.Body)
	}
	for _, v := range f.Favorites {
		exec(`INSERT INTO favorites (id, user_id, show_id) VALUES ($1, $2, $3)`,
			v.ID, v.UserID, v.ShowID)
	}
	for _, v := range f.Reviews {
		exec(`INSERT INTO reviews (id, show_id, user_id, rating) VALUES ($1, $2, $3, $4)`,
			v.ID, v.ShowID, v.UserID, v.Rating)
	}
}

// The builtin suites must hold against the PostgreSQL store exactly as they
// do against the in-memory one.
func TestConformanceSuites_Postgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	suites, err := conformance.BuiltinSuites()
	require.NoError(t, err)

	ctx := context.Background()
	for _, suite := range suites {
		suite := suite
		t.Run(suite.Name, func(t *testing.T) {
			t.Parallel()
			db := testutil.DB(t)
			seedFixture(t, db, suite.Fixture)

			res, err := conformance.RunAgainst(ctx, suite, pgstore.NewStore(db).Ports())
			require.NoError(t, err)
			for _, f := range res.Failures {
				t.Error(f.String())
			}
		})
	}
}

// A store built over a transaction sees that transaction's snapshot: a row
// inserted inside the transaction authorizes there before it is visible to
// the rest of the pool.
func TestAuthorize_SameTransactionSnapshot(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := testutil.DB(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx, `INSERT INTO profiles (id, role) VALUES ('att-1', 'attendee')`)
	require.NoError(t, err)

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `INSERT INTO want_lists (id, user_id) VALUES ('wl-tx', 'att-1')`)
	require.NoError(t, err)

	owner := showgate.Principal{ID: "att-1", Role: showgate.RoleAttendee}
	ref := showgate.Ref{Type: showgate.TypeWantList, ID: "wl-tx"}

	txAuth := showgate.New(pgstore.NewStore(tx).Ports())
	d, err := txAuth.Authorize(ctx, owner, showgate.OpSelect, ref)
	require.NoError(t, err)
	assert.True(t, d.Allowed(), "decision inside the transaction: %+v", d)

	dbAuth := showgate.New(pgstore.NewStore(db).Ports())
	d, err = dbAuth.Authorize(ctx, owner, showgate.OpSelect, ref)
	require.NoError(t, err)
	assert.False(t, d.Allowed(), "uncommitted row should not authorize outside the transaction")
	assert.Equal(t, showgate.ReasonDenyNotFound, d.Reason)
}

// A database without the schema fails closed with a useful error.
func TestAuthorize_MissingSchemaFailsClosed(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := testutil.EmptyDB(t)
	ctx := context.Background()
	store := pgstore.NewStore(db)

	_, _, err := store.ShowByID(ctx, "show-1")
	require.Error(t, err)
	assert.True(t, pgstore.IsMissingSchemaErr(err), "got %v", err)

	auth := showgate.New(store.Ports())
	p := showgate.Principal{ID: "att-1", Role: showgate.RoleAttendee}
	d, err := auth.Authorize(ctx, p, showgate.OpSelect, showgate.Ref{Type: showgate.TypeShow, ID: "show-1"})
	assert.False(t, d.Allowed())
	assert.True(t, showgate.IsEvaluationFault(err), "got %v", err)
}

func TestMigrate_Idempotent(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := testutil.DB(t)
	ctx := context.Background()

	// The template already ran Migrate once; a second run must be a no-op.
	require.NoError(t, pgstore.Migrate(ctx, db))

	present, missing, err := pgstore.SchemaStatus(ctx, db)
	require.NoError(t, err)
	assert.Empty(t, missing)
	assert.Len(t, present, 12)
}

func TestSchemaStatus_Empty(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := testutil.EmptyDB(t)
	present, missing, err := pgstore.SchemaStatus(context.Background(), db)
	require.NoError(t, err)
	assert.Empty(t, present)
	assert.Len(t, missing, 12)
}
