package conformance

import (
	"context"
	"fmt"
	"time"

	"github.com/showgate/showgate"
	"github.com/showgate/showgate/store/memory"
)

// Failure describes one check whose decision did not match the expectation.
type Failure struct {
	Suite string
	Check string
	Want  showgate.Effect
	Got   showgate.Effect
	Err   error
}

// String renders the failure for CLI and test output.
func (f Failure) String() string {
	if f.Err != nil {
		return fmt.Sprintf("%s/%s: want %s, got %s (err: %v)", f.Suite, f.Check, f.Want, f.Got, f.Err)
	}
	return fmt.Sprintf("%s/%s: want %s, got %s", f.Suite, f.Check, f.Want, f.Got)
}

// Result summarizes one suite run.
type Result struct {
	Suite    string
	Checks   int
	Skipped  int
	Failures []Failure
	Elapsed  time.Duration
}

// OK reports whether every check passed.
func (r Result) OK() bool { return len(r.Failures) == 0 }

// Run executes a suite against a fresh in-memory store.
//
// Every check is evaluated twice: decisions must be a deterministic function
// of the unchanged data set, so a second evaluation that disagrees with the
// first is itself a failure even when one of the two matched the
// expectation.
func Run(ctx context.Context, suite Suite) (Result, error) {
	store := memory.New()
	Seed(store, suite.Fixture)

	auth := showgate.New(store.Ports())
	return runChecks(ctx, suite, store, auth)
}

// RunAgainst executes a suite's checks against caller-supplied ports. The
// caller is responsible for seeding the fixture data; principals still
// resolve from the fixture's profiles. Insert checks need a draft row
// reconstructed from the in-memory store and are skipped here, counted in
// Result.Skipped.
func RunAgainst(ctx context.Context, suite Suite, ports showgate.Ports) (Result, error) {
	auth := showgate.New(ports)
	return runChecks(ctx, suite, nil, auth)
}

func runChecks(ctx context.Context, suite Suite, store *memory.Store, auth *showgate.Authorizer) (Result, error) {
	start := time.Now()
	res := Result{Suite: suite.Name, Checks: len(suite.Checks)}

	principals := make(map[string]showgate.Principal, len(suite.Fixture.Profiles))
	for _, prof := range suite.Fixture.Profiles {
		principals[prof.ID] = showgate.Principal{ID: prof.ID, Role: showgate.ParseRole(prof.Role)}
	}

	for _, check := range suite.Checks {
		want, err := wantEffect(check.Want)
		if err != nil {
			return Result{}, err
		}

		var p showgate.Principal
		if check.Principal != "" {
			resolved, ok := principals[check.Principal]
			if !ok {
				return Result{}, fmt.Errorf("suite %q check %q: principal %q has no profile",
					suite.Name, check.Name, check.Principal)
			}
			p = resolved
		}

		op := showgate.Operation(check.Operation)
		ref := showgate.Ref{Type: showgate.EntityType(check.Entity), ID: check.ID}

		if op == showgate.OpInsert && store == nil {
			res.Skipped++
			continue
		}

		first, firstErr := authorizeCheck(ctx, auth, p, op, ref, store)
		if first.Effect != want {
			res.Failures = append(res.Failures, Failure{
				Suite: suite.Name, Check: check.Name, Want: want, Got: first.Effect, Err: firstErr,
			})
			continue
		}

		second, secondErr := authorizeCheck(ctx, auth, p, op, ref, store)
		if second.Effect != first.Effect {
			res.Failures = append(res.Failures, Failure{
				Suite: suite.Name, Check: check.Name + " (repeat)", Want: first.Effect,
				Got: second.Effect, Err: secondErr,
			})
		}
	}

	res.Elapsed = time.Since(start)
	return res, nil
}

// authorizeCheck routes inserts through AuthorizeRecord with the fixture row
// reconstructed from the store, since drafts have no stored form. Inserts in
// suites must reference a row present in the fixture.
func authorizeCheck(ctx context.Context, auth *showgate.Authorizer, p showgate.Principal, op showgate.Operation, ref showgate.Ref, store *memory.Store) (showgate.Decision, error) {
	if op != showgate.OpInsert {
		return auth.Authorize(ctx, p, op, ref)
	}
	if store == nil {
		return showgate.Decision{}, fmt.Errorf("insert checks require the in-memory runner")
	}
	rec, err := recordFromStore(ctx, store, ref)
	if err != nil {
		return showgate.Decision{}, err
	}
	return auth.AuthorizeRecord(ctx, p, op, rec)
}

func recordFromStore(ctx context.Context, store *memory.Store, ref showgate.Ref) (showgate.Record, error) {
	var (
		rec showgate.Record
		ok  bool
		err error
	)
	switch ref.Type {
	case showgate.TypeShow:
		rec, ok, err = found(store.ShowByID(ctx, ref.ID))
	case showgate.TypeShowSeries:
		rec, ok, err = found(store.SeriesByID(ctx, ref.ID))
	case showgate.TypeShowParticipation:
		rec, ok, err = found(store.ParticipationByID(ctx, ref.ID))
	case showgate.TypePlannedAttendance:
		rec, ok, err = found(store.AttendanceByID(ctx, ref.ID))
	case showgate.TypeWantList:
		rec, ok, err = found(store.WantListByID(ctx, ref.ID))
	case showgate.TypeSharedWantList:
		rec, ok, err = found(store.SharedWantListByID(ctx, ref.ID))
	case showgate.TypeConversation:
		rec, ok, err = found(store.ConversationByID(ctx, ref.ID))
	case showgate.TypeConversationParticipant:
		rec, ok, err = found(store.ParticipantByID(ctx, ref.ID))
	case showgate.TypeMessage:
		rec, ok, err = found(store.MessageByID(ctx, ref.ID))
	case showgate.TypeFavorite:
		rec, ok, err = found(store.FavoriteByID(ctx, ref.ID))
	case showgate.TypeReview:
		rec, ok, err = found(store.ReviewByID(ctx, ref.ID))
	default:
		return nil, fmt.Errorf("unknown entity type %q", ref.Type)
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("insert check references missing fixture row %s", ref)
	}
	return rec, nil
}

func found[T showgate.Record](v T, ok bool, err error) (showgate.Record, bool, error) {
	return v, ok, err
}

// Seed loads a fixture into an in-memory store.
func Seed(store *memory.Store, f Fixture) {
	for _, v := range f.Profiles {
		store.AddProfile(showgate.Profile{ID: v.ID, Role: v.Role})
	}
	for _, v := range f.Shows {
		store.AddShow(showgate.Show{
			ID: v.ID, OrganizerID: v.OrganizerID, Status: v.Status, Dealers: v.Dealers,
		})
	}
	for _, v := range f.Series {
		store.AddSeries(showgate.ShowSeries{ID: v.ID, OrganizerID: v.OrganizerID, Name: v.Name})
	}
	for _, v := range f.Participation {
		store.AddParticipation(showgate.ShowParticipation{
			ID: v.ID, ShowID: v.ShowID, UserID: v.UserID, Role: v.Role, Status: v.Status,
		})
	}
	for _, v := range f.Attendance {
		store.AddAttendance(showgate.PlannedAttendance{ID: v.ID, UserID: v.UserID, ShowID: v.ShowID})
	}
	for _, v := range f.WantLists {
		store.AddWantList(showgate.WantList{ID: v.ID, UserID: v.UserID, Content: v.Content})
	}
	for _, v := range f.Shared {
		store.AddSharedWantList(showgate.SharedWantList{ID: v.ID, WantListID: v.WantListID, ShowID: v.ShowID})
	}
	for _, v := range f.Conversations {
		store.AddConversation(showgate.Conversation{ID: v.ID, CreatedBy: v.CreatedBy, Subject: v.Subject})
	}
	for _, v := range f.Participants {
		store.AddConversationParticipant(showgate.ConversationParticipant{
			ID: v.ID, ConversationID: v.ConversationID, UserID: v.UserID,
		})
	}
	for _, v := range f.Messages {
		store.AddMessage(showgate.Message{
			ID: v.ID, ConversationID: v.ConversationID, SenderID: v.SenderID, Body: v.Body,
		})
	}
	for _, v := range f.Favorites {
		store.AddFavorite(showgate.Favorite{ID: v.ID, UserID: v.UserID, ShowID: v.ShowID})
	}
	for _, v := range f.Reviews {
		store.AddReview(showgate.Review{ID: v.ID, ShowID: v.ShowID, UserID: v.UserID, Rating: v.Rating})
	}
}
