package showgate_test

import (
	"context"
	"errors"
	"testing"

	"github.com/showgate/showgate"
	"github.com/showgate/showgate/store/memory"
)

// seedStore builds the data set the matrix tests evaluate against: two
// organizers with one show each, a dealer and an MVP dealer attached to the
// first show, attendees with want lists, a share, a conversation, and a
// review.
func seedStore() *memory.Store {
	s := memory.New()

	s.AddProfile(showgate.Profile{ID: "admin-1", Role: "admin"})
	s.AddProfile(showgate.Profile{ID: "org-1", Role: "show_organizer"})
	s.AddProfile(showgate.Profile{ID: "org-2", Role: "show_organizer"})
	s.AddProfile(showgate.Profile{ID: "mvp-1", Role: "mvp_dealer"})
	s.AddProfile(showgate.Profile{ID: "dealer-1", Role: "dealer"})
	s.AddProfile(showgate.Profile{ID: "att-1", Role: "attendee"})
	s.AddProfile(showgate.Profile{ID: "att-2", Role: "attendee"})

	s.AddShow(showgate.Show{ID: "show-1", OrganizerID: "org-1", Dealers: []string{"mvp-1"}})
	s.AddShow(showgate.Show{ID: "show-2", OrganizerID: "org-2"})
	s.AddSeries(showgate.ShowSeries{ID: "series-1", OrganizerID: "org-1"})

	s.AddParticipation(showgate.ShowParticipation{ID: "part-1", ShowID: "show-1", UserID: "dealer-1", Role: "dealer", Status: "confirmed"})
	s.AddParticipation(showgate.ShowParticipation{ID: "part-2", ShowID: "show-1", UserID: "att-1", Role: "attendee", Status: "registered"})

	s.AddAttendance(showgate.PlannedAttendance{ID: "pa-1", UserID: "att-1", ShowID: "show-1"})
	s.AddAttendance(showgate.PlannedAttendance{ID: "pa-2", UserID: "dealer-1", ShowID: "show-1"})

	s.AddWantList(showgate.WantList{ID: "wl-1", UserID: "att-1"})
	s.AddWantList(showgate.WantList{ID: "wl-2", UserID: "att-2"})
	s.AddSharedWantList(showgate.SharedWantList{ID: "swl-1", WantListID: "wl-1", ShowID: "show-1"})

	s.AddConversation(showgate.Conversation{ID: "conv-1", CreatedBy: "att-1"})
	s.AddConversationParticipant(showgate.ConversationParticipant{ID: "cp-1", ConversationID: "conv-1", UserID: "att-1"})
	s.AddConversationParticipant(showgate.ConversationParticipant{ID: "cp-2", ConversationID: "conv-1", UserID: "dealer-1"})
	s.AddMessage(showgate.Message{ID: "msg-1", ConversationID: "conv-1", SenderID: "att-1"})

	s.AddFavorite(showgate.Favorite{ID: "fav-1", UserID: "att-1", ShowID: "show-1"})
	s.AddReview(showgate.Review{ID: "rev-1", ShowID: "show-1", UserID: "att-1", Rating: 5})

	return s
}

var testPrincipals = map[string]showgate.Principal{
	"":         {},
	"admin-1":  {ID: "admin-1", Role: showgate.RoleAdmin},
	"org-1":    {ID: "org-1", Role: showgate.RoleShowOrganizer},
	"org-2":    {ID: "org-2", Role: showgate.RoleShowOrganizer},
	"mvp-1":    {ID: "mvp-1", Role: showgate.RoleMvpDealer},
	"dealer-1": {ID: "dealer-1", Role: showgate.RoleDealer},
	"att-1":    {ID: "att-1", Role: showgate.RoleAttendee},
	"att-2":    {ID: "att-2", Role: showgate.RoleAttendee},
}

type matrixCase struct {
	name      string
	principal string
	op        showgate.Operation
	entity    showgate.EntityType
	id        string
	want      showgate.Effect
}

var matrixCases = []matrixCase{
	// Shows: public read, organizer-of-row mutation.
	{"anonymous reads show", "", showgate.OpSelect, showgate.TypeShow, "show-1", showgate.EffectAllow},
	{"attendee reads show", "att-1", showgate.OpSelect, showgate.TypeShow, "show-1", showgate.EffectAllow},
	{"organizer updates own show", "org-1", showgate.OpUpdate, showgate.TypeShow, "show-1", showgate.EffectAllow},
	{"other organizer denied update", "org-2", showgate.OpUpdate, showgate.TypeShow, "show-1", showgate.EffectDeny},
	{"organizer deletes own show", "org-1", showgate.OpDelete, showgate.TypeShow, "show-1", showgate.EffectAllow},
	{"attendee denied delete", "att-1", showgate.OpDelete, showgate.TypeShow, "show-1", showgate.EffectDeny},
	{"anonymous denied update", "", showgate.OpUpdate, showgate.TypeShow, "show-1", showgate.EffectUnauthenticated},

	// Show series mirror shows.
	{"anonymous reads series", "", showgate.OpSelect, showgate.TypeShowSeries, "series-1", showgate.EffectAllow},
	{"organizer updates own series", "org-1", showgate.OpUpdate, showgate.TypeShowSeries, "series-1", showgate.EffectAllow},
	{"other organizer denied series", "org-2", showgate.OpUpdate, showgate.TypeShowSeries, "series-1", showgate.EffectDeny},

	// Participation: self, organizer of the show, MVP dealer on the show.
	{"participant reads own row", "dealer-1", showgate.OpSelect, showgate.TypeShowParticipation, "part-1", showgate.EffectAllow},
	{"organizer reads participant row", "org-1", showgate.OpSelect, showgate.TypeShowParticipation, "part-1", showgate.EffectAllow},
	{"mvp reads row on its show", "mvp-1", showgate.OpSelect, showgate.TypeShowParticipation, "part-1", showgate.EffectAllow},
	{"plain dealer denied sibling row", "dealer-1", showgate.OpSelect, showgate.TypeShowParticipation, "part-2", showgate.EffectDeny},
	{"unrelated organizer denied row", "org-2", showgate.OpSelect, showgate.TypeShowParticipation, "part-1", showgate.EffectDeny},
	{"anonymous participation", "", showgate.OpSelect, showgate.TypeShowParticipation, "part-1", showgate.EffectUnauthenticated},
	{"organizer updates participant", "org-1", showgate.OpUpdate, showgate.TypeShowParticipation, "part-1", showgate.EffectAllow},
	{"organizer denied cancel", "org-1", showgate.OpDelete, showgate.TypeShowParticipation, "part-1", showgate.EffectDeny},
	{"self cancels", "dealer-1", showgate.OpDelete, showgate.TypeShowParticipation, "part-1", showgate.EffectAllow},

	// Planned attendance.
	{"attendee reads own attendance", "att-1", showgate.OpSelect, showgate.TypePlannedAttendance, "pa-1", showgate.EffectAllow},
	{"organizer reads attendance", "org-1", showgate.OpSelect, showgate.TypePlannedAttendance, "pa-1", showgate.EffectAllow},
	{"dealer on show reads attendance", "dealer-1", showgate.OpSelect, showgate.TypePlannedAttendance, "pa-1", showgate.EffectAllow},
	{"attendee denied foreign attendance", "att-2", showgate.OpSelect, showgate.TypePlannedAttendance, "pa-1", showgate.EffectDeny},
	{"only self deletes attendance", "org-1", showgate.OpDelete, showgate.TypePlannedAttendance, "pa-1", showgate.EffectDeny},

	// Want lists.
	{"owner reads own want list", "att-1", showgate.OpSelect, showgate.TypeWantList, "wl-1", showgate.EffectAllow},
	{"mvp reads shared want list", "mvp-1", showgate.OpSelect, showgate.TypeWantList, "wl-1", showgate.EffectAllow},
	{"organizer reads shared want list", "org-1", showgate.OpSelect, showgate.TypeWantList, "wl-1", showgate.EffectAllow},
	{"plain dealer denied shared want list", "dealer-1", showgate.OpSelect, showgate.TypeWantList, "wl-1", showgate.EffectDeny},
	{"mvp denied unshared want list", "mvp-1", showgate.OpSelect, showgate.TypeWantList, "wl-2", showgate.EffectDeny},
	{"unrelated organizer denied want list", "org-2", showgate.OpSelect, showgate.TypeWantList, "wl-1", showgate.EffectDeny},
	{"only owner updates want list", "mvp-1", showgate.OpUpdate, showgate.TypeWantList, "wl-1", showgate.EffectDeny},
	{"owner updates want list", "att-1", showgate.OpUpdate, showgate.TypeWantList, "wl-1", showgate.EffectAllow},

	// Shared want list join rows.
	{"owner reads own share", "att-1", showgate.OpSelect, showgate.TypeSharedWantList, "swl-1", showgate.EffectAllow},
	{"mvp reads share on its show", "mvp-1", showgate.OpSelect, showgate.TypeSharedWantList, "swl-1", showgate.EffectAllow},
	{"attendee denied foreign share", "att-2", showgate.OpSelect, showgate.TypeSharedWantList, "swl-1", showgate.EffectDeny},
	{"shares are immutable", "att-1", showgate.OpUpdate, showgate.TypeSharedWantList, "swl-1", showgate.EffectDeny},
	{"owner revokes share", "att-1", showgate.OpDelete, showgate.TypeSharedWantList, "swl-1", showgate.EffectAllow},

	// Messaging.
	{"participant reads conversation", "dealer-1", showgate.OpSelect, showgate.TypeConversation, "conv-1", showgate.EffectAllow},
	{"outsider denied conversation", "att-2", showgate.OpSelect, showgate.TypeConversation, "conv-1", showgate.EffectDeny},
	{"participant reads message", "dealer-1", showgate.OpSelect, showgate.TypeMessage, "msg-1", showgate.EffectAllow},
	{"sender updates own message", "att-1", showgate.OpUpdate, showgate.TypeMessage, "msg-1", showgate.EffectAllow},
	{"participant denied foreign message update", "dealer-1", showgate.OpUpdate, showgate.TypeMessage, "msg-1", showgate.EffectDeny},
	{"participant reads membership row", "dealer-1", showgate.OpSelect, showgate.TypeConversationParticipant, "cp-1", showgate.EffectAllow},
	{"outsider denied membership row", "att-2", showgate.OpSelect, showgate.TypeConversationParticipant, "cp-1", showgate.EffectDeny},

	// Favorites are strictly private.
	{"owner reads favorite", "att-1", showgate.OpSelect, showgate.TypeFavorite, "fav-1", showgate.EffectAllow},
	{"organizer denied favorite", "org-1", showgate.OpSelect, showgate.TypeFavorite, "fav-1", showgate.EffectDeny},

	// Reviews.
	{"other attendee reads review", "att-2", showgate.OpSelect, showgate.TypeReview, "rev-1", showgate.EffectAllow},
	{"anonymous denied review", "", showgate.OpSelect, showgate.TypeReview, "rev-1", showgate.EffectUnauthenticated},
	{"author updates review", "att-1", showgate.OpUpdate, showgate.TypeReview, "rev-1", showgate.EffectAllow},
	{"organizer responds to review", "org-1", showgate.OpUpdate, showgate.TypeReview, "rev-1", showgate.EffectAllow},
	{"other organizer denied review", "org-2", showgate.OpUpdate, showgate.TypeReview, "rev-1", showgate.EffectDeny},
	{"only author deletes review", "org-1", showgate.OpDelete, showgate.TypeReview, "rev-1", showgate.EffectDeny},
}

func TestAuthorize_PolicyMatrix(t *testing.T) {
	ctx := context.Background()
	auth := showgate.New(seedStore().Ports())

	for _, tt := range matrixCases {
		t.Run(tt.name, func(t *testing.T) {
			p := testPrincipals[tt.principal]
			d, err := auth.Authorize(ctx, p, tt.op, showgate.Ref{Type: tt.entity, ID: tt.id})
			if err != nil {
				t.Fatalf("Authorize returned error: %v", err)
			}
			if d.Effect != tt.want {
				t.Errorf("effect = %v (reason %s), want %v", d.Effect, d.Reason, tt.want)
			}
		})
	}
}

// The matrix must be a deterministic function of the unchanged data set.
func TestAuthorize_Deterministic(t *testing.T) {
	ctx := context.Background()
	auth := showgate.New(seedStore().Ports())

	for _, tt := range matrixCases {
		p := testPrincipals[tt.principal]
		ref := showgate.Ref{Type: tt.entity, ID: tt.id}
		first, _ := auth.Authorize(ctx, p, tt.op, ref)
		second, _ := auth.Authorize(ctx, p, tt.op, ref)
		if first != second {
			t.Errorf("%s: first evaluation %+v, second %+v", tt.name, first, second)
		}
	}
}

// Admins are allowed everything that exists, for every operation.
func TestAuthorize_AdminOverride(t *testing.T) {
	ctx := context.Background()
	auth := showgate.New(seedStore().Ports())
	admin := testPrincipals["admin-1"]

	rowIDs := map[showgate.EntityType]string{
		showgate.TypeShow:                    "show-1",
		showgate.TypeShowSeries:              "series-1",
		showgate.TypeShowParticipation:       "part-1",
		showgate.TypePlannedAttendance:       "pa-1",
		showgate.TypeWantList:                "wl-2",
		showgate.TypeSharedWantList:          "swl-1",
		showgate.TypeConversation:            "conv-1",
		showgate.TypeConversationParticipant: "cp-1",
		showgate.TypeMessage:                 "msg-1",
		showgate.TypeFavorite:                "fav-1",
		showgate.TypeReview:                  "rev-1",
	}

	for _, entity := range showgate.EntityTypes() {
		id, ok := rowIDs[entity]
		if !ok {
			t.Fatalf("no fixture row for entity %s", entity)
		}
		for _, op := range []showgate.Operation{showgate.OpSelect, showgate.OpUpdate, showgate.OpDelete} {
			d, err := auth.Authorize(ctx, admin, op, showgate.Ref{Type: entity, ID: id})
			if err != nil {
				t.Fatalf("%s %s: %v", op, entity, err)
			}
			if !d.Allowed() {
				t.Errorf("%s %s: admin denied (reason %s)", op, entity, d.Reason)
			}
			if d.Reason != showgate.ReasonAdminOverride && d.Reason != showgate.ReasonPublicRead {
				t.Errorf("%s %s: reason = %s", op, entity, d.Reason)
			}
		}
	}
}

// Unknown roles fail closed on everything except the public-readable types,
// including rows the principal owns.
func TestAuthorize_UnknownRoleFailsClosed(t *testing.T) {
	ctx := context.Background()
	store := seedStore()
	store.AddProfile(showgate.Profile{ID: "ghost-1", Role: "superuser"})
	store.AddWantList(showgate.WantList{ID: "wl-ghost", UserID: "ghost-1"})
	auth := showgate.New(store.Ports())

	ghost := showgate.Principal{ID: "ghost-1", Role: showgate.ParseRole("superuser")}

	d, err := auth.Authorize(ctx, ghost, showgate.OpSelect, showgate.Ref{Type: showgate.TypeShow, ID: "show-1"})
	if err != nil || !d.Allowed() {
		t.Errorf("unknown role should read public show, got %+v err %v", d, err)
	}

	d, err = auth.Authorize(ctx, ghost, showgate.OpSelect, showgate.Ref{Type: showgate.TypeWantList, ID: "wl-ghost"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Allowed() || d.Reason != showgate.ReasonDenyRoleRequired {
		t.Errorf("unknown role should be denied its own want list, got %+v", d)
	}

	d, _ = auth.Authorize(ctx, ghost, showgate.OpUpdate, showgate.Ref{Type: showgate.TypeShow, ID: "show-1"})
	if d.Allowed() {
		t.Errorf("unknown role should not mutate anything, got %+v", d)
	}
}

// A store fault denies with an evaluation-fault error, and a recovered store
// stops denying.
func TestAuthorize_FailClosedOnStoreFault(t *testing.T) {
	ctx := context.Background()
	store := seedStore()
	auth := showgate.New(store.Ports())
	owner := testPrincipals["att-1"]
	ref := showgate.Ref{Type: showgate.TypeWantList, ID: "wl-1"}

	store.Fail(errors.New("connection reset"))

	d, err := auth.Authorize(ctx, owner, showgate.OpSelect, ref)
	if d.Allowed() {
		t.Fatalf("fault should deny, got %+v", d)
	}
	if d.Reason != showgate.ReasonDenyEvaluationFault {
		t.Errorf("reason = %s, want %s", d.Reason, showgate.ReasonDenyEvaluationFault)
	}
	if !showgate.IsEvaluationFault(err) {
		t.Errorf("error should wrap ErrEvaluation, got %v", err)
	}

	// Even public reads fail closed while the store is down.
	d, err = auth.Authorize(ctx, showgate.Principal{}, showgate.OpSelect, showgate.Ref{Type: showgate.TypeShow, ID: "show-1"})
	if d.Allowed() || !showgate.IsEvaluationFault(err) {
		t.Errorf("public read during fault: got %+v err %v", d, err)
	}

	store.Fail(nil)
	d, err = auth.Authorize(ctx, owner, showgate.OpSelect, ref)
	if err != nil || !d.Allowed() {
		t.Errorf("recovered store should allow again, got %+v err %v", d, err)
	}
}

// A fault inside a relationship predicate, not the row load, also fails
// closed: the row is supplied directly so only the predicate reads the store.
func TestAuthorizeRecord_FailClosedOnPredicateFault(t *testing.T) {
	ctx := context.Background()
	store := seedStore()
	auth := showgate.New(store.Ports())

	rec, _, _ := store.ParticipationByID(ctx, "part-1")
	store.Fail(errors.New("timeout"))

	d, err := auth.AuthorizeRecord(ctx, testPrincipals["org-1"], showgate.OpSelect, rec)
	if d.Allowed() {
		t.Fatalf("predicate fault should deny, got %+v", d)
	}
	if !showgate.IsEvaluationFault(err) {
		t.Errorf("error should wrap ErrEvaluation, got %v", err)
	}
}

// Missing rows deny for everyone; only privileged principals can tell
// absence apart from denial.
func TestAuthorize_MissingRow(t *testing.T) {
	ctx := context.Background()
	auth := showgate.New(seedStore().Ports())
	ref := showgate.Ref{Type: showgate.TypeWantList, ID: "wl-404"}

	d, err := auth.Authorize(ctx, testPrincipals["att-1"], showgate.OpSelect, ref)
	if err != nil {
		t.Errorf("non-admin should not learn the row is missing, got err %v", err)
	}
	if d.Allowed() || d.Reason != showgate.ReasonDenyNotFound {
		t.Errorf("decision = %+v", d)
	}

	d, err = auth.Authorize(ctx, testPrincipals["admin-1"], showgate.OpSelect, ref)
	if d.Allowed() {
		t.Errorf("missing row should deny even admins, got %+v", d)
	}
	if !showgate.IsNotFound(err) {
		t.Errorf("admin should receive ErrNotFound, got %v", err)
	}
}

// The cross-referencing data set that used to recurse: participation rows,
// the legacy dealer list, and planned attendance all pointing at the same
// shows. Every decision must come back from bounded point lookups.
func TestAuthorize_RecursionTermination(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	s.AddShow(showgate.Show{ID: "show-a", OrganizerID: "org-1", Dealers: []string{"mvp-1", "mvp-2", "dealer-1"}})
	s.AddShow(showgate.Show{ID: "show-b", OrganizerID: "org-1", Dealers: []string{"mvp-2"}})
	s.AddParticipation(showgate.ShowParticipation{ID: "part-a1", ShowID: "show-a", UserID: "mvp-1", Status: "confirmed"})
	s.AddParticipation(showgate.ShowParticipation{ID: "part-a2", ShowID: "show-a", UserID: "mvp-2", Status: "confirmed"})
	s.AddParticipation(showgate.ShowParticipation{ID: "part-b1", ShowID: "show-b", UserID: "mvp-1", Status: "registered"})
	s.AddAttendance(showgate.PlannedAttendance{ID: "pa-1", UserID: "mvp-1", ShowID: "show-b"})
	s.AddAttendance(showgate.PlannedAttendance{ID: "pa-2", UserID: "mvp-2", ShowID: "show-a"})

	auth := showgate.New(s.Ports())
	mvp1 := showgate.Principal{ID: "mvp-1", Role: showgate.RoleMvpDealer}
	mvp2 := showgate.Principal{ID: "mvp-2", Role: showgate.RoleMvpDealer}

	cases := []struct {
		p    showgate.Principal
		id   string
		want showgate.Effect
	}{
		{mvp1, "part-a2", showgate.EffectAllow}, // via dealer list on show-a
		{mvp1, "part-b1", showgate.EffectAllow}, // own row
		{mvp2, "part-a1", showgate.EffectAllow}, // via attendance on show-a
		{mvp2, "part-b1", showgate.EffectAllow}, // via dealer list on show-b
	}
	for _, tt := range cases {
		d, err := auth.Authorize(ctx, tt.p, showgate.OpSelect,
			showgate.Ref{Type: showgate.TypeShowParticipation, ID: tt.id})
		if err != nil {
			t.Fatalf("%s reads %s: %v", tt.p.ID, tt.id, err)
		}
		if d.Effect != tt.want {
			t.Errorf("%s reads %s: effect %v (reason %s), want %v", tt.p.ID, tt.id, d.Effect, d.Reason, tt.want)
		}
	}
}

func TestAuthorize_TypeLevelProbe(t *testing.T) {
	ctx := context.Background()
	auth := showgate.New(seedStore().Ports())

	// Anonymous may probe the public types.
	d, err := auth.Authorize(ctx, showgate.Principal{}, showgate.OpSelect, showgate.Ref{Type: showgate.TypeShow})
	if err != nil || !d.Allowed() {
		t.Errorf("anonymous show probe: got %+v err %v", d, err)
	}

	// An attendee probing want lists holds no relationship with the zero row.
	d, err = auth.Authorize(ctx, testPrincipals["att-1"], showgate.OpSelect, showgate.Ref{Type: showgate.TypeWantList})
	if err != nil {
		t.Fatalf("probe error: %v", err)
	}
	if d.Allowed() {
		t.Errorf("want list probe should deny, got %+v", d)
	}

	// Unknown entity types are rejected.
	_, err = auth.Authorize(ctx, testPrincipals["att-1"], showgate.OpSelect, showgate.Ref{Type: "booth"})
	if err == nil {
		t.Error("unknown entity type should error")
	}
}

func TestAuthorize_InsertNeedsRecord(t *testing.T) {
	ctx := context.Background()
	auth := showgate.New(seedStore().Ports())

	_, err := auth.Authorize(ctx, testPrincipals["att-1"], showgate.OpInsert, showgate.Ref{Type: showgate.TypeWantList, ID: "wl-9"})
	if err == nil {
		t.Fatal("Authorize should refuse inserts")
	}
}

func TestAuthorizeRecord_Inserts(t *testing.T) {
	ctx := context.Background()
	auth := showgate.New(seedStore().Ports())

	tests := []struct {
		name      string
		principal string
		rec       showgate.Record
		want      showgate.Effect
	}{
		{"organizer creates own show", "org-1",
			showgate.Show{ID: "show-9", OrganizerID: "org-1"}, showgate.EffectAllow},
		{"organizer cannot create show for another", "org-1",
			showgate.Show{ID: "show-9", OrganizerID: "org-2"}, showgate.EffectDeny},
		{"dealer cannot create show", "dealer-1",
			showgate.Show{ID: "show-9", OrganizerID: "dealer-1"}, showgate.EffectDeny},
		{"self registers participation", "dealer-1",
			showgate.ShowParticipation{ID: "part-9", ShowID: "show-2", UserID: "dealer-1"}, showgate.EffectAllow},
		{"nobody registers someone else", "org-1",
			showgate.ShowParticipation{ID: "part-9", ShowID: "show-1", UserID: "dealer-1"}, showgate.EffectDeny},
		{"participant sends message", "att-1",
			showgate.Message{ID: "msg-9", ConversationID: "conv-1", SenderID: "att-1"}, showgate.EffectAllow},
		{"outsider cannot send message", "att-2",
			showgate.Message{ID: "msg-9", ConversationID: "conv-1", SenderID: "att-2"}, showgate.EffectDeny},
		{"sender must be the principal", "att-1",
			showgate.Message{ID: "msg-9", ConversationID: "conv-1", SenderID: "dealer-1"}, showgate.EffectDeny},
		{"attendee who attended reviews", "att-1",
			showgate.Review{ID: "rev-9", ShowID: "show-1", UserID: "att-1"}, showgate.EffectAllow},
		{"attendee who did not attend cannot review", "att-2",
			showgate.Review{ID: "rev-9", ShowID: "show-1", UserID: "att-2"}, showgate.EffectDeny},
		{"owner shares want list", "att-1",
			showgate.SharedWantList{ID: "swl-9", WantListID: "wl-1", ShowID: "show-2"}, showgate.EffectAllow},
		{"non-owner cannot share want list", "dealer-1",
			showgate.SharedWantList{ID: "swl-9", WantListID: "wl-1", ShowID: "show-1"}, showgate.EffectDeny},
		{"creator opens conversation", "att-2",
			showgate.Conversation{ID: "conv-9", CreatedBy: "att-2"}, showgate.EffectAllow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := auth.AuthorizeRecord(ctx, testPrincipals[tt.principal], showgate.OpInsert, tt.rec)
			if err != nil {
				t.Fatalf("AuthorizeRecord: %v", err)
			}
			if d.Effect != tt.want {
				t.Errorf("effect = %v (reason %s), want %v", d.Effect, d.Reason, tt.want)
			}
		})
	}
}

func TestAuthorize_Overrides(t *testing.T) {
	ctx := context.Background()
	store := seedStore()
	owner := testPrincipals["att-1"]
	outsider := testPrincipals["att-2"]
	ref := showgate.Ref{Type: showgate.TypeWantList, ID: "wl-1"}

	t.Run("construction override deny wins over ownership", func(t *testing.T) {
		auth := showgate.New(store.Ports(), showgate.WithOverride(showgate.OverrideDeny))
		d, err := auth.Authorize(ctx, owner, showgate.OpSelect, ref)
		if err != nil || d.Allowed() {
			t.Errorf("got %+v err %v", d, err)
		}
	})

	t.Run("context override requires opt-in", func(t *testing.T) {
		auth := showgate.New(store.Ports())
		ctx := showgate.WithOverrideContext(ctx, showgate.OverrideAllow)
		d, _ := auth.Authorize(ctx, outsider, showgate.OpSelect, ref)
		if d.Allowed() {
			t.Errorf("context override without opt-in should be ignored, got %+v", d)
		}
	})

	t.Run("context override wins over construction", func(t *testing.T) {
		auth := showgate.New(store.Ports(),
			showgate.WithOverride(showgate.OverrideDeny),
			showgate.WithContextOverride())
		ctx := showgate.WithOverrideContext(ctx, showgate.OverrideAllow)
		d, err := auth.Authorize(ctx, outsider, showgate.OpSelect, ref)
		if err != nil || !d.Allowed() || d.Reason != showgate.ReasonOverride {
			t.Errorf("got %+v err %v", d, err)
		}
	})
}

func TestAuthorize_ServicePrincipals(t *testing.T) {
	ctx := context.Background()
	auth := showgate.New(seedStore().Ports(), showgate.WithServicePrincipals("svc-ingest"))

	svc := showgate.Principal{ID: "svc-ingest"}
	d, err := auth.Authorize(ctx, svc, showgate.OpUpdate, showgate.Ref{Type: showgate.TypeShow, ID: "show-1"})
	if err != nil || !d.Allowed() || d.Reason != showgate.ReasonServiceOverride {
		t.Errorf("service principal: got %+v err %v", d, err)
	}

	// The service list does not leak to anonymous principals.
	d, _ = auth.Authorize(ctx, showgate.Principal{}, showgate.OpUpdate, showgate.Ref{Type: showgate.TypeShow, ID: "show-1"})
	if d.Allowed() {
		t.Errorf("anonymous should stay unauthenticated, got %+v", d)
	}
}

func TestAuthorize_CachedDecisions(t *testing.T) {
	ctx := context.Background()
	store := seedStore()
	cache := showgate.NewCache()
	auth := showgate.New(store.Ports(), showgate.WithCache(cache))
	owner := testPrincipals["att-1"]
	ref := showgate.Ref{Type: showgate.TypeWantList, ID: "wl-1"}

	d, err := auth.Authorize(ctx, owner, showgate.OpSelect, ref)
	if err != nil || !d.Allowed() {
		t.Fatalf("got %+v err %v", d, err)
	}
	if cache.Size() == 0 {
		t.Fatal("decision was not cached")
	}

	// The cached allow survives an ownership change until the cache is
	// cleared; afterwards the fresh evaluation denies.
	store.AddWantList(showgate.WantList{ID: "wl-1", UserID: "att-2"})
	d, _ = auth.Authorize(ctx, owner, showgate.OpSelect, ref)
	if !d.Allowed() {
		t.Errorf("expected cached allow, got %+v", d)
	}
	cache.Clear()
	d, _ = auth.Authorize(ctx, owner, showgate.OpSelect, ref)
	if d.Allowed() {
		t.Errorf("expected deny after clear, got %+v", d)
	}
}

// Faulted evaluations must never be cached: a recovered store has to stop
// denying immediately.
func TestAuthorize_FaultsNotCached(t *testing.T) {
	ctx := context.Background()
	store := seedStore()
	cache := showgate.NewCache()
	auth := showgate.New(store.Ports(), showgate.WithCache(cache))
	owner := testPrincipals["att-1"]
	ref := showgate.Ref{Type: showgate.TypeWantList, ID: "wl-1"}

	store.Fail(errors.New("down"))
	if d, _ := auth.Authorize(ctx, owner, showgate.OpSelect, ref); d.Allowed() {
		t.Fatalf("fault should deny, got %+v", d)
	}
	if cache.Size() != 0 {
		t.Fatalf("faulted decision was cached, size %d", cache.Size())
	}

	store.Fail(nil)
	if d, err := auth.Authorize(ctx, owner, showgate.OpSelect, ref); err != nil || !d.Allowed() {
		t.Errorf("recovered store should allow, got %+v err %v", d, err)
	}
}

func TestNew_PanicsOnNilPort(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("New should panic when a port is nil")
		}
	}()

	ports := seedStore().Ports()
	ports.Messages = nil
	showgate.New(ports)
}
