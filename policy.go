package showgate

import (
	"context"
	"fmt"
)

// Authorizer evaluates the fixed policy matrix. It is read-only and holds no
// mutable state beyond the optional cache, so one instance serves concurrent
// requests. Decisions are a pure function of the data visible through the
// ports; building the ports over the caller's transaction makes the decision
// and the guarded access share one snapshot.
type Authorizer struct {
	ports Ports

	// Narrowed capability values. Each rule only ever sees the one built for
	// it, which statically excludes the rule's own entity port.
	showAcc   showAccess
	wantAcc   wantListAccess
	sharedAcc sharedWantListAccess
	convAcc   conversationAccess

	cache              Cache
	audit              AuditSink
	override           Override
	useContextOverride bool
	services           map[string]struct{}
}

// Option configures an Authorizer.
type Option func(*Authorizer)

// WithCache enables decision caching. Only fault-free decisions are cached.
// For strict same-transaction semantics use a per-request cache or none.
func WithCache(c Cache) Option {
	return func(a *Authorizer) {
		a.cache = c
	}
}

// WithAudit attaches an audit sink. Denies, override allows, and evaluation
// faults are forwarded to it; routine allows are not. Pass an *Emitter for
// asynchronous, non-blocking delivery.
func WithAudit(sink AuditSink) Option {
	return func(a *Authorizer) {
		a.audit = sink
	}
}

// WithOverride sets an override that bypasses policy evaluation.
// Use OverrideAllow for trusted tools or testing authorized paths,
// OverrideDeny for testing unauthorized paths. This is intentionally separate
// from context-based overrides to make the bypass explicit at construction.
func WithOverride(o Override) Option {
	return func(a *Authorizer) {
		a.override = o
	}
}

// WithContextOverride enables context-based overrides. When enabled,
// Authorize consults OverrideFromContext(ctx) before evaluating. Precedence:
// context override, then construction override, then policy evaluation.
//
// By default context overrides are NOT consulted; the opt-in keeps middleware
// from silently bypassing authorization.
func WithContextOverride() Option {
	return func(a *Authorizer) {
		a.useContextOverride = true
	}
}

// WithServicePrincipals registers principal IDs that evaluate like admins:
// unconditional allow for every entity and operation. Intended for internal
// service identities (ingestion pipelines, notification workers).
func WithServicePrincipals(ids ...string) Option {
	return func(a *Authorizer) {
		for _, id := range ids {
			a.services[id] = struct{}{}
		}
	}
}

// New builds an Authorizer over the given ports. All ports are required;
// a nil port is a programming error and panics.
func New(ports Ports, opts ...Option) *Authorizer {
	if name := ports.validate(); name != "" {
		panic(fmt.Sprintf("showgate: nil port %s", name))
	}

	showAcc := showAccess{shows: ports.Shows, attendance: ports.PlannedAttendance}
	a := &Authorizer{
		ports:     ports,
		showAcc:   showAcc,
		wantAcc:   wantListAccess{showAccess: showAcc, shared: ports.SharedWantLists},
		sharedAcc: sharedWantListAccess{showAccess: showAcc, wantLists: ports.WantLists},
		convAcc:   conversationAccess{participants: ports.ConversationParticipants},
		services:  make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// anonReadable lists the entities whose SELECT is open to anonymous and
// unknown-role principals. Everything else fails closed.
var anonReadable = map[EntityType]struct{}{
	TypeShow:       {},
	TypeShowSeries: {},
}

func publicSelect(op Operation, t EntityType) bool {
	if op != OpSelect {
		return false
	}
	_, ok := anonReadable[t]
	return ok
}

// privileged reports whether the principal bypasses the matrix entirely.
func (a *Authorizer) privileged(p Principal) (bool, string) {
	if p.Role.IsAdmin() {
		return true, ReasonAdminOverride
	}
	if _, ok := a.services[p.ID]; ok && p.ID != "" {
		return true, ReasonServiceOverride
	}
	return false, ""
}

// Authorize decides whether the principal may perform op on the referenced
// entity. The row is loaded through the ports; a missing row denies with
// ReasonDenyNotFound, and only privileged principals additionally receive
// ErrNotFound (everyone else cannot distinguish absence from denial).
//
// A non-nil error alongside a deny means the evaluation itself degraded:
// ErrEvaluation wraps the store fault and the deny is fail-closed, not a
// policy verdict. Callers may retry once if the underlying fetch is
// retryable.
//
// OpInsert has no existing row to load; use AuthorizeRecord with the draft.
func (a *Authorizer) Authorize(ctx context.Context, p Principal, op Operation, ref Ref) (Decision, error) {
	if op == OpInsert {
		return deny(ReasonDenyOperationUnsupported),
			fmt.Errorf("showgate: Authorize cannot evaluate inserts, use AuthorizeRecord with the draft row")
	}

	if d, ok := a.overridden(ctx); ok {
		a.record(p, op, ref, d)
		return d, nil
	}

	if d, ok := a.gate(p, op, ref.Type); ok {
		a.record(p, op, ref, d)
		return d, nil
	}

	if a.cache != nil {
		if d, ok := a.cache.Get(p, op, ref); ok {
			return d, nil
		}
	}

	// An empty ID is a type-level probe ("may this principal touch this
	// entity type at all"): evaluate against the zero row instead of
	// loading. Ownership predicates never match it because authenticated
	// principals have non-empty IDs.
	var rec Record
	if ref.ID == "" {
		rec = zeroRecord(ref.Type)
		if rec == nil {
			return deny(ReasonDenyOperationUnsupported),
				fmt.Errorf("showgate: unknown entity type %q", ref.Type)
		}
	} else {
		loaded, ok, err := a.load(ctx, ref)
		if err != nil {
			d := deny(ReasonDenyEvaluationFault)
			a.record(p, op, ref, d)
			return d, fmt.Errorf("%w: load %s: %v", ErrEvaluation, ref, err)
		}
		if !ok {
			d := deny(ReasonDenyNotFound)
			a.record(p, op, ref, d)
			if priv, _ := a.privileged(p); priv {
				return d, fmt.Errorf("%w: %s", ErrNotFound, ref)
			}
			return d, nil
		}
		rec = loaded
	}

	d, err := a.decide(ctx, p, op, rec)
	if err != nil {
		a.record(p, op, ref, d)
		return d, err
	}

	if a.cache != nil {
		a.cache.Set(p, op, ref, d)
	}
	a.record(p, op, ref, d)
	return d, nil
}

// AuthorizeRecord decides against a caller-supplied row: the draft for an
// insert, or an already-loaded row when filtering list results. No port
// lookup is made for the row itself; relationship predicates still read
// through the ports.
func (a *Authorizer) AuthorizeRecord(ctx context.Context, p Principal, op Operation, rec Record) (Decision, error) {
	ref := rec.EntityRef()

	if d, ok := a.overridden(ctx); ok {
		a.record(p, op, ref, d)
		return d, nil
	}

	if d, ok := a.gate(p, op, ref.Type); ok {
		a.record(p, op, ref, d)
		return d, nil
	}

	d, err := a.decide(ctx, p, op, rec)
	a.record(p, op, ref, d)
	return d, err
}

// overridden applies the override layers, in precedence order.
func (a *Authorizer) overridden(ctx context.Context) (Decision, bool) {
	o := OverrideUnset
	if a.useContextOverride {
		o = OverrideFromContext(ctx)
	}
	if o == OverrideUnset {
		o = a.override
	}
	switch o {
	case OverrideAllow:
		return allow(ReasonOverride), true
	case OverrideDeny:
		return deny(ReasonOverride), true
	}
	return Decision{}, false
}

// gate applies the pre-evaluation checks that need no data: anonymous
// principals and unresolvable roles only reach public reads.
func (a *Authorizer) gate(p Principal, op Operation, t EntityType) (Decision, bool) {
	if publicSelect(op, t) {
		return Decision{}, false
	}
	if p.Anonymous() {
		return Decision{Effect: EffectUnauthenticated, Reason: ReasonDenyUnauthenticated}, true
	}
	if p.Role == RoleUnknown {
		if _, service := a.services[p.ID]; !service {
			return deny(ReasonDenyRoleRequired), true
		}
	}
	return Decision{}, false
}

// decide runs the privileged short-circuit and then the entity rule.
func (a *Authorizer) decide(ctx context.Context, p Principal, op Operation, rec Record) (Decision, error) {
	if priv, reason := a.privileged(p); priv {
		return allow(reason), nil
	}

	d, err := a.evaluateRule(ctx, p, op, rec)
	if err != nil {
		return deny(ReasonDenyEvaluationFault), fmt.Errorf("%w: %s: %v", ErrEvaluation, rec.EntityRef(), err)
	}
	return d, nil
}

// record forwards auditable outcomes: every non-allow, and allows granted by
// a bypass rather than the matrix.
func (a *Authorizer) record(p Principal, op Operation, ref Ref, d Decision) {
	if a.audit == nil {
		return
	}
	if d.Effect == EffectAllow {
		switch d.Reason {
		case ReasonAdminOverride, ReasonServiceOverride, ReasonOverride:
		default:
			return
		}
	}
	a.audit.Emit(AuditEvent{
		PrincipalID: p.ID,
		EntityType:  ref.Type,
		EntityID:    ref.ID,
		Operation:   op,
		Effect:      d.Effect,
		Reason:      d.Reason,
	})
}

// load fetches the row for a ref through the matching port.
func (a *Authorizer) load(ctx context.Context, ref Ref) (Record, bool, error) {
	switch ref.Type {
	case TypeShow:
		return asRecord(a.ports.Shows.ShowByID(ctx, ref.ID))
	case TypeShowSeries:
		return asRecord(a.ports.Series.SeriesByID(ctx, ref.ID))
	case TypeShowParticipation:
		return asRecord(a.ports.Participation.ParticipationByID(ctx, ref.ID))
	case TypePlannedAttendance:
		return asRecord(a.ports.PlannedAttendance.AttendanceByID(ctx, ref.ID))
	case TypeWantList:
		return asRecord(a.ports.WantLists.WantListByID(ctx, ref.ID))
	case TypeSharedWantList:
		return asRecord(a.ports.SharedWantLists.SharedWantListByID(ctx, ref.ID))
	case TypeConversation:
		return asRecord(a.ports.Conversations.ConversationByID(ctx, ref.ID))
	case TypeConversationParticipant:
		return asRecord(a.ports.ConversationParticipants.ParticipantByID(ctx, ref.ID))
	case TypeMessage:
		return asRecord(a.ports.Messages.MessageByID(ctx, ref.ID))
	case TypeFavorite:
		return asRecord(a.ports.Favorites.FavoriteByID(ctx, ref.ID))
	case TypeReview:
		return asRecord(a.ports.Reviews.ReviewByID(ctx, ref.ID))
	}
	return nil, false, fmt.Errorf("unknown entity type %q", ref.Type)
}

func asRecord[T Record](v T, ok bool, err error) (Record, bool, error) {
	if err != nil || !ok {
		return nil, false, err
	}
	return v, true, nil
}

// zeroRecord returns the zero row for a type-level probe, or nil for an
// unknown type.
func zeroRecord(t EntityType) Record {
	switch t {
	case TypeShow:
		return Show{}
	case TypeShowSeries:
		return ShowSeries{}
	case TypeShowParticipation:
		return ShowParticipation{}
	case TypePlannedAttendance:
		return PlannedAttendance{}
	case TypeWantList:
		return WantList{}
	case TypeSharedWantList:
		return SharedWantList{}
	case TypeConversation:
		return Conversation{}
	case TypeConversationParticipant:
		return ConversationParticipant{}
	case TypeMessage:
		return Message{}
	case TypeFavorite:
		return Favorite{}
	case TypeReview:
		return Review{}
	}
	return nil
}

// evaluateRule dispatches to the per-entity rule. Rules combine their
// predicates with OR and return the first allow; an error is a store fault
// and fails closed in decide.
func (a *Authorizer) evaluateRule(ctx context.Context, p Principal, op Operation, rec Record) (Decision, error) {
	switch r := rec.(type) {
	case Show:
		return a.ruleShow(ctx, p, op, r)
	case ShowSeries:
		return a.ruleShowSeries(p, op, r)
	case ShowParticipation:
		return a.ruleParticipation(ctx, p, op, r)
	case PlannedAttendance:
		return a.rulePlannedAttendance(ctx, p, op, r)
	case WantList:
		return a.ruleWantList(ctx, p, op, r)
	case SharedWantList:
		return a.ruleSharedWantList(ctx, p, op, r)
	case Conversation:
		return a.ruleConversation(ctx, p, op, r)
	case ConversationParticipant:
		return a.ruleConversationParticipant(ctx, p, op, r)
	case Message:
		return a.ruleMessage(ctx, p, op, r)
	case Favorite:
		return a.ruleFavorite(p, op, r)
	case Review:
		return a.ruleReview(ctx, p, op, r)
	}
	return deny(ReasonDenyOperationUnsupported), fmt.Errorf("unknown record type %T", rec)
}
