package showgate

import (
	"context"
	"fmt"
)

// SessionVerifier is the external identity collaborator: it turns an opaque
// session credential into a user ID. Implementations wrap whatever token or
// session scheme the platform uses; the engine only needs the resulting ID.
// A bad or expired credential must return an error wrapping
// ErrUnauthenticated.
type SessionVerifier interface {
	VerifySession(ctx context.Context, credential string) (userID string, err error)
}

// PrincipalResolver turns a session credential into a Principal. It performs
// exactly one profile point lookup per call and normalizes the stored role
// string into the closed enum. Callers should resolve once per request and
// reuse the Principal for every authorization within it.
type PrincipalResolver struct {
	sessions SessionVerifier
	profiles ProfileStore
}

// NewPrincipalResolver builds a resolver over the identity collaborator and
// the profile store.
func NewPrincipalResolver(sessions SessionVerifier, profiles ProfileStore) *PrincipalResolver {
	return &PrincipalResolver{sessions: sessions, profiles: profiles}
}

// Resolve verifies the credential and loads the profile. Unknown role strings
// resolve to RoleUnknown, never a privileged role. A missing profile is
// unauthenticated: a session without an account cannot act as anyone.
// No retries; both lookups are idempotent point reads.
func (r *PrincipalResolver) Resolve(ctx context.Context, credential string) (Principal, error) {
	userID, err := r.sessions.VerifySession(ctx, credential)
	if err != nil {
		if IsUnauthenticated(err) {
			return Principal{}, err
		}
		return Principal{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	profile, ok, err := r.profiles.ProfileByID(ctx, userID)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: profile lookup: %v", ErrEvaluation, err)
	}
	if !ok {
		return Principal{}, fmt.Errorf("%w: no profile for session user", ErrUnauthenticated)
	}

	return Principal{ID: profile.ID, Role: ParseRole(profile.Role)}, nil
}
