package showgate

import "errors"

// Sentinel errors for the decision taxonomy. Authorize returns a Decision
// for the normal allow/deny outcomes; these errors cover the cases a caller
// must branch on: no principal, a missing entity (admins only), and a store
// fault during evaluation. Plain denies are not errors; use Decision.Err
// when an error-shaped result is more convenient.
var (
	// ErrUnauthenticated means no principal could be resolved from the
	// session credential. Surface it as a generic "must sign in".
	ErrUnauthenticated = errors.New("showgate: unauthenticated")

	// ErrUnauthorized means the policy completed and denied the request.
	// Surface it as a generic "not permitted"; never reveal which predicate
	// failed or whether the entity exists.
	ErrUnauthorized = errors.New("showgate: not permitted")

	// ErrNotFound means the referenced entity does not exist. Authorize only
	// returns it to admin and service principals; everyone else gets an
	// indistinguishable deny, closing the existence-probing channel.
	ErrNotFound = errors.New("showgate: entity not found")

	// ErrEvaluation means a relationship data source could not be reached.
	// The accompanying decision is a fail-closed deny. The caller may retry
	// once if the underlying fetch is itself retryable; the engine never
	// retries.
	ErrEvaluation = errors.New("showgate: evaluation fault")
)

// IsUnauthenticated returns true if err is or wraps ErrUnauthenticated.
func IsUnauthenticated(err error) bool {
	return errors.Is(err, ErrUnauthenticated)
}

// IsUnauthorized returns true if err is or wraps ErrUnauthorized.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsNotFound returns true if err is or wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsEvaluationFault returns true if err is or wraps ErrEvaluation.
func IsEvaluationFault(err error) bool {
	return errors.Is(err, ErrEvaluation)
}
