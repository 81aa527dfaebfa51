package showgate

import "context"

// Override bypasses policy evaluation for admin tools and tests.
// Overrides provide explicit control over authorization behavior without
// touching the policy matrix or the underlying data.
//
// The override mechanism has two layers:
//  1. Authorizer-level: set via WithOverride() at construction
//  2. Context-level: set via WithOverrideContext() and opt-in via WithContextOverride()
//
// Context-based overrides are opt-in by design. Applications must explicitly
// enable WithContextOverride() when creating the Authorizer, so an override
// planted in a context by middleware cannot silently bypass authorization.
type Override int

// overrideContextKey is a custom type for context keys to avoid collisions.
type overrideContextKey struct{}

var overrideKey = overrideContextKey{}

const (
	// OverrideUnset means no override - perform normal policy evaluation.
	OverrideUnset Override = iota

	// OverrideAllow bypasses evaluation and always allows.
	// Use for trusted background jobs or testing authorized code paths.
	OverrideAllow

	// OverrideDeny bypasses evaluation and always denies.
	// Use for testing unauthorized code paths without data setup.
	OverrideDeny
)

// WithOverrideContext returns a new context carrying the given override.
//
// IMPORTANT: the Authorizer does NOT automatically consult this value.
// Applications must opt in via WithContextOverride() at construction. This
// keeps the security boundary explicit: "this Authorizer respects context
// overrides."
func WithOverrideContext(ctx context.Context, o Override) context.Context {
	return context.WithValue(ctx, overrideKey, o)
}

// OverrideFromContext retrieves the override from context.
// Returns OverrideUnset if none is set.
func OverrideFromContext(ctx context.Context) Override {
	if o, ok := ctx.Value(overrideKey).(Override); ok {
		return o
	}
	return OverrideUnset
}
