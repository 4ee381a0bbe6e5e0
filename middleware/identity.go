package middleware

import "context"

// ContextIdentity resolves the caller's user id from the request context
// populated by the auth middleware. Resolution happens per call; nothing is
// cached between repository calls.
type ContextIdentity struct{}

// CurrentUserID implements repository.Identity.
func (ContextIdentity) CurrentUserID(ctx context.Context) (uint, bool) {
	value := ctx.Value(ContextUserIDKey)
	if value == nil {
		return 0, false
	}

	switch v := value.(type) {
	case uint:
		return v, v != 0
	case int:
		return uint(v), v != 0
	case int64:
		return uint(v), v != 0
	case float64:
		return uint(v), v != 0
	default:
		return 0, false
	}
}
