package shared

import "context"

type sessionContextKey struct{}

// ContextWithSession stores the session in context.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFromContext extracts the session from context.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey{}).(*Session)
	return sess
}

// UserIDFromContext resolves the authenticated user bound to the request session.
func UserIDFromContext(ctx context.Context) (int64, error) {
	sess := SessionFromContext(ctx)
	if sess == nil || sess.UserID() <= 0 {
		return 0, ErrUnauthenticated
	}
	return sess.UserID(), nil
}
