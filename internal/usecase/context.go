package usecase

import "context"

type userKey struct{}

// WithUser attaches the authenticated user id to ctx.
func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userKey{}, userID)
}

// CurrentUser returns the user id attached by WithUser.
func CurrentUser(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userKey{}).(string)
	return id, ok && id != ""
}
