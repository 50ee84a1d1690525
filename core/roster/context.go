package roster

import "context"

type ctxKey int

const currentUserKey ctxKey = 1

// WithCurrentUser returns a context carrying the identity issuing the request.
// The presentation layer sets this once it has authenticated the caller.
func WithCurrentUser(ctx context.Context, usr User) context.Context {
	return context.WithValue(ctx, currentUserKey, usr)
}

// CurrentUserFrom extracts the requesting identity from the context.
func CurrentUserFrom(ctx context.Context) (User, bool) {
	usr, ok := ctx.Value(currentUserKey).(User)
	return usr, ok
}
