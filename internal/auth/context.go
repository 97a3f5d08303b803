package auth

import (
	"context"

	"github.com/neexbeast/travelplanner/internal/travel"
)

type ctxKey struct{}

// WithUser stores the authenticated principal in ctx.
func WithUser(ctx context.Context, u *travel.User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// UserFrom returns the principal stored by WithUser.
func UserFrom(ctx context.Context) (*travel.User, bool) {
	u, ok := ctx.Value(ctxKey{}).(*travel.User)
	return u, ok && u != nil
}
