package contextKey

import (
	"context"

	"dlux/internal/types"
)

type contextKey string

const authUserKey contextKey = "authUser"

func WithAuthUser(ctx context.Context, user *types.User) context.Context {
	return context.WithValue(ctx, authUserKey, user)
}

func AuthUserFromContext(ctx context.Context) (*types.User, bool) {
	user, ok := ctx.Value(authUserKey).(*types.User)
	if !ok || user == nil || user.Name == "" {
		return nil, false
	}
	return user, true
}
