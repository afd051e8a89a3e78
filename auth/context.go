package auth

import (
	"context"

	"warbler/domain"
)

const (
	// SessionName is the name of the cookie holding the session.
	SessionName = "warbler"
	// SessionKey is the session value holding the ID of the logged in user.
	SessionKey = "curr_user"

	userKey privateKey = "user"
)

type privateKey string

// SetUser returns a copy of ctx carrying the authenticated user.
func SetUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// GetUser returns the authenticated user carried by ctx, or nil.
func GetUser(ctx context.Context) *domain.User {
	if temp := ctx.Value(userKey); temp != nil {
		if user, ok := temp.(*domain.User); ok {
			return user
		}
	}
	return nil
}
