package auth

import (
	"context"

	"github.com/dukerupert/greenpoints/internal/model"
)

type contextKey struct{}

type AuthContext struct {
	Actor     model.Actor
	SessionID int64
}

func WithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(contextKey{}).(AuthContext)
	return ac, ok
}

func UserID(ctx context.Context) int64 {
	ac, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	return ac.Actor.UserID
}

// CenterID returns the center the authenticated user owns, if any.
func CenterID(ctx context.Context) *int64 {
	ac, ok := FromContext(ctx)
	if !ok {
		return nil
	}
	return ac.Actor.CenterID
}

func IsAdmin(ctx context.Context) bool {
	ac, ok := FromContext(ctx)
	if !ok {
		return false
	}
	return ac.Actor.AccountType == model.AccountAdmin
}

// IsStaff reports whether the user is an admin or a center owner with a center.
func IsStaff(ctx context.Context) bool {
	ac, ok := FromContext(ctx)
	if !ok {
		return false
	}
	switch ac.Actor.AccountType {
	case model.AccountAdmin:
		return true
	case model.AccountCenterOwner:
		return ac.Actor.CenterID != nil
	}
	return false
}
