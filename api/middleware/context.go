package middleware

import (
	"context"

	"github.com/google/uuid"
)

type contextKey int

const (
	identityKey contextKey = iota
	cartSessionKey
)

// Identity is the caller resolved from a verified access token.
type Identity struct {
	UserID   uuid.UUID
	Email    string
	Role     string
	AccessID string
}

// WithIdentity attaches the signed-in caller to ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext reports false for anonymous requests.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	if ctx == nil {
		return Identity{}, false
	}
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

func UserIDFromContext(ctx context.Context) string {
	if id := UserUUIDFromContext(ctx); id != uuid.Nil {
		return id.String()
	}
	return ""
}

// UserUUIDFromContext returns uuid.Nil for anonymous requests.
func UserUUIDFromContext(ctx context.Context) uuid.UUID {
	id, _ := IdentityFromContext(ctx)
	return id.UserID
}

func EmailFromContext(ctx context.Context) string {
	id, _ := IdentityFromContext(ctx)
	return id.Email
}

func RoleFromContext(ctx context.Context) string {
	id, _ := IdentityFromContext(ctx)
	return id.Role
}

// AccessIDFromContext returns the jti of the access token, used to revoke the session.
func AccessIDFromContext(ctx context.Context) string {
	id, _ := IdentityFromContext(ctx)
	return id.AccessID
}

func WithCartSession(ctx context.Context, slot string) context.Context {
	return context.WithValue(ctx, cartSessionKey, slot)
}

// CartSessionFromContext returns the cart slot identifier sent by the client.
func CartSessionFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	slot, _ := ctx.Value(cartSessionKey).(string)
	return slot
}
