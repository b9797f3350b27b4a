package auth

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	userKey   contextKey = "user_id"
	claimsKey contextKey = "claims"
)

func WithUserID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, userKey, id)
}

// UserIDFromContext returns uuid.Nil outside an authenticated request.
func UserIDFromContext(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(userKey).(uuid.UUID)
	return id
}

func ClaimsFromContext(ctx context.Context) *Claims {
	c, _ := ctx.Value(claimsKey).(*Claims)
	return c
}
