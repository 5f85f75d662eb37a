package middleware

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey string

const (
	ctxUserID     ctxKey = "user_id"
	ctxGuestToken ctxKey = "guest_token"
)

// UserIDFromContext returns the authenticated user id, or uuid.Nil when the
// request is a guest.
func UserIDFromContext(ctx context.Context) uuid.UUID {
	if v, ok := ctx.Value(ctxUserID).(uuid.UUID); ok {
		return v
	}
	return uuid.Nil
}

// GuestTokenFromContext returns the guest cart token, if the request carried one.
func GuestTokenFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxGuestToken).(string); ok {
		return v
	}
	return ""
}
