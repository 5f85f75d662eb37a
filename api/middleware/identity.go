package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/verdantmarket/cartsync/api/responses"
	pkgauth "github.com/verdantmarket/cartsync/pkg/auth"
	"github.com/verdantmarket/cartsync/pkg/config"
	pkgerrors "github.com/verdantmarket/cartsync/pkg/errors"
	"github.com/verdantmarket/cartsync/pkg/logger"
)

const guestTokenHeader = "X-Guest-Token"

// Identity resolves who the cart belongs to. A bearer token binds the request
// to a user; otherwise a guest token scopes it to an anonymous cart. Requests
// carrying neither are rejected before any handler runs.
func Identity(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if raw := strings.TrimSpace(r.Header.Get("Authorization")); raw != "" {
				token := raw
				if strings.HasPrefix(strings.ToLower(token), "bearer ") {
					token = strings.TrimSpace(token[7:])
				}
				claims, err := pkgauth.ParseAccessToken(cfg, token)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
					return
				}
				ctx = context.WithValue(ctx, ctxUserID, claims.UserID)
				if logg != nil {
					ctx = logg.WithUserID(ctx, claims.UserID.String())
				}
			}

			if token := strings.TrimSpace(r.Header.Get(guestTokenHeader)); token != "" {
				if _, err := uuid.Parse(token); err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "guest token must be a uuid"))
					return
				}
				ctx = context.WithValue(ctx, ctxGuestToken, token)
			}

			if UserIDFromContext(ctx) == uuid.Nil && GuestTokenFromContext(ctx) == "" {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "guest token or credentials required"))
				return
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
