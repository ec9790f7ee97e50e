package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/pratik-mahalle/sentrydesk/internal/auth"
	"github.com/pratik-mahalle/sentrydesk/internal/pkg/errors"
	"github.com/pratik-mahalle/sentrydesk/internal/pkg/utils"
)

// ContextKey is a custom type for context keys
type ContextKey string

// ActorKey is the context key for the authenticated actor
const ActorKey ContextKey = "actor"

// AuthMiddleware returns a middleware that validates JWT tokens and attaches
// the authenticated actor to the request context.
func AuthMiddleware(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var tokenStr string

			authHeader := r.Header.Get("Authorization")
			if authHeader != "" {
				parts := strings.Split(authHeader, " ")
				if len(parts) == 2 && parts[0] == "Bearer" {
					tokenStr = parts[1]
				}
			} else if cookie, err := r.Cookie("accessToken"); err == nil {
				tokenStr = cookie.Value
			}

			if tokenStr == "" {
				utils.WriteError(w, errors.Unauthorized("Missing authentication token"))
				return
			}

			claims, err := auth.ParseClaims(tokenStr, jwtSecret)
			if err != nil {
				utils.WriteError(w, errors.Unauthorized("Invalid or expired token"))
				return
			}

			actor := claims.Actor()
			ctx := context.WithValue(r.Context(), ActorKey, actor)

			AddLogField(w, "user_id", actor.UserID)
			AddLogField(w, "tenant_id", actor.TenantID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole returns a middleware that rejects requests whose actor does
// not hold one of the given roles.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := GetActor(r)
			if !ok {
				utils.WriteError(w, errors.Unauthorized("Missing authentication token"))
				return
			}
			if !allowed[actor.Role] {
				utils.WriteError(w, errors.Permission("Insufficient role for this operation"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetActor extracts the authenticated actor from the request context
func GetActor(r *http.Request) (auth.Actor, bool) {
	actor, ok := r.Context().Value(ActorKey).(auth.Actor)
	return actor, ok
}
