package middleware

import (
	"context"
	"net/http"

	"github.com/forgo/questline/internal/apperror"
)

// GuildIDKey is the context key for guild ID
const GuildIDKey contextKey = "guildID"

// GetGuildID extracts the guild ID from context
func GetGuildID(ctx context.Context) string {
	if id, ok := ctx.Value(GuildIDKey).(string); ok {
		return id
	}
	return ""
}

// GuildAccess returns a middleware that admits only members of the guild
// named by the {guildId} path value. Membership comes from the guild claims
// of the verified credential, so it must run after Auth.
func GuildAccess(errs ErrorWriter) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetClaims(r.Context())
			if claims == nil {
				errs.WriteError(w, r, apperror.NewNotAuthenticated())
				return
			}

			guildID := r.PathValue("guildId")
			if guildID == "" {
				errs.WriteError(w, r, apperror.NewBadRequest("invalid guild ID"))
				return
			}

			// 404 rather than 403 so guild existence does not leak
			if !claims.InGuild(guildID) {
				errs.WriteError(w, r, apperror.NewNotFound("guild"))
				return
			}

			ctx := context.WithValue(r.Context(), GuildIDKey, guildID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
