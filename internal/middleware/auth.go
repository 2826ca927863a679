package middleware

import (
	"encoding/json"
	"net/http"

	"shopmall-be/internal/auth"
	"shopmall-be/internal/logger"
	"shopmall-be/internal/utils"

	"go.uber.org/zap"
)

// Auth resolves the caller's identity. Requests without a token continue
// anonymously; a token that fails validation is rejected with 401.
func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if cartID := auth.ExtractCartID(r); cartID != "" {
				ctx = utils.SetCartIDContext(ctx, cartID)
			}

			tokenStr := auth.ExtractAccessToken(r)
			if tokenStr == "" {
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			claims, err := auth.ParseJWT(secret, tokenStr)
			if err != nil {
				logger.FromCtx(ctx).Warn("rejected access token", zap.Error(err))
				writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired access token")
				return
			}

			ctx = utils.SetMemberContext(ctx, claims.MemberID, claims.AuthID, claims.Role)
			ctx = logger.WithFields(ctx, zap.String("auth_id", claims.AuthID))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireMember rejects anonymous requests and tokens issued for a role that
// cannot shop.
func RequireMember(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := utils.GetAuthIDFromContext(r.Context()); !ok {
			writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "login required")
			return
		}

		switch utils.GetRoleFromContext(r.Context()) {
		case utils.RoleMember, utils.RoleAdmin:
		default:
			writeError(w, r, http.StatusForbidden, "FORBIDDEN", "role not allowed")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error":      code,
		"message":    message,
		"status":     status,
		"request_id": logger.RequestIDFrom(r.Context()),
	})
}
