package auth

import (
	"net/http"
	"strings"
)

const (
	AccessTokenCookie = "access_token"
	CartCookie        = "cart_ck_id"
	CartHeader        = "X-Cart-Id"
)

func ExtractAccessToken(r *http.Request) string {
	// Cookie (preferred)
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil {
		if cookie.Value != "" {
			return cookie.Value
		}
	}

	// Authorization header (fallback)
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	return ""
}

// ExtractCartID returns the anonymous cart id a browser carries, cookie first.
func ExtractCartID(r *http.Request) string {
	if cookie, err := r.Cookie(CartCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return strings.TrimSpace(r.Header.Get(CartHeader))
}
