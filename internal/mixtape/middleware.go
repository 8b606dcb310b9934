package mixtape

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type tokenClaims struct {
	UserID    string `json:"uid"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

// AuthMiddleware resolves the optional caller identity. A valid bearer access
// token sets X-User-Id for downstream handlers; anything else leaves the
// request anonymous. The incoming X-User-Id header is always dropped first so
// clients cannot impersonate a user.
func AuthMiddleware(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Header.Del("X-User-Id")

			auth := r.Header.Get("Authorization")
			if auth == "" {
				next.ServeHTTP(w, r)
				return
			}
			parts := strings.SplitN(auth, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				writeError(w, http.StatusUnauthorized, "invalid Authorization header")
				return
			}

			claims := &tokenClaims{}
			token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (interface{}, error) {
				return secret, nil
			})
			if err != nil || !token.Valid || claims.TokenType != "access" || claims.UserID == "" {
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			r.Header.Set("X-User-Id", claims.UserID)
			next.ServeHTTP(w, r)
		})
	}
}

// callerID returns the authenticated user id, or nil for anonymous requests.
func callerID(r *http.Request) *string {
	id := r.Header.Get("X-User-Id")
	if id == "" {
		return nil
	}
	return &id
}
