package auth

import (
	"net/http"
	"strings"

	"github.com/achgithub/turnlink-backend/internal/httpresp"
)

// Middleware validates the Authorization: Bearer header on every request and
// stores the verified Identity in the request context. REST handlers read it
// back with FromContext; they never accept a userId from a request body in
// its place.
func Middleware(verifier *Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
				httpresp.ErrorJSON(w, "missing authorization token", http.StatusUnauthorized)
				return
			}

			token := strings.TrimPrefix(authHeader, "Bearer ")
			identity, err := verifier.Verify(token)
			if err != nil {
				httpresp.ErrorJSON(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}
