package httpapi

import (
	"net/http"
	"strings"

	"github.com/HerencsarMichal/citacka/internal/auth"
	"github.com/HerencsarMichal/citacka/pkg/kit"
)

// RequireOwner rejects requests without a live owner token.
func RequireOwner(jwt *auth.TokenMaker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := r.Header.Get("Authorization")
			if !strings.HasPrefix(authz, "Bearer ") {
				kit.WriteError(w, r, http.StatusUnauthorized, "missing token", nil)
				return
			}

			if err := jwt.Verify(strings.TrimPrefix(authz, "Bearer ")); err != nil {
				kit.WriteError(w, r, http.StatusUnauthorized, "invalid token", nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
