package middleware

import (
	"crypto/subtle"
	"net/http"

	"elenchus/internal/httputil"
)

// AdminAuth gates the researcher surface behind a shared token, passed as
// the admin_token query parameter or the X-Admin-Token header. An empty
// configured token disables the surface entirely rather than opening it.
func AdminAuth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				httputil.RespondError(w, http.StatusNotFound, "admin surface disabled")
				return
			}

			presented := r.URL.Query().Get("admin_token")
			if presented == "" {
				presented = r.Header.Get("X-Admin-Token")
			}
			if subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
				httputil.RespondError(w, http.StatusUnauthorized, "invalid admin token")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
