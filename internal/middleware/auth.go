package middleware

import (
	"net/http"
	"strings"
)

// AuthMiddleware gates the API behind the session cookie. Login and the
// field-camera socket stay open; cameras authenticate at the network edge.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/login" ||
			strings.HasPrefix(r.URL.Path, "/api/camera/") {
			next.ServeHTTP(w, r)
			return
		}

		cookie, err := r.Cookie("authenticated")
		if err != nil || cookie.Value != "true" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
