package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAuthMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := AuthMiddleware(next)

	tests := []struct {
		name     string
		path     string
		cookie   *http.Cookie
		expected int
	}{
		{"login is open", "/auth/login", nil, http.StatusOK},
		{"camera socket is open", "/api/camera/live", nil, http.StatusOK},
		{"records without cookie", "/api/records", nil, http.StatusUnauthorized},
		{"records with wrong cookie", "/api/records", &http.Cookie{Name: "authenticated", Value: "false"}, http.StatusUnauthorized},
		{"records with valid cookie", "/api/records", &http.Cookie{Name: "authenticated", Value: "true"}, http.StatusOK},
		{"upload with valid cookie", "/api/upload", &http.Cookie{Name: "authenticated", Value: "true"}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != tt.expected {
				t.Errorf("Expected %d, got %d", tt.expected, rec.Code)
			}
		})
	}
}
