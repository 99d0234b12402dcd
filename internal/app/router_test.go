package app

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/trackr-hr/trackr/internal/observability"
	"github.com/trackr-hr/trackr/internal/shared"
)

func newTestManagers(t *testing.T) (*shared.SessionManager, *shared.CSRFManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return shared.NewSessionManager(client, shared.SessionOptions{Secret: "secret", TTL: time.Hour}),
		shared.NewCSRFManager("csrf-secret")
}

func TestRouterHealthz(t *testing.T) {
	sessions, csrf := newTestManagers(t)
	handler := NewRouter(RouterParams{
		SessionManager: sessions,
		CSRFManager:    csrf,
		Metrics:        observability.NewMetrics(),
	})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	require.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	require.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "trackr_http_requests_total")
}

func TestCSRFMiddleware(t *testing.T) {
	sessions, csrf := newTestManagers(t)
	r := chi.NewRouter()
	for _, mw := range MiddlewareStack(MiddlewareConfig{SessionManager: sessions, CSRFManager: csrf}) {
		r.Use(mw)
	}
	r.Get("/token", func(w http.ResponseWriter, r *http.Request) {
		token, err := csrf.EnsureToken(r.Context(), shared.SessionFromContext(r.Context()))
		require.NoError(t, err)
		_, _ = io.WriteString(w, token)
	})
	r.Post("/action", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/token", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	token := strings.TrimSpace(rec.Body.String())
	require.NotEmpty(t, token)
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)

	tests := []struct {
		name   string
		token  string
		cookie bool
		want   int
	}{
		{name: "missing token", cookie: true, want: http.StatusForbidden},
		{name: "wrong token", token: "forged", cookie: true, want: http.StatusForbidden},
		{name: "no session", token: token, want: http.StatusForbidden},
		{name: "valid token", token: token, cookie: true, want: http.StatusNoContent},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/action", nil)
			if tc.token != "" {
				req.Header.Set(shared.CSRFHeader, tc.token)
			}
			if tc.cookie {
				for _, c := range cookies {
					req.AddCookie(c)
				}
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			require.Equal(t, tc.want, rec.Code)
		})
	}
}
