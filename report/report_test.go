package report

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/trackr-hr/trackr/internal/view"
)

func fakeGotenberg(t *testing.T, status int) (*httptest.Server, *string) {
	t.Helper()
	var received string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			w.WriteHeader(status)
		case "/forms/chromium/convert/html":
			file, header, err := r.FormFile("files")
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			defer file.Close()
			if header.Filename != "index.html" {
				http.Error(w, "missing index.html", http.StatusBadRequest)
				return
			}
			raw, _ := io.ReadAll(file)
			received = string(raw)
			w.WriteHeader(status)
			if status < 400 {
				_, _ = w.Write([]byte("%PDF-1.7"))
			}
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &received
}

func TestClientRenderHTML(t *testing.T) {
	srv, received := fakeGotenberg(t, http.StatusOK)
	pdf, err := NewClient(srv.URL+"/").RenderHTML(context.Background(), []byte("<p>hi</p>"))
	require.NoError(t, err)
	require.Equal(t, "%PDF-1.7", string(pdf))
	require.Equal(t, "<p>hi</p>", *received)
}

func TestClientRenderHTMLFailure(t *testing.T) {
	srv, _ := fakeGotenberg(t, http.StatusServiceUnavailable)
	_, err := NewClient(srv.URL).RenderHTML(context.Background(), []byte("<p>hi</p>"))
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestRendererUsesTemplate(t *testing.T) {
	srv, received := fakeGotenberg(t, http.StatusOK)
	engine, err := view.NewEngine()
	require.NoError(t, err)

	r := NewRenderer(engine, NewClient(srv.URL))
	pdf, err := r.Render(context.Background(), "travel-expenses/report", map[string]any{
		"report": struct {
			ID           int64
			EmployeeName string
			Status       string
			Expenses     []struct{}
		}{ID: 3, EmployeeName: "Grace Hopper", Status: "SUBMITTED"},
		"today":     time.Now(),
		"totalCost": decimal.Zero,
	})
	require.NoError(t, err)
	require.NotEmpty(t, pdf)
	require.True(t, strings.Contains(*received, "Grace Hopper"))
}

type failingConverter struct{}

func (failingConverter) RenderHTML(ctx context.Context, html []byte) ([]byte, error) {
	return nil, errors.New("connection refused")
}

func TestRendererPropagatesFailure(t *testing.T) {
	engine, err := view.NewEngine()
	require.NoError(t, err)
	_, err = NewRenderer(engine, failingConverter{}).Render(context.Background(), "missing/template", nil)
	require.Error(t, err)
}

func TestPingHandler(t *testing.T) {
	up, _ := fakeGotenberg(t, http.StatusOK)
	down, _ := fakeGotenberg(t, http.StatusInternalServerError)
	for _, tc := range []struct {
		name string
		url  string
		want int
	}{
		{"up", up.URL, http.StatusOK},
		{"down", down.URL, http.StatusServiceUnavailable},
	} {
		t.Run(tc.name, func(t *testing.T) {
			r := chi.NewRouter()
			NewHandler(NewClient(tc.url), slog.New(slog.NewTextHandler(io.Discard, nil))).MountRoutes(r)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
			require.Equal(t, tc.want, rec.Code)
		})
	}
}
