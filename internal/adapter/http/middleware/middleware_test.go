package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kompa2go/kommute-fare/internal/domain/models"
	"github.com/kompa2go/kommute-fare/internal/domain/types"
	"github.com/kompa2go/kommute-fare/pkg/logger"
	wrap "github.com/kompa2go/kommute-fare/pkg/logger/wrapper"
)

type verifierFunc func(ctx context.Context, token string) (*models.User, error)

func (f verifierFunc) Verify(ctx context.Context, token string) (*models.User, error) {
	return f(ctx, token)
}

func newMiddleware() *Middleware {
	verifier := verifierFunc(func(ctx context.Context, token string) (*models.User, error) {
		switch token {
		case "admin-token":
			return &models.User{ID: "admin-1", Role: types.RoleAdmin}, nil
		case "rider-token":
			return &models.User{ID: "rider-1", Role: types.RolePassenger}, nil
		}
		return nil, types.ErrInvalidToken
	})
	return NewMiddleware(verifier, logger.New(io.Discard, "test", logger.LevelError))
}

func TestAuth(t *testing.T) {
	m := newMiddleware()

	var seen *models.User
	h := m.Auth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = models.UserFromContext(r.Context())
	}))

	tests := []struct {
		name       string
		header     string
		query      string
		wantStatus int
		wantRole   types.UserRole
	}{
		{"anonymous", "", "", http.StatusOK, types.RoleAnonymous},
		{"bearer", "Bearer admin-token", "", http.StatusOK, types.RoleAdmin},
		{"query token", "", "?token=rider-token", http.StatusOK, types.RolePassenger},
		{"header wins", "Bearer admin-token", "?token=rider-token", http.StatusOK, types.RoleAdmin},
		{"bad scheme", "Basic abc", "", http.StatusUnauthorized, ""},
		{"bad token", "Bearer nope", "", http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodGet, "/fares/x"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
			if tt.wantRole == "" {
				if seen != nil {
					t.Fatalf("handler must not run")
				}
				return
			}
			if seen == nil || seen.Role != tt.wantRole {
				t.Fatalf("expected role %s, got %+v", tt.wantRole, seen)
			}
		})
	}
}

func TestRequireRoles(t *testing.T) {
	m := newMiddleware()
	ok := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) }
	h := m.Auth(m.RequireRoles(ok, types.RoleAdmin))

	tests := []struct {
		token string
		want  int
	}{
		{"", http.StatusUnauthorized},
		{"rider-token", http.StatusForbidden},
		{"admin-token", http.StatusNoContent},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/admin/tariffs", nil)
		if tt.token != "" {
			req.Header.Set("Authorization", "Bearer "+tt.token)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != tt.want {
			t.Errorf("token %q: expected %d, got %d", tt.token, tt.want, rec.Code)
		}
	}
}

func TestRequestID(t *testing.T) {
	m := newMiddleware()

	var got string
	h := m.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = wrap.RequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(headerRequestID, "req-42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got != "req-42" || rec.Header().Get(headerRequestID) != "req-42" {
		t.Fatalf("expected caller request id, got ctx=%q header=%q", got, rec.Header().Get(headerRequestID))
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if got == "" || got != rec.Header().Get(headerRequestID) {
		t.Fatalf("expected generated request id, got %q", got)
	}
}

func TestRecover(t *testing.T) {
	m := newMiddleware()
	h := m.Recover(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if rec.Header().Get("Connection") != "close" {
		t.Errorf("expected Connection: close")
	}
}

func TestMetrics_UsesRoutePattern(t *testing.T) {
	m := newMiddleware()

	var label string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /fares/{quote_id}", func(w http.ResponseWriter, r *http.Request) {})

	probe := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)
			label = routeLabel(r)
		})
	}
	h := m.Metrics("test")(probe(mux))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/fares/123", nil))
	if label != "GET /fares/{quote_id}" {
		t.Fatalf("expected route pattern, got %q", label)
	}

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	if label != "unmatched" {
		t.Fatalf("expected unmatched, got %q", label)
	}
}
