package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/angelmondragon/medicarehub-backend/internal/session"
	"github.com/angelmondragon/medicarehub-backend/pkg/kv"
)

func sessionChain(t *testing.T, registry *session.Registry, guard func(http.Handler) http.Handler) http.Handler {
	t.Helper()
	return Session(registry, nil)(guard(okHandler()))
}

func TestSessionMintsAndEchoesID(t *testing.T) {
	registry := session.NewRegistry(kv.NewMemory())
	var seen string
	handler := Session(registry, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = SessionIDFromContext(r.Context())
		if _, ok := SessionFromContext(r.Context()); !ok {
			t.Fatal("expected session in context")
		}
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if seen == "" || rec.Header().Get(session.HeaderSessionID) != seen {
		t.Fatalf("expected minted id echoed, got %q vs %q", rec.Header().Get(session.HeaderSessionID), seen)
	}
	if registry.Len() != 1 {
		t.Fatalf("expected one tab scope, got %d", registry.Len())
	}
}

func TestRequireAdmin(t *testing.T) {
	registry := session.NewRegistry(kv.NewMemory())
	handler := sessionChain(t, registry, RequireAdmin(nil))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(session.HeaderSessionID, "tab-1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}

	_, sess := registry.Resolve("tab-1")
	if err := sess.SetAdminLoggedIn(context.Background(), true); err != nil {
		t.Fatalf("set admin: %v", err)
	}
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	// admin login is tab scoped
	other := httptest.NewRequest(http.MethodGet, "/", nil)
	other.Header.Set(session.HeaderSessionID, "tab-2")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, other)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for other tab, got %d", rec.Code)
	}
}

func TestRequireAdminWithoutSession(t *testing.T) {
	rec := httptest.NewRecorder()
	RequireAdmin(nil)(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRequireStoreOrAdmin(t *testing.T) {
	registry := session.NewRegistry(kv.NewMemory())
	handler := sessionChain(t, registry, RequireStoreOrAdmin(nil))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(session.HeaderSessionID, "store-tab")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}

	_, sess := registry.Resolve("store-tab")
	if err := sess.SetLoggedStore(context.Background(), 3); err != nil {
		t.Fatalf("set store: %v", err)
	}
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
