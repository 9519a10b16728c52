package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/medicarehub-backend/internal/session"
	"github.com/angelmondragon/medicarehub-backend/pkg/logger"
	"github.com/angelmondragon/medicarehub-backend/pkg/types"
)

func TestRecovererLogsSessionAndStore(t *testing.T) {
	var logs bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Output: &logs})

	r := chi.NewRouter()
	r.Use(RequestID(logg), Recoverer(logg))
	r.Get("/stores/{storeId}", func(http.ResponseWriter, *http.Request) {
		panic("nil session store")
	})

	req := httptest.NewRequest(http.MethodGet, "/stores/4", nil)
	req.Header.Set(session.HeaderSessionID, "tab-7")
	req.Header.Set(requestIDHeader, "req-1")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var body types.ErrorEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if body.Error.RequestID != "req-1" {
		t.Fatalf("expected request id in envelope, got %q", body.Error.RequestID)
	}
	if strings.Contains(body.Error.Message, "nil session store") {
		t.Fatalf("panic value leaked to client: %q", body.Error.Message)
	}

	out := logs.String()
	for _, want := range []string{`"session_id":"tab-7"`, `"store_id":"4"`, `"request_id":"req-1"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("log missing %s: %s", want, out)
		}
	}
}

func TestRequestIDReplacesUnusableHeader(t *testing.T) {
	var seen string
	handler := RequestID(nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "has spaces and {braces}")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	seen = rec.Header().Get(requestIDHeader)
	if seen == "" || seen == "has spaces and {braces}" {
		t.Fatalf("expected a minted id, got %q", seen)
	}

	req.Header.Set(requestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if got := rec.Header().Get(requestIDHeader); got != "abc-123" {
		t.Fatalf("expected client id kept, got %q", got)
	}
}
