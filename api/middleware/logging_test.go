package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/angelmondragon/medicarehub-backend/pkg/logger"
)

func TestLoggingKeepsPolledPathsQuiet(t *testing.T) {
	var logs bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Output: &logs})
	handler := Logging(logg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/boom" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))

	for _, path := range []string{"/health/live", "/api/v1/notifications/unread-count"} {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}
	if logs.Len() != 0 {
		t.Fatalf("polled paths should log at debug only: %s", logs.String())
	}

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/stores", nil))
	if !strings.Contains(logs.String(), `"path":"/api/v1/stores"`) {
		t.Fatalf("expected request entry: %s", logs.String())
	}

	logs.Reset()
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))
	if !strings.Contains(logs.String(), `"level":"warn"`) || !strings.Contains(logs.String(), `"status":503`) {
		t.Fatalf("expected warn entry for 5xx: %s", logs.String())
	}
}
