package shell

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

type countingHandler struct {
	hits   atomic.Int32
	status int
}

func (h *countingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.hits.Add(1)
	w.Header().Set("Content-Type", "text/plain")
	status := h.status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = io.WriteString(w, "body:"+r.URL.Path)
}

func do(t *testing.T, h http.Handler, method, path string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestInstallServesAssetsCacheFirst(t *testing.T) {
	origin := &countingHandler{}
	c := New(Options{Assets: []string{"/", "/index.html", "/css/styles.css"}})
	require.NoError(t, c.Install(context.Background(), origin))
	require.Equal(t, int32(3), origin.hits.Load())
	require.Equal(t, 3, c.Len())

	h := c.Middleware(origin)
	rec := do(t, h, http.MethodGet, "/css/styles.css", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "body:/css/styles.css", rec.Body.String())
	require.Equal(t, "hit", rec.Header().Get(headerCache))
	require.Equal(t, int32(3), origin.hits.Load())
}

func TestInstallFailsOnMissingAsset(t *testing.T) {
	c := New(Options{Assets: []string{"/missing.js"}})
	err := c.Install(context.Background(), &countingHandler{status: http.StatusNotFound})
	require.Error(t, err)
	require.Zero(t, c.Len())
}

func TestOtherGetsCachedAfterFirstSuccess(t *testing.T) {
	origin := &countingHandler{}
	h := New(Options{}).Middleware(origin)

	first := do(t, h, http.MethodGet, "/images/store.png", nil)
	require.Equal(t, "miss", first.Header().Get(headerCache))
	second := do(t, h, http.MethodGet, "/images/store.png", nil)
	require.Equal(t, "hit", second.Header().Get(headerCache))
	require.Equal(t, first.Body.String(), second.Body.String())
	require.Equal(t, int32(1), origin.hits.Load())
}

func TestFailuresAreNotCached(t *testing.T) {
	origin := &countingHandler{status: http.StatusInternalServerError}
	h := New(Options{}).Middleware(origin)

	do(t, h, http.MethodGet, "/flaky", nil)
	rec := do(t, h, http.MethodGet, "/flaky", nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, int32(2), origin.hits.Load())
}

func TestNonGetAndCrossOriginBypass(t *testing.T) {
	origin := &countingHandler{}
	c := New(Options{Origin: "https://medicare.example"})
	h := c.Middleware(origin)

	do(t, h, http.MethodPost, "/index.html", nil)
	do(t, h, http.MethodPost, "/index.html", nil)
	do(t, h, http.MethodGet, "/index.html", map[string]string{"Origin": "https://firebase.example"})
	do(t, h, http.MethodGet, "/index.html", map[string]string{"Origin": "https://firebase.example"})
	require.Equal(t, int32(4), origin.hits.Load())
	require.Zero(t, c.Len())

	do(t, h, http.MethodGet, "/index.html", map[string]string{"Origin": "https://medicare.example/"})
	require.Equal(t, 1, c.Len())
}

func TestClear(t *testing.T) {
	origin := &countingHandler{}
	c := New(Options{})
	h := c.Middleware(origin)
	do(t, h, http.MethodGet, "/a", nil)
	require.Equal(t, 1, c.Len())

	c.Clear()
	require.Zero(t, c.Len())
	require.Equal(t, DefaultName, c.Name())
}
