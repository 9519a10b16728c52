// Package shell serves the app shell offline-first: a fixed asset list is
// cached up front, other same-origin GETs are cached on first success.
package shell

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/angelmondragon/medicarehub-backend/pkg/logger"
)

// DefaultName versions the cache; bump it to drop every entry on deploy.
const DefaultName = "medicare-hub-v1"

const headerCache = "X-Shell-Cache"

type entry struct {
	status int
	header http.Header
	body   []byte
}

// Cache is an in-memory response cache keyed by request path and query.
type Cache struct {
	name   string
	assets []string
	origin string
	logg   *logger.Logger

	mu      sync.RWMutex
	entries map[string]entry
}

// Options configure a Cache. Origin, when set, is compared against the
// request Origin header; mismatching requests bypass the cache.
type Options struct {
	Name   string
	Assets []string
	Origin string
	Logger *logger.Logger
}

func New(opts Options) *Cache {
	name := opts.Name
	if name == "" {
		name = DefaultName
	}
	logg := opts.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &Cache{
		name:    name,
		assets:  append([]string(nil), opts.Assets...),
		origin:  strings.TrimRight(opts.Origin, "/"),
		logg:    logg,
		entries: make(map[string]entry),
	}
}

// Name returns the cache version name.
func (c *Cache) Name() string {
	return c.name
}

// Install fetches every shell asset through next and stores the responses.
// It fails if any asset does not answer 200, leaving nothing cached.
func (c *Cache) Install(ctx context.Context, next http.Handler) error {
	fetched := make(map[string]entry, len(c.assets))
	for _, asset := range c.assets {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, asset, nil)
		if err != nil {
			return fmt.Errorf("build request for %s: %w", asset, err)
		}
		rec := newRecorder()
		next.ServeHTTP(rec, req)
		if rec.status != http.StatusOK {
			return fmt.Errorf("shell asset %s answered %d", asset, rec.status)
		}
		fetched[cacheKey(req.URL)] = rec.entry()
	}
	c.mu.Lock()
	for k, v := range fetched {
		c.entries[k] = v
	}
	c.mu.Unlock()
	c.logg.Info(c.logg.WithFields(ctx, map[string]any{"cache": c.name, "assets": len(fetched)}), "shell assets cached")
	return nil
}

// Clear drops every cached response.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}

// Len reports how many responses are cached.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Middleware answers cached GETs from memory and caches successful misses.
// Non-GET and cross-origin requests pass straight through.
func (c *Cache) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || c.crossOrigin(r) {
			next.ServeHTTP(w, r)
			return
		}
		key := cacheKey(r.URL)
		c.mu.RLock()
		cached, ok := c.entries[key]
		c.mu.RUnlock()
		if ok {
			writeEntry(w, cached, "hit")
			return
		}

		rec := newRecorder()
		next.ServeHTTP(rec, r)
		e := rec.entry()
		if e.status == http.StatusOK {
			c.mu.Lock()
			c.entries[key] = e
			c.mu.Unlock()
		}
		writeEntry(w, e, "miss")
	})
}

func (c *Cache) crossOrigin(r *http.Request) bool {
	origin := strings.TrimRight(r.Header.Get("Origin"), "/")
	if origin == "" || c.origin == "" {
		return false
	}
	return !strings.EqualFold(origin, c.origin)
}

func cacheKey(u *url.URL) string {
	if u.RawQuery == "" {
		return u.Path
	}
	return u.Path + "?" + u.RawQuery
}

func writeEntry(w http.ResponseWriter, e entry, state string) {
	for k, vs := range e.header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.Header().Set(headerCache, state)
	w.WriteHeader(e.status)
	_, _ = w.Write(e.body)
}

// recorder buffers a downstream response so it can be cached before it is
// written to the client.
type recorder struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func newRecorder() *recorder {
	return &recorder{header: make(http.Header)}
}

func (r *recorder) Header() http.Header {
	return r.header
}

func (r *recorder) WriteHeader(status int) {
	if r.status == 0 {
		r.status = status
	}
}

func (r *recorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.body.Write(b)
}

func (r *recorder) entry() entry {
	status := r.status
	if status == 0 {
		status = http.StatusOK
	}
	return entry{status: status, header: r.header.Clone(), body: append([]byte(nil), r.body.Bytes()...)}
}
