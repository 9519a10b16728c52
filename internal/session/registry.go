package session

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/angelmondragon/medicarehub-backend/pkg/kv"
)

// HeaderSessionID carries the tab identity on API requests.
const HeaderSessionID = "X-Session-Id"

// Registry hands out one ephemeral scope per session id, all sharing the
// device store.
type Registry struct {
	mu     sync.Mutex
	device kv.Store
	tabs   map[string]*Session
}

func NewRegistry(device kv.Store) *Registry {
	return &Registry{device: device, tabs: make(map[string]*Session)}
}

// Resolve returns the session for id, creating it on first sight. A blank id
// gets a fresh random one.
func (r *Registry) Resolve(id string) (string, *Session) {
	id = strings.TrimSpace(id)
	if id == "" {
		id = uuid.NewString()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.tabs[id]
	if !ok {
		s = New(kv.NewMemory(), r.device)
		r.tabs[id] = s
	}
	return id, s
}

// Drop discards the ephemeral scope of id.
func (r *Registry) Drop(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tabs, id)
}

// Len reports how many tab scopes are live.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tabs)
}

type ctxKey struct{}

// WithSession stores s on ctx.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session stored by WithSession.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(*Session)
	return s, ok && s != nil
}
