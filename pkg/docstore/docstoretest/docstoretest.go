// Package docstoretest provides document store fixtures for package tests.
package docstoretest

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/angelmondragon/medicarehub-backend/pkg/docstore"
	"github.com/angelmondragon/medicarehub-backend/pkg/kv"
)

// ErrUnavailable is returned by every Unavailable call.
var ErrUnavailable = errors.New("remote document store unavailable")

// Unavailable is a remote that fails every operation.
type Unavailable struct{}

func (Unavailable) All(context.Context, string) ([]docstore.Document, error) {
	return nil, ErrUnavailable
}

func (Unavailable) Get(context.Context, string, string) (*docstore.Document, error) {
	return nil, ErrUnavailable
}

func (Unavailable) Create(context.Context, string, docstore.Document) (bool, error) {
	return false, ErrUnavailable
}

func (Unavailable) Set(context.Context, string, docstore.Document) error {
	return ErrUnavailable
}

func (Unavailable) Merge(context.Context, string, string, json.RawMessage) (*docstore.Document, error) {
	return nil, ErrUnavailable
}

func (Unavailable) Delete(context.Context, string, string) error {
	return ErrUnavailable
}

// Lagging is a remote that serves reads from its own in-memory copy and
// refuses writes while RejectWrites is on, so it drifts behind the local
// cache the way a remote that went read-only does.
type Lagging struct {
	store   *docstore.LocalStore
	rejects atomic.Bool
}

// NewLagging returns a Lagging remote that rejects writes until told otherwise.
func NewLagging(t testing.TB) *Lagging {
	t.Helper()
	store, err := docstore.NewLocalStore(kv.NewMemory(), nil)
	if err != nil {
		t.Fatalf("lagging store: %v", err)
	}
	l := &Lagging{store: store}
	l.rejects.Store(true)
	return l
}

// RejectWrites toggles whether writes fail.
func (l *Lagging) RejectWrites(on bool) { l.rejects.Store(on) }

// Seed writes doc regardless of RejectWrites.
func (l *Lagging) Seed(t testing.TB, collection string, v any) {
	t.Helper()
	doc, err := docstore.Encode(v)
	if err != nil {
		t.Fatalf("seed %s: %v", collection, err)
	}
	if err := l.store.Set(context.Background(), collection, doc); err != nil {
		t.Fatalf("seed %s: %v", collection, err)
	}
}

func (l *Lagging) All(ctx context.Context, collection string) ([]docstore.Document, error) {
	return l.store.All(ctx, collection)
}

func (l *Lagging) Get(ctx context.Context, collection, id string) (*docstore.Document, error) {
	return l.store.Get(ctx, collection, id)
}

func (l *Lagging) Create(ctx context.Context, collection string, doc docstore.Document) (bool, error) {
	if l.rejects.Load() {
		return false, ErrUnavailable
	}
	return l.store.Create(ctx, collection, doc)
}

func (l *Lagging) Set(ctx context.Context, collection string, doc docstore.Document) error {
	if l.rejects.Load() {
		return ErrUnavailable
	}
	return l.store.Set(ctx, collection, doc)
}

func (l *Lagging) Merge(ctx context.Context, collection, id string, patch json.RawMessage) (*docstore.Document, error) {
	if l.rejects.Load() {
		return nil, ErrUnavailable
	}
	return l.store.Merge(ctx, collection, id, patch)
}

func (l *Lagging) Delete(ctx context.Context, collection, id string) error {
	if l.rejects.Load() {
		return ErrUnavailable
	}
	return l.store.Delete(ctx, collection, id)
}

// Fixture bundles a syncing store with direct access to its local half.
type Fixture struct {
	Local   *docstore.LocalStore
	Syncing *docstore.SyncingStore
}

// New builds an in-memory local cache behind a syncing store with the given
// remote (nil for local-only).
func New(t testing.TB, remote docstore.Store) Fixture {
	t.Helper()
	local, err := docstore.NewLocalStore(kv.NewMemory(), nil)
	if err != nil {
		t.Fatalf("local store: %v", err)
	}
	syncing, err := docstore.NewSyncingStore(docstore.SyncingParams{Local: local, Remote: remote})
	if err != nil {
		t.Fatalf("syncing store: %v", err)
	}
	return Fixture{Local: local, Syncing: syncing}
}
