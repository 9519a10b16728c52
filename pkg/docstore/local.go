package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/angelmondragon/medicarehub-backend/pkg/changefeed"
	pkgerrors "github.com/angelmondragon/medicarehub-backend/pkg/errors"
	"github.com/angelmondragon/medicarehub-backend/pkg/kv"
)

// Local cache keys. Each holds a whole collection as one JSON array.
const (
	KeyStores        = "medicare_stores"
	KeyOrders        = "medicare_orders"
	KeyUsers         = "medicare_users"
	KeyNotifications = "medicare_notis_data"
)

var defaultLocalKeys = map[string]string{
	CollectionStores:        KeyStores,
	CollectionOrders:        KeyOrders,
	CollectionUsers:         KeyUsers,
	CollectionNotifications: KeyNotifications,
}

var defaultSignalled = map[string]bool{
	KeyOrders:        true,
	KeyNotifications: true,
}

// LocalStore keeps each collection as a JSON array under one cache key and
// rewrites the whole array on every mutation.
type LocalStore struct {
	kv  kv.Store
	pub changefeed.Publisher

	mu        sync.Mutex
	keys      map[string]string
	signalled map[string]bool
}

// NewLocalStore wraps a key/value scope. pub may be nil.
func NewLocalStore(store kv.Store, pub changefeed.Publisher) (*LocalStore, error) {
	if store == nil {
		return nil, fmt.Errorf("kv store required")
	}
	return &LocalStore{
		kv:        store,
		pub:       pub,
		keys:      defaultLocalKeys,
		signalled: defaultSignalled,
	}, nil
}

// Key returns the cache key holding collection.
func (l *LocalStore) Key(collection string) (string, error) {
	key, ok := l.keys[collection]
	if !ok {
		return "", pkgerrors.Newf(pkgerrors.CodeInternal, "unknown collection %q", collection)
	}
	return key, nil
}

// Initialized reports whether collection was ever written on this device.
func (l *LocalStore) Initialized(ctx context.Context, collection string) (bool, error) {
	key, err := l.Key(collection)
	if err != nil {
		return false, err
	}
	_, ok, err := l.kv.Get(ctx, key)
	return ok, err
}

// Replace overwrites the whole collection.
func (l *LocalStore) Replace(ctx context.Context, collection string, docs []Document) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.write(ctx, collection, docs)
}

func (l *LocalStore) All(ctx context.Context, collection string) ([]Document, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.read(ctx, collection)
}

func (l *LocalStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	docs, err := l.read(ctx, collection)
	if err != nil {
		return nil, err
	}
	if i := indexOf(docs, id); i >= 0 {
		doc := docs[i]
		return &doc, nil
	}
	return nil, nil
}

func (l *LocalStore) Create(ctx context.Context, collection string, doc Document) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	docs, err := l.read(ctx, collection)
	if err != nil {
		return false, err
	}
	if indexOf(docs, doc.ID) >= 0 {
		return false, nil
	}
	if err := l.write(ctx, collection, append(docs, doc)); err != nil {
		return false, err
	}
	return true, nil
}

func (l *LocalStore) Set(ctx context.Context, collection string, doc Document) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	docs, err := l.read(ctx, collection)
	if err != nil {
		return err
	}
	if i := indexOf(docs, doc.ID); i >= 0 {
		docs[i] = doc
	} else {
		docs = append(docs, doc)
	}
	return l.write(ctx, collection, docs)
}

func (l *LocalStore) Merge(ctx context.Context, collection, id string, patch json.RawMessage) (*Document, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	docs, err := l.read(ctx, collection)
	if err != nil {
		return nil, err
	}
	i := indexOf(docs, id)
	if i < 0 {
		return nil, nil
	}
	body, err := mergeFields(docs[i].Body, patch)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "merging local document")
	}
	docs[i] = Document{ID: id, Body: body}
	if err := l.write(ctx, collection, docs); err != nil {
		return nil, err
	}
	merged := docs[i]
	return &merged, nil
}

func (l *LocalStore) Delete(ctx context.Context, collection, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	docs, err := l.read(ctx, collection)
	if err != nil {
		return err
	}
	i := indexOf(docs, id)
	if i < 0 {
		return nil
	}
	docs = append(docs[:i], docs[i+1:]...)
	return l.write(ctx, collection, docs)
}

func (l *LocalStore) read(ctx context.Context, collection string) ([]Document, error) {
	key, err := l.Key(collection)
	if err != nil {
		return nil, err
	}
	var raws []json.RawMessage
	if _, err := kv.GetJSON(ctx, l.kv, key, &raws); err != nil {
		return nil, err
	}
	docs := make([]Document, 0, len(raws))
	for _, raw := range raws {
		id, err := documentID(raw)
		if err != nil {
			// a record without an id cannot be addressed; keep it out of reads
			continue
		}
		docs = append(docs, Document{ID: id, Body: raw})
	}
	return docs, nil
}

func (l *LocalStore) write(ctx context.Context, collection string, docs []Document) error {
	key, err := l.Key(collection)
	if err != nil {
		return err
	}
	raws := make([]json.RawMessage, 0, len(docs))
	for _, doc := range docs {
		raws = append(raws, doc.Body)
	}
	payload, err := json.Marshal(raws)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding local collection")
	}
	if err := l.kv.Set(ctx, key, string(payload)); err != nil {
		return err
	}
	if l.pub != nil && l.signalled[key] {
		l.pub.Publish(ctx, changefeed.Change{Key: key, Value: string(payload)})
	}
	return nil
}

func indexOf(docs []Document, id string) int {
	for i := range docs {
		if docs[i].ID == id {
			return i
		}
	}
	return -1
}
