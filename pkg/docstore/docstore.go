// Package docstore addresses JSON documents by collection and id on either the
// local cache or a remote backend, and composes the two behind SyncingStore.
package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
)

const (
	CollectionStores        = "stores"
	CollectionOrders        = "orders"
	CollectionUsers         = "users"
	CollectionNotifications = "notifications"
)

// Document is one record in its stored JSON form.
type Document struct {
	ID   string
	Body json.RawMessage
}

// Store is the backend-agnostic document surface. Lookups on missing
// documents return nil without an error.
type Store interface {
	All(ctx context.Context, collection string) ([]Document, error)
	Get(ctx context.Context, collection, id string) (*Document, error)
	// Create inserts doc unless its id already exists and reports whether it did.
	Create(ctx context.Context, collection string, doc Document) (bool, error)
	Set(ctx context.Context, collection string, doc Document) error
	// Merge overlays the top-level fields of patch onto an existing document.
	Merge(ctx context.Context, collection, id string, patch json.RawMessage) (*Document, error)
	Delete(ctx context.Context, collection, id string) error
}

// CurrentReader is implemented by stores that can resolve the copy a
// following Merge will patch, which may differ from what Get returns.
type CurrentReader interface {
	Current(ctx context.Context, collection, id string) (*Document, error)
}

// UnionReader is implemented by stores layered over more than one backend.
type UnionReader interface {
	Union(ctx context.Context, collection string) ([]Document, error)
}

// Current reads id the way a subsequent Merge on s will see it.
func Current(ctx context.Context, s Store, collection, id string) (*Document, error) {
	if r, ok := s.(CurrentReader); ok {
		return r.Current(ctx, collection, id)
	}
	return s.Get(ctx, collection, id)
}

// Union lists every document any backend behind s holds.
func Union(ctx context.Context, s Store, collection string) ([]Document, error) {
	if r, ok := s.(UnionReader); ok {
		return r.Union(ctx, collection)
	}
	return s.All(ctx, collection)
}

// Encode builds a document from a record carrying an "id" field.
func Encode(v any) (Document, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return Document{}, fmt.Errorf("encode document: %w", err)
	}
	id, err := documentID(body)
	if err != nil {
		return Document{}, err
	}
	return Document{ID: id, Body: body}, nil
}

// Decode unmarshals a document body into dst.
func Decode(doc Document, dst any) error {
	if err := json.Unmarshal(doc.Body, dst); err != nil {
		return fmt.Errorf("decode document %s: %w", doc.ID, err)
	}
	return nil
}

// DecodeAll unmarshals every document into a slice of T. Malformed documents
// are skipped and reported through the returned count.
func DecodeAll[T any](docs []Document) ([]T, int) {
	out := make([]T, 0, len(docs))
	skipped := 0
	for _, doc := range docs {
		var v T
		if err := json.Unmarshal(doc.Body, &v); err != nil {
			skipped++
			continue
		}
		out = append(out, v)
	}
	return out, skipped
}

// Patch encodes a partial update for Merge.
func Patch(fields any) (json.RawMessage, error) {
	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encode patch: %w", err)
	}
	return raw, nil
}

// documentID reads the "id" member of a JSON object. Numeric ids are kept in
// their decimal text form, so store 3 lives at document "3".
func documentID(body []byte) (string, error) {
	var head struct {
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(body, &head); err != nil {
		return "", fmt.Errorf("document is not an object: %w", err)
	}
	raw := bytes.TrimSpace(head.ID)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", fmt.Errorf("document has no id")
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", fmt.Errorf("document id: %w", err)
		}
		if s == "" {
			return "", fmt.Errorf("document has empty id")
		}
		return s, nil
	}
	if _, err := strconv.ParseFloat(string(raw), 64); err != nil {
		return "", fmt.Errorf("document id must be a string or number")
	}
	return string(raw), nil
}

// mergeFields overlays top-level members of patch onto base.
func mergeFields(base, patch []byte) ([]byte, error) {
	var target map[string]json.RawMessage
	if err := json.Unmarshal(base, &target); err != nil {
		return nil, fmt.Errorf("decode base document: %w", err)
	}
	var overlay map[string]json.RawMessage
	if err := json.Unmarshal(patch, &overlay); err != nil {
		return nil, fmt.Errorf("decode patch: %w", err)
	}
	if target == nil {
		target = make(map[string]json.RawMessage, len(overlay))
	}
	for k, v := range overlay {
		if k == "id" {
			continue
		}
		target[k] = v
	}
	return json.Marshal(target)
}
