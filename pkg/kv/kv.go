// Package kv holds the local cache scopes: a durable device scope backed by
// sqlite and ephemeral in-memory scopes that die with their session.
package kv

import (
	"context"
	"encoding/json"

	pkgerrors "github.com/angelmondragon/medicarehub-backend/pkg/errors"
)

// Store is a string key/value scope.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// GetJSON decodes the value at key into dst. It reports false when the key is absent.
func GetJSON(ctx context.Context, s Store, key string, dst any) (bool, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return false, pkgerrors.Wrapf(pkgerrors.CodeDependency, err, "decoding local key %s", key)
	}
	return true, nil
}

// SetJSON encodes v and stores it at key.
func SetJSON(ctx context.Context, s Store, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return pkgerrors.Wrapf(pkgerrors.CodeInternal, err, "encoding local key %s", key)
	}
	return s.Set(ctx, key, string(raw))
}
