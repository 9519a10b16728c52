package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/angelmondragon/medicarehub-backend/pkg/redis"
)

// HashClient is the subset of pkg/redis used by RedisStore.
type HashClient interface {
	HGet(ctx context.Context, key, field string) (string, error)
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HSet(ctx context.Context, key, field string, value any) error
	HSetNX(ctx context.Context, key, field string, value any) (bool, error)
	HDel(ctx context.Context, key string, fields ...string) error
	DocumentKey(collection string) string
}

// RedisStore keeps each collection in one hash, field = document id.
type RedisStore struct {
	client HashClient
}

func NewRedisStore(client HashClient) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	return &RedisStore{client: client}, nil
}

func (r *RedisStore) All(ctx context.Context, collection string) ([]Document, error) {
	fields, err := r.client.HGetAll(ctx, r.client.DocumentKey(collection))
	if err != nil {
		return nil, fmt.Errorf("hgetall %s: %w", collection, err)
	}
	docs := make([]Document, 0, len(fields))
	for id, body := range fields {
		docs = append(docs, Document{ID: id, Body: json.RawMessage(body)})
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

func (r *RedisStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	body, err := r.client.HGet(ctx, r.client.DocumentKey(collection), id)
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("hget %s/%s: %w", collection, id, err)
	}
	return &Document{ID: id, Body: json.RawMessage(body)}, nil
}

func (r *RedisStore) Create(ctx context.Context, collection string, doc Document) (bool, error) {
	created, err := r.client.HSetNX(ctx, r.client.DocumentKey(collection), doc.ID, string(doc.Body))
	if err != nil {
		return false, fmt.Errorf("hsetnx %s/%s: %w", collection, doc.ID, err)
	}
	return created, nil
}

func (r *RedisStore) Set(ctx context.Context, collection string, doc Document) error {
	if err := r.client.HSet(ctx, r.client.DocumentKey(collection), doc.ID, string(doc.Body)); err != nil {
		return fmt.Errorf("hset %s/%s: %w", collection, doc.ID, err)
	}
	return nil
}

// Merge is read-modify-write; concurrent merges on one document can lose fields.
func (r *RedisStore) Merge(ctx context.Context, collection, id string, patch json.RawMessage) (*Document, error) {
	current, err := r.Get(ctx, collection, id)
	if err != nil || current == nil {
		return nil, err
	}
	body, err := mergeFields(current.Body, patch)
	if err != nil {
		return nil, err
	}
	merged := Document{ID: id, Body: body}
	if err := r.Set(ctx, collection, merged); err != nil {
		return nil, err
	}
	return &merged, nil
}

func (r *RedisStore) Delete(ctx context.Context, collection, id string) error {
	if err := r.client.HDel(ctx, r.client.DocumentKey(collection), id); err != nil {
		return fmt.Errorf("hdel %s/%s: %w", collection, id, err)
	}
	return nil
}
