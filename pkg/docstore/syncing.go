package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"github.com/angelmondragon/medicarehub-backend/pkg/logger"
	"github.com/angelmondragon/medicarehub-backend/pkg/metrics"
)

const DefaultRemoteTimeout = 5 * time.Second

// SyncingStore reads remote-first with fallback to the local cache and writes
// local-first, treating the remote write as best effort. Remote errors never
// reach callers.
type SyncingStore struct {
	local   Store
	remote  Store
	timeout time.Duration
	metrics *metrics.SyncMetrics
	logg    *logger.Logger
}

type SyncingParams struct {
	Local         Store
	Remote        Store // nil runs local-only
	RemoteTimeout time.Duration
	Metrics       *metrics.SyncMetrics
	Logger        *logger.Logger
}

func NewSyncingStore(params SyncingParams) (*SyncingStore, error) {
	if params.Local == nil {
		return nil, fmt.Errorf("local store required")
	}
	timeout := params.RemoteTimeout
	if timeout <= 0 {
		timeout = DefaultRemoteTimeout
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &SyncingStore{
		local:   params.Local,
		remote:  params.Remote,
		timeout: timeout,
		metrics: params.Metrics,
		logg:    logg,
	}, nil
}

// RemoteEnabled reports whether a remote backend is attached.
func (s *SyncingStore) RemoteEnabled() bool {
	return s.remote != nil
}

func (s *SyncingStore) All(ctx context.Context, collection string) ([]Document, error) {
	if s.remote != nil {
		rctx, cancel := context.WithTimeout(ctx, s.timeout)
		docs, err := s.remote.All(rctx, collection)
		cancel()
		if err == nil {
			return docs, nil
		}
		s.fallback(ctx, "all", collection, err)
	}
	return s.local.All(ctx, collection)
}

func (s *SyncingStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	if s.remote != nil {
		rctx, cancel := context.WithTimeout(ctx, s.timeout)
		doc, err := s.remote.Get(rctx, collection, id)
		cancel()
		if err == nil && doc != nil {
			return doc, nil
		}
		if err != nil {
			s.fallback(ctx, "get", collection, err)
		}
	}
	return s.local.Get(ctx, collection, id)
}

// Current resolves the copy a following Merge will patch: the local record,
// or the remote one copied into the local cache when the device has never
// seen it. Checks that guard a write must read through here, since the
// remote may lag behind local writes it refused.
func (s *SyncingStore) Current(ctx context.Context, collection, id string) (*Document, error) {
	doc, err := s.local.Get(ctx, collection, id)
	if err != nil || doc != nil {
		return doc, err
	}
	return s.hydrate(ctx, collection, id)
}

// Union lists every document either backend knows about. The local copy wins
// when both hold the same id.
func (s *SyncingStore) Union(ctx context.Context, collection string) ([]Document, error) {
	docs, err := s.local.All(ctx, collection)
	if err != nil {
		return nil, err
	}
	if s.remote == nil {
		return docs, nil
	}
	rctx, cancel := context.WithTimeout(ctx, s.timeout)
	remoteDocs, err := s.remote.All(rctx, collection)
	cancel()
	if err != nil {
		s.fallback(ctx, "union", collection, err)
		return docs, nil
	}
	for _, doc := range remoteDocs {
		if indexOf(docs, doc.ID) < 0 {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

// Create inserts locally and forwards to the remote when the insert happened.
// A refused insert is forwarded only when the local copy is the same record,
// which is a retry of an earlier create the remote may have missed.
func (s *SyncingStore) Create(ctx context.Context, collection string, doc Document) (bool, error) {
	created, err := s.local.Create(ctx, collection, doc)
	if err != nil {
		return false, err
	}
	if created {
		s.metrics.IncLocalWrite("create", collection)
	} else {
		existing, err := s.local.Get(ctx, collection, doc.ID)
		if err != nil {
			return false, err
		}
		if existing == nil || !sameBody(existing.Body, doc.Body) {
			return false, nil
		}
	}
	s.remoteWrite(ctx, "create", collection, func(rctx context.Context) error {
		_, err := s.remote.Create(rctx, collection, doc)
		return err
	})
	return created, nil
}

func (s *SyncingStore) Set(ctx context.Context, collection string, doc Document) error {
	if err := s.local.Set(ctx, collection, doc); err != nil {
		return err
	}
	s.metrics.IncLocalWrite("set", collection)
	s.remoteWrite(ctx, "set", collection, func(rctx context.Context) error {
		return s.remote.Set(rctx, collection, doc)
	})
	return nil
}

// Merge patches the local copy. A document missing locally but known to the
// remote is first copied into the local cache.
func (s *SyncingStore) Merge(ctx context.Context, collection, id string, patch json.RawMessage) (*Document, error) {
	merged, err := s.local.Merge(ctx, collection, id, patch)
	if err != nil {
		return nil, err
	}
	if merged == nil {
		merged, err = s.hydrateAndMerge(ctx, collection, id, patch)
		if err != nil || merged == nil {
			return nil, err
		}
	}
	s.metrics.IncLocalWrite("merge", collection)
	s.remoteWrite(ctx, "merge", collection, func(rctx context.Context) error {
		_, err := s.remote.Merge(rctx, collection, id, patch)
		return err
	})
	return merged, nil
}

func (s *SyncingStore) Delete(ctx context.Context, collection, id string) error {
	if err := s.local.Delete(ctx, collection, id); err != nil {
		return err
	}
	s.metrics.IncLocalWrite("delete", collection)
	s.remoteWrite(ctx, "delete", collection, func(rctx context.Context) error {
		return s.remote.Delete(rctx, collection, id)
	})
	return nil
}

// Snapshot returns the local copy at once and, when a remote is attached,
// fetches it in the background and hands the result to onFresh. onFresh is
// not called when the remote fetch fails.
func (s *SyncingStore) Snapshot(ctx context.Context, collection string, onFresh func([]Document)) ([]Document, error) {
	docs, err := s.local.All(ctx, collection)
	if err != nil {
		return nil, err
	}
	if s.remote == nil || onFresh == nil {
		return docs, nil
	}
	bg := context.WithoutCancel(ctx)
	go func() {
		rctx, cancel := context.WithTimeout(bg, s.timeout)
		defer cancel()
		fresh, err := s.remote.All(rctx, collection)
		if err != nil {
			s.fallback(bg, "snapshot", collection, err)
			return
		}
		onFresh(fresh)
	}()
	return docs, nil
}

func (s *SyncingStore) hydrateAndMerge(ctx context.Context, collection, id string, patch json.RawMessage) (*Document, error) {
	doc, err := s.hydrate(ctx, collection, id)
	if err != nil || doc == nil {
		return nil, err
	}
	return s.local.Merge(ctx, collection, id, patch)
}

// hydrate copies a remote-only document into the local cache.
func (s *SyncingStore) hydrate(ctx context.Context, collection, id string) (*Document, error) {
	if s.remote == nil {
		return nil, nil
	}
	rctx, cancel := context.WithTimeout(ctx, s.timeout)
	remoteDoc, err := s.remote.Get(rctx, collection, id)
	cancel()
	if err != nil {
		s.fallback(ctx, "hydrate", collection, err)
		return nil, nil
	}
	if remoteDoc == nil {
		return nil, nil
	}
	if _, err := s.local.Create(ctx, collection, *remoteDoc); err != nil {
		return nil, err
	}
	s.logg.Debug(s.logg.WithDocument(ctx, collection, id), "hydrated local cache from remote")
	return s.local.Get(ctx, collection, id)
}

func (s *SyncingStore) remoteWrite(ctx context.Context, op, collection string, write func(context.Context) error) {
	if s.remote == nil {
		return
	}
	rctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := write(rctx); err != nil {
		s.metrics.IncRemoteFailure(op, collection)
		s.logg.Warn(s.logg.WithField(s.logg.WithError(s.logg.WithCollection(ctx, collection), err), "op", op),
			"remote write failed; local copy kept")
	}
}

func (s *SyncingStore) fallback(ctx context.Context, op, collection string, err error) {
	s.metrics.IncFallback(op, collection)
	s.logg.Warn(s.logg.WithField(s.logg.WithError(s.logg.WithCollection(ctx, collection), err), "op", op),
		"remote read failed; serving local cache")
}

func sameBody(a, b json.RawMessage) bool {
	var av, bv any
	if json.Unmarshal(a, &av) != nil || json.Unmarshal(b, &bv) != nil {
		return false
	}
	return reflect.DeepEqual(av, bv)
}
