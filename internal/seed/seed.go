// Package seed loads the sample store catalog into empty backends.
package seed

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/angelmondragon/medicarehub-backend/pkg/docstore"
	"github.com/angelmondragon/medicarehub-backend/pkg/logger"
)

// Params selects the backends to seed. Remote may be nil.
type Params struct {
	Local  *docstore.LocalStore
	Remote docstore.Store
	Logger *logger.Logger
}

// Stores seeds the remote when its stores collection is empty and the local
// cache when the stores key was never written. Remote failures are logged and
// do not stop local seeding.
func Stores(ctx context.Context, p Params) error {
	if p.Local == nil {
		return fmt.Errorf("local store required")
	}
	logg := p.Logger
	if logg == nil {
		logg = logger.Nop()
	}

	docs, err := encodeStores()
	if err != nil {
		return err
	}

	if p.Remote != nil {
		if err := seedRemote(ctx, p.Remote, docs); err != nil {
			logg.Warn(logg.WithError(ctx, err), "remote store seed failed, continuing with local cache")
		}
	}

	ok, err := p.Local.Initialized(ctx, docstore.CollectionStores)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	if err := p.Local.Replace(ctx, docstore.CollectionStores, docs); err != nil {
		return err
	}
	logg.Info(logg.WithField(ctx, "count", len(docs)), "seeded local store catalog")
	return nil
}

func seedRemote(ctx context.Context, remote docstore.Store, docs []docstore.Document) error {
	existing, err := remote.All(ctx, docstore.CollectionStores)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	var errs error
	for _, doc := range docs {
		errs = multierr.Append(errs, remote.Set(ctx, docstore.CollectionStores, doc))
	}
	return errs
}

func encodeStores() ([]docstore.Document, error) {
	stores := SampleStores()
	docs := make([]docstore.Document, 0, len(stores))
	for _, s := range stores {
		doc, err := docstore.Encode(s)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
