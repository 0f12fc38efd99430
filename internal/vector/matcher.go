package vector

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

const DefaultCollection = "atscore_chunks"

// QdrantMatcher finds the best matching chunk with a vector database
// instead of in process. Chunks of one call are stored under a fresh run
// id and removed once the query returns.
type QdrantMatcher struct {
	store      Store
	collection string

	mu    sync.Mutex
	ready bool
}

func NewQdrantMatcher(store Store, collection string) *QdrantMatcher {
	if collection == "" {
		collection = DefaultCollection
	}
	return &QdrantMatcher{
		store:      store,
		collection: collection,
	}
}

func (m *QdrantMatcher) Best(ctx context.Context, chunks [][]float32, target []float32) (float64, error) {
	if len(chunks) == 0 {
		return 0, nil
	}

	if err := m.ensureCollection(ctx, uint(len(target))); err != nil {
		return 0, err
	}

	run := uuid.NewString()
	runFilter := &QueryMatch{Key: "run", Value: run}

	if err := m.store.Upsert(ctx, m.collection, CreatePoints(run, chunks)); err != nil {
		return 0, fmt.Errorf("failed to upsert chunk vectors: %w", err)
	}
	defer func() {
		// the request context may already be done
		if err := m.store.Delete(context.WithoutCancel(ctx), m.collection, runFilter); err != nil {
			slog.Warn("failed to delete chunk vectors", "run", run, "err", err)
		}
	}()

	res, err := m.store.Query(ctx, NewQueryParams(m.collection, target,
		WithLimit(1),
		WithFilter(runFilter),
	))
	if err != nil {
		return 0, fmt.Errorf("failed to query chunk vectors: %w", err)
	}
	if len(res) == 0 {
		return 0, fmt.Errorf("no chunk vectors found for run '%s'", run)
	}

	return float64(res[0].Score), nil
}

// ensureCollection creates the collection on first use. A failed attempt
// is retried on the next call.
func (m *QdrantMatcher) ensureCollection(ctx context.Context, dims uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ready {
		return nil
	}

	exists, err := m.store.CollectionExists(ctx, m.collection)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFailedStoreInitialize, err)
	}
	if !exists {
		slog.Info("creating vector collection", "name", m.collection, "dims", dims)
		if err := m.store.CreateCollection(ctx, Collection{Name: m.collection, Dimensions: dims}); err != nil {
			return fmt.Errorf("%w: %w", ErrFailedStoreInitialize, err)
		}
	}

	m.ready = true
	return nil
}
