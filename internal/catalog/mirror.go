package catalog

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/makindu-artifacts/storefront/internal/docstore"
)

// Mirror maintains a read-only local reflection of the remote catalog.
type Mirror struct {
	store docstore.Store
}

func NewMirror(store docstore.Store) *Mirror {
	return &Mirror{store: store}
}

// Subscription is a live catalog stream. Updates carries a full materialized
// product list per remote change, conflated to the latest snapshot; it closes
// after Unsubscribe or a terminal error, never on its own.
type Subscription struct {
	updates chan []Product

	mu     sync.Mutex
	err    error
	closed bool

	stop func()
	once sync.Once
}

// Subscribe begins a live subscription scoped to the tenant's public catalog.
func (m *Mirror) Subscribe(ctx context.Context, tenantID string) (*Subscription, error) {
	path := docstore.CatalogPath(tenantID)
	sub := &Subscription{updates: make(chan []Product, 1)}

	stop, err := m.store.Subscribe(ctx, path, sub.onSnapshot, func(err error) {
		sub.fail(&SubscriptionError{Path: path, Err: err})
	})
	if err != nil {
		return nil, &SubscriptionError{Path: path, Err: err}
	}
	sub.stop = stop

	log.Info().Str("path", path).Msg("Listening to artifact catalog")
	return sub, nil
}

// Updates returns the snapshot stream. Receivers that fall behind only see
// the most recent list.
func (s *Subscription) Updates() <-chan []Product {
	return s.updates
}

// Err returns the terminal subscription error once Updates has closed, nil
// after a plain Unsubscribe.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Unsubscribe stops the stream and closes Updates. Idempotent; safe to call
// after a terminal error.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.stop()
		s.mu.Lock()
		if !s.closed {
			s.closed = true
			close(s.updates)
		}
		s.mu.Unlock()
	})
}

func (s *Subscription) onSnapshot(docs []docstore.Document) {
	products := make([]Product, len(docs))
	for i, doc := range docs {
		products[i] = ProductFromDocument(doc)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	// Conflate: drop the undelivered snapshot, keep the newest.
	select {
	case <-s.updates:
	default:
	}
	s.updates <- products
}

func (s *Subscription) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	log.Error().Err(err).Msg("Catalog subscription failed (check store security rules)")
	s.err = err
	s.closed = true
	close(s.updates)
}
