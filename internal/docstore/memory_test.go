package docstore_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/makindu-artifacts/storefront/internal/docstore"
)

func TestMemory_Insert(t *testing.T) {
	store := docstore.NewMemory()

	var snapshots [][]docstore.Document
	unsub, err := store.Subscribe(context.Background(), "p", func(docs []docstore.Document) {
		snapshots = append(snapshots, docs)
	}, nil)
	assert.NoError(t, err)
	defer unsub()

	// Initial snapshot is delivered on subscribe.
	assert.Len(t, snapshots, 1)
	assert.Empty(t, snapshots[0])

	id, err := store.Insert(context.Background(), "p", map[string]any{"name": "one"})
	assert.NoError(t, err)
	assert.NotEmpty(t, id)

	assert.Len(t, snapshots, 2)
	assert.Len(t, snapshots[1], 1)
	assert.Equal(t, id, snapshots[1][0].ID)
	assert.Equal(t, "one", snapshots[1][0].Data["name"])
}

func TestMemory_InsertionOrderPreserved(t *testing.T) {
	store := docstore.NewMemory()
	ctx := context.Background()

	idA, _ := store.Insert(ctx, "p", map[string]any{"name": "a"})
	idB, _ := store.Insert(ctx, "p", map[string]any{"name": "b"})
	idC, _ := store.Insert(ctx, "p", map[string]any{"name": "c"})

	var got []string
	unsub, err := store.Subscribe(ctx, "p", func(docs []docstore.Document) {
		got = nil
		for _, d := range docs {
			got = append(got, d.ID)
		}
	}, nil)
	assert.NoError(t, err)
	defer unsub()

	assert.Equal(t, []string{idA, idB, idC}, got)
}

func TestMemory_Set(t *testing.T) {
	store := docstore.NewMemory()
	ctx := context.Background()

	// Set on a missing id creates the document.
	err := store.Set(ctx, "p", "doc-1", map[string]any{"v": 1})
	assert.NoError(t, err)

	// Set on an existing id replaces it in place.
	err = store.Set(ctx, "p", "doc-1", map[string]any{"v": 2})
	assert.NoError(t, err)

	var docs []docstore.Document
	unsub, _ := store.Subscribe(ctx, "p", func(d []docstore.Document) { docs = d }, nil)
	defer unsub()

	assert.Len(t, docs, 1)
	assert.Equal(t, 2, docs[0].Data["v"])

	err = store.Set(ctx, "p", "", map[string]any{})
	assert.Error(t, err)
}

func TestMemory_SetCallerChosenIDs(t *testing.T) {
	// Set takes whatever id the caller picks; ids are plain strings, not
	// uuids, and coexist with store-generated ones under the same path.
	store := docstore.NewMemory()
	ctx := context.Background()

	gen, err := store.Insert(ctx, "p", map[string]any{"v": "a"})
	assert.NoError(t, err)
	assert.NoError(t, store.Set(ctx, "p", "current", map[string]any{"v": "b"}))

	var docs []docstore.Document
	unsub, _ := store.Subscribe(ctx, "p", func(d []docstore.Document) { docs = d }, nil)
	defer unsub()

	assert.Len(t, docs, 2)
	assert.Equal(t, gen, docs[0].ID)
	assert.Equal(t, "current", docs[1].ID)
}

func TestMemory_Delete(t *testing.T) {
	store := docstore.NewMemory()
	ctx := context.Background()

	id, _ := store.Insert(ctx, "p", map[string]any{"name": "one"})

	var docs []docstore.Document
	unsub, _ := store.Subscribe(ctx, "p", func(d []docstore.Document) { docs = d }, nil)
	defer unsub()

	assert.NoError(t, store.Delete(ctx, "p", id))
	assert.Empty(t, docs)

	// Deleting an absent document is a no-op.
	assert.NoError(t, store.Delete(ctx, "p", "missing"))
}

func TestMemory_UnsubscribeIdempotent(t *testing.T) {
	store := docstore.NewMemory()
	ctx := context.Background()

	calls := 0
	unsub, err := store.Subscribe(ctx, "p", func(docs []docstore.Document) { calls++ }, nil)
	assert.NoError(t, err)
	assert.Equal(t, 1, calls)

	unsub()
	assert.NotPanics(t, unsub)

	_, err = store.Insert(ctx, "p", map[string]any{"name": "late"})
	assert.NoError(t, err)
	assert.Equal(t, 1, calls, "detached listener must not receive snapshots")
}

func TestMemory_NoDeliveryAfterUnsubscribeReturns(t *testing.T) {
	store := docstore.NewMemory()
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		var mu sync.Mutex
		unsubscribed := false

		unsub, err := store.Subscribe(ctx, "p", func(docs []docstore.Document) {
			mu.Lock()
			defer mu.Unlock()
			if unsubscribed {
				t.Error("snapshot delivered after unsubscribe returned")
			}
		}, nil)
		assert.NoError(t, err)

		done := make(chan struct{})
		go func() {
			defer close(done)
			_, _ = store.Insert(ctx, "p", map[string]any{"n": i})
		}()

		unsub()
		mu.Lock()
		unsubscribed = true
		mu.Unlock()
		<-done
	}
}

func TestMemory_PathsAreIsolated(t *testing.T) {
	store := docstore.NewMemory()
	ctx := context.Background()

	calls := 0
	unsub, _ := store.Subscribe(ctx, "tenants/a", func(docs []docstore.Document) { calls++ }, nil)
	defer unsub()

	_, err := store.Insert(ctx, "tenants/b", map[string]any{"name": "other"})
	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestMemory_FailSubscriptions(t *testing.T) {
	store := docstore.NewMemory()
	ctx := context.Background()

	var gotErr error
	snapshots := 0
	_, err := store.Subscribe(ctx, "p",
		func(docs []docstore.Document) { snapshots++ },
		func(err error) { gotErr = err },
	)
	assert.NoError(t, err)

	ruleErr := errors.New("permission denied")
	store.FailSubscriptions("p", ruleErr)
	assert.ErrorIs(t, gotErr, ruleErr)

	// The failed listener is gone; further mutations deliver nothing.
	_, _ = store.Insert(ctx, "p", map[string]any{"name": "late"})
	assert.Equal(t, 1, snapshots)
}

func TestPathHelpers(t *testing.T) {
	assert.Equal(t, "artifacts/default-app-id/public/data/artifacts", docstore.CatalogPath("default-app-id"))
	assert.Equal(t, "artifacts/t1/users/u1/cart", docstore.CartPath("t1", "u1"))
}
