// Package docstore defines the boundary to the hosted document database and
// ships an in-memory implementation for local development and tests.
package docstore

import (
	"context"
	"fmt"
)

// Document is a single record as stored remotely. Data carries the raw,
// untrusted field map; typed mapping happens in the consuming package.
type Document struct {
	ID   string         `json:"id"`
	Data map[string]any `json:"data"`
}

// SnapshotFunc receives the full materialized document list for a path on
// every remote change. Once the unsubscribe function returned by Subscribe
// has returned, no further calls are made. The callback must not invoke
// unsubscribe itself.
type SnapshotFunc func(docs []Document)

// ErrorFunc receives a terminal subscription error. After it fires the
// subscription is dead; the store does not retry.
type ErrorFunc func(err error)

// Store is the narrow contract the rest of the system holds against the
// external document database.
type Store interface {
	// Subscribe begins a live subscription to a path. The returned
	// unsubscribe function is idempotent.
	Subscribe(ctx context.Context, path string, onSnapshot SnapshotFunc, onError ErrorFunc) (func(), error)
	// Insert stores a new document under a store-assigned id.
	Insert(ctx context.Context, path string, data map[string]any) (string, error)
	// Set creates or replaces the document with the given id.
	Set(ctx context.Context, path, id string, data map[string]any) error
	// Delete removes a document. Deleting an absent document is a no-op.
	Delete(ctx context.Context, path, id string) error
}

// CatalogPath returns the tenant-scoped public catalog collection path.
func CatalogPath(tenantID string) string {
	return fmt.Sprintf("artifacts/%s/public/data/artifacts", tenantID)
}

// CartPath returns the per-user cart mirror path.
func CartPath(tenantID, principalID string) string {
	return fmt.Sprintf("artifacts/%s/users/%s/cart", tenantID, principalID)
}
