package cart

import (
	"context"
	"time"

	"github.com/makindu-artifacts/storefront/internal/catalog"
	"github.com/makindu-artifacts/storefront/internal/docstore"
)

// snapshotDocID is the single document the mirror maintains under the
// per-user cart path.
const snapshotDocID = "current"

// RemoteMirror persists the cart to the per-user path in the document store
// after mutations. The local cart stays authoritative; a failed write leaves
// it untouched and the next flush carries the full state anyway.
type RemoteMirror struct {
	cart  *Cart
	store docstore.Store
	path  string
	now   func() time.Time
}

func NewRemoteMirror(c *Cart, store docstore.Store, tenantID, principalID string) *RemoteMirror {
	return &RemoteMirror{
		cart:  c,
		store: store,
		path:  docstore.CartPath(tenantID, principalID),
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Flush writes the full current line set as one snapshot document.
func (m *RemoteMirror) Flush(ctx context.Context) error {
	lines := m.cart.Lines()
	data := map[string]any{
		"lines":     lines,
		"updatedAt": m.now().Format(time.RFC3339),
	}

	if err := m.store.Set(ctx, m.path, snapshotDocID, data); err != nil {
		return &catalog.MutationError{Op: "cart mirror write", Err: err}
	}
	return nil
}
