package catalog

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/makindu-artifacts/storefront/internal/docstore"
)

// Principal is the slice of the identity session the admin operations need.
type Principal interface {
	ID() string
	Ready() bool
}

// AddProductInput is the raw admin form payload. Price arrives as text and
// is validated and coerced here.
type AddProductInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	ImageURL    string `json:"imageUrl"`
}

// Admin performs validated create/delete operations against the remote
// catalog.
type Admin struct {
	store    docstore.Store
	tenantID string
	session  Principal
	now      func() time.Time
}

func NewAdmin(store docstore.Store, tenantID string, session Principal) *Admin {
	return &Admin{
		store:    store,
		tenantID: tenantID,
		session:  session,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// AddProduct validates the input locally, stamps createdAt and addedBy and
// inserts the artifact. Validation failures never reach the store; remote
// rejections surface the provider message and are not retried.
func (a *Admin) AddProduct(ctx context.Context, input AddProductInput) (string, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return "", &ValidationError{Field: "name", Reason: "is required"}
	}

	price, err := strconv.ParseFloat(strings.TrimSpace(input.Price), 64)
	if err != nil || math.IsNaN(price) || math.IsInf(price, 0) {
		return "", &ValidationError{Field: "price", Reason: "must be a valid number"}
	}

	addedBy := "unknown"
	if a.session != nil && a.session.Ready() && a.session.ID() != "" {
		addedBy = a.session.ID()
	}

	data := map[string]any{
		"name":        name,
		"description": strings.TrimSpace(input.Description),
		"price":       price,
		"imageUrl":    strings.TrimSpace(input.ImageURL),
		"createdAt":   a.now().Format(time.RFC3339),
		"addedBy":     addedBy,
	}

	id, err := a.store.Insert(ctx, docstore.CatalogPath(a.tenantID), data)
	if err != nil {
		log.Error().Err(err).Str("name", name).Msg("Failed to add artifact")
		return "", &MutationError{Op: "add artifact", Err: err}
	}

	log.Info().Str("artifact_id", id).Str("added_by", addedBy).Msg("Artifact added")
	return id, nil
}

// DeleteProduct deletes an artifact by id. No confirmation step here; that
// belongs to the presentation layer.
func (a *Admin) DeleteProduct(ctx context.Context, id string) error {
	if id == "" {
		return &ValidationError{Field: "id", Reason: "is required"}
	}

	if err := a.store.Delete(ctx, docstore.CatalogPath(a.tenantID), id); err != nil {
		log.Error().Err(err).Str("artifact_id", id).Msg("Failed to delete artifact")
		return &MutationError{Op: "delete artifact", Err: err}
	}

	log.Info().Str("artifact_id", id).Msg("Artifact deleted")
	return nil
}
