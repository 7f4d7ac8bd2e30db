package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/makindu-artifacts/storefront/internal/catalog"
)

// CatalogView is the slice of the mirror view the handler reads.
type CatalogView interface {
	Products() []catalog.Product
	Err() error
}

// AdminService performs validated create/delete against the remote catalog.
type AdminService interface {
	AddProduct(ctx context.Context, input catalog.AddProductInput) (string, error)
	DeleteProduct(ctx context.Context, id string) error
}

// CatalogHandler serves the artifact catalog and the admin operations.
type CatalogHandler struct {
	view  CatalogView
	admin AdminService
}

func NewCatalogHandler(view CatalogView, admin AdminService) *CatalogHandler {
	return &CatalogHandler{view: view, admin: admin}
}

// ListArtifacts returns the latest mirrored catalog snapshot.
func (h *CatalogHandler) ListArtifacts(w http.ResponseWriter, r *http.Request) {
	if h.view == nil {
		respondWithError(w, http.StatusServiceUnavailable, "store is not configured")
		return
	}
	if err := h.view.Err(); err != nil {
		respondWithError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, h.view.Products())
}

// CreateArtifact handles the admin add-product form.
func (h *CatalogHandler) CreateArtifact(w http.ResponseWriter, r *http.Request) {
	var input catalog.AddProductInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := h.admin.AddProduct(r.Context(), input)
	if err != nil {
		log.Info().Msgf("Failed to add artifact: %v", err)
		respondWithError(w, mapErrorToStatusCode(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// DeleteArtifact deletes an artifact by id.
func (h *CatalogHandler) DeleteArtifact(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "id is required")
		return
	}

	if err := h.admin.DeleteProduct(r.Context(), id); err != nil {
		log.Info().Msgf("Failed to delete artifact: %v", err)
		respondWithError(w, mapErrorToStatusCode(err), err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
