package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/makindu-artifacts/storefront/internal/handler"
)

// NewRouter wires the storefront's HTTP surface.
func NewRouter(catalogH *handler.CatalogHandler, cartH *handler.CartHandler, sessionH *handler.SessionHandler) *chi.Mux {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("OK"))
	})

	r.Get("/session", sessionH.GetSession)

	r.Get("/artifacts", catalogH.ListArtifacts)
	r.Post("/artifacts", catalogH.CreateArtifact)
	r.Delete("/artifacts/{id}", catalogH.DeleteArtifact)

	r.Get("/cart", cartH.GetCart)
	r.Post("/cart/items", cartH.AddItem)
	r.Put("/cart/items/{id}", cartH.UpdateItem)
	r.Delete("/cart/items/{id}", cartH.RemoveItem)
	r.Post("/cart/checkout", cartH.Checkout)

	return r
}
