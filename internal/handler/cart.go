package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/makindu-artifacts/storefront/internal/cart"
	"github.com/makindu-artifacts/storefront/internal/catalog"
)

// CartHandler exposes the cart state store over HTTP. The mirror is optional;
// when present the cart snapshot is flushed to the remote store after every
// mutation, but a failed flush never rolls back the local cart.
type CartHandler struct {
	cart   *cart.Cart
	mirror *cart.RemoteMirror
}

func NewCartHandler(c *cart.Cart, mirror *cart.RemoteMirror) *CartHandler {
	return &CartHandler{cart: c, mirror: mirror}
}

type cartState struct {
	Lines     []cart.Line `json:"lines"`
	ItemCount int         `json:"itemCount"`
	CartTotal float64     `json:"cartTotal"`
}

// GetCart returns the current lines and aggregate.
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.state())
}

// AddItem adds a product snapshot to the cart, incrementing quantity when
// the line already exists.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var p catalog.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if p.ID == "" {
		respondWithError(w, http.StatusBadRequest, "product id is required")
		return
	}

	h.cart.AddItem(p)
	h.flush(r)
	respondWithJSON(w, http.StatusOK, h.state())
}

// UpdateItem sets a line's quantity. Quantity may arrive as a number or a
// string; anything invalid normalizes to 0, which removes the line.
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body struct {
		Quantity any `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	h.cart.SetQuantity(id, coerceQuantity(body.Quantity))
	h.flush(r)
	respondWithJSON(w, http.StatusOK, h.state())
}

// RemoveItem deletes a line. Removing an absent line is a no-op.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	h.cart.RemoveItem(chi.URLParam(r, "id"))
	h.flush(r)
	respondWithJSON(w, http.StatusOK, h.state())
}

/// Checkout is the checkout simulation: it clears the cart and nothing more.
func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	h.cart.Clear()
	h.flush(r)
	log.Info().Msg("Cart cleared after checkout simulation")
	respondWithJSON(w, http.StatusOK, h.state())
}

func (h *CartHandler) state() cartState {
	agg := h.cart.Aggregate()
	return cartState{
		Lines:     h.cart.Lines(),
		ItemCount: agg.ItemCount,
		CartTotal: agg.CartTotal,
	}
}

func (h *CartHandler) flush(r *http.Request) {
	if h.mirror == nil {
		return
	}
	if err := h.mirror.Flush(r.Context()); err != nil {
		log.Warn().Err(err).Msg("Cart mirror flush failed, local cart unaffected")
	}
}

func coerceQuantity(v any) int {
	switch q := v.(type) {
	case float64:
		return cart.ParseQuantity(fmt.Sprintf("%v", q))
	case string:
		return cart.ParseQuantity(q)
	default:
		return 0
	}
}
