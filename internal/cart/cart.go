// Package cart owns the shopping cart state for the current session: a
// mapping of product id to line, with derived totals. Mutations never error;
// invalid quantity input is normalized, not rejected.
package cart

import (
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/makindu-artifacts/storefront/internal/catalog"
)

// Line is one cart entry. Product is a snapshot taken at first add; only
// Quantity changes afterwards. A line with quantity <= 0 never exists.
type Line struct {
	Product  catalog.Product `json:"product"`
	Quantity int             `json:"quantity"`
}

// Aggregate is derived cart state, recomputed from the lines on every read.
type Aggregate struct {
	ItemCount int     `json:"itemCount"`
	CartTotal float64 `json:"cartTotal"`
}

// Cart is the sole authority over cart contents. Single-owner state; the
// mutex only guards against the concurrent HTTP server, mutations are issued
// sequentially by user actions.
type Cart struct {
	mu    sync.Mutex
	lines map[string]*Line
	order []string
}

func New() *Cart {
	return &Cart{lines: make(map[string]*Line)}
}

// AddItem inserts a new line with quantity 1, or increments the quantity of
// an existing line. For an existing line the stored snapshot is kept; the
// incoming product's fields do not refresh it. Products without an id are
// ignored.
func (c *Cart) AddItem(p catalog.Product) {
	if p.ID == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if line, ok := c.lines[p.ID]; ok {
		line.Quantity++
		return
	}
	c.lines[p.ID] = &Line{Product: p, Quantity: 1}
	c.order = append(c.order, p.ID)
}

// SetQuantity updates a line's quantity, preserving the stored snapshot.
// Negative values clamp to 0, and a resulting quantity of 0 removes the line.
// Unknown ids are a no-op.
func (c *Cart) SetQuantity(productID string, quantity int) {
	if quantity < 0 {
		quantity = 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	line, ok := c.lines[productID]
	if !ok {
		return
	}
	if quantity == 0 {
		c.removeLocked(productID)
		return
	}
	line.Quantity = quantity
}

// RemoveItem deletes a line unconditionally. No-op if absent; never errors.
func (c *Cart) RemoveItem(productID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLocked(productID)
}

// Clear empties the cart. Terminal step of the checkout simulation; no
// payment or receipt logic lives here.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = make(map[string]*Line)
	c.order = nil
}

// Lines returns a fresh snapshot of the cart in insertion order.
func (c *Cart) Lines() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Line, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, *c.lines[id])
	}
	return out
}

// Aggregate computes the distinct line count and total cost fresh from the
// current lines.
func (c *Cart) Aggregate() Aggregate {
	c.mu.Lock()
	defer c.mu.Unlock()

	agg := Aggregate{ItemCount: len(c.order)}
	for _, line := range c.lines {
		agg.CartTotal += line.Product.Price * float64(line.Quantity)
	}
	return agg
}

func (c *Cart) removeLocked(productID string) {
	if _, ok := c.lines[productID]; !ok {
		return
	}
	delete(c.lines, productID)
	for i, id := range c.order {
		if id == productID {
			c.order = append(c.order[:i:i], c.order[i+1:]...)
			break
		}
	}
}

// ParseQuantity normalizes untrusted quantity input. Anything that does not
// parse to a finite number counts as 0; negatives clamp to 0. Fractional
// input truncates toward zero.
func ParseQuantity(raw string) int {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	n := int(f)
	if n < 0 {
		return 0
	}
	return n
}
