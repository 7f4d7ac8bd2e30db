// Package catalog mirrors the externally-stored artifact catalog and owns
// the validated admin operations against it.
package catalog

import (
	"encoding/json"
	"math"
	"strconv"
	"time"

	"github.com/makindu-artifacts/storefront/internal/docstore"
)

// Product is an artifact as mirrored from the remote catalog. The cart
// stores snapshot copies; nothing mutates a Product in place.
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	ImageURL    string    `json:"imageUrl"`
	CreatedAt   time.Time `json:"createdAt"`
	AddedBy     string    `json:"addedBy"`
}

// ProductFromDocument maps a raw store document into a Product. The remote
// store is not trusted to enforce field types; price in particular is
// coerced defensively.
func ProductFromDocument(doc docstore.Document) Product {
	p := Product{
		ID:          doc.ID,
		Name:        stringField(doc.Data, "name"),
		Description: stringField(doc.Data, "description"),
		ImageURL:    stringField(doc.Data, "imageUrl"),
		AddedBy:     stringField(doc.Data, "addedBy"),
		Price:       coercePrice(doc.Data["price"]),
	}
	if raw := stringField(doc.Data, "createdAt"); raw != "" {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			p.CreatedAt = ts
		}
	}
	return p
}

// coercePrice turns whatever the remote store holds into a usable price.
// Absent, malformed, non-finite and negative values all become 0.
func coercePrice(v any) float64 {
	var price float64
	switch n := v.(type) {
	case float64:
		price = n
	case float32:
		price = float64(n)
	case int:
		price = float64(n)
	case int64:
		price = float64(n)
	case json.Number:
		price, _ = n.Float64()
	case string:
		parsed, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0
		}
		price = parsed
	default:
		return 0
	}
	if math.IsNaN(price) || math.IsInf(price, 0) || price < 0 {
		return 0
	}
	return price
}

func stringField(data map[string]any, key string) string {
	s, _ := data[key].(string)
	return s
}
