package catalog_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/makindu-artifacts/storefront/internal/catalog"
	"github.com/makindu-artifacts/storefront/internal/docstore"
)

func TestProductFromDocument_PriceCoercion(t *testing.T) {
	tests := []struct {
		name  string
		price any
		want  float64
	}{
		{name: "float", price: 1500.0, want: 1500},
		{name: "int", price: 1500, want: 1500},
		{name: "numeric_string", price: "1500", want: 1500},
		{name: "decimal_string", price: "12.5", want: 12.5},
		{name: "json_number", price: json.Number("4500"), want: 4500},
		{name: "empty_string", price: "", want: 0},
		{name: "nil", price: nil, want: 0},
		{name: "nan_string", price: "NaN", want: 0},
		{name: "garbage_string", price: "abc", want: 0},
		{name: "bool", price: true, want: 0},
		{name: "negative", price: -25.0, want: 0},
		{name: "negative_string", price: "-25", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := docstore.Document{ID: "a1", Data: map[string]any{"price": tt.price}}
			got := catalog.ProductFromDocument(doc)
			assert.Equal(t, tt.want, got.Price)
		})
	}
}

func TestProductFromDocument_Fields(t *testing.T) {
	doc := docstore.Document{
		ID: "a1",
		Data: map[string]any{
			"name":        "Kamba Wooden Sculpture",
			"description": "Hand-carved",
			"price":       4500.0,
			"imageUrl":    "https://example.com/sculpture.jpg",
			"createdAt":   "2026-08-30T10:00:00Z",
			"addedBy":     "anon-123",
		},
	}

	got := catalog.ProductFromDocument(doc)

	assert.Equal(t, "a1", got.ID)
	assert.Equal(t, "Kamba Wooden Sculpture", got.Name)
	assert.Equal(t, "Hand-carved", got.Description)
	assert.Equal(t, 4500.0, got.Price)
	assert.Equal(t, "https://example.com/sculpture.jpg", got.ImageURL)
	assert.Equal(t, time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC), got.CreatedAt)
	assert.Equal(t, "anon-123", got.AddedBy)
}

func TestProductFromDocument_MalformedFields(t *testing.T) {
	doc := docstore.Document{
		ID: "a1",
		Data: map[string]any{
			"name":      42,
			"createdAt": "not-a-timestamp",
		},
	}

	got := catalog.ProductFromDocument(doc)

	assert.Equal(t, "", got.Name)
	assert.True(t, got.CreatedAt.IsZero())
	assert.Equal(t, 0.0, got.Price)
}
