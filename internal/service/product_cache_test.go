package service

import (
	"testing"

	"github.com/vuhoangviet271/packing-video-app/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductCache_IndexesPrimaryAndAdditionalBarcodes(t *testing.T) {
	code := "8901234"
	p := model.Product{
		ID: uuid.New(), SKU: "SKU-1", Name: "Widget", Barcode: &code,
		AdditionalBarcodes: []model.ProductBarcode{
			{Barcode: "carton-001"},
			{Barcode: "relabel-002"},
		},
	}

	c := NewProductCache()
	assert.False(t, c.Loaded())
	c.Load([]model.Product{p})

	require.True(t, c.Loaded())
	assert.Equal(t, 3, c.Size())

	for _, b := range []string{"8901234", "carton-001", "relabel-002"} {
		got, ok := c.Lookup(b)
		require.True(t, ok, b)
		assert.Equal(t, p.ID, got.ID)
	}

	_, ok := c.Lookup("unknown")
	assert.False(t, ok)
}

func TestProductCache_CollisionLaterProductWins(t *testing.T) {
	code := "dup-code"
	first := model.Product{ID: uuid.New(), SKU: "A", Name: "First", Barcode: &code}
	second := model.Product{ID: uuid.New(), SKU: "B", Name: "Second", Barcode: &code}

	c := NewProductCache()
	c.Load([]model.Product{first, second})

	got, ok := c.Lookup(code)
	require.True(t, ok)
	assert.Equal(t, second.ID, got.ID)
}

func TestProductCache_LoadReplacesIndex(t *testing.T) {
	oldCode, newCode := "old", "new"
	c := NewProductCache()
	c.Load([]model.Product{{ID: uuid.New(), SKU: "A", Barcode: &oldCode}})
	c.Load([]model.Product{{ID: uuid.New(), SKU: "B", Barcode: &newCode}})

	_, ok := c.Lookup(oldCode)
	assert.False(t, ok)
	_, ok = c.Lookup(newCode)
	assert.True(t, ok)
	assert.Equal(t, 1, c.Size())
}

func TestProductCache_SkipsEmptyPrimaryBarcode(t *testing.T) {
	c := NewProductCache()
	c.Load([]model.Product{{ID: uuid.New(), SKU: "NB-1", Name: "No Barcode"}})
	assert.Equal(t, 0, c.Size())
	assert.True(t, c.Loaded())
}
