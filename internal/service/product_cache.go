package service

import (
	"sync"

	"github.com/vuhoangviet271/packing-video-app/internal/model"
)

// ProductCache is the in-memory barcode→product index consulted on every
// scan. It is loaded once per login and only ever replaced by an explicit
// reload — a product added on another device mid-session stays invisible
// until the next reload (accepted staleness window).
type ProductCache struct {
	mu        sync.RWMutex
	byBarcode map[string]*model.Product
	loaded    bool
}

func NewProductCache() *ProductCache {
	return &ProductCache{byBarcode: make(map[string]*model.Product)}
}

// Load replaces the whole index. Every product is indexed under its primary
// barcode and each additional barcode; on collision the later product wins.
func (c *ProductCache) Load(products []model.Product) {
	idx := make(map[string]*model.Product, len(products))
	for i := range products {
		p := &products[i]
		if p.Barcode != nil && *p.Barcode != "" {
			idx[*p.Barcode] = p
		}
		for _, ab := range p.AdditionalBarcodes {
			idx[ab.Barcode] = p
		}
	}

	c.mu.Lock()
	c.byBarcode = idx
	c.loaded = true
	c.mu.Unlock()
}

// Lookup resolves a barcode without any I/O.
func (c *ProductCache) Lookup(code string) (*model.Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.byBarcode[code]
	return p, ok
}

// Loaded reports whether an initial load has happened; before that the
// engine falls back to the backend barcode lookup.
func (c *ProductCache) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// Size returns the number of indexed barcodes.
func (c *ProductCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byBarcode)
}
