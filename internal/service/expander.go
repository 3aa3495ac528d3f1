package service

import (
	"github.com/vuhoangviet271/packing-video-app/internal/model"

	"github.com/google/uuid"
)

// ExpandedItem is one required leaf product of an order after combo
// expansion. Built once per session and immutable for its duration.
type ExpandedItem struct {
	ProductID        uuid.UUID
	ProductName      string
	SKU              string
	Barcode          string
	RequiredQty      int
	ParentComboName  string
	IsComboComponent bool
}

// ExpandOrder flattens an order's lines into required leaf-product
// quantities. Combo lines contribute line.Quantity * component.Quantity per
// component; quantities for the same leaf product are summed across lines.
// ParentComboName keeps the first combo that contributed the product.
// Components are treated as leaf products — combos are not expanded
// recursively.
//
// A nil order or an order with zero lines yields an empty slice: the session
// proceeds in unknown-order mode, not an error.
func ExpandOrder(order *model.Order) []ExpandedItem {
	if order == nil {
		return nil
	}

	var items []ExpandedItem
	index := make(map[uuid.UUID]int) // productID -> position in items

	accumulate := func(id uuid.UUID, name, sku, barcode string, qty int, parentCombo string, isComponent bool) {
		if pos, ok := index[id]; ok {
			items[pos].RequiredQty += qty
			return
		}
		index[id] = len(items)
		items = append(items, ExpandedItem{
			ProductID:        id,
			ProductName:      name,
			SKU:              sku,
			Barcode:          barcode,
			RequiredQty:      qty,
			ParentComboName:  parentCombo,
			IsComboComponent: isComponent,
		})
	}

	for _, line := range order.Items {
		p := line.Product
		if p == nil {
			continue
		}

		if p.IsCombo {
			for _, comp := range p.Components {
				leaf := comp.Component
				if leaf == nil {
					continue
				}
				accumulate(leaf.ID, leaf.Name, leaf.SKU, barcodeOf(leaf),
					line.Quantity*comp.Quantity, p.Name, true)
			}
			continue
		}

		accumulate(p.ID, p.Name, p.SKU, barcodeOf(p), line.Quantity, "", false)
	}

	return items
}

func barcodeOf(p *model.Product) string {
	if p.Barcode == nil {
		return ""
	}
	return *p.Barcode
}
