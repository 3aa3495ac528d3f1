package service

import (
	"testing"

	"github.com/vuhoangviet271/packing-video-app/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func leafProduct(name, sku, barcode string) *model.Product {
	return &model.Product{ID: uuid.New(), SKU: sku, Barcode: strPtr(barcode), Name: name}
}

func comboProduct(name string, components ...model.ComboComponent) *model.Product {
	return &model.Product{ID: uuid.New(), SKU: "CMB-" + name, Name: name, IsCombo: true, Components: components}
}

func TestExpandOrder_NilAndEmpty(t *testing.T) {
	assert.Empty(t, ExpandOrder(nil))
	assert.Empty(t, ExpandOrder(&model.Order{ShippingCode: "SHP-1"}))
}

func TestExpandOrder_SumsAcrossComboAndDirectLines(t *testing.T) {
	widget := leafProduct("Widget", "WID-1", "111")
	combo := comboProduct("Starter Pack", model.ComboComponent{
		ComponentID: widget.ID,
		Quantity:    1,
		Component:   widget,
	})

	// 2 × combo (1 widget each) + 3 × widget direct = 5 widgets required
	order := &model.Order{
		ShippingCode: "SHP-2",
		Items: []model.OrderItem{
			{ProductID: combo.ID, Quantity: 2, Product: combo},
			{ProductID: widget.ID, Quantity: 3, Product: widget},
		},
	}

	items := ExpandOrder(order)
	require.Len(t, items, 1)
	assert.Equal(t, widget.ID, items[0].ProductID)
	assert.Equal(t, 5, items[0].RequiredQty)
	// The first contributor (the combo) names the parent.
	assert.Equal(t, "Starter Pack", items[0].ParentComboName)
	assert.True(t, items[0].IsComboComponent)
}

func TestExpandOrder_MultipliesLineByComponentQuantity(t *testing.T) {
	bolt := leafProduct("Bolt", "BLT-1", "222")
	nut := leafProduct("Nut", "NUT-1", "333")
	kit := comboProduct("Fastener Kit",
		model.ComboComponent{ComponentID: bolt.ID, Quantity: 4, Component: bolt},
		model.ComboComponent{ComponentID: nut.ID, Quantity: 2, Component: nut},
	)

	order := &model.Order{
		ShippingCode: "SHP-3",
		Items:        []model.OrderItem{{ProductID: kit.ID, Quantity: 3, Product: kit}},
	}

	items := ExpandOrder(order)
	require.Len(t, items, 2)
	assert.Equal(t, 12, items[0].RequiredQty) // 3 × 4
	assert.Equal(t, 6, items[1].RequiredQty)  // 3 × 2
}

func TestExpandOrder_DeterministicFirstAppearanceOrder(t *testing.T) {
	a := leafProduct("Alpha", "A-1", "a1")
	b := leafProduct("Beta", "B-1", "b1")
	order := &model.Order{
		ShippingCode: "SHP-4",
		Items: []model.OrderItem{
			{ProductID: b.ID, Quantity: 1, Product: b},
			{ProductID: a.ID, Quantity: 1, Product: a},
			{ProductID: b.ID, Quantity: 1, Product: b},
		},
	}

	for i := 0; i < 10; i++ {
		items := ExpandOrder(order)
		require.Len(t, items, 2)
		assert.Equal(t, b.ID, items[0].ProductID)
		assert.Equal(t, 2, items[0].RequiredQty)
		assert.Equal(t, a.ID, items[1].ProductID)
	}
}

func TestExpandOrder_FirstComboNameWins(t *testing.T) {
	shared := leafProduct("Shared", "SH-1", "444")
	first := comboProduct("First Combo", model.ComboComponent{ComponentID: shared.ID, Quantity: 1, Component: shared})
	second := comboProduct("Second Combo", model.ComboComponent{ComponentID: shared.ID, Quantity: 1, Component: shared})

	order := &model.Order{
		ShippingCode: "SHP-5",
		Items: []model.OrderItem{
			{ProductID: first.ID, Quantity: 1, Product: first},
			{ProductID: second.ID, Quantity: 1, Product: second},
		},
	}

	items := ExpandOrder(order)
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].RequiredQty)
	assert.Equal(t, "First Combo", items[0].ParentComboName)
}

func TestExpandOrder_SkipsLinesWithoutProduct(t *testing.T) {
	widget := leafProduct("Widget", "WID-2", "555")
	order := &model.Order{
		ShippingCode: "SHP-6",
		Items: []model.OrderItem{
			{ProductID: uuid.New(), Quantity: 2}, // product not preloaded
			{ProductID: widget.ID, Quantity: 1, Product: widget},
		},
	}

	items := ExpandOrder(order)
	require.Len(t, items, 1)
	assert.Equal(t, widget.ID, items[0].ProductID)
}
