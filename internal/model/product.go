package model

import (
	"time"

	"github.com/google/uuid"
)

// Product is a sellable unit. IsCombo=true means the product is a bundle of
// other products linked via ComboComponent; inventory is never tracked on the
// combo itself but on its leaf components.
type Product struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SKU     string    `gorm:"uniqueIndex;not null"`
	Barcode *string   `gorm:"uniqueIndex"`
	Name    string    `gorm:"index;not null"`
	IsCombo bool      `gorm:"not null;default:false"`
	// Quantity is the sellable on-hand stock; UnsellableQty holds units
	// returned in BAD condition, kept out of the sellable pool.
	Quantity      int `gorm:"not null;default:0"`
	UnsellableQty int `gorm:"not null;default:0"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	AdditionalBarcodes []ProductBarcode `gorm:"foreignKey:ProductID"`
	Components         []ComboComponent `gorm:"foreignKey:ComboID"`
}

// ProductBarcode is an extra barcode pointing at the same product
// (manufacturer relabels, carton codes, etc.). Many-to-one into Product.
type ProductBarcode struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index"`
	Barcode   string    `gorm:"uniqueIndex;not null"`
	CreatedAt time.Time
}

// ComboComponent is one line of a combo's bill of contents: Quantity units of
// the component product per one combo unit. Components are leaf products —
// nested combos are not expanded.
type ComboComponent struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ComboID     uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_combo_component;not null"`
	ComponentID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_combo_component;not null"`
	Quantity    int       `gorm:"not null"`

	Component *Product `gorm:"foreignKey:ComponentID"`
}
