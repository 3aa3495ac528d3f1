package model

import (
	"time"

	"github.com/google/uuid"
)

// Order is created by the upstream order-sync process and is read-only to
// the station: the engine only ever fetches it by shipping code.
type Order struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ShippingCode string    `gorm:"uniqueIndex;not null"`
	Source       string    `gorm:"not null;default:'manual'"`
	CreatedAt    time.Time

	Items []OrderItem `gorm:"foreignKey:OrderID"`
}

// OrderItem is one (product, quantity) line. The product may be a combo.
type OrderItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrderID   uuid.UUID `gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID `gorm:"type:uuid;not null"`
	Quantity  int       `gorm:"not null"`

	Product *Product `gorm:"foreignKey:ProductID"`
}
