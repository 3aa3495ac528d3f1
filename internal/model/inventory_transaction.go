package model

import (
	"time"

	"github.com/google/uuid"
)

// InventoryAction classifies every stock mutation.
type InventoryAction string

const (
	ActionPackingDeduct InventoryAction = "PACKING_DEDUCT"
	ActionReturnGood    InventoryAction = "RETURN_GOOD"
	ActionReturnBad     InventoryAction = "RETURN_BAD"
	ActionManualAdjust  InventoryAction = "MANUAL_ADJUST"
)

// InventoryTransaction records every change to product stock so that each
// delta stays attributable to a recorded, auditable event. Quantity is
// negative for deductions, positive for credits.
type InventoryTransaction struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Action    InventoryAction `gorm:"not null"`
	Quantity  int             `gorm:"not null"`
	Reference *string         `gorm:"index"` // shipping code or free-form note
	CreatedAt time.Time

	Product *Product `gorm:"foreignKey:ProductID"`
}

// TableName overrides GORM's default pluralization.
func (InventoryTransaction) TableName() string { return "inventory_transactions" }
