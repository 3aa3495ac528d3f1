package model

import (
	"time"

	"github.com/google/uuid"
)

// ReconciliationTask is the breadcrumb left behind when a save sequence
// failed partway through. Earlier steps are never rolled back and the task
// is never retried automatically — it exists so an administrator can see
// exactly which shipping codes need manual review.
type ReconciliationTask struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ShippingCode string    `gorm:"index;not null"`
	Type         VideoType `gorm:"not null"`
	FailedStep   string    `gorm:"not null"` // capture | artifact | metadata | inventory
	Reason       string    `gorm:"not null"`
	FileName     string
	Resolved     bool `gorm:"not null;default:false"`
	CreatedAt    time.Time
}
