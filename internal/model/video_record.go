package model

import (
	"time"

	"github.com/google/uuid"
)

// VideoType distinguishes packing sessions from return sessions.
type VideoType string

const (
	VideoTypePacking VideoType = "PACKING"
	VideoTypeReturn  VideoType = "RETURN"
)

// VideoStatus is the persisted outcome of a recording session.
type VideoStatus string

const (
	VideoStatusCompleted VideoStatus = "COMPLETED"
	VideoStatusFailed    VideoStatus = "FAILED"
)

// ReturnQuality is the per-unit condition assigned to a returned item.
type ReturnQuality string

const (
	ReturnQualityGood ReturnQuality = "GOOD"
	ReturnQualityBad  ReturnQuality = "BAD"
)

// VideoRecord is the metadata row for one recorded session. The artifact
// itself lives on disk under the station's video storage path; FileName is
// the only link between the two, so the artifact is always written before
// this row is created.
type VideoRecord struct {
	ID           uuid.UUID   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ShippingCode string      `gorm:"index;not null"`
	OrderID      *uuid.UUID  `gorm:"type:uuid;index"`
	StaffID      string      `gorm:"not null"`
	Type         VideoType   `gorm:"not null;index"`
	Status       VideoStatus `gorm:"not null"`
	Duration     int         `gorm:"not null;default:0"` // seconds
	FileName     string      `gorm:"not null"`
	MachineName  string      `gorm:"not null"`
	CreatedAt    time.Time

	ScannedItems []ScannedItem `gorm:"foreignKey:VideoRecordID"`
}

// ScannedItem is one product's scan tally within a recording. For returns,
// ReturnQuality carries the per-unit condition (one row per quality bucket).
type ScannedItem struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	VideoRecordID uuid.UUID      `gorm:"type:uuid;not null;index"`
	ProductID     uuid.UUID      `gorm:"type:uuid;not null"`
	ScannedQty    int            `gorm:"not null"`
	ReturnQuality *ReturnQuality `gorm:"type:text"`
	ScannedAt     time.Time

	Product *Product `gorm:"foreignKey:ProductID"`
}
