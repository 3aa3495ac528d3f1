package infra

import (
	"fmt"

	"github.com/vuhoangviet271/packing-video-app/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx and runs
// AutoMigrate to create / update all tables.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(2)

	if err := db.AutoMigrate(
		&model.Product{},
		&model.ProductBarcode{},
		&model.ComboComponent{},
		&model.Order{},
		&model.OrderItem{},
		&model.VideoRecord{},
		&model.ScannedItem{},
		&model.InventoryTransaction{},
		&model.ReconciliationTask{},
	); err != nil {
		return nil, fmt.Errorf("AutoMigrate: %w", err)
	}

	return db, nil
}
