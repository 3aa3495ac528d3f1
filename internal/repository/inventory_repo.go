package repository

import (
	"context"

	"github.com/vuhoangviet271/packing-video-app/internal/model"

	"gorm.io/gorm"
)

// InventoryRepository writes the stock ledger. Mutations always happen
// inside the caller's transaction so that a delta and its ledger row commit
// together.
type InventoryRepository interface {
	CreateTx(tx *gorm.DB, t *model.InventoryTransaction) error
	List(ctx context.Context, page, limit int) ([]model.InventoryTransaction, int64, error)
}

type inventoryRepo struct{ db *gorm.DB }

func NewInventoryRepository(db *gorm.DB) InventoryRepository { return &inventoryRepo{db: db} }

func (r *inventoryRepo) CreateTx(tx *gorm.DB, t *model.InventoryTransaction) error {
	return tx.Create(t).Error
}

func (r *inventoryRepo) List(ctx context.Context, page, limit int) ([]model.InventoryTransaction, int64, error) {
	var rows []model.InventoryTransaction
	var total int64

	q := r.db.WithContext(ctx).Model(&model.InventoryTransaction{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("created_at DESC").Limit(limit).Offset((page - 1) * limit).Find(&rows).Error
	return rows, total, err
}
