package repository

import (
	"context"

	"github.com/vuhoangviet271/packing-video-app/internal/dto"
	"github.com/vuhoangviet271/packing-video-app/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductRepository defines the data access contract for the catalog.
// Services depend on this interface, not on the concrete GORM implementation,
// enabling clean unit testing via stubs.
type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	FindByBarcode(ctx context.Context, barcode string) (*model.Product, error)
	List(ctx context.Context, filter dto.ProductFilter) ([]model.Product, int64, error)
	// ListAll returns the full catalog with barcodes and combo components
	// preloaded — the product cache reload path.
	ListAll(ctx context.Context) ([]model.Product, error)

	// Used inside inventory transactions — callers must pass the tx instance.
	AdjustQuantityTx(tx *gorm.DB, id uuid.UUID, delta int) error
	AdjustUnsellableTx(tx *gorm.DB, id uuid.UUID, delta int) error

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type productRepo struct{ db *gorm.DB }

func NewProductRepository(db *gorm.DB) ProductRepository { return &productRepo{db: db} }

func (r *productRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).
		Preload("AdditionalBarcodes").
		Preload("Components.Component").
		First(&p, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) FindByBarcode(ctx context.Context, barcode string) (*model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).
		Preload("AdditionalBarcodes").
		Preload("Components.Component").
		Where("barcode = ?", barcode).
		Or("id IN (?)", r.db.Model(&model.ProductBarcode{}).Select("product_id").Where("barcode = ?", barcode)).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) List(ctx context.Context, filter dto.ProductFilter) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Product{})

	if filter.SKU != "" {
		q = q.Where("sku = ?", filter.SKU)
	}
	if filter.Barcode != "" {
		q = q.Where("barcode = ?", filter.Barcode)
	}
	if filter.Name != "" {
		q = q.Where("name ILIKE ?", "%"+filter.Name+"%")
	}
	switch filter.Combo {
	case "true":
		q = q.Where("is_combo = true")
	case "false":
		q = q.Where("is_combo = false")
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Preload("AdditionalBarcodes").
		Preload("Components.Component").
		Order("name ASC").Limit(filter.Limit).Offset(offset).
		Find(&products).Error
	return products, total, err
}

func (r *productRepo) ListAll(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).
		Preload("AdditionalBarcodes").
		Preload("Components.Component").
		Find(&products).Error
	return products, err
}

func (r *productRepo) AdjustQuantityTx(tx *gorm.DB, id uuid.UUID, delta int) error {
	return tx.Model(&model.Product{}).Where("id = ?", id).
		Update("quantity", gorm.Expr("quantity + ?", delta)).Error
}

func (r *productRepo) AdjustUnsellableTx(tx *gorm.DB, id uuid.UUID, delta int) error {
	return tx.Model(&model.Product{}).Where("id = ?", id).
		Update("unsellable_qty", gorm.Expr("unsellable_qty + ?", delta)).Error
}

func (r *productRepo) DB() *gorm.DB { return r.db }
