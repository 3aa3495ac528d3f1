package repository

import (
	"context"

	"github.com/vuhoangviet271/packing-video-app/internal/model"

	"gorm.io/gorm"
)

// OrderRepository reads orders created by the upstream sync; the station
// never writes to them.
type OrderRepository interface {
	FindByShippingCode(ctx context.Context, shippingCode string) (*model.Order, error)
}

type orderRepo struct{ db *gorm.DB }

func NewOrderRepository(db *gorm.DB) OrderRepository { return &orderRepo{db: db} }

func (r *orderRepo) FindByShippingCode(ctx context.Context, shippingCode string) (*model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).
		Preload("Items.Product.Components.Component").
		Preload("Items.Product.AdditionalBarcodes").
		Where("shipping_code = ?", shippingCode).
		First(&o).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}
