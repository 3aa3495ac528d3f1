package repository

import (
	"context"

	"github.com/vuhoangviet271/packing-video-app/internal/dto"
	"github.com/vuhoangviet271/packing-video-app/internal/model"

	"gorm.io/gorm"
)

// VideoRepository persists recording metadata and scanned-item rows.
type VideoRepository interface {
	Create(ctx context.Context, rec *model.VideoRecord) error
	// ExistsCompleted reports whether a COMPLETED recording of the given type
	// already exists for the shipping code — the duplicate check.
	ExistsCompleted(ctx context.Context, shippingCode string, typ model.VideoType) (bool, error)
	List(ctx context.Context, filter dto.RecordingFilter) ([]model.VideoRecord, int64, error)
}

type videoRepo struct{ db *gorm.DB }

func NewVideoRepository(db *gorm.DB) VideoRepository { return &videoRepo{db: db} }

func (r *videoRepo) Create(ctx context.Context, rec *model.VideoRecord) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *videoRepo) ExistsCompleted(ctx context.Context, shippingCode string, typ model.VideoType) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.VideoRecord{}).
		Where("shipping_code = ? AND type = ? AND status = ?", shippingCode, typ, model.VideoStatusCompleted).
		Count(&count).Error
	return count > 0, err
}

func (r *videoRepo) List(ctx context.Context, filter dto.RecordingFilter) ([]model.VideoRecord, int64, error) {
	var records []model.VideoRecord
	var total int64

	q := r.db.WithContext(ctx).Model(&model.VideoRecord{})
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.ShippingCode != "" {
		q = q.Where("shipping_code = ?", filter.ShippingCode)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Order("created_at DESC").Limit(filter.Limit).Offset(offset).Find(&records).Error
	return records, total, err
}
