package repository

import (
	"context"

	"github.com/vuhoangviet271/packing-video-app/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReconciliationRepository persists failed-save breadcrumbs for
// administrative review.
type ReconciliationRepository interface {
	Create(ctx context.Context, t *model.ReconciliationTask) error
	List(ctx context.Context, includeResolved bool) ([]model.ReconciliationTask, error)
	MarkResolved(ctx context.Context, id uuid.UUID) error
}

type reconciliationRepo struct{ db *gorm.DB }

func NewReconciliationRepository(db *gorm.DB) ReconciliationRepository {
	return &reconciliationRepo{db: db}
}

func (r *reconciliationRepo) Create(ctx context.Context, t *model.ReconciliationTask) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *reconciliationRepo) List(ctx context.Context, includeResolved bool) ([]model.ReconciliationTask, error) {
	var tasks []model.ReconciliationTask
	q := r.db.WithContext(ctx).Order("created_at DESC")
	if !includeResolved {
		q = q.Where("resolved = false")
	}
	err := q.Find(&tasks).Error
	return tasks, err
}

func (r *reconciliationRepo) MarkResolved(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.ReconciliationTask{}).
		Where("id = ?", id).Update("resolved", true).Error
}
