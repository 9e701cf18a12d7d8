package repository

import (
	"context"

	"greencycle/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type WriteOffRepository interface {
	Create(tx *gorm.DB, w *model.WriteOff) error
	FindAll(ctx context.Context, batchID *uuid.UUID) ([]model.WriteOff, error)
}

type writeOffRepo struct {
	db *gorm.DB
}

func NewWriteOffRepo(db *gorm.DB) WriteOffRepository {
	return &writeOffRepo{db}
}

func (r *writeOffRepo) Create(tx *gorm.DB, w *model.WriteOff) error {
	return tx.Omit("Batch").Create(w).Error
}

func (r *writeOffRepo) FindAll(ctx context.Context, batchID *uuid.UUID) ([]model.WriteOff, error) {
	var writeOffs []model.WriteOff
	q := r.db.WithContext(ctx).Preload("Batch")
	if batchID != nil {
		q = q.Where("batch_id = ?", *batchID)
	}
	err := q.Order("created_at DESC").Find(&writeOffs).Error
	return writeOffs, err
}
