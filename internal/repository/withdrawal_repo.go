package repository

import (
	"context"

	"greencycle/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type WithdrawalRepository interface {
	Create(tx *gorm.DB, w *model.PartnerWithdrawal) error
	FindAll(ctx context.Context, userID *uuid.UUID) ([]model.PartnerWithdrawal, error)
}

type withdrawalRepo struct {
	db *gorm.DB
}

func NewWithdrawalRepo(db *gorm.DB) WithdrawalRepository {
	return &withdrawalRepo{db}
}

func (r *withdrawalRepo) Create(tx *gorm.DB, w *model.PartnerWithdrawal) error {
	return tx.Omit("User").Create(w).Error
}

func (r *withdrawalRepo) FindAll(ctx context.Context, userID *uuid.UUID) ([]model.PartnerWithdrawal, error) {
	var withdrawals []model.PartnerWithdrawal
	q := r.db.WithContext(ctx).Preload("User")
	if userID != nil {
		q = q.Where("user_id = ?", *userID)
	}
	err := q.Order("created_at DESC").Find(&withdrawals).Error
	return withdrawals, err
}
