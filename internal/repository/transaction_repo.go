package repository

import (
	"context"
	"time"

	"greencycle/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TransactionRepository interface {
	Create(tx *gorm.DB, t *model.Transaction) error
	FindAll(ctx context.Context, filter TransactionFilter) ([]model.Transaction, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error)
	LockByID(tx *gorm.DB, id uuid.UUID) (*model.Transaction, error)
	MarkCancelled(tx *gorm.DB, id uuid.UUID, cancelledBy string) error
	GetFinancialSummary(ctx context.Context, startDate, endDate time.Time) (*PeriodTotals, error)
}

type TransactionFilter struct {
	AccountID        *uuid.UUID
	Type             model.TransactionType
	IncludeCancelled bool
}

// PeriodTotals is revenue and expense over a date range, for charts
type PeriodTotals struct {
	Revenue  decimal.Decimal `json:"revenue"`
	Expenses decimal.Decimal `json:"expenses"`
}

type transactionRepo struct {
	db *gorm.DB
}

func NewTransactionRepo(db *gorm.DB) TransactionRepository {
	return &transactionRepo{db}
}

func (r *transactionRepo) Create(tx *gorm.DB, t *model.Transaction) error {
	return tx.Create(t).Error
}

func (r *transactionRepo) FindAll(ctx context.Context, filter TransactionFilter) ([]model.Transaction, error) {
	var transactions []model.Transaction
	q := r.db.WithContext(ctx).Preload("Account")
	if filter.AccountID != nil {
		q = q.Where("account_id = ?", *filter.AccountID)
	}
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if !filter.IncludeCancelled {
		q = q.Where("is_cancelled = ?", false)
	}
	err := q.Order("created_at DESC").Find(&transactions).Error
	return transactions, err
}

func (r *transactionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	var t model.Transaction
	if err := r.db.WithContext(ctx).Preload("Account").First(&t, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *transactionRepo) LockByID(tx *gorm.DB, id uuid.UUID) (*model.Transaction, error) {
	var t model.Transaction
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&t, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *transactionRepo) MarkCancelled(tx *gorm.DB, id uuid.UUID, cancelledBy string) error {
	return tx.Model(&model.Transaction{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_cancelled": true,
			"cancelled_at": time.Now(),
			"cancelled_by": cancelledBy,
			"updated_by":   cancelledBy,
		}).Error
}

func (r *transactionRepo) GetFinancialSummary(ctx context.Context, startDate, endDate time.Time) (*PeriodTotals, error) {
	var row struct {
		Revenue  decimal.Decimal
		Expenses decimal.Decimal
	}
	err := r.db.WithContext(ctx).Model(&model.Transaction{}).
		Select(`
			COALESCE(SUM(CASE WHEN type IN ? AND amount > 0 THEN amount ELSE 0 END), 0) AS revenue,
			COALESCE(SUM(CASE WHEN type IN ? THEN ABS(amount) ELSE 0 END), 0) AS expenses
		`,
			[]model.TransactionType{model.TxSale, model.TxBuyback},
			[]model.TransactionType{model.TxPurchase, model.TxWriteOff, model.TxOtherExpense},
		).
		Where("is_cancelled = ? AND created_at BETWEEN ? AND ?", false, startDate, endDate).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}
	return &PeriodTotals{Revenue: row.Revenue, Expenses: row.Expenses}, nil
}
