package repository

import (
	"context"
	"database/sql"

	"greencycle/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Records returned by the finance reads. Money is a two-decimal string as
// rendered by Postgres (CAST(numeric AS TEXT)) and is parsed by the caller.

type AccountBalanceRecord struct {
	AccountID uuid.UUID `json:"account_id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Balance   string    `json:"balance"`
}

type BatchStockRecord struct {
	BatchID              uuid.UUID `json:"batch_id"`
	QuantityCurrent      int       `json:"quantity_current"`
	PurchasePricePerUnit string    `json:"purchase_price_per_unit"`
}

type TransactionRecord struct {
	ID     uuid.UUID `json:"id"`
	Type   string    `json:"type"`
	Amount string    `json:"amount"`
}

// UserAmountRecord is a per-user sum
type UserAmountRecord struct {
	UserID uuid.UUID `json:"user_id"`
	Total  string    `json:"total"`
}

type OwnerRecord struct {
	UserID   uuid.UUID `json:"user_id"`
	FullName string    `json:"full_name"`
	Email    string    `json:"email"`
}

// FinanceReader is the read side the equity calculation consumes
type FinanceReader interface {
	ListAccounts(ctx context.Context) ([]AccountBalanceRecord, error)
	ListBatchesWithStock(ctx context.Context) ([]BatchStockRecord, error)
	ListNonCancelledTransactions(ctx context.Context) ([]TransactionRecord, error)
	ListShipmentInvestmentsGroupedByUser(ctx context.Context) ([]UserAmountRecord, error)
	ListCashWithdrawalsGroupedByUser(ctx context.Context) ([]UserAmountRecord, error)
	ListOwners(ctx context.Context) ([]OwnerRecord, error)
}

type FinanceRepository interface {
	FinanceReader
	// ReadSnapshot runs fn against a read-only repeatable-read transaction so
	// that every read observes the same state.
	ReadSnapshot(ctx context.Context, fn func(r FinanceReader) error) error
}

type financeRepo struct {
	db *gorm.DB
}

func NewFinanceRepo(db *gorm.DB) FinanceRepository {
	return &financeRepo{db}
}

func (r *financeRepo) ReadSnapshot(ctx context.Context, fn func(r FinanceReader) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&financeRepo{db: tx})
	}, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
}

func (r *financeRepo) ListAccounts(ctx context.Context) ([]AccountBalanceRecord, error) {
	var out []AccountBalanceRecord
	err := r.db.WithContext(ctx).Model(&model.Account{}).
		Select("id AS account_id, name, type, CAST(balance AS TEXT) AS balance").
		Order("name ASC").
		Scan(&out).Error
	return out, err
}

func (r *financeRepo) ListBatchesWithStock(ctx context.Context) ([]BatchStockRecord, error) {
	var out []BatchStockRecord
	err := r.db.WithContext(ctx).Model(&model.Batch{}).
		Select("id AS batch_id, quantity_current, CAST(purchase_price_per_unit AS TEXT) AS purchase_price_per_unit").
		Where("quantity_current > 0").
		Scan(&out).Error
	return out, err
}

func (r *financeRepo) ListNonCancelledTransactions(ctx context.Context) ([]TransactionRecord, error) {
	var out []TransactionRecord
	err := r.db.WithContext(ctx).Model(&model.Transaction{}).
		Select("id, type, CAST(amount AS TEXT) AS amount").
		Where("is_cancelled = ?", false).
		Scan(&out).Error
	return out, err
}

func (r *financeRepo) ListShipmentInvestmentsGroupedByUser(ctx context.Context) ([]UserAmountRecord, error) {
	var out []UserAmountRecord
	err := r.db.WithContext(ctx).Model(&model.ShipmentInvestment{}).
		Select("user_id, CAST(COALESCE(SUM(amount), 0) AS TEXT) AS total").
		Group("user_id").
		Scan(&out).Error
	return out, err
}

func (r *financeRepo) ListCashWithdrawalsGroupedByUser(ctx context.Context) ([]UserAmountRecord, error) {
	var out []UserAmountRecord
	err := r.db.WithContext(ctx).Model(&model.PartnerWithdrawal{}).
		Select("user_id, CAST(COALESCE(SUM(amount_or_quantity), 0) AS TEXT) AS total").
		Where("type = ?", model.WithdrawalCash).
		Group("user_id").
		Scan(&out).Error
	return out, err
}

func (r *financeRepo) ListOwners(ctx context.Context) ([]OwnerRecord, error) {
	var out []OwnerRecord
	err := r.db.WithContext(ctx).Model(&model.User{}).
		Select("users.id AS user_id, users.full_name, users.email").
		Joins("JOIN roles ON roles.id = users.role_id").
		Where("roles.code = ?", model.RoleSuperAdmin).
		Order("users.full_name ASC").
		Scan(&out).Error
	return out, err
}
