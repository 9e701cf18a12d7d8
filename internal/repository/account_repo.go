package repository

import (
	"context"
	"database/sql"

	"greencycle/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AccountRepository interface {
	Create(ctx context.Context, account *model.Account) error
	FindAll(ctx context.Context) ([]model.Account, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Account, error)
	LockByID(tx *gorm.DB, id uuid.UUID) (*model.Account, error)
	AddToBalance(tx *gorm.DB, id uuid.UUID, delta decimal.Decimal, updatedBy string) error
	// Rebalance runs fn in a transaction with every account row locked
	Rebalance(ctx context.Context, fn func(store BalanceTallyStore) error) error
}

// AccountTally pairs the cached balance with the ledger sum, both as strings
type AccountTally struct {
	AccountID     uuid.UUID
	Balance       string
	LedgerBalance string
}

type BalanceTallyStore interface {
	ListAccountTallies(ctx context.Context) ([]AccountTally, error)
	SetBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal, updatedBy string) error
}

type accountRepo struct {
	db *gorm.DB
}

func NewAccountRepo(db *gorm.DB) AccountRepository {
	return &accountRepo{db}
}

func (r *accountRepo) Create(ctx context.Context, account *model.Account) error {
	return r.db.WithContext(ctx).Create(account).Error
}

func (r *accountRepo) FindAll(ctx context.Context) ([]model.Account, error) {
	var accounts []model.Account
	err := r.db.WithContext(ctx).Order("name ASC").Find(&accounts).Error
	return accounts, err
}

func (r *accountRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	var account model.Account
	if err := r.db.WithContext(ctx).First(&account, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *accountRepo) LockByID(tx *gorm.DB, id uuid.UUID) (*model.Account, error) {
	var account model.Account
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&account, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *accountRepo) AddToBalance(tx *gorm.DB, id uuid.UUID, delta decimal.Decimal, updatedBy string) error {
	return tx.Model(&model.Account{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"balance":    gorm.Expr("balance + ?", delta),
			"updated_by": updatedBy,
		}).Error
}

func (r *accountRepo) Rebalance(ctx context.Context, fn func(store BalanceTallyStore) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&balanceTallyStore{tx: tx})
	}, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
}

type balanceTallyStore struct {
	tx *gorm.DB
}

func (s *balanceTallyStore) ListAccountTallies(ctx context.Context) ([]AccountTally, error) {
	var out []AccountTally
	err := s.tx.WithContext(ctx).Raw(`
		SELECT a.id AS account_id,
			CAST(a.balance AS TEXT) AS balance,
			CAST(COALESCE((
				SELECT SUM(t.amount) FROM transactions t
				WHERE t.account_id = a.id AND t.is_cancelled = false AND t.deleted_at IS NULL
			), 0) AS TEXT) AS ledger_balance
		FROM accounts a
		WHERE a.deleted_at IS NULL
		ORDER BY a.created_at ASC
		FOR UPDATE OF a
	`).Scan(&out).Error
	return out, err
}

func (s *balanceTallyStore) SetBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal, updatedBy string) error {
	return s.tx.WithContext(ctx).Model(&model.Account{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"balance":    balance,
			"updated_by": updatedBy,
		}).Error
}
