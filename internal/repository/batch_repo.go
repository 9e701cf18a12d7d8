package repository

import (
	"context"
	"database/sql"

	"greencycle/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BatchRepository interface {
	Create(ctx context.Context, batch *model.Batch) error
	FindAll(ctx context.Context, inStockOnly bool) ([]model.Batch, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Batch, error)
	LockByID(tx *gorm.DB, id uuid.UUID) (*model.Batch, error)
	// AdjustQuantity adds delta (may be negative) to quantity_current
	AdjustQuantity(tx *gorm.DB, id uuid.UUID, delta int, updatedBy string) error
	// Recount runs fn in a transaction with every batch row locked
	Recount(ctx context.Context, fn func(store BatchTallyStore) error) error
}

// BatchTally is everything needed to derive a batch's current quantity
type BatchTally struct {
	BatchID            uuid.UUID
	QuantityInitial    int
	QuantityCurrent    int
	SoldQuantity       int
	WrittenOffQuantity int
}

type BatchTallyStore interface {
	ListBatchTallies(ctx context.Context) ([]BatchTally, error)
	SetQuantity(ctx context.Context, id uuid.UUID, quantity int, updatedBy string) error
}

type batchRepo struct {
	db *gorm.DB
}

func NewBatchRepo(db *gorm.DB) BatchRepository {
	return &batchRepo{db}
}

func (r *batchRepo) Create(ctx context.Context, batch *model.Batch) error {
	return r.db.WithContext(ctx).Create(batch).Error
}

func (r *batchRepo) FindAll(ctx context.Context, inStockOnly bool) ([]model.Batch, error) {
	var batches []model.Batch
	q := r.db.WithContext(ctx)
	if inStockOnly {
		q = q.Where("quantity_current > 0")
	}
	err := q.Order("created_at DESC").Find(&batches).Error
	return batches, err
}

func (r *batchRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Batch, error) {
	var batch model.Batch
	if err := r.db.WithContext(ctx).First(&batch, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &batch, nil
}

func (r *batchRepo) LockByID(tx *gorm.DB, id uuid.UUID) (*model.Batch, error) {
	var batch model.Batch
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&batch, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &batch, nil
}

func (r *batchRepo) AdjustQuantity(tx *gorm.DB, id uuid.UUID, delta int, updatedBy string) error {
	return tx.Model(&model.Batch{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"quantity_current": gorm.Expr("quantity_current + ?", delta),
			"updated_by":       updatedBy,
		}).Error
}

func (r *batchRepo) Recount(ctx context.Context, fn func(store BatchTallyStore) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&batchTallyStore{tx: tx})
	}, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
}

type batchTallyStore struct {
	tx *gorm.DB
}

func (s *batchTallyStore) ListBatchTallies(ctx context.Context) ([]BatchTally, error) {
	var out []BatchTally
	err := s.tx.WithContext(ctx).Raw(`
		SELECT b.id AS batch_id,
			b.quantity_initial,
			b.quantity_current,
			COALESCE((
				SELECT SUM(si.quantity) FROM sale_items si
				JOIN sales s ON s.id = si.sale_id
				WHERE si.batch_id = b.id AND s.status = ?
					AND s.deleted_at IS NULL AND si.deleted_at IS NULL
			), 0) AS sold_quantity,
			COALESCE((
				SELECT SUM(w.quantity) FROM write_offs w
				WHERE w.batch_id = b.id AND w.deleted_at IS NULL
			), 0) AS written_off_quantity
		FROM batches b
		WHERE b.deleted_at IS NULL
		ORDER BY b.created_at ASC
		FOR UPDATE OF b
	`, model.SaleCompleted).Scan(&out).Error
	return out, err
}

func (s *batchTallyStore) SetQuantity(ctx context.Context, id uuid.UUID, quantity int, updatedBy string) error {
	return s.tx.WithContext(ctx).Model(&model.Batch{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"quantity_current": quantity,
			"updated_by":       updatedBy,
		}).Error
}
