package service

import (
	"context"
	"errors"
	"fmt"

	"greencycle/internal/model"
	"greencycle/internal/repository"
	"greencycle/internal/ws"
	"greencycle/pkg/lock"
	"greencycle/pkg/logger"
	"greencycle/pkg/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type InventoryService interface {
	CreateBatch(ctx context.Context, req *CreateBatchRequest, actor model.Actor) (*model.Batch, error)
	ListBatches(ctx context.Context, inStockOnly bool) ([]model.Batch, error)
	GetBatch(ctx context.Context, id uuid.UUID) (*model.Batch, error)
	RecordWriteOff(ctx context.Context, req *CreateWriteOffRequest, actor model.Actor) (*model.WriteOff, error)
	ListWriteOffs(ctx context.Context, batchID *uuid.UUID) ([]model.WriteOff, error)
	RecalculateInventory(ctx context.Context, actor model.Actor) (*InventoryRecalculation, error)
}

type CreateBatchRequest struct {
	ShipmentID           *uuid.UUID      `json:"shipment_id"`
	ProductName          string          `json:"product_name" validate:"required,max=255"`
	Unit                 string          `json:"unit" validate:"max=20"`
	QuantityInitial      int             `json:"quantity_initial" validate:"gt=0"`
	PurchasePricePerUnit decimal.Decimal `json:"purchase_price_per_unit" validate:"decimal_positive"`
}

type CreateWriteOffRequest struct {
	BatchID  uuid.UUID `json:"batch_id" validate:"uuid_required"`
	Quantity int       `json:"quantity" validate:"gt=0"`
	Reason   string    `json:"reason" validate:"required"`
}

type inventoryService struct {
	batchRepo    repository.BatchRepository
	writeOffRepo repository.WriteOffRepository
	shipmentRepo repository.ShipmentRepository
	ledger       ledgerWriter
	db           *gorm.DB
	locker       lock.Locker
	publisher    ws.Publisher
}

func NewInventoryService(
	batchRepo repository.BatchRepository,
	writeOffRepo repository.WriteOffRepository,
	shipmentRepo repository.ShipmentRepository,
	accountRepo repository.AccountRepository,
	txRepo repository.TransactionRepository,
	db *gorm.DB,
	locker lock.Locker,
	publisher ws.Publisher,
) InventoryService {
	return &inventoryService{
		batchRepo:    batchRepo,
		writeOffRepo: writeOffRepo,
		shipmentRepo: shipmentRepo,
		ledger:       ledgerWriter{accounts: accountRepo, transactions: txRepo},
		db:           db,
		locker:       locker,
		publisher:    publisher,
	}
}

func (s *inventoryService) CreateBatch(ctx context.Context, req *CreateBatchRequest, actor model.Actor) (*model.Batch, error) {
	if err := validator.Check(req); err != nil {
		return nil, err
	}
	if req.ShipmentID != nil {
		if _, err := s.shipmentRepo.FindByID(ctx, *req.ShipmentID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrShipmentNotFound
			}
			return nil, err
		}
	}

	batch := &model.Batch{
		ShipmentID:           req.ShipmentID,
		ProductName:          req.ProductName,
		Unit:                 req.Unit,
		QuantityInitial:      req.QuantityInitial,
		QuantityCurrent:      req.QuantityInitial,
		PurchasePricePerUnit: req.PurchasePricePerUnit.Round(2),
	}
	batch.Stamp(actor.UserID)

	if err := s.batchRepo.Create(ctx, batch); err != nil {
		logger.LogError("service.inventory", "CreateBatch", req.ProductName, nil, err)
		return nil, err
	}

	s.publisher.Publish(ws.NewEvent("stock_update", "batch_created", actor, batch,
		fmt.Sprintf("%s added %d %s of '%s'", actor.Name, batch.QuantityInitial, batch.Unit, batch.ProductName)))
	return batch, nil
}

func (s *inventoryService) ListBatches(ctx context.Context, inStockOnly bool) ([]model.Batch, error) {
	return s.batchRepo.FindAll(ctx, inStockOnly)
}

func (s *inventoryService) GetBatch(ctx context.Context, id uuid.UUID) (*model.Batch, error) {
	batch, err := s.batchRepo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBatchNotFound
	}
	return batch, err
}

// RecordWriteOff takes quantity out of a batch and books its purchase value
// as a write_off expense. No account is touched.
func (s *inventoryService) RecordWriteOff(ctx context.Context, req *CreateWriteOffRequest, actor model.Actor) (*model.WriteOff, error) {
	if err := validator.Check(req); err != nil {
		return nil, err
	}

	writeOff := &model.WriteOff{
		BatchID:  req.BatchID,
		Quantity: req.Quantity,
		Reason:   req.Reason,
	}
	writeOff.ID = uuid.New()
	writeOff.Stamp(actor.UserID)

	var batch *model.Batch
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		batch, err = s.batchRepo.LockByID(tx, req.BatchID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBatchNotFound
			}
			return err
		}
		if batch.QuantityCurrent < req.Quantity {
			return ErrInsufficientStock
		}
		if err := s.batchRepo.AdjustQuantity(tx, batch.ID, -req.Quantity, actor.UserID); err != nil {
			return err
		}

		value := batch.PurchasePricePerUnit.Mul(decimal.NewFromInt(int64(req.Quantity)))
		expense := &model.Transaction{
			Type:        model.TxWriteOff,
			Amount:      value.Neg().Round(2),
			SourceType:  sourcePtr(model.SourceWriteOff),
			SourceID:    &writeOff.ID,
			Description: fmt.Sprintf("Write-off of %d from %s: %s", req.Quantity, batch.ProductName, req.Reason),
		}
		expense.Stamp(actor.UserID)
		if err := s.ledger.post(tx, expense); err != nil {
			return err
		}

		writeOff.TransactionID = &expense.ID
		return s.writeOffRepo.Create(tx, writeOff)
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(ws.NewEvent("stock_update", "write_off_created", actor, writeOff,
		fmt.Sprintf("%s wrote off %d of '%s'", actor.Name, req.Quantity, batch.ProductName)))
	return writeOff, nil
}

func (s *inventoryService) ListWriteOffs(ctx context.Context, batchID *uuid.UUID) ([]model.WriteOff, error) {
	return s.writeOffRepo.FindAll(ctx, batchID)
}

// RecalculateInventory resets quantity_current on every batch that drifted
// from its sales and write-off history. Running it again without new sales
// or write-offs changes nothing.
func (s *inventoryService) RecalculateInventory(ctx context.Context, actor model.Actor) (*InventoryRecalculation, error) {
	result := &InventoryRecalculation{UpdatedBatches: []BatchAdjustment{}}

	err := withLock(ctx, s.locker, inventoryLockKey, func() error {
		return s.batchRepo.Recount(ctx, func(store repository.BatchTallyStore) error {
			tallies, err := store.ListBatchTallies(ctx)
			if err != nil {
				return err
			}
			adjustments := ReconcileBatches(tallies)
			for _, adj := range adjustments {
				if adj.NewQuantity < 0 {
					logger.Get().WithField("batch_id", adj.BatchID).Warnf("batch oversold, recalculated quantity is %d", adj.NewQuantity)
				}
				if err := store.SetQuantity(ctx, adj.BatchID, adj.NewQuantity, actor.UserID); err != nil {
					return err
				}
			}
			result.UpdatedBatches = adjustments
			return nil
		})
	})
	if err != nil {
		logger.LogError("service.inventory", "RecalculateInventory", actor.UserID, nil, err)
		return nil, err
	}
	result.UpdatedCount = len(result.UpdatedBatches)

	if result.UpdatedCount > 0 {
		s.publisher.Publish(ws.NewEvent("stock_update", "inventory_recalculated", actor, result,
			fmt.Sprintf("%s recalculated stock, %d batch(es) corrected", actor.Name, result.UpdatedCount)))
	}
	return result, nil
}
