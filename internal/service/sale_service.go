package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"greencycle/internal/model"
	"greencycle/internal/repository"
	"greencycle/internal/ws"
	"greencycle/pkg/logger"
	"greencycle/pkg/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SaleService interface {
	CreateSale(ctx context.Context, req *CreateSaleRequest, actor model.Actor) (*model.Sale, error)
	ListSales(ctx context.Context, status model.SaleStatus) ([]model.Sale, error)
	GetSale(ctx context.Context, id uuid.UUID) (*model.Sale, error)
	CompleteSale(ctx context.Context, id uuid.UUID, actor model.Actor) (*model.Sale, error)
	CancelSale(ctx context.Context, id uuid.UUID, actor model.Actor) (*model.Sale, error)
}

type SaleItemRequest struct {
	BatchID      uuid.UUID       `json:"batch_id" validate:"uuid_required"`
	Quantity     int             `json:"quantity" validate:"gt=0"`
	PricePerUnit decimal.Decimal `json:"price_per_unit" validate:"decimal_positive"`
}

type CreateSaleRequest struct {
	AccountID    uuid.UUID         `json:"account_id" validate:"uuid_required"`
	CustomerName string            `json:"customer_name"`
	Items        []SaleItemRequest `json:"items" validate:"required,min=1,dive"`
}

type saleService struct {
	saleRepo    repository.SaleRepository
	batchRepo   repository.BatchRepository
	accountRepo repository.AccountRepository
	ledger      ledgerWriter
	db          *gorm.DB
	publisher   ws.Publisher
}

func NewSaleService(
	saleRepo repository.SaleRepository,
	batchRepo repository.BatchRepository,
	accountRepo repository.AccountRepository,
	txRepo repository.TransactionRepository,
	db *gorm.DB,
	publisher ws.Publisher,
) SaleService {
	return &saleService{
		saleRepo:    saleRepo,
		batchRepo:   batchRepo,
		accountRepo: accountRepo,
		ledger:      ledgerWriter{accounts: accountRepo, transactions: txRepo},
		db:          db,
		publisher:   publisher,
	}
}

// quantitiesByBatch sums item quantities per batch and returns the batch ids
// in a fixed order so concurrent sales lock rows in the same sequence.
func quantitiesByBatch(items []model.SaleItem) (map[uuid.UUID]int, []uuid.UUID) {
	totals := make(map[uuid.UUID]int, len(items))
	for _, item := range items {
		totals[item.BatchID] += item.Quantity
	}
	ids := make([]uuid.UUID, 0, len(totals))
	for id := range totals {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return bytes.Compare(ids[i][:], ids[j][:]) < 0 })
	return totals, ids
}

func saleTotal(items []model.SaleItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}
	return total.Round(2)
}

func (s *saleService) CreateSale(ctx context.Context, req *CreateSaleRequest, actor model.Actor) (*model.Sale, error) {
	if err := validator.Check(req); err != nil {
		return nil, err
	}
	if _, err := s.accountRepo.FindByID(ctx, req.AccountID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	items := make([]model.SaleItem, 0, len(req.Items))
	for _, it := range req.Items {
		if _, err := s.batchRepo.FindByID(ctx, it.BatchID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrBatchNotFound, it.BatchID)
			}
			return nil, err
		}
		item := model.SaleItem{
			BatchID:      it.BatchID,
			Quantity:     it.Quantity,
			PricePerUnit: it.PricePerUnit.Round(2),
		}
		item.Stamp(actor.UserID)
		items = append(items, item)
	}

	sale := &model.Sale{
		AccountID:    req.AccountID,
		CustomerName: req.CustomerName,
		Status:       model.SalePending,
		Total:        saleTotal(items),
		Items:        items,
	}
	sale.Stamp(actor.UserID)

	if err := s.saleRepo.Create(ctx, sale); err != nil {
		logger.LogError("service.sale", "CreateSale", req.CustomerName, nil, err)
		return nil, err
	}
	return sale, nil
}

func (s *saleService) ListSales(ctx context.Context, status model.SaleStatus) ([]model.Sale, error) {
	return s.saleRepo.FindAll(ctx, status)
}

func (s *saleService) GetSale(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	sale, err := s.saleRepo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSaleNotFound
	}
	return sale, err
}

func (s *saleService) lockSale(tx *gorm.DB, id uuid.UUID) (*model.Sale, error) {
	sale, err := s.saleRepo.LockByID(tx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSaleNotFound
	}
	return sale, err
}

// CompleteSale takes the goods out of stock and books the revenue
func (s *saleService) CompleteSale(ctx context.Context, id uuid.UUID, actor model.Actor) (*model.Sale, error) {
	var sale *model.Sale
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if sale, err = s.lockSale(tx, id); err != nil {
			return err
		}
		if sale.Status != model.SalePending {
			return ErrInvalidSaleStatus
		}

		totals, batchIDs := quantitiesByBatch(sale.Items)
		for _, batchID := range batchIDs {
			batch, err := s.batchRepo.LockByID(tx, batchID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrBatchNotFound
				}
				return err
			}
			if batch.QuantityCurrent < totals[batchID] {
				return fmt.Errorf("%w: %s has %d, sale needs %d", ErrInsufficientStock, batch.ProductName, batch.QuantityCurrent, totals[batchID])
			}
			if err := s.batchRepo.AdjustQuantity(tx, batchID, -totals[batchID], actor.UserID); err != nil {
				return err
			}
		}

		income := &model.Transaction{
			AccountID:   &sale.AccountID,
			Type:        model.TxSale,
			Amount:      sale.Total,
			SourceType:  sourcePtr(model.SourceSale),
			SourceID:    &sale.ID,
			Description: fmt.Sprintf("Sale to %s", sale.CustomerName),
		}
		income.Stamp(actor.UserID)
		if err := s.ledger.post(tx, income); err != nil {
			return err
		}

		now := time.Now()
		sale.Status = model.SaleCompleted
		sale.CompletedAt = &now
		sale.TransactionID = &income.ID
		sale.UpdatedBy = actor.UserID
		return s.saleRepo.Save(tx, sale)
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(ws.NewEvent("sale_update", "sale_completed", actor, sale,
		fmt.Sprintf("%s completed a sale of %s", actor.Name, sale.Total.StringFixed(2))))
	return sale, nil
}

// CancelSale voids a sale. A completed sale has its stock restored and its
// ledger transaction cancelled.
func (s *saleService) CancelSale(ctx context.Context, id uuid.UUID, actor model.Actor) (*model.Sale, error) {
	var sale *model.Sale
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if sale, err = s.lockSale(tx, id); err != nil {
			return err
		}
		if sale.Status == model.SaleCancelled {
			return ErrInvalidSaleStatus
		}

		if sale.Status == model.SaleCompleted {
			totals, batchIDs := quantitiesByBatch(sale.Items)
			for _, batchID := range batchIDs {
				if _, err := s.batchRepo.LockByID(tx, batchID); err != nil {
					return err
				}
				if err := s.batchRepo.AdjustQuantity(tx, batchID, totals[batchID], actor.UserID); err != nil {
					return err
				}
			}
			if sale.TransactionID != nil {
				if _, err := s.ledger.reverse(tx, *sale.TransactionID, actor.UserID, nil); err != nil && !errors.Is(err, ErrTransactionAlreadyCancelled) {
					return err
				}
			}
		}

		sale.Status = model.SaleCancelled
		sale.UpdatedBy = actor.UserID
		return s.saleRepo.Save(tx, sale)
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(ws.NewEvent("sale_update", "sale_cancelled", actor, sale,
		fmt.Sprintf("%s cancelled a sale", actor.Name)))
	return sale, nil
}
