package service

import (
	"context"
	"errors"
	"fmt"

	"greencycle/internal/model"
	"greencycle/internal/repository"
	"greencycle/internal/ws"
	"greencycle/pkg/logger"
	"greencycle/pkg/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type WithdrawalService interface {
	CreateWithdrawal(ctx context.Context, req *CreateWithdrawalRequest, actor model.Actor) (*model.PartnerWithdrawal, error)
	ListWithdrawals(ctx context.Context, userID *uuid.UUID) ([]model.PartnerWithdrawal, error)
}

type CreateWithdrawalRequest struct {
	UserID           uuid.UUID            `json:"user_id" validate:"uuid_required"`
	Type             model.WithdrawalType `json:"type" validate:"required,oneof=cash goods"`
	AmountOrQuantity decimal.Decimal      `json:"amount_or_quantity" validate:"decimal_positive"`
	AccountID        *uuid.UUID           `json:"account_id"`
	ShipmentID       *uuid.UUID           `json:"shipment_id"`
	Note             string               `json:"note"`
}

// Check validates field rules and the cash/goods link requirements
func (r *CreateWithdrawalRequest) Check() error {
	if err := validator.Check(r); err != nil {
		return err
	}
	switch r.Type {
	case model.WithdrawalCash:
		if r.AccountID == nil || *r.AccountID == uuid.Nil {
			return ErrWithdrawalAccountRequired
		}
	case model.WithdrawalGoods:
		if r.ShipmentID == nil || *r.ShipmentID == uuid.Nil {
			return ErrWithdrawalShipmentRequired
		}
	}
	return nil
}

type withdrawalService struct {
	withdrawalRepo repository.WithdrawalRepository
	userRepo       repository.UserRepository
	accountRepo    repository.AccountRepository
	shipmentRepo   repository.ShipmentRepository
	ledger         ledgerWriter
	db             *gorm.DB
	publisher      ws.Publisher
}

func NewWithdrawalService(
	withdrawalRepo repository.WithdrawalRepository,
	userRepo repository.UserRepository,
	accountRepo repository.AccountRepository,
	shipmentRepo repository.ShipmentRepository,
	txRepo repository.TransactionRepository,
	db *gorm.DB,
	publisher ws.Publisher,
) WithdrawalService {
	return &withdrawalService{
		withdrawalRepo: withdrawalRepo,
		userRepo:       userRepo,
		accountRepo:    accountRepo,
		shipmentRepo:   shipmentRepo,
		ledger:         ledgerWriter{accounts: accountRepo, transactions: txRepo},
		db:             db,
		publisher:      publisher,
	}
}

func (s *withdrawalService) CreateWithdrawal(ctx context.Context, req *CreateWithdrawalRequest, actor model.Actor) (*model.PartnerWithdrawal, error) {
	if err := req.Check(); err != nil {
		return nil, err
	}

	partner, err := s.userRepo.FindByID(req.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if !partner.IsPartner() {
		return nil, ErrNotPartner
	}

	withdrawal := &model.PartnerWithdrawal{
		UserID:           req.UserID,
		Type:             req.Type,
		AmountOrQuantity: req.AmountOrQuantity.Round(2),
		Note:             req.Note,
	}
	withdrawal.ID = uuid.New()
	withdrawal.Stamp(actor.UserID)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if req.Type == model.WithdrawalGoods {
			if _, err := s.shipmentRepo.LockByID(tx, *req.ShipmentID); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrShipmentNotFound
				}
				return err
			}
			withdrawal.ShipmentID = req.ShipmentID
			return s.withdrawalRepo.Create(tx, withdrawal)
		}

		account, err := s.accountRepo.LockByID(tx, *req.AccountID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAccountNotFound
			}
			return err
		}
		if account.Balance.LessThan(withdrawal.AmountOrQuantity) {
			return ErrInsufficientFunds
		}

		payout := &model.Transaction{
			AccountID:   req.AccountID,
			Type:        model.TxPartnerWithdrawal,
			Amount:      withdrawal.AmountOrQuantity.Neg(),
			SourceType:  sourcePtr(model.SourceWithdrawal),
			SourceID:    &withdrawal.ID,
			Description: fmt.Sprintf("Cash withdrawal by %s", partner.FullName),
		}
		payout.Stamp(actor.UserID)
		if err := s.ledger.post(tx, payout); err != nil {
			return err
		}

		withdrawal.AccountID = req.AccountID
		withdrawal.TransactionID = &payout.ID
		return s.withdrawalRepo.Create(tx, withdrawal)
	})
	if err != nil {
		if !errors.Is(err, ErrInsufficientFunds) {
			logger.LogError("service.withdrawal", "CreateWithdrawal", req.UserID.String(), nil, err)
		}
		return nil, err
	}

	s.publisher.Publish(ws.NewEvent("finance_update", "withdrawal_created", actor, withdrawal,
		fmt.Sprintf("%s recorded a %s withdrawal for %s", actor.Name, withdrawal.Type, partner.FullName)))
	return withdrawal, nil
}

func (s *withdrawalService) ListWithdrawals(ctx context.Context, userID *uuid.UUID) ([]model.PartnerWithdrawal, error) {
	return s.withdrawalRepo.FindAll(ctx, userID)
}
