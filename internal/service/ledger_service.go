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

type LedgerService interface {
	CreateAccount(ctx context.Context, req *CreateAccountRequest, actor model.Actor) (*model.Account, error)
	ListAccounts(ctx context.Context) ([]model.Account, error)
	GetAccount(ctx context.Context, id uuid.UUID) (*model.Account, error)
	RecordTransaction(ctx context.Context, req *CreateTransactionRequest, actor model.Actor) (*model.Transaction, error)
	ListTransactions(ctx context.Context, filter repository.TransactionFilter) ([]model.Transaction, error)
	GetTransaction(ctx context.Context, id uuid.UUID) (*model.Transaction, error)
	CancelTransaction(ctx context.Context, id uuid.UUID, actor model.Actor) (*model.Transaction, error)
	RecalculateBalances(ctx context.Context, actor model.Actor) (*BalanceRecalculation, error)
}

type CreateAccountRequest struct {
	Name           string          `json:"name" validate:"required,max=120"`
	Type           string          `json:"type" validate:"required,oneof=cash bank other"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	Note           string          `json:"note"`
}

// CreateTransactionRequest records a manual cash movement. Amount is always
// positive; Direction defaults from Type.
type CreateTransactionRequest struct {
	AccountID   uuid.UUID       `json:"account_id" validate:"uuid_required"`
	Type        string          `json:"type" validate:"required,oneof=purchase sale buyback other_expense other_income"`
	Amount      decimal.Decimal `json:"amount" validate:"decimal_positive"`
	Direction   string          `json:"direction" validate:"omitempty,oneof=in out"`
	ShipmentID  *uuid.UUID      `json:"shipment_id"`
	Description string          `json:"description"`
}

const (
	DirectionIn  = "in"
	DirectionOut = "out"
)

// SignedAmount applies the direction of req to its amount
func (req *CreateTransactionRequest) SignedAmount() (decimal.Decimal, error) {
	txType := model.TransactionType(req.Type)
	if txType == model.TxWriteOff || txType == model.TxPartnerWithdrawal {
		return decimal.Zero, ErrTransactionTypeNotManual
	}

	direction := req.Direction
	if direction == "" {
		switch txType {
		case model.TxSale, model.TxOtherIncome:
			direction = DirectionIn
		default:
			direction = DirectionOut
		}
	}

	switch direction {
	case DirectionIn:
		return req.Amount.Abs(), nil
	case DirectionOut:
		return req.Amount.Abs().Neg(), nil
	}
	return decimal.Zero, ErrInvalidDirection
}

type ledgerService struct {
	accountRepo repository.AccountRepository
	txRepo      repository.TransactionRepository
	db          *gorm.DB
	locker      lock.Locker
	publisher   ws.Publisher
}

func NewLedgerService(accountRepo repository.AccountRepository, txRepo repository.TransactionRepository, db *gorm.DB, locker lock.Locker, publisher ws.Publisher) LedgerService {
	return &ledgerService{
		accountRepo: accountRepo,
		txRepo:      txRepo,
		db:          db,
		locker:      locker,
		publisher:   publisher,
	}
}

func (s *ledgerService) writer() ledgerWriter {
	return ledgerWriter{accounts: s.accountRepo, transactions: s.txRepo}
}

func (s *ledgerService) CreateAccount(ctx context.Context, req *CreateAccountRequest, actor model.Actor) (*model.Account, error) {
	if err := validator.Check(req); err != nil {
		return nil, err
	}

	account := &model.Account{
		Name:    req.Name,
		Type:    model.AccountType(req.Type),
		Balance: decimal.Zero,
		Note:    req.Note,
	}
	account.Stamp(actor.UserID)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(account).Error; err != nil {
			return err
		}
		if req.OpeningBalance.IsZero() {
			return nil
		}
		// Opening balances go through the ledger so the balance stays derivable
		opening := &model.Transaction{
			AccountID:   &account.ID,
			Type:        model.TxOtherIncome,
			Amount:      req.OpeningBalance.Round(2),
			Description: "Opening balance",
		}
		opening.Stamp(actor.UserID)
		if err := s.writer().post(tx, opening); err != nil {
			return err
		}
		account.Balance = opening.Amount
		return nil
	})
	if err != nil {
		logger.LogError("service.ledger", "CreateAccount", req.Name, nil, err)
		return nil, err
	}
	return account, nil
}

func (s *ledgerService) ListAccounts(ctx context.Context) ([]model.Account, error) {
	return s.accountRepo.FindAll(ctx)
}

func (s *ledgerService) GetAccount(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	account, err := s.accountRepo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAccountNotFound
	}
	return account, err
}

func (s *ledgerService) RecordTransaction(ctx context.Context, req *CreateTransactionRequest, actor model.Actor) (*model.Transaction, error) {
	if err := validator.Check(req); err != nil {
		return nil, err
	}
	amount, err := req.SignedAmount()
	if err != nil {
		return nil, err
	}

	accountID := req.AccountID
	t := &model.Transaction{
		AccountID:   &accountID,
		Type:        model.TransactionType(req.Type),
		Amount:      amount.Round(2),
		Description: req.Description,
	}
	if req.ShipmentID != nil {
		t.SourceType = sourcePtr(model.SourceShipment)
		t.SourceID = req.ShipmentID
	}
	t.Stamp(actor.UserID)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.writer().post(tx, t)
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(ws.NewEvent("ledger_update", "transaction_created", actor, t,
		fmt.Sprintf("%s recorded a %s of %s", actor.Name, t.Type, t.Amount.StringFixed(2))))
	return t, nil
}

func (s *ledgerService) ListTransactions(ctx context.Context, filter repository.TransactionFilter) ([]model.Transaction, error) {
	return s.txRepo.FindAll(ctx, filter)
}

func (s *ledgerService) GetTransaction(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	t, err := s.txRepo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTransactionNotFound
	}
	return t, err
}

func (s *ledgerService) CancelTransaction(ctx context.Context, id uuid.UUID, actor model.Actor) (*model.Transaction, error) {
	var cancelled *model.Transaction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t, err := s.writer().reverse(tx, id, actor.UserID, manualCancelAllowed)
		if err != nil {
			return err
		}
		cancelled = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(ws.NewEvent("ledger_update", "transaction_cancelled", actor, cancelled,
		fmt.Sprintf("%s cancelled a %s transaction", actor.Name, cancelled.Type)))
	return cancelled, nil
}

func (s *ledgerService) RecalculateBalances(ctx context.Context, actor model.Actor) (*BalanceRecalculation, error) {
	result := &BalanceRecalculation{UpdatedAccounts: []BalanceAdjustment{}}

	err := withLock(ctx, s.locker, balanceLockKey, func() error {
		return s.accountRepo.Rebalance(ctx, func(store repository.BalanceTallyStore) error {
			tallies, err := store.ListAccountTallies(ctx)
			if err != nil {
				return err
			}
			adjustments, err := ReconcileBalances(tallies)
			if err != nil {
				return err
			}
			for _, adj := range adjustments {
				if err := store.SetBalance(ctx, adj.AccountID, adj.NewBalance.Decimal, actor.UserID); err != nil {
					return err
				}
			}
			result.UpdatedAccounts = adjustments
			return nil
		})
	})
	if err != nil {
		logger.LogError("service.ledger", "RecalculateBalances", actor.UserID, nil, err)
		return nil, err
	}
	result.UpdatedCount = len(result.UpdatedAccounts)

	if result.UpdatedCount > 0 {
		s.publisher.Publish(ws.NewEvent("ledger_update", "balances_recalculated", actor, result,
			fmt.Sprintf("%s repaired %d account balance(s)", actor.Name, result.UpdatedCount)))
	}
	return result, nil
}
