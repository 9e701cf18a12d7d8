package service

import (
	"errors"

	"greencycle/internal/model"
	"greencycle/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ledgerWriter posts and reverses transactions, keeping the cached account
// balance in step. All calls must run inside a gorm transaction.
type ledgerWriter struct {
	accounts     repository.AccountRepository
	transactions repository.TransactionRepository
}

func (w ledgerWriter) post(tx *gorm.DB, t *model.Transaction) error {
	if t.AccountID != nil {
		if _, err := w.accounts.LockByID(tx, *t.AccountID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAccountNotFound
			}
			return err
		}
		if err := w.accounts.AddToBalance(tx, *t.AccountID, t.Amount, t.CreatedBy); err != nil {
			return err
		}
	}
	return w.transactions.Create(tx, t)
}

// reverse cancels transaction id and undoes its balance effect. guard, when
// set, may veto the cancel after the row is locked.
func (w ledgerWriter) reverse(tx *gorm.DB, id uuid.UUID, actorID string, guard func(*model.Transaction) error) (*model.Transaction, error) {
	t, err := w.transactions.LockByID(tx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	if t.IsCancelled {
		return nil, ErrTransactionAlreadyCancelled
	}
	if guard != nil {
		if err := guard(t); err != nil {
			return nil, err
		}
	}

	if t.AccountID != nil {
		if _, err := w.accounts.LockByID(tx, *t.AccountID); err != nil {
			return nil, err
		}
		if err := w.accounts.AddToBalance(tx, *t.AccountID, t.Amount.Neg(), actorID); err != nil {
			return nil, err
		}
	}
	if err := w.transactions.MarkCancelled(tx, t.ID, actorID); err != nil {
		return nil, err
	}
	t.IsCancelled = true
	return t, nil
}

// manualCancelAllowed refuses transactions owned by a sale, write-off or
// withdrawal. Those rows stay counted by their source, so the ledger entry
// may only be reversed through the source's own operation.
func manualCancelAllowed(t *model.Transaction) error {
	if t.SourceType == nil {
		return nil
	}
	switch *t.SourceType {
	case model.SourceSale, model.SourceWriteOff, model.SourceWithdrawal:
		return ErrTransactionOwnedBySource
	}
	return nil
}

func sourcePtr(s model.SourceType) *model.SourceType {
	return &s
}
