package service

import (
	"context"
	"errors"
	"time"

	"greencycle/internal/model"
	"greencycle/internal/repository"
	"greencycle/pkg/lock"

	"github.com/google/uuid"
)

const (
	inventoryLockKey = "greencycle:lock:inventory-recalculation"
	balanceLockKey   = "greencycle:lock:account-rebalance"
	recalcLockTTL    = 2 * time.Minute
)

type BatchAdjustment struct {
	BatchID          uuid.UUID `json:"batchId"`
	PreviousQuantity int       `json:"previousQuantity"`
	NewQuantity      int       `json:"newQuantity"`
	QuantityInitial  int       `json:"quantityInitial"`
}

type InventoryRecalculation struct {
	UpdatedCount   int               `json:"updatedCount"`
	UpdatedBatches []BatchAdjustment `json:"updatedBatches"`
}

type BalanceAdjustment struct {
	AccountID       uuid.UUID       `json:"accountId"`
	PreviousBalance model.Money `json:"previousBalance"`
	NewBalance      model.Money `json:"newBalance"`
}

type BalanceRecalculation struct {
	UpdatedCount    int                 `json:"updatedCount"`
	UpdatedAccounts []BalanceAdjustment `json:"updatedAccounts"`
}

// ReconcileBatches returns an adjustment for every batch whose current
// quantity differs from initial - sold - written off.
func ReconcileBatches(tallies []repository.BatchTally) []BatchAdjustment {
	out := []BatchAdjustment{}
	for _, t := range tallies {
		expected := t.QuantityInitial - t.SoldQuantity - t.WrittenOffQuantity
		if expected == t.QuantityCurrent {
			continue
		}
		out = append(out, BatchAdjustment{
			BatchID:          t.BatchID,
			PreviousQuantity: t.QuantityCurrent,
			NewQuantity:      expected,
			QuantityInitial:  t.QuantityInitial,
		})
	}
	return out
}

// ReconcileBalances returns an adjustment for every account whose cached
// balance differs from the sum of its live transactions.
func ReconcileBalances(tallies []repository.AccountTally) ([]BalanceAdjustment, error) {
	out := []BalanceAdjustment{}
	for _, t := range tallies {
		cached, err := parseAmount("account.balance", t.Balance)
		if err != nil {
			return nil, err
		}
		ledger, err := parseAmount("account.ledger_balance", t.LedgerBalance)
		if err != nil {
			return nil, err
		}
		if cached.Equal(ledger) {
			continue
		}
		out = append(out, BalanceAdjustment{
			AccountID:       t.AccountID,
			PreviousBalance: model.NewMoney(cached),
			NewBalance:      model.NewMoney(ledger),
		})
	}
	return out, nil
}

// withLock runs fn while holding the advisory lock key
func withLock(ctx context.Context, locker lock.Locker, key string, fn func() error) error {
	release, err := locker.Obtain(ctx, key, recalcLockTTL)
	if errors.Is(err, lock.ErrNotObtained) {
		return ErrRecalculationInProgress
	}
	if err != nil {
		return err
	}
	defer release()
	return fn()
}
