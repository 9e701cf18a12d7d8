package service

import (
	"context"
	"testing"

	"greencycle/internal/model"
	"greencycle/internal/repository"
	"greencycle/internal/ws"
	"greencycle/pkg/lock"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testActor = model.Actor{UserID: uuid.NewString(), Name: "Tester", Email: "tester@greencycle.test"}

func TestReconcileBatches(t *testing.T) {
	drifted := repository.BatchTally{
		BatchID: uuid.New(), QuantityInitial: 100, QuantityCurrent: 100, SoldQuantity: 30, WrittenOffQuantity: 10,
	}
	clean := repository.BatchTally{
		BatchID: uuid.New(), QuantityInitial: 50, QuantityCurrent: 45, SoldQuantity: 5,
	}

	adjustments := ReconcileBatches([]repository.BatchTally{drifted, clean})
	require.Len(t, adjustments, 1)
	assert.Equal(t, BatchAdjustment{
		BatchID:          drifted.BatchID,
		PreviousQuantity: 100,
		NewQuantity:      60,
		QuantityInitial:  100,
	}, adjustments[0])
}

func TestReconcileBatches_EmptyIsNotNil(t *testing.T) {
	adjustments := ReconcileBatches(nil)
	assert.NotNil(t, adjustments)
	assert.Empty(t, adjustments)
}

func TestReconcileBatches_Oversold(t *testing.T) {
	adjustments := ReconcileBatches([]repository.BatchTally{
		{BatchID: uuid.New(), QuantityInitial: 10, QuantityCurrent: 0, SoldQuantity: 12},
	})
	require.Len(t, adjustments, 1)
	assert.Equal(t, -2, adjustments[0].NewQuantity)
}

func TestRecalculateInventory_Idempotent(t *testing.T) {
	batchID := uuid.New()
	store := newFakeBatchStore(repository.BatchTally{
		BatchID: batchID, QuantityInitial: 100, QuantityCurrent: 100, SoldQuantity: 30, WrittenOffQuantity: 10,
	})
	repo := &fakeBatchRepo{store: store}
	pub := &recordingPublisher{}
	svc := NewInventoryService(repo, nil, nil, nil, nil, nil, lock.NewNoopLocker(), pub)

	first, err := svc.RecalculateInventory(context.Background(), testActor)
	require.NoError(t, err)
	assert.Equal(t, 1, first.UpdatedCount)
	require.Len(t, first.UpdatedBatches, 1)
	assert.Equal(t, 60, first.UpdatedBatches[0].NewQuantity)
	assert.Equal(t, 100, first.UpdatedBatches[0].PreviousQuantity)
	assert.Equal(t, 60, store.tallies[batchID].QuantityCurrent)

	second, err := svc.RecalculateInventory(context.Background(), testActor)
	require.NoError(t, err)
	assert.Equal(t, 0, second.UpdatedCount)
	assert.NotNil(t, second.UpdatedBatches)
	assert.Equal(t, 1, store.writes)

	assert.Equal(t, []string{"inventory_recalculated"}, pub.actions())
}

func TestRecalculateInventory_LockHeld(t *testing.T) {
	repo := &fakeBatchRepo{store: newFakeBatchStore()}
	svc := NewInventoryService(repo, nil, nil, nil, nil, nil, busyLocker{}, ws.Discard{})

	result, err := svc.RecalculateInventory(context.Background(), testActor)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrRecalculationInProgress)
	assert.Zero(t, repo.recounts)
}

func TestReconcileBalances(t *testing.T) {
	ok := repository.AccountTally{AccountID: uuid.New(), Balance: "100.00", LedgerBalance: "100.00"}
	off := repository.AccountTally{AccountID: uuid.New(), Balance: "100.00", LedgerBalance: "150.50"}

	adjustments, err := ReconcileBalances([]repository.AccountTally{ok, off})
	require.NoError(t, err)
	require.Len(t, adjustments, 1)
	assert.Equal(t, off.AccountID, adjustments[0].AccountID)
	assert.Equal(t, "100.00", adjustments[0].PreviousBalance.StringFixed(2))
	assert.Equal(t, "150.50", adjustments[0].NewBalance.StringFixed(2))
}

func TestReconcileBalances_Malformed(t *testing.T) {
	_, err := ReconcileBalances([]repository.AccountTally{{AccountID: uuid.New(), Balance: "x", LedgerBalance: "1.00"}})
	assert.ErrorIs(t, err, ErrMalformedDecimal)
}

func TestRecalculateBalances_Converges(t *testing.T) {
	id := uuid.New()
	store := &fakeBalanceStore{tallies: []repository.AccountTally{
		{AccountID: id, Balance: "0.00", LedgerBalance: "-25.00"},
	}}
	pub := &recordingPublisher{}
	svc := NewLedgerService(&fakeAccountRepo{store: store}, nil, nil, lock.NewNoopLocker(), pub)

	first, err := svc.RecalculateBalances(context.Background(), testActor)
	require.NoError(t, err)
	assert.Equal(t, 1, first.UpdatedCount)
	assert.Equal(t, "-25.00", store.tallies[0].Balance)

	second, err := svc.RecalculateBalances(context.Background(), testActor)
	require.NoError(t, err)
	assert.Zero(t, second.UpdatedCount)
	assert.Equal(t, []string{"balances_recalculated"}, pub.actions())
}

func TestRecalculateBalances_LockHeld(t *testing.T) {
	svc := NewLedgerService(&fakeAccountRepo{store: &fakeBalanceStore{}}, nil, nil, busyLocker{}, ws.Discard{})

	_, err := svc.RecalculateBalances(context.Background(), testActor)
	assert.ErrorIs(t, err, ErrRecalculationInProgress)
}
