package service

import (
	"context"
	"sync"
	"time"

	"greencycle/internal/repository"
	"greencycle/internal/ws"
	"greencycle/pkg/lock"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// fakeFinanceRepo serves fixed records. err fails the snapshot itself,
// ownersErr fails one read inside it.
type fakeFinanceRepo struct {
	in        EquityInputs
	err       error
	ownersErr error
}

func (f *fakeFinanceRepo) ListAccounts(context.Context) ([]repository.AccountBalanceRecord, error) {
	return f.in.Accounts, nil
}

func (f *fakeFinanceRepo) ListBatchesWithStock(context.Context) ([]repository.BatchStockRecord, error) {
	return f.in.Batches, nil
}

func (f *fakeFinanceRepo) ListNonCancelledTransactions(context.Context) ([]repository.TransactionRecord, error) {
	return f.in.Transactions, nil
}

func (f *fakeFinanceRepo) ListShipmentInvestmentsGroupedByUser(context.Context) ([]repository.UserAmountRecord, error) {
	return f.in.Investments, nil
}

func (f *fakeFinanceRepo) ListCashWithdrawalsGroupedByUser(context.Context) ([]repository.UserAmountRecord, error) {
	return f.in.Withdrawals, nil
}

func (f *fakeFinanceRepo) ListOwners(context.Context) ([]repository.OwnerRecord, error) {
	if f.ownersErr != nil {
		return nil, f.ownersErr
	}
	return f.in.Owners, nil
}

func (f *fakeFinanceRepo) ReadSnapshot(ctx context.Context, fn func(r repository.FinanceReader) error) error {
	if f.err != nil {
		return f.err
	}
	return fn(f)
}

// fakeBatchStore keeps batch tallies in memory
type fakeBatchStore struct {
	tallies map[uuid.UUID]*repository.BatchTally
	order   []uuid.UUID
	writes  int
}

func newFakeBatchStore(tallies ...repository.BatchTally) *fakeBatchStore {
	s := &fakeBatchStore{tallies: map[uuid.UUID]*repository.BatchTally{}}
	for i := range tallies {
		t := tallies[i]
		s.tallies[t.BatchID] = &t
		s.order = append(s.order, t.BatchID)
	}
	return s
}

func (s *fakeBatchStore) ListBatchTallies(context.Context) ([]repository.BatchTally, error) {
	out := make([]repository.BatchTally, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.tallies[id])
	}
	return out, nil
}

func (s *fakeBatchStore) SetQuantity(_ context.Context, id uuid.UUID, quantity int, _ string) error {
	s.tallies[id].QuantityCurrent = quantity
	s.writes++
	return nil
}

// fakeBatchRepo only implements Recount, everything else panics via the nil embed
type fakeBatchRepo struct {
	repository.BatchRepository
	store    *fakeBatchStore
	recounts int
}

func (r *fakeBatchRepo) Recount(_ context.Context, fn func(store repository.BatchTallyStore) error) error {
	r.recounts++
	return fn(r.store)
}

type fakeBalanceStore struct {
	tallies []repository.AccountTally
}

func (s *fakeBalanceStore) ListAccountTallies(context.Context) ([]repository.AccountTally, error) {
	return append([]repository.AccountTally(nil), s.tallies...), nil
}

func (s *fakeBalanceStore) SetBalance(_ context.Context, id uuid.UUID, balance decimal.Decimal, _ string) error {
	for i := range s.tallies {
		if s.tallies[i].AccountID == id {
			s.tallies[i].Balance = balance.StringFixed(2)
		}
	}
	return nil
}

type fakeAccountRepo struct {
	repository.AccountRepository
	store *fakeBalanceStore
}

func (r *fakeAccountRepo) Rebalance(_ context.Context, fn func(store repository.BalanceTallyStore) error) error {
	return fn(r.store)
}

// busyLocker reports every key as taken
type busyLocker struct{}

func (busyLocker) Obtain(context.Context, string, time.Duration) (func(), error) {
	return nil, lock.ErrNotObtained
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []ws.Event
}

func (p *recordingPublisher) Publish(e ws.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) actions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Action)
	}
	return out
}
