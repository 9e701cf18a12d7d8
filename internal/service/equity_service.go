package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"greencycle/internal/model"
	"greencycle/internal/repository"
	"greencycle/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrFinanceUnavailable = errors.New("finance data unavailable")
	ErrMalformedDecimal   = errors.New("malformed decimal value in stored data")
)

var hundred = decimal.NewFromInt(100)

type EquityService interface {
	GetEquitySummary(ctx context.Context) (*EquitySummary, error)
	GetPeriodSummary(ctx context.Context, startDate, endDate time.Time) (*PeriodSummary, error)
}

// EquityInputs is one consistent read of everything the equity summary needs
type EquityInputs struct {
	Accounts     []repository.AccountBalanceRecord
	Batches      []repository.BatchStockRecord
	Transactions []repository.TransactionRecord
	Investments  []repository.UserAmountRecord
	Withdrawals  []repository.UserAmountRecord
	Owners       []repository.OwnerRecord
}

type EquitySummary struct {
	TotalAssets     model.Money   `json:"totalAssets"`
	CashAssets      model.Money   `json:"cashAssets"`
	InventoryAssets model.Money   `json:"inventoryAssets"`
	TotalRevenue    model.Money   `json:"totalRevenue"`
	TotalExpenses   model.Money   `json:"totalExpenses"`
	NetProfit       model.Money   `json:"netProfit"`
	OwnersCount     int           `json:"ownersCount"`
	Owners          []OwnerEquity `json:"owners"`
}

// OwnerEquity is one partner's position. EquityValue is the partner's part of
// net profit, AvailableCash is that minus cash withdrawals, CurrentBalance
// adds the partner's investments back on top.
type OwnerEquity struct {
	UserID           uuid.UUID   `json:"userId"`
	FullName         string      `json:"fullName"`
	Email            string      `json:"email"`
	Share            float64     `json:"share"`
	EquityValue      model.Money `json:"equityValue"`
	AvailableCash    model.Money `json:"availableCash"`
	TotalInvestments model.Money `json:"totalInvestments"`
	TotalWithdrawals model.Money `json:"totalWithdrawals"`
	CurrentBalance   model.Money `json:"currentBalance"`
}

type PeriodSummary struct {
	StartDate time.Time   `json:"startDate"`
	EndDate   time.Time   `json:"endDate"`
	Revenue   model.Money `json:"revenue"`
	Expenses  model.Money `json:"expenses"`
	NetProfit model.Money `json:"netProfit"`
}

type equityService struct {
	financeRepo repository.FinanceRepository
	txRepo      repository.TransactionRepository
}

func NewEquityService(financeRepo repository.FinanceRepository, txRepo repository.TransactionRepository) EquityService {
	return &equityService{financeRepo: financeRepo, txRepo: txRepo}
}

func (s *equityService) GetEquitySummary(ctx context.Context) (*EquitySummary, error) {
	var in EquityInputs
	err := s.financeRepo.ReadSnapshot(ctx, func(r repository.FinanceReader) error {
		return loadEquityInputs(ctx, r, &in)
	})
	if err != nil {
		logger.LogError("service.equity", "GetEquitySummary", "read snapshot", nil, err)
		return nil, fmt.Errorf("%w: %w", ErrFinanceUnavailable, err)
	}

	summary, err := CalculateEquity(in)
	if err != nil {
		logger.LogError("service.equity", "GetEquitySummary", "calculate", nil, err)
		return nil, err
	}
	return summary, nil
}

func (s *equityService) GetPeriodSummary(ctx context.Context, startDate, endDate time.Time) (*PeriodSummary, error) {
	totals, err := s.txRepo.GetFinancialSummary(ctx, startDate, endDate)
	if err != nil {
		logger.LogError("service.equity", "GetPeriodSummary", "query", nil, err)
		return nil, fmt.Errorf("%w: %w", ErrFinanceUnavailable, err)
	}
	return &PeriodSummary{
		StartDate: startDate,
		EndDate:   endDate,
		Revenue:   model.NewMoney(totals.Revenue),
		Expenses:  model.NewMoney(totals.Expenses),
		NetProfit: model.NewMoney(totals.Revenue.Sub(totals.Expenses)),
	}, nil
}

func loadEquityInputs(ctx context.Context, r repository.FinanceReader, in *EquityInputs) error {
	var err error
	if in.Accounts, err = r.ListAccounts(ctx); err != nil {
		return fmt.Errorf("list accounts: %w", err)
	}
	if in.Batches, err = r.ListBatchesWithStock(ctx); err != nil {
		return fmt.Errorf("list batches: %w", err)
	}
	if in.Transactions, err = r.ListNonCancelledTransactions(ctx); err != nil {
		return fmt.Errorf("list transactions: %w", err)
	}
	if in.Investments, err = r.ListShipmentInvestmentsGroupedByUser(ctx); err != nil {
		return fmt.Errorf("list investments: %w", err)
	}
	if in.Withdrawals, err = r.ListCashWithdrawalsGroupedByUser(ctx); err != nil {
		return fmt.Errorf("list withdrawals: %w", err)
	}
	if in.Owners, err = r.ListOwners(ctx); err != nil {
		return fmt.Errorf("list owners: %w", err)
	}
	return nil
}

func parseAmount(field, raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s=%q", ErrMalformedDecimal, field, raw)
	}
	return d, nil
}

func sumByUser(field string, records []repository.UserAmountRecord) (map[uuid.UUID]decimal.Decimal, error) {
	out := make(map[uuid.UUID]decimal.Decimal, len(records))
	for _, rec := range records {
		amount, err := parseAmount(field, rec.Total)
		if err != nil {
			return nil, err
		}
		out[rec.UserID] = out[rec.UserID].Add(amount)
	}
	return out, nil
}

// CalculateEquity derives company assets and each owner's position from in.
// It does no I/O. Every stored string is parsed as a decimal and any
// malformed value fails the whole calculation.
func CalculateEquity(in EquityInputs) (*EquitySummary, error) {
	cash := decimal.Zero
	for _, a := range in.Accounts {
		balance, err := parseAmount("account.balance", a.Balance)
		if err != nil {
			return nil, err
		}
		cash = cash.Add(balance)
	}

	inventory := decimal.Zero
	for _, b := range in.Batches {
		price, err := parseAmount("batch.purchase_price_per_unit", b.PurchasePricePerUnit)
		if err != nil {
			return nil, err
		}
		if b.QuantityCurrent <= 0 {
			continue
		}
		inventory = inventory.Add(price.Mul(decimal.NewFromInt(int64(b.QuantityCurrent))))
	}

	revenue, expenses := decimal.Zero, decimal.Zero
	for _, t := range in.Transactions {
		amount, err := parseAmount("transaction.amount", t.Amount)
		if err != nil {
			return nil, err
		}
		txType := model.TransactionType(t.Type)
		switch {
		case txType.IsRevenue():
			if amount.IsPositive() {
				revenue = revenue.Add(amount)
			}
		case txType.IsExpense():
			expenses = expenses.Add(amount.Abs())
		}
	}
	netProfit := revenue.Sub(expenses)

	investments, err := sumByUser("investment.total", in.Investments)
	if err != nil {
		return nil, err
	}
	withdrawals, err := sumByUser("withdrawal.total", in.Withdrawals)
	if err != nil {
		return nil, err
	}

	totalInvested := decimal.Zero
	for _, o := range in.Owners {
		totalInvested = totalInvested.Add(investments[o.UserID])
	}

	exactShares := make([]decimal.Decimal, len(in.Owners))
	if !totalInvested.IsZero() {
		for i, o := range in.Owners {
			exactShares[i] = investments[o.UserID].Div(totalInvested).Mul(hundred)
		}
	}
	shares := allocateShares(exactShares)

	owners := make([]OwnerEquity, 0, len(in.Owners))
	for i, o := range in.Owners {
		invested := investments[o.UserID]

		equityValue := decimal.Zero
		if !totalInvested.IsZero() {
			equityValue = netProfit.Mul(invested).Div(totalInvested).Round(2)
		}
		withdrawn := withdrawals[o.UserID]
		availableCash := equityValue.Sub(withdrawn)

		owners = append(owners, OwnerEquity{
			UserID:           o.UserID,
			FullName:         o.FullName,
			Email:            o.Email,
			Share:            shares[i],
			EquityValue:      model.NewMoney(equityValue),
			AvailableCash:    model.NewMoney(availableCash),
			TotalInvestments: model.NewMoney(invested),
			TotalWithdrawals: model.NewMoney(withdrawn),
			CurrentBalance:   model.NewMoney(invested.Add(availableCash)),
		})
	}

	return &EquitySummary{
		TotalAssets:     model.NewMoney(cash.Add(inventory)),
		CashAssets:      model.NewMoney(cash),
		InventoryAssets: model.NewMoney(inventory),
		TotalRevenue:    model.NewMoney(revenue),
		TotalExpenses:   model.NewMoney(expenses),
		NetProfit:       model.NewMoney(netProfit),
		OwnersCount:     len(owners),
		Owners:          owners,
	}, nil
}

// allocateShares rounds percentages to hundredths with the largest remainder
// method. When the exact shares add up to 100 the rounded ones add up to
// exactly 100.00.
func allocateShares(exact []decimal.Decimal) []float64 {
	out := make([]float64, len(exact))
	if len(exact) == 0 {
		return out
	}

	units := make([]int64, len(exact))
	fractions := make([]decimal.Decimal, len(exact))
	total, allocated := decimal.Zero, int64(0)
	for i, share := range exact {
		scaled := share.Mul(hundred)
		floor := scaled.Floor()
		units[i] = floor.IntPart()
		fractions[i] = scaled.Sub(floor)
		allocated += units[i]
		total = total.Add(share)
	}

	remaining := total.Mul(hundred).Round(0).IntPart() - allocated
	order := make([]int, len(exact))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return fractions[order[a]].GreaterThan(fractions[order[b]])
	})
	for k := 0; remaining > 0 && k < len(order); k++ {
		units[order[k]]++
		remaining--
	}

	for i, u := range units {
		out[i] = decimal.New(u, -2).InexactFloat64()
	}
	return out
}
