package service

import (
	"bytes"
	"testing"

	"greencycle/internal/model"
	"greencycle/internal/repository"
	"greencycle/pkg/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignedAmount(t *testing.T) {
	cases := []struct {
		name      string
		txType    string
		direction string
		want      string
		err       error
	}{
		{"sale defaults in", "sale", "", "150.00", nil},
		{"other income defaults in", "other_income", "", "150.00", nil},
		{"purchase defaults out", "purchase", "", "-150.00", nil},
		{"buyback defaults out", "buyback", "", "-150.00", nil},
		{"other expense defaults out", "other_expense", "", "-150.00", nil},
		{"explicit in", "buyback", "in", "150.00", nil},
		{"explicit out", "sale", "out", "-150.00", nil},
		{"bad direction", "sale", "sideways", "", ErrInvalidDirection},
		{"write off is not manual", "write_off", "", "", ErrTransactionTypeNotManual},
		{"withdrawal is not manual", "partner_withdrawal", "", "", ErrTransactionTypeNotManual},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := &CreateTransactionRequest{Type: tc.txType, Direction: tc.direction, Amount: dec("150")}
			got, err := req.SignedAmount()
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.StringFixed(2))
		})
	}
}

func TestCheckInvestmentCaps(t *testing.T) {
	total := dec("1000")
	existing := repository.InvestmentTotals{Amount: dec("600"), Percentage: dec("60")}

	assert.NoError(t, CheckInvestmentCaps(total, existing, dec("400"), dec("40")))
	assert.ErrorIs(t, CheckInvestmentCaps(total, existing, dec("300"), dec("40.01")), ErrInvestmentPercentageExceeded)
	assert.ErrorIs(t, CheckInvestmentCaps(total, existing, dec("400.01"), dec("30")), ErrInvestmentAmountExceeded)
	assert.ErrorIs(t, CheckInvestmentCaps(total, existing, dec("10"), decimal.Zero), ErrInvalidPercentage)
	assert.ErrorIs(t, CheckInvestmentCaps(total, existing, dec("10"), dec("100.5")), ErrInvalidPercentage)
}

func TestInvestmentPercentage(t *testing.T) {
	assert.Equal(t, "25.00", investmentPercentage(dec("800"), dec("200"), decimal.Zero).StringFixed(2))
	assert.Equal(t, "33.33", investmentPercentage(dec("300"), dec("100"), decimal.Zero).StringFixed(2))
	assert.Equal(t, "10.00", investmentPercentage(dec("800"), dec("200"), dec("10")).StringFixed(2))
	assert.True(t, investmentPercentage(decimal.Zero, dec("200"), decimal.Zero).IsZero())
}

func TestCreateWithdrawalRequest_Check(t *testing.T) {
	account, shipment := uuid.New(), uuid.New()
	base := func() CreateWithdrawalRequest {
		return CreateWithdrawalRequest{UserID: uuid.New(), AmountOrQuantity: dec("10")}
	}

	cash := base()
	cash.Type = model.WithdrawalCash
	assert.ErrorIs(t, cash.Check(), ErrWithdrawalAccountRequired)
	cash.AccountID = &account
	assert.NoError(t, cash.Check())

	goods := base()
	goods.Type = model.WithdrawalGoods
	goods.AccountID = &account
	assert.ErrorIs(t, goods.Check(), ErrWithdrawalShipmentRequired)
	goods.ShipmentID = &shipment
	assert.NoError(t, goods.Check())

	bad := base()
	bad.Type = "crypto"
	assert.ErrorIs(t, bad.Check(), validator.ErrValidation)

	zero := base()
	zero.Type = model.WithdrawalCash
	zero.AccountID = &account
	zero.AmountOrQuantity = decimal.Zero
	assert.ErrorIs(t, zero.Check(), validator.ErrValidation)
}

func TestQuantitiesByBatch(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	items := []model.SaleItem{
		{BatchID: a, Quantity: 3},
		{BatchID: b, Quantity: 5},
		{BatchID: a, Quantity: 4},
	}

	totals, order := quantitiesByBatch(items)
	assert.Equal(t, map[uuid.UUID]int{a: 7, b: 5}, totals)
	require.Len(t, order, 2)
	assert.Negative(t, bytes.Compare(order[0][:], order[1][:]))
}

func TestSaleTotal(t *testing.T) {
	items := []model.SaleItem{
		{Quantity: 3, PricePerUnit: dec("12.50")},
		{Quantity: 1, PricePerUnit: dec("0.99")},
	}
	assert.Equal(t, "38.49", saleTotal(items).StringFixed(2))
}

func TestManualCancelAllowed(t *testing.T) {
	src := func(s model.SourceType) *model.SourceType { return &s }
	cases := []struct {
		name   string
		source *model.SourceType
		err    error
	}{
		{"plain manual entry", nil, nil},
		{"shipment purchase", src(model.SourceShipment), nil},
		{"buyback", src(model.SourceBuyback), nil},
		{"sale", src(model.SourceSale), ErrTransactionOwnedBySource},
		{"write off", src(model.SourceWriteOff), ErrTransactionOwnedBySource},
		{"partner withdrawal", src(model.SourceWithdrawal), ErrTransactionOwnedBySource},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := manualCancelAllowed(&model.Transaction{SourceType: tc.source})
			if tc.err == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.err)
		})
	}
}
