package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"greencycle/internal/model"
	"greencycle/internal/service"
	"greencycle/pkg/jwt"
	"greencycle/pkg/validator"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEquityService struct {
	summary *service.EquitySummary
	period  *service.PeriodSummary
	err     error
	start   time.Time
}

func (s *stubEquityService) GetEquitySummary(context.Context) (*service.EquitySummary, error) {
	return s.summary, s.err
}

func (s *stubEquityService) GetPeriodSummary(_ context.Context, start, end time.Time) (*service.PeriodSummary, error) {
	s.start = start
	return s.period, s.err
}

func newFinanceApp(svc service.EquityService) *fiber.App {
	app := fiber.New()
	h := NewFinanceHandler(svc)
	app.Get("/finance/equity", h.GetEquity)
	app.Get("/finance/summary", h.GetSummary)
	return app
}

func TestGetEquity_EmptyOwnersIsArray(t *testing.T) {
	summary, err := service.CalculateEquity(service.EquityInputs{})
	require.NoError(t, err)
	app := newFinanceApp(&stubEquityService{summary: summary})

	resp, err := app.Test(httptest.NewRequest("GET", "/finance/equity", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(body, &raw))
	assert.Equal(t, "[]", string(raw["owners"]))
	assert.Equal(t, `"0.00"`, string(raw["totalAssets"]))
	assert.Equal(t, "0", string(raw["ownersCount"]))
}

func TestGetEquity_MoneyIsDecimalString(t *testing.T) {
	summary := &service.EquitySummary{
		TotalAssets: model.NewMoney(decimal.RequireFromString("80000")),
		Owners: []service.OwnerEquity{{
			FullName:    "Ana",
			Share:       80,
			EquityValue: model.NewMoney(decimal.RequireFromString("80000.5")),
		}},
		OwnersCount: 1,
	}
	app := newFinanceApp(&stubEquityService{summary: summary})

	resp, err := app.Test(httptest.NewRequest("GET", "/finance/equity", nil))
	require.NoError(t, err)

	var decoded struct {
		TotalAssets string `json:"totalAssets"`
		Owners      []struct {
			Share       float64 `json:"share"`
			EquityValue string  `json:"equityValue"`
		} `json:"owners"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	assert.Equal(t, "80000.00", decoded.TotalAssets)
	require.Len(t, decoded.Owners, 1)
	assert.Equal(t, 80.0, decoded.Owners[0].Share)
	assert.Equal(t, "80000.50", decoded.Owners[0].EquityValue)
}

func TestGetEquity_StoreUnavailable(t *testing.T) {
	err := fmt.Errorf("%w: %w", service.ErrFinanceUnavailable, errors.New("dial tcp: refused"))
	app := newFinanceApp(&stubEquityService{err: err})

	resp, testErr := app.Test(httptest.NewRequest("GET", "/finance/equity", nil))
	require.NoError(t, testErr)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)

	body, testErr := io.ReadAll(resp.Body)
	require.NoError(t, testErr)
	assert.JSONEq(t, `{"error": "finance data unavailable"}`, string(body))
	assert.NotContains(t, string(body), "dial tcp")
}

func TestGetEquity_MalformedData(t *testing.T) {
	app := newFinanceApp(&stubEquityService{err: fmt.Errorf("%w: account.balance=%q", service.ErrMalformedDecimal, "x")})

	resp, err := app.Test(httptest.NewRequest("GET", "/finance/equity", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}

func TestGetSummary_Range(t *testing.T) {
	stub := &stubEquityService{period: &service.PeriodSummary{}}
	app := newFinanceApp(stub)

	resp, err := app.Test(httptest.NewRequest("GET", "/finance/summary?range=3m", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.WithinDuration(t, time.Now().AddDate(0, -3, 0), stub.start, time.Minute)
}

func TestPeriodStart(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, now.AddDate(0, 0, -7), periodStart("7d", now))
	assert.Equal(t, now.AddDate(0, -1, 0), periodStart("1m", now))
	assert.Equal(t, now.AddDate(0, -6, 0), periodStart("6m", now))
	assert.Equal(t, now.AddDate(0, -12, 0), periodStart("12m", now))
	assert.Equal(t, now.AddDate(0, 0, -7), periodStart("forever", now))
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{service.ErrRecalculationInProgress, fiber.StatusConflict},
		{fmt.Errorf("%w: extra", service.ErrBatchNotFound), fiber.StatusNotFound},
		{service.ErrSaleNotFound, fiber.StatusNotFound},
		{service.ErrInsufficientStock, fiber.StatusBadRequest},
		{service.ErrInvestmentPercentageExceeded, fiber.StatusBadRequest},
		{fmt.Errorf("%w: Field 'x' failed on tag 'required'", validator.ErrValidation), fiber.StatusBadRequest},
		{service.ErrTransactionOwnedBySource, fiber.StatusBadRequest},
		{service.ErrWrongPassword, fiber.StatusBadRequest},
		{service.ErrInvalidCredentials, fiber.StatusUnauthorized},
		{service.ErrSessionTimeout, fiber.StatusUnauthorized},
		{jwt.ErrInvalidToken, fiber.StatusUnauthorized},
		{service.ErrUserNotFound, fiber.StatusNotFound},
		{errors.New("pq: deadlock detected"), fiber.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, statusFor(tc.err), tc.err.Error())
	}
}
