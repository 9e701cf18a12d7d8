package service_test

import (
	"context"
	"os"
	"testing"

	"greencycle/internal/model"
	"greencycle/internal/repository"
	"greencycle/internal/service"
	"greencycle/internal/ws"
	"greencycle/pkg/database"
	"greencycle/pkg/lock"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// setupTestDB connects to TEST_DATABASE_URL, migrates and empties every
// table. The test is skipped when the variable is unset so a live database is
// never touched.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	_ = godotenv.Load("../../.env")

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}
	t.Setenv("DATABASE_URL", dbURL)

	db, err := database.ConnectDB()
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(model.All()...))
	require.NoError(t, db.Exec(`
		TRUNCATE TABLE partner_withdrawals, write_offs, sale_items, sales, transactions,
			batches, shipment_investments, shipments, accounts,
			user_privileges, role_privileges, users, roles, privileges CASCADE
	`).Error)

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

type stack struct {
	ledger      service.LedgerService
	shipments   service.ShipmentService
	inventory   service.InventoryService
	sales       service.SaleService
	withdrawals service.WithdrawalService
	equity      service.EquityService
	users       repository.UserRepository
}

func newStack(db *gorm.DB) stack {
	accountRepo := repository.NewAccountRepo(db)
	txRepo := repository.NewTransactionRepo(db)
	batchRepo := repository.NewBatchRepo(db)
	shipmentRepo := repository.NewShipmentRepo(db)
	userRepo := repository.NewUserRepo(db)
	locker := lock.NewNoopLocker()
	pub := ws.Discard{}

	return stack{
		ledger:    service.NewLedgerService(accountRepo, txRepo, db, locker, pub),
		shipments: service.NewShipmentService(shipmentRepo, userRepo, db, pub),
		inventory: service.NewInventoryService(batchRepo, repository.NewWriteOffRepo(db), shipmentRepo,
			accountRepo, txRepo, db, locker, pub),
		sales: service.NewSaleService(repository.NewSaleRepo(db), batchRepo, accountRepo, txRepo, db, pub),
		withdrawals: service.NewWithdrawalService(repository.NewWithdrawalRepo(db), userRepo, accountRepo,
			shipmentRepo, txRepo, db, pub),
		equity: service.NewEquityService(repository.NewFinanceRepo(db), txRepo),
		users:  userRepo,
	}
}

func createUser(t *testing.T, users repository.UserRepository, role *model.Role, name string) *model.User {
	t.Helper()
	u := &model.User{Email: name + "@greencycle.test", FullName: name, RoleID: &role.ID, IsActive: true}
	require.NoError(t, u.SetPassword("secret1"))
	require.NoError(t, users.Create(u))
	return u
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestInventoryAndEquity_EndToEnd(t *testing.T) {
	db := setupTestDB(t)
	s := newStack(db)
	ctx := context.Background()
	actor := model.SystemActor

	partnerRole := &model.Role{Code: model.RoleSuperAdmin, Name: "Partner"}
	managerRole := &model.Role{Code: model.RoleManager, Name: "Manager"}
	require.NoError(t, db.Create(partnerRole).Error)
	require.NoError(t, db.Create(managerRole).Error)
	ana := createUser(t, s.users, partnerRole, "Ana")
	bo := createUser(t, s.users, partnerRole, "Bo")
	createUser(t, s.users, managerRole, "Manager")

	cash, err := s.ledger.CreateAccount(ctx, &service.CreateAccountRequest{
		Name: "Cash", Type: "cash", OpeningBalance: money("1000.00"),
	}, actor)
	require.NoError(t, err)
	closed, err := s.ledger.CreateAccount(ctx, &service.CreateAccountRequest{
		Name: "Closed", Type: "bank", OpeningBalance: money("500.00"),
	}, actor)
	require.NoError(t, err)
	require.NoError(t, db.Delete(&model.Account{}, "id = ?", closed.ID).Error)

	shipment, err := s.shipments.CreateShipment(ctx, &service.CreateShipmentRequest{
		Number: "SHP-001", TotalCost: money("1000.00"),
	}, actor)
	require.NoError(t, err)
	_, err = s.shipments.AddInvestment(ctx, shipment.ID, &service.AddInvestmentRequest{UserID: ana.ID, Amount: money("800.00")}, actor)
	require.NoError(t, err)
	_, err = s.shipments.AddInvestment(ctx, shipment.ID, &service.AddInvestmentRequest{UserID: bo.ID, Amount: money("200.00")}, actor)
	require.NoError(t, err)

	batch, err := s.inventory.CreateBatch(ctx, &service.CreateBatchRequest{
		ShipmentID: &shipment.ID, ProductName: "Recycled PET flakes",
		QuantityInitial: 100, PurchasePricePerUnit: money("5.00"),
	}, actor)
	require.NoError(t, err)
	assert.Equal(t, 100, batch.QuantityCurrent)

	sell := func(qty int) *model.Sale {
		sale, err := s.sales.CreateSale(ctx, &service.CreateSaleRequest{
			AccountID: cash.ID,
			Items:     []service.SaleItemRequest{{BatchID: batch.ID, Quantity: qty, PricePerUnit: money("10.00")}},
		}, actor)
		require.NoError(t, err)
		return sale
	}

	// completed: counts
	completed := sell(30)
	_, err = s.sales.CompleteSale(ctx, completed.ID, actor)
	require.NoError(t, err)

	// completed then cancelled: stock and cash restored
	reverted := sell(5)
	_, err = s.sales.CompleteSale(ctx, reverted.ID, actor)
	require.NoError(t, err)
	_, err = s.sales.CancelSale(ctx, reverted.ID, actor)
	require.NoError(t, err)

	// pending: does not count
	sell(7)

	_, err = s.inventory.RecordWriteOff(ctx, &service.CreateWriteOffRequest{
		BatchID: batch.ID, Quantity: 10, Reason: "moisture damage",
	}, actor)
	require.NoError(t, err)

	current, err := s.inventory.GetBatch(ctx, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, 60, current.QuantityCurrent)

	withdrawal, err := s.withdrawals.CreateWithdrawal(ctx, &service.CreateWithdrawalRequest{
		UserID: ana.ID, Type: model.WithdrawalCash, AmountOrQuantity: money("100.00"), AccountID: &cash.ID,
	}, actor)
	require.NoError(t, err)
	_, err = s.withdrawals.CreateWithdrawal(ctx, &service.CreateWithdrawalRequest{
		UserID: bo.ID, Type: model.WithdrawalGoods, AmountOrQuantity: money("3"), ShipmentID: &shipment.ID,
	}, actor)
	require.NoError(t, err)

	// the withdrawal's ledger entry cannot be cancelled on its own
	require.NotNil(t, withdrawal.TransactionID)
	_, err = s.ledger.CancelTransaction(ctx, *withdrawal.TransactionID, actor)
	assert.ErrorIs(t, err, service.ErrTransactionOwnedBySource)

	account, err := s.ledger.GetAccount(ctx, cash.ID)
	require.NoError(t, err)
	assert.Equal(t, "1200.00", account.Balance.StringFixed(2))

	// drift the stored quantity, then repair it twice
	require.NoError(t, db.Model(&model.Batch{}).Where("id = ?", batch.ID).Update("quantity_current", 100).Error)

	first, err := s.inventory.RecalculateInventory(ctx, actor)
	require.NoError(t, err)
	require.Equal(t, 1, first.UpdatedCount)
	assert.Equal(t, service.BatchAdjustment{
		BatchID: batch.ID, PreviousQuantity: 100, NewQuantity: 60, QuantityInitial: 100,
	}, first.UpdatedBatches[0])

	second, err := s.inventory.RecalculateInventory(ctx, actor)
	require.NoError(t, err)
	assert.Zero(t, second.UpdatedCount)

	balances, err := s.ledger.RecalculateBalances(ctx, actor)
	require.NoError(t, err)
	assert.Zero(t, balances.UpdatedCount)

	summary, err := s.equity.GetEquitySummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1200.00", summary.CashAssets.StringFixed(2))
	assert.Equal(t, "300.00", summary.InventoryAssets.StringFixed(2))
	assert.Equal(t, "1500.00", summary.TotalAssets.StringFixed(2))
	assert.Equal(t, "300.00", summary.TotalRevenue.StringFixed(2))
	assert.Equal(t, "50.00", summary.TotalExpenses.StringFixed(2))
	assert.Equal(t, "250.00", summary.NetProfit.StringFixed(2))

	require.Equal(t, 2, summary.OwnersCount)
	byID := map[uuid.UUID]service.OwnerEquity{}
	for _, o := range summary.Owners {
		byID[o.UserID] = o
	}
	a, b := byID[ana.ID], byID[bo.ID]
	assert.Equal(t, 80.0, a.Share)
	assert.Equal(t, 20.0, b.Share)
	assert.Equal(t, "200.00", a.EquityValue.StringFixed(2))
	assert.Equal(t, "100.00", a.TotalWithdrawals.StringFixed(2))
	assert.Equal(t, "100.00", a.AvailableCash.StringFixed(2))
	assert.Equal(t, "900.00", a.CurrentBalance.StringFixed(2))
	assert.Equal(t, "50.00", b.EquityValue.StringFixed(2))
	assert.Equal(t, "0.00", b.TotalWithdrawals.StringFixed(2))
}
