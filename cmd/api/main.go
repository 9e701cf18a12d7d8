package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"greencycle/internal/handler"
	"greencycle/internal/middleware"
	"greencycle/internal/model"
	"greencycle/internal/repository"
	"greencycle/internal/service"
	"greencycle/internal/ws"
	"greencycle/pkg/database"
	"greencycle/pkg/lock"
	"greencycle/pkg/logger"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logger.Get().Warn(".env file not found, using process environment")
	}
	logger.Configure()
	log := logger.Get()

	db, err := database.ConnectDB()
	if err != nil {
		log.WithError(err).Fatal("database unavailable")
	}
	// AutoMigrate keeps dev databases in step; production runs the same models
	if err := db.AutoMigrate(model.All()...); err != nil {
		log.WithError(err).Fatal("auto migrate failed")
	}

	userRepo := repository.NewUserRepo(db)
	privilegeRepo := repository.NewPrivilegeRepo(db)
	roleRepo := repository.NewRoleRepo(db)

	if err := seedDefaults(privilegeRepo, roleRepo, userRepo); err != nil {
		log.WithError(err).Warn("seeding defaults failed")
	}

	locker := lock.Connect(context.Background())

	wsHub := ws.NewHub()
	go wsHub.Run()

	accountRepo := repository.NewAccountRepo(db)
	txRepo := repository.NewTransactionRepo(db)
	shipmentRepo := repository.NewShipmentRepo(db)
	batchRepo := repository.NewBatchRepo(db)
	saleRepo := repository.NewSaleRepo(db)
	writeOffRepo := repository.NewWriteOffRepo(db)
	withdrawalRepo := repository.NewWithdrawalRepo(db)
	financeRepo := repository.NewFinanceRepo(db)
	dashboardRepo := repository.NewDashboardRepo(db)

	equityService := service.NewEquityService(financeRepo, txRepo)
	ledgerService := service.NewLedgerService(accountRepo, txRepo, db, locker, wsHub)
	shipmentService := service.NewShipmentService(shipmentRepo, userRepo, db, wsHub)
	invService := service.NewInventoryService(batchRepo, writeOffRepo, shipmentRepo, accountRepo, txRepo, db, locker, wsHub)
	saleService := service.NewSaleService(saleRepo, batchRepo, accountRepo, txRepo, db, wsHub)
	withdrawalService := service.NewWithdrawalService(withdrawalRepo, userRepo, accountRepo, shipmentRepo, txRepo, db, wsHub)
	dashService := service.NewDashboardService(dashboardRepo)
	authService := service.NewAuthService(userRepo, wsHub)
	userService := service.NewUserService(userRepo, privilegeRepo, roleRepo)

	financeHandler := handler.NewFinanceHandler(equityService)
	ledgerHandler := handler.NewLedgerHandler(ledgerService)
	shipmentHandler := handler.NewShipmentHandler(shipmentService)
	invHandler := handler.NewInventoryHandler(invService)
	saleHandler := handler.NewSaleHandler(saleService)
	withdrawalHandler := handler.NewWithdrawalHandler(withdrawalService)
	dashHandler := handler.NewDashboardHandler(dashService)
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	roleHandler := handler.NewRoleHandler(roleRepo, privilegeRepo)

	app := fiber.New(fiber.Config{
		AppName: "GreenCycle API v1.0",
	})

	app.Use(fiberlogger.New())
	app.Use(recover.New())
	app.Use(cors.New())

	api := app.Group("/api/v1")

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Post("/login", authHandler.Login)
	auth.Post("/reset-password", authHandler.ResetPassword)
	auth.Post("/validate-token", authHandler.ValidateToken)
	auth.Post("/heartbeat", middleware.RequireAuth(userRepo), authHandler.Heartbeat)

	// ============ PROTECTED ROUTES ============
	protected := api.Group("", middleware.RequireAuth(userRepo))
	priv := middleware.RequirePrivilege

	protected.Get("/dashboard/stats", dashHandler.GetDashboardStats)
	protected.Get("/dashboard/stock-movement", dashHandler.GetStockMovement)

	protected.Get("/finance/equity", priv(model.PrivFinanceView), financeHandler.GetEquity)
	protected.Get("/finance/summary", priv(model.PrivFinanceView), financeHandler.GetSummary)

	protected.Get("/accounts", priv(model.PrivAccountView), ledgerHandler.GetAccounts)
	protected.Post("/accounts", priv(model.PrivAccountCreate), ledgerHandler.CreateAccount)
	protected.Post("/accounts/recalculate", priv(model.PrivAccountRecalculate), ledgerHandler.RecalculateBalances)
	protected.Get("/accounts/:id", priv(model.PrivAccountView), ledgerHandler.GetAccount)

	protected.Get("/transactions", priv(model.PrivTransactionView), ledgerHandler.GetTransactions)
	protected.Post("/transactions", priv(model.PrivTransactionCreate), ledgerHandler.CreateTransaction)
	protected.Get("/transactions/:id", priv(model.PrivTransactionView), ledgerHandler.GetTransaction)
	protected.Post("/transactions/:id/cancel", priv(model.PrivTransactionCancel), ledgerHandler.CancelTransaction)

	protected.Get("/shipments", priv(model.PrivShipmentView), shipmentHandler.GetShipments)
	protected.Post("/shipments", priv(model.PrivShipmentCreate), shipmentHandler.CreateShipment)
	protected.Get("/shipments/:id", priv(model.PrivShipmentView), shipmentHandler.GetShipment)
	protected.Post("/shipments/:id/receive", priv(model.PrivShipmentCreate), shipmentHandler.ReceiveShipment)
	protected.Post("/shipments/:id/investments", priv(model.PrivInvestmentAdd), shipmentHandler.AddInvestment)

	protected.Get("/batches", priv(model.PrivInventoryView), invHandler.GetBatches)
	protected.Post("/batches", priv(model.PrivInventoryCreate), invHandler.CreateBatch)
	protected.Get("/batches/:id", priv(model.PrivInventoryView), invHandler.GetBatch)
	protected.Get("/write-offs", priv(model.PrivInventoryView), invHandler.GetWriteOffs)
	protected.Post("/write-offs", priv(model.PrivWriteOffCreate), invHandler.CreateWriteOff)
	protected.Post("/inventory/recalculate", priv(model.PrivInventoryRecalculate), invHandler.Recalculate)

	protected.Get("/sales", priv(model.PrivSaleView), saleHandler.GetSales)
	protected.Post("/sales", priv(model.PrivSaleCreate), saleHandler.CreateSale)
	protected.Get("/sales/:id", priv(model.PrivSaleView), saleHandler.GetSale)
	protected.Post("/sales/:id/complete", priv(model.PrivSaleUpdate), saleHandler.CompleteSale)
	protected.Post("/sales/:id/cancel", priv(model.PrivSaleUpdate), saleHandler.CancelSale)

	protected.Get("/withdrawals", priv(model.PrivWithdrawalView), withdrawalHandler.GetWithdrawals)
	protected.Post("/withdrawals", priv(model.PrivWithdrawalCreate), withdrawalHandler.CreateWithdrawal)

	protected.Get("/partners", priv(model.PrivFinanceView), userHandler.GetPartners)
	protected.Get("/users", priv(model.PrivUserView), userHandler.GetUsers)
	protected.Get("/users/:id", priv(model.PrivUserView), userHandler.GetUser)
	protected.Post("/users", priv(model.PrivUserCreate), userHandler.CreateUser)
	protected.Put("/users/:id", priv(model.PrivUserUpdate), userHandler.UpdateUser)
	protected.Delete("/users/:id", priv(model.PrivUserDelete), userHandler.DeleteUser)
	protected.Put("/users/:id/privileges", priv(model.PrivUserUpdatePrivilege), userHandler.UpdateUserPrivileges)

	protected.Get("/roles", roleHandler.GetRoles)
	protected.Get("/privileges", roleHandler.GetPrivileges)

	// WebSocket Route
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		wsHub.Register <- c
		defer func() { wsHub.Unregister <- c }()

		for {
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))

	go func() {
		port := os.Getenv("PORT")
		if port == "" {
			port = "3000"
		}
		if err := app.Listen(":" + port); err != nil {
			log.WithError(err).Panic("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.WithError(err).Fatal("Server forced to shutdown")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	log.Info("Server exited")
}
