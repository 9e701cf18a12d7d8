package handler

import (
	"greencycle/internal/model"
	"greencycle/internal/repository"
	"greencycle/internal/service"

	"github.com/gofiber/fiber/v2"
)

type LedgerHandler struct {
	service service.LedgerService
}

func NewLedgerHandler(s service.LedgerService) *LedgerHandler {
	return &LedgerHandler{service: s}
}

// CreateAccount POST /api/v1/accounts
func (h *LedgerHandler) CreateAccount(c *fiber.Ctx) error {
	var req service.CreateAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	account, err := h.service.CreateAccount(c.UserContext(), &req, actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(account)
}

// GetAccounts GET /api/v1/accounts
func (h *LedgerHandler) GetAccounts(c *fiber.Ctx) error {
	accounts, err := h.service.ListAccounts(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(accounts)
}

// GetAccount GET /api/v1/accounts/:id
func (h *LedgerHandler) GetAccount(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid account ID"})
	}

	account, err := h.service.GetAccount(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(account)
}

// RecalculateBalances rebuilds every cached account balance from the ledger
// POST /api/v1/accounts/recalculate
func (h *LedgerHandler) RecalculateBalances(c *fiber.Ctx) error {
	result, err := h.service.RecalculateBalances(c.UserContext(), actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// CreateTransaction POST /api/v1/transactions
func (h *LedgerHandler) CreateTransaction(c *fiber.Ctx) error {
	var req service.CreateTransactionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	t, err := h.service.RecordTransaction(c.UserContext(), &req, actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(t)
}

// GetTransactions GET /api/v1/transactions?account_id=&type=&include_cancelled=true
func (h *LedgerHandler) GetTransactions(c *fiber.Ctx) error {
	accountID, err := optionalQueryID(c, "account_id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid account ID"})
	}

	filter := repository.TransactionFilter{
		AccountID:        accountID,
		Type:             model.TransactionType(c.Query("type")),
		IncludeCancelled: c.QueryBool("include_cancelled", false),
	}
	transactions, err := h.service.ListTransactions(c.UserContext(), filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(transactions)
}

// GetTransaction GET /api/v1/transactions/:id
func (h *LedgerHandler) GetTransaction(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid transaction ID"})
	}

	t, err := h.service.GetTransaction(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(t)
}

// CancelTransaction POST /api/v1/transactions/:id/cancel
func (h *LedgerHandler) CancelTransaction(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid transaction ID"})
	}

	t, err := h.service.CancelTransaction(c.UserContext(), id, actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(t)
}
