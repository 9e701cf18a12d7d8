package handler

import (
	"greencycle/internal/service"

	"github.com/gofiber/fiber/v2"
)

type WithdrawalHandler struct {
	service service.WithdrawalService
}

func NewWithdrawalHandler(s service.WithdrawalService) *WithdrawalHandler {
	return &WithdrawalHandler{service: s}
}

// CreateWithdrawal POST /api/v1/withdrawals
func (h *WithdrawalHandler) CreateWithdrawal(c *fiber.Ctx) error {
	var req service.CreateWithdrawalRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	withdrawal, err := h.service.CreateWithdrawal(c.UserContext(), &req, actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(withdrawal)
}

// GetWithdrawals GET /api/v1/withdrawals?user_id=
func (h *WithdrawalHandler) GetWithdrawals(c *fiber.Ctx) error {
	userID, err := optionalQueryID(c, "user_id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	withdrawals, err := h.service.ListWithdrawals(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(withdrawals)
}
