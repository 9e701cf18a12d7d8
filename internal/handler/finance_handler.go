package handler

import (
	"time"

	"greencycle/internal/service"

	"github.com/gofiber/fiber/v2"
)

type FinanceHandler struct {
	service service.EquityService
}

func NewFinanceHandler(s service.EquityService) *FinanceHandler {
	return &FinanceHandler{service: s}
}

// GetEquity returns company assets and every partner's equity position
// GET /api/v1/finance/equity
func (h *FinanceHandler) GetEquity(c *fiber.Ctx) error {
	summary, err := h.service.GetEquitySummary(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(summary)
}

// periodStart resolves the range query parameter. Unknown values fall back to 7d.
func periodStart(rangeParam string, now time.Time) time.Time {
	switch rangeParam {
	case "1m":
		return now.AddDate(0, -1, 0)
	case "3m":
		return now.AddDate(0, -3, 0)
	case "6m":
		return now.AddDate(0, -6, 0)
	case "12m":
		return now.AddDate(0, -12, 0)
	default:
		return now.AddDate(0, 0, -7)
	}
}

// GetSummary returns revenue and expenses for a trailing period
// GET /api/v1/finance/summary?range=7d|1m|3m|6m|12m
func (h *FinanceHandler) GetSummary(c *fiber.Ctx) error {
	now := time.Now()
	summary, err := h.service.GetPeriodSummary(c.UserContext(), periodStart(c.Query("range", "7d"), now), now)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(summary)
}
