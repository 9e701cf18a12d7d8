package handler

import (
	"errors"

	"greencycle/internal/model"
	"greencycle/internal/service"
	"greencycle/pkg/jwt"
	"greencycle/pkg/logger"
	"greencycle/pkg/validator"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

var notFoundErrors = []error{
	service.ErrAccountNotFound,
	service.ErrTransactionNotFound,
	service.ErrShipmentNotFound,
	service.ErrBatchNotFound,
	service.ErrSaleNotFound,
	service.ErrUserNotFound,
	service.ErrRoleNotFound,
}

var unauthorizedErrors = []error{
	service.ErrInvalidCredentials,
	service.ErrUserInactive,
	service.ErrSessionTimeout,
	service.ErrSessionReplaced,
	jwt.ErrInvalidToken,
	jwt.ErrMissingToken,
}

var badRequestErrors = []error{
	service.ErrWrongPassword,
	validator.ErrValidation,
	service.ErrTransactionAlreadyCancelled,
	service.ErrTransactionTypeNotManual,
	service.ErrTransactionOwnedBySource,
	service.ErrInvalidDirection,
	service.ErrInsufficientFunds,
	service.ErrShipmentNumberExists,
	service.ErrShipmentAlreadyReceived,
	service.ErrNotPartner,
	service.ErrInvalidPercentage,
	service.ErrInvestmentPercentageExceeded,
	service.ErrInvestmentAmountExceeded,
	service.ErrInsufficientStock,
	service.ErrInvalidSaleStatus,
	service.ErrWithdrawalAccountRequired,
	service.ErrWithdrawalShipmentRequired,
	service.ErrEmailExists,
	service.ErrDeleteSelf,
}

// statusFor maps a service error to its HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrFinanceUnavailable):
		return fiber.StatusServiceUnavailable
	case errors.Is(err, service.ErrRecalculationInProgress):
		return fiber.StatusConflict
	case errors.Is(err, service.ErrMalformedDecimal):
		return fiber.StatusInternalServerError
	}
	for _, target := range unauthorizedErrors {
		if errors.Is(err, target) {
			return fiber.StatusUnauthorized
		}
	}
	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			return fiber.StatusNotFound
		}
	}
	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			return fiber.StatusBadRequest
		}
	}
	return fiber.StatusInternalServerError
}

func respondError(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	switch status {
	case fiber.StatusInternalServerError:
		logger.LogError("handler", c.Route().Path, c.Method(), nil, err)
		return c.Status(status).JSON(fiber.Map{"error": "Internal server error"})
	case fiber.StatusServiceUnavailable:
		logger.LogError("handler", c.Route().Path, c.Method(), nil, err)
		return c.Status(status).JSON(fiber.Map{"error": service.ErrFinanceUnavailable.Error()})
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

// actorFrom builds the acting user from the values RequireAuth stored
func actorFrom(c *fiber.Ctx) model.Actor {
	id, _ := c.Locals("user_id").(string)
	if id == "" {
		return model.SystemActor
	}
	name, _ := c.Locals("user_name").(string)
	email, _ := c.Locals("user_email").(string)
	return model.Actor{UserID: id, Name: name, Email: email}
}

func paramID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	return uuid.Parse(c.Params(name))
}

// optionalQueryID parses an optional uuid query parameter
func optionalQueryID(c *fiber.Ctx, name string) (*uuid.UUID, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
