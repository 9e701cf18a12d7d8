package handler

import (
	"greencycle/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ShipmentHandler struct {
	service service.ShipmentService
}

func NewShipmentHandler(s service.ShipmentService) *ShipmentHandler {
	return &ShipmentHandler{service: s}
}

// CreateShipment POST /api/v1/shipments
func (h *ShipmentHandler) CreateShipment(c *fiber.Ctx) error {
	var req service.CreateShipmentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	shipment, err := h.service.CreateShipment(c.UserContext(), &req, actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(shipment)
}

// GetShipments GET /api/v1/shipments
func (h *ShipmentHandler) GetShipments(c *fiber.Ctx) error {
	shipments, err := h.service.ListShipments(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(shipments)
}

// GetShipment GET /api/v1/shipments/:id
func (h *ShipmentHandler) GetShipment(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid shipment ID"})
	}

	shipment, err := h.service.GetShipment(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(shipment)
}

// ReceiveShipment POST /api/v1/shipments/:id/receive
func (h *ShipmentHandler) ReceiveShipment(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid shipment ID"})
	}

	shipment, err := h.service.ReceiveShipment(c.UserContext(), id, actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(shipment)
}

// AddInvestment POST /api/v1/shipments/:id/investments
func (h *ShipmentHandler) AddInvestment(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid shipment ID"})
	}

	var req service.AddInvestmentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	investment, err := h.service.AddInvestment(c.UserContext(), id, &req, actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(investment)
}
