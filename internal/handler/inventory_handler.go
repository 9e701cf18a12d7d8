package handler

import (
	"greencycle/internal/service"

	"github.com/gofiber/fiber/v2"
)

type InventoryHandler struct {
	service service.InventoryService
}

func NewInventoryHandler(s service.InventoryService) *InventoryHandler {
	return &InventoryHandler{service: s}
}

// CreateBatch POST /api/v1/batches
func (h *InventoryHandler) CreateBatch(c *fiber.Ctx) error {
	var req service.CreateBatchRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	batch, err := h.service.CreateBatch(c.UserContext(), &req, actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(batch)
}

// GetBatches GET /api/v1/batches?in_stock=true
func (h *InventoryHandler) GetBatches(c *fiber.Ctx) error {
	batches, err := h.service.ListBatches(c.UserContext(), c.QueryBool("in_stock", false))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(batches)
}

// GetBatch GET /api/v1/batches/:id
func (h *InventoryHandler) GetBatch(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid batch ID"})
	}

	batch, err := h.service.GetBatch(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(batch)
}

// CreateWriteOff POST /api/v1/write-offs
func (h *InventoryHandler) CreateWriteOff(c *fiber.Ctx) error {
	var req service.CreateWriteOffRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	writeOff, err := h.service.RecordWriteOff(c.UserContext(), &req, actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(writeOff)
}

// GetWriteOffs GET /api/v1/write-offs?batch_id=
func (h *InventoryHandler) GetWriteOffs(c *fiber.Ctx) error {
	batchID, err := optionalQueryID(c, "batch_id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid batch ID"})
	}

	writeOffs, err := h.service.ListWriteOffs(c.UserContext(), batchID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(writeOffs)
}

// Recalculate rebuilds current batch quantities from sales and write-offs
// POST /api/v1/inventory/recalculate
func (h *InventoryHandler) Recalculate(c *fiber.Ctx) error {
	result, err := h.service.RecalculateInventory(c.UserContext(), actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}
