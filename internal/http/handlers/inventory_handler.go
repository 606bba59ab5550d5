package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"vendora/internal/services"
	"vendora/internal/validate"
)

type InventoryHandler struct {
	Inv *services.InventoryService
}

// Check answers "how many could I reserve right now" for one pool.
func (h *InventoryHandler) Check(c *fiber.Ctx) error {
	productID, ok := validate.ID(c.Query("productId"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "missing or invalid productId",
		})
	}
	variantID := ""
	if v := strings.TrimSpace(c.Query("variantId")); v != "" {
		if variantID, ok = validate.ID(v); !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid variantId",
			})
		}
	}

	avail, err := h.Inv.CheckAvailability(productID, variantID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(avail)
}
