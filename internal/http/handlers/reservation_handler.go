package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	applog "vendora/internal/log"
	"vendora/internal/services"
	"vendora/internal/validate"
)

type ReservationHandler struct {
	Res *services.ReservationService
}

type createReservationReq struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id"`
	Quantity  int    `json:"quantity"`
	UserID    string `json:"user_id"`
}

type commitReservationReq struct {
	OrderID string `json:"order_id"`
}

// Create grants a hold. The holder is the user_id from the body when present,
// otherwise the caller's session cookie.
func (h *ReservationHandler) Create(c *fiber.Ctx) error {
	var req createReservationReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON body"})
	}

	productID, ok := validate.ID(req.ProductID)
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "product_id"})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid product_id"})
	}
	variantID := ""
	if strings.TrimSpace(req.VariantID) != "" {
		if variantID, ok = validate.ID(req.VariantID); !ok {
			applog.Security(c, "validation.fail", map[string]any{"field": "variant_id"})
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid variant_id"})
		}
	}

	hold := services.HoldRequest{ProductID: productID, VariantID: variantID, Quantity: req.Quantity}
	if strings.TrimSpace(req.UserID) != "" {
		uid, ok := validate.ID(req.UserID)
		if !ok {
			applog.Security(c, "validation.fail", map[string]any{"field": "user_id"})
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid user_id"})
		}
		hold.UserID = uid
	} else {
		hold.SessionID = ensureSID(c)
	}

	res, err := h.Res.Create(hold)
	if err != nil {
		return fail(c, err)
	}
	applog.Audit(c, "reservation.create", map[string]any{
		"reservation_id": res.ID, "product_id": res.ProductID, "variant_id": res.VariantID, "qty": res.Quantity,
	})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id": res.ID, "status": res.Status, "expires_at": res.ExpiresAt,
	})
}

func (h *ReservationHandler) Commit(c *fiber.Ctx) error {
	rid, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid reservation id"})
	}
	var req commitReservationReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON body"})
	}
	orderID, ok := validate.ID(req.OrderID)
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "order_id"})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid order_id"})
	}

	res, err := h.Res.Commit(rid, orderID)
	if err != nil {
		return fail(c, err)
	}
	applog.Audit(c, "reservation.commit", map[string]any{"reservation_id": rid, "order_id": orderID})
	return c.JSON(fiber.Map{"id": res.ID, "status": res.Status, "order_id": res.OrderID})
}

// Release always answers released for well-formed ids; repeating it or
// aiming it at an unknown id changes nothing.
func (h *ReservationHandler) Release(c *fiber.Ctx) error {
	rid, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid reservation id"})
	}
	if err := h.Res.Release(rid); err != nil {
		return fail(c, err)
	}
	applog.Audit(c, "reservation.release", map[string]any{"reservation_id": rid})
	return c.JSON(fiber.Map{"status": "released"})
}

// Cleanup runs one expiry pass on demand, same work the sweeper does on its
// interval.
func (h *ReservationHandler) Cleanup(c *fiber.Ctx) error {
	n, err := h.Res.Cleanup()
	if err != nil {
		return fail(c, err)
	}
	applog.Info(c, "reservation.cleanup", map[string]any{"expired": n})
	return c.JSON(fiber.Map{"expired": n})
}
