package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	applog "vendora/internal/log"
	"vendora/internal/repos"
	"vendora/internal/services"
	"vendora/internal/validate"
)

type OrderHandler struct {
	Order *services.OrderService
	Repo  *repos.OrderRepo
}

type checkoutReq struct {
	ReservationID string `json:"reservation_id"`
	UserID        string `json:"user_id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
}

// Place checks out a single hold into an order.
func (h *OrderHandler) Place(c *fiber.Ctx) error {
	sid := ensureSID(c)

	var req checkoutReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON body"})
	}
	rid, ok := validate.ID(req.ReservationID)
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "reservation_id"})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid reservation_id"})
	}
	email, ok := validate.Email(req.Email)
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "email"})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid email"})
	}
	name, ok := validate.Name(req.Name)
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "name"})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name must be 1-20 characters"})
	}
	uid := ""
	if strings.TrimSpace(req.UserID) != "" {
		if uid, ok = validate.ID(req.UserID); !ok {
			applog.Security(c, "validation.fail", map[string]any{"field": "user_id"})
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid user_id"})
		}
	}

	orderID, err := h.Order.Place(rid, uid, sid, services.Contact{Name: name, Email: email})
	if err != nil {
		applog.Info(c, "order.place.fail", map[string]any{"reservation_id": rid, "error": err.Error()})
		return fail(c, err)
	}
	applog.Audit(c, "order.place", map[string]any{"order_id": orderID, "reservation_id": rid})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"order_id": orderID, "status": "PLACED"})
}

// View shows an order to its holder only; everyone else sees not-found.
func (h *OrderHandler) View(c *fiber.Ctx) error {
	oid, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid order id"})
	}
	o, err := h.Repo.Get(oid)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "order not found"})
	}

	sid := c.Cookies("sid")
	uid := strings.TrimSpace(c.Query("user_id"))
	if !(sid != "" && sid == o.SessionID) && !(uid != "" && uid == o.UserID) {
		applog.Security(c, "access.denied.order", map[string]any{"order_id": oid})
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "order not found"})
	}
	return c.JSON(o)
}
