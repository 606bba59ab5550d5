package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"vendora/internal/domain"
	applog "vendora/internal/log"
)

// fail maps protocol errors onto HTTP statuses. Expected outcomes keep their
// message; anything unrecognized is logged and hidden behind a generic 500.
func fail(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidArgument),
		errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrMissingHolder):
		status = fiber.StatusBadRequest
	case errors.Is(err, domain.ErrProductNotFound),
		errors.Is(err, domain.ErrVariantNotFound),
		errors.Is(err, domain.ErrReservationNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, domain.ErrInsufficientStock),
		errors.Is(err, domain.ErrInvalidState):
		status = fiber.StatusConflict
	case errors.Is(err, domain.ErrReservationExpired):
		status = fiber.StatusGone
	}
	if status == fiber.StatusInternalServerError {
		applog.Error(c, "request.fail", err, nil)
		return c.Status(status).JSON(fiber.Map{"error": "something went wrong"})
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
