package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"whiteboard-backend/internal/service"
)

// statusFor maps the service error taxonomy onto HTTP statuses
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		return fiber.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrInvalidInput):
		return fiber.StatusBadRequest
	case errors.Is(err, service.ErrInvalidState):
		return fiber.StatusBadRequest
	case errors.Is(err, service.ErrConflict):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// fail writes the error envelope. Internal errors are masked; taxonomy
// errors surface their message.
func fail(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	message := err.Error()
	if status == fiber.StatusInternalServerError {
		message = "internal server error"
	}
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}

// badRequest writes a 400 envelope with a plain message
func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}

// userID reads the authenticated identity placed by the auth middleware
func userID(c *fiber.Ctx) int64 {
	id, _ := c.Locals("userID").(int64)
	return id
}
