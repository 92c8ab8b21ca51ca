package serverutils

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// ErrorJSON writes the wire error shape used across the whole API.
func ErrorJSON(ctx *fiber.Ctx, status int, message string) error {
	return ctx.Status(status).JSON(fiber.Map{"error": message})
}

// ErrorHandlerMiddleware catches errors that escape a handler so one bad
// request never takes down the process or leaks internals to the client.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ErrorJSON(ctx, fiberErr.Code, fiberErr.Message)
		}
		return ErrorJSON(ctx, fiber.StatusInternalServerError, "Internal server error")
	}
}
