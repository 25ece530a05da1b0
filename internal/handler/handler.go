package handler

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v3"

	"movie-discovery-match-service/internal/service"
	"movie-discovery-match-service/internal/validation"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// Health returns service health status.
func Health(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"service": "match-service",
	})
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case service.IsValidation(err):
		return fiber.StatusBadRequest
	case service.IsNotFound(err):
		return fiber.StatusNotFound
	case service.IsPersistence(err):
		return fiber.StatusServiceUnavailable
	case service.IsCatalog(err):
		return fiber.StatusBadGateway
	}
	return fiber.StatusInternalServerError
}

// writeError renders err as an ErrorResponse. Server-side failures are
// logged and their details are not echoed to the client.
func writeError(c fiber.Ctx, op string, err error) error {
	code := statusFor(err)
	msg := err.Error()
	switch code {
	case fiber.StatusInternalServerError:
		slog.Error(op+" failed", "error", err)
		msg = "internal error"
	case fiber.StatusServiceUnavailable:
		slog.Error(op+" failed", "error", err)
		msg = "storage unavailable, try again later"
	case fiber.StatusBadGateway:
		slog.Error(op+" failed", "error", err)
		msg = "catalog unavailable, try again later"
	}
	return c.Status(code).JSON(ErrorResponse{Error: msg})
}

// ErrorHandler is the Fiber error handler for the service.
func ErrorHandler(c fiber.Ctx, err error) error {
	return writeError(c, c.Method()+" "+c.Path(), err)
}

// bindJSON decodes and validates the request body into out. Failures are
// returned as 400 fiber errors.
func bindJSON(c fiber.Ctx, out any) error {
	if err := c.Bind().JSON(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validation.Struct(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return nil
}
