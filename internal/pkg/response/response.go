package response

import (
	"errors"

	"libraryhub/internal/core/domain"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Response represents the uniform API envelope
type Response struct {
	Status  string      `json:"status"`
	Code    int         `json:"code"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// Success sends a 200 response
func Success(c *fiber.Ctx, message string, data interface{}) error {
	return c.JSON(Response{
		Status:  StatusSuccess,
		Code:    fiber.StatusOK,
		Message: message,
		Data:    data,
	})
}

// Created sends a 201 created response
func Created(c *fiber.Ctx, message string, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(Response{
		Status:  StatusSuccess,
		Code:    fiber.StatusCreated,
		Message: message,
		Data:    data,
	})
}

// Error sends an error response
func Error(c *fiber.Ctx, statusCode int, message string) error {
	return c.Status(statusCode).JSON(Response{
		Status:  StatusError,
		Code:    statusCode,
		Message: message,
	})
}

// FromError maps err to its domain status. Anything that is not a
// domain error is logged with the request logger and reported as a bare 500.
func FromError(c *fiber.Ctx, err error) error {
	var de *domain.Error
	if errors.As(err, &de) {
		return Error(c, de.Status, de.Message)
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return Error(c, fe.Code, fe.Message)
	}
	zerolog.Ctx(c.UserContext()).Error().
		Err(err).
		Str("method", c.Method()).
		Str("path", c.Path()).
		Msg("request failed")
	return InternalServerError(c, "internal server error")
}

// BadRequest sends a 400 bad request response
func BadRequest(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusBadRequest, message)
}

// Unauthorized sends a 401 unauthorized response
func Unauthorized(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusUnauthorized, message)
}

// Forbidden sends a 403 forbidden response
func Forbidden(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusForbidden, message)
}

// NotFound sends a 404 not found response
func NotFound(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusNotFound, message)
}

// InternalServerError sends a 500 internal server error response
func InternalServerError(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusInternalServerError, message)
}
