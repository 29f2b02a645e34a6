package handler

import (
	"errors"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/internhub_backend/internal/api/http/middleware"
	"github.com/Alijeyrad/internhub_backend/pkg/apperr"
)

func ok(c fiber.Ctx, data any) error {
	return c.JSON(fiber.Map{"data": data})
}

func created(c fiber.Ctx, data any) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": data})
}

func badRequest(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": msg})
}

func unauthorized(c fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "missing or invalid " + middleware.HeaderUserID})
}

func validationFailed(c fiber.Ctx, err error) error {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return badRequest(c, "invalid request body")
	}
	fields := make(map[string]string, len(ve))
	for _, fe := range ve {
		fields[fe.Field()] = fe.Tag()
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "validation failed",
		"errors":  fields,
	})
}

// writeError maps an application error onto its status code. Internal
// errors are logged and replaced by a generic message.
func writeError(c fiber.Ctx, err error) error {
	kind := apperr.KindOf(err)
	if kind == apperr.Internal {
		rid, _ := middleware.RequestIDFromFiber(c)
		slog.ErrorContext(c.Context(), "request failed",
			"method", c.Method(),
			"path", c.Path(),
			"request_id", rid,
			"error", err,
		)
	}
	return c.Status(kind.HTTPStatus()).JSON(fiber.Map{"message": apperr.Message(err)})
}

// ErrorHandler renders errors that escape a handler, including the ones
// fiber raises itself (unknown route, oversized body).
func ErrorHandler(c fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{"message": fe.Message})
	}
	return writeError(c, err)
}
