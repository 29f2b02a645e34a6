package handler

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/internhub_backend/internal/api/http/middleware"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report json names so clients see the field they sent
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// callerDefaulter is implemented by request bodies whose acting participant
// may be omitted and taken from the X-User-Id header instead.
type callerDefaulter interface {
	defaultCaller(id int64)
}

// bindJSON decodes and validates the body. On failure the response has
// already been written and the returned error must be passed through.
func bindJSON(c fiber.Ctx, dst any) (bool, error) {
	if err := c.Bind().JSON(dst); err != nil {
		return false, badRequest(c, "invalid request body")
	}
	if d, ok := dst.(callerDefaulter); ok {
		if id := callerID(c); id > 0 {
			d.defaultCaller(id)
		}
	}
	if err := validate.Struct(dst); err != nil {
		return false, validationFailed(c, err)
	}
	return true, nil
}

func paramID(c fiber.Ctx, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// callerID returns the identity asserted by the upstream gateway, or 0.
func callerID(c fiber.Ctx) int64 {
	id, _ := middleware.UserIDFromFiber(c)
	return id
}
