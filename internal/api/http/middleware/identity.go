package middleware

import (
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/internhub_backend/pkg/reqctx"
)

const (
	// HeaderUserID carries the participant id asserted by the upstream
	// gateway. Authentication happens there; this service trusts it.
	HeaderUserID = "X-User-Id"
	LocalUserID  = "user_id"
)

// Identity parses X-User-Id when present. A malformed value is rejected;
// an absent one leaves the request anonymous so handlers decide whether
// they need a caller.
func Identity() fiber.Handler {
	return func(c fiber.Ctx) error {
		raw := c.Get(HeaderUserID)
		if raw == "" {
			return c.Next()
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid " + HeaderUserID})
		}

		c.Locals(LocalUserID, id)
		c.SetContext(reqctx.WithUserID(c.Context(), id))
		return c.Next()
	}
}

func UserIDFromFiber(c fiber.Ctx) (int64, bool) {
	id, ok := c.Locals(LocalUserID).(int64)
	return id, ok && id > 0
}
