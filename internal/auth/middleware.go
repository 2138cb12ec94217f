package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// LocalsUserID is the fiber.Locals key carrying the authenticated user id.
const LocalsUserID = "user_id"

// RequireToken creates Fiber middleware that requires a valid bearer token.
// The resolved user id is stored in the request locals.
func RequireToken(service *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := bearerToken(c)
		if raw == "" {
			return unauthorized(c)
		}

		userID, err := service.ResolveBearer(c.UserContext(), raw)
		if err != nil {
			log.Debug().Err(err).Msg("bearer token rejected")

			return unauthorized(c)
		}

		c.Locals(LocalsUserID, userID)

		return c.Next()
	}
}

// RequirePermission creates Fiber middleware that requires the named
// permission on the named resource. It must run after RequireToken.
func RequirePermission(service *Service, permission, resource string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals(LocalsUserID).(uint)
		if !ok {
			return unauthorized(c)
		}

		has, err := service.Manager().HasPermission(userID, permission, resource)
		if err != nil {
			log.Error().Err(err).Uint("user_id", userID).
				Str("permission", permission).Str("resource", resource).
				Msg("failed to check permission")

			return c.Status(fiber.StatusInternalServerError).
				JSON(fiber.Map{"message": "Internal server error"})
		}

		if !has {
			log.Warn().Uint("user_id", userID).
				Str("permission", permission).Str("resource", resource).
				Msg("user lacks required permission")

			return c.Status(fiber.StatusForbidden).
				JSON(fiber.Map{"message": "Forbidden"})
		}

		return c.Next()
	}
}

// UserIDFromContext returns the authenticated user id set by RequireToken.
func UserIDFromContext(c *fiber.Ctx) (uint, bool) {
	userID, ok := c.Locals(LocalsUserID).(uint)

	return userID, ok
}

func bearerToken(c *fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)

	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}

	return strings.TrimSpace(header[len(prefix):])
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).
		JSON(fiber.Map{"message": "Not authorized"})
}
