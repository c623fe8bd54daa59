package httpapi

import (
	"github.com/gofiber/fiber/v3"

	"github.com/snoofz/snofbase/internal/server/auth"
)

const localsUsernameKey = "sessionUsername"

// requireSession rejects requests without a valid session cookie and stashes
// the authenticated username in the request locals for handlers downstream.
func requireSession(secret []byte) fiber.Handler {
	return func(c fiber.Ctx) error {
		token := c.Cookies(sessionCookieName)
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(result{Success: false, Message: "Not logged in"})
		}

		username, err := auth.UsernameFromToken(token, secret)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(result{Success: false, Message: "Session expired"})
		}

		c.Locals(localsUsernameKey, username)
		return c.Next()
	}
}

// sessionUsername returns the username placed by requireSession. Empty only
// if the handler was wired without the middleware, which is a routing bug.
func sessionUsername(c fiber.Ctx) string {
	if v, ok := c.Locals(localsUsernameKey).(string); ok {
		return v
	}
	return ""
}
