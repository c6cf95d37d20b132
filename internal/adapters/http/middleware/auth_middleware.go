package middleware

import (
	"errors"
	"strings"

	"emaihl-library/internal/core/services"
	"emaihl-library/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// SessionCookie is the cookie holding the session token
const SessionCookie = "session_token"

// SessionMiddleware requires a valid session token
func SessionMiddleware(sessions services.Sessions) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// 1. Try to get token from cookie first
		token := c.Cookies(SessionCookie)

		// 2. If not in cookie, try Authorization header
		if token == "" {
			authHeader := c.Get("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				token = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}

		// 3. No token found
		if token == "" {
			return response.Unauthorized(c, "Session token required")
		}

		// 4. Validate token
		sessionID, err := sessions.ValidateToken(token)
		if err != nil {
			if errors.Is(err, services.ErrTokenExpired) {
				return response.Unauthorized(c, "Session expired")
			}
			return response.Unauthorized(c, "Invalid session token")
		}

		c.Locals("sessionID", sessionID)
		return c.Next()
	}
}

// ReadyMiddleware rejects data requests until the library has loaded
func ReadyMiddleware(library services.Library) fiber.Handler {
	return func(c *fiber.Ctx) error {
		switch library.Phase() {
		case services.PhaseReady:
			return c.Next()
		case services.PhaseError:
			return response.ServiceUnavailable(c, "Library is unavailable", library.Diagnostic())
		default:
			return response.ServiceUnavailable(c, "Library is loading", nil)
		}
	}
}
