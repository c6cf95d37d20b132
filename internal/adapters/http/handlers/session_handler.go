package handlers

import (
	"errors"
	"time"

	"emaihl-library/internal/adapters/http/middleware"
	"emaihl-library/internal/config"
	"emaihl-library/internal/core/services"
	"emaihl-library/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// SessionHandler handles the passphrase gate
type SessionHandler struct {
	sessions services.Sessions
	cfg      *config.Config
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions services.Sessions, cfg *config.Config) *SessionHandler {
	return &SessionHandler{sessions: sessions, cfg: cfg}
}

// LoginRequest represents the passphrase form
type LoginRequest struct {
	Passphrase string `json:"passphrase"`
}

// Login exchanges the passphrase for a session
// @Summary Unlock the dashboard
// @Tags Session
// @Accept json
// @Produce json
// @Param body body LoginRequest true "Passphrase"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /api/v1/session [post]
func (h *SessionHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	session, err := h.sessions.Login(c.UserContext(), req.Passphrase)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			return response.Unauthorized(c, "Wrong passphrase")
		}
		return response.InternalServerError(c, "Failed to start session")
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HTTPOnly: true,
		Secure:   h.cfg.IsProd(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	return response.Success(c, "Welcome", session)
}

// Logout clears the session cookie
// @Summary Lock the dashboard
// @Tags Session
// @Produce json
// @Success 200 {object} response.Response
// @Router /api/v1/session/logout [post]
func (h *SessionHandler) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   h.cfg.IsProd(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return response.Success(c, "Logged out", nil)
}
