package handlers

import (
	"context"
	"time"

	"emaihl-library/internal/config"
	"emaihl-library/internal/core/services"
	"emaihl-library/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Pinger checks a backing dependency
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health and library status endpoints
type HealthHandler struct {
	store   Pinger
	library services.Library
	cfg     *config.Config
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(store Pinger, library services.Library, cfg *config.Config) *HealthHandler {
	return &HealthHandler{store: store, library: library, cfg: cfg}
}

// Root handles root endpoint
// @Summary Root endpoint
// @Description Returns API status
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func (h *HealthHandler) Root(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "running",
		"message": "📚 EMAIHL Library API v1.0 is running",
		"mode":    h.cfg.AppMode,
		"docs":    "/swagger/index.html",
	})
}

// HealthCheck handles health check
// @Summary Health check
// @Description Check API, record store and library health
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health [get]
func (h *HealthHandler) HealthCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
	defer cancel()

	storeStatus := "healthy"
	if h.store == nil {
		storeStatus = "remote"
	} else if err := h.store.Ping(ctx); err != nil {
		storeStatus = "unhealthy"
	}

	code, overall := fiber.StatusOK, "ok"
	if storeStatus == "unhealthy" {
		code, overall = fiber.StatusServiceUnavailable, "degraded"
	}

	return c.Status(code).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{
			"api":     "healthy",
			"store":   storeStatus,
			"library": h.library.Phase(),
		},
	})
}

// APIInfo handles API v1 info
// @Summary API v1 Info
// @Description Returns API v1 information
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1 [get]
func (h *HealthHandler) APIInfo(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "EMAIHL Library API v1.0",
		"version": "1.0.0",
	})
}

// StatusResponse describes the library lifecycle
type StatusResponse struct {
	Phase      services.Phase       `json:"phase"`
	Diagnostic *services.Diagnostic `json:"diagnostic,omitempty"`
	LoadedAt   *time.Time           `json:"loadedAt,omitempty"`
}

func (h *HealthHandler) status() StatusResponse {
	res := StatusResponse{Phase: h.library.Phase(), Diagnostic: h.library.Diagnostic()}
	if res.Phase == services.PhaseReady {
		loadedAt := h.library.Snapshot().LoadedAt
		res.LoadedAt = &loadedAt
	}
	return res
}

// Status returns the library phase and, in the error phase, the diagnostic
// @Summary Library status
// @Tags Library
// @Produce json
// @Success 200 {object} response.Response
// @Router /api/v1/status [get]
func (h *HealthHandler) Status(c *fiber.Ctx) error {
	return response.Success(c, "", h.status())
}

// Reload retries the library load
// @Summary Reload library
// @Description Re-runs the configuration check and reloads every collection
// @Tags Library
// @Produce json
// @Success 200 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /api/v1/status/reload [post]
func (h *HealthHandler) Reload(c *fiber.Ctx) error {
	if err := h.library.Reload(c.UserContext()); err != nil {
		return response.ServiceUnavailable(c, "Library could not be loaded", h.status())
	}
	return response.Success(c, "Library reloaded", h.status())
}
