package handlers

import (
	"errors"

	"emaihl-library/internal/adapters/gateway"

	"github.com/gofiber/fiber/v2"
)

// GatewayHandler exposes the record gateway over HTTP
type GatewayHandler struct {
	gw gateway.Executor
}

// NewGatewayHandler creates a new gateway handler
func NewGatewayHandler(gw gateway.Executor) *GatewayHandler {
	return &GatewayHandler{gw: gw}
}

// Handle runs one gateway operation
// @Summary Record gateway
// @Description Runs find, insertOne, updateOne or deleteOne against a collection
// @Tags Gateway
// @Accept json
// @Produce json
// @Param body body gateway.Request true "Gateway envelope"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 405 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/mongo [post]
func (h *GatewayHandler) Handle(c *fiber.Ctx) error {
	if c.Method() != fiber.MethodPost {
		return c.Status(fiber.StatusMethodNotAllowed).JSON(fiber.Map{"message": "Method Not Allowed"})
	}

	var req gateway.Request
	if err := c.App().Config().JSONDecoder(c.Body(), &req); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "invalid JSON body: " + err.Error()})
	}

	if !req.Action.Valid() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid action"})
	}

	res, err := h.gw.Execute(c.UserContext(), req)
	if err != nil {
		if errors.Is(err, gateway.ErrUnknownAction) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid action"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(res.Payload())
}
