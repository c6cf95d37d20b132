package handlers

import (
	"errors"

	"emaihl-library/internal/core/services"
	"emaihl-library/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AssistantHandler handles the library assistant endpoints
type AssistantHandler struct {
	assistant services.Assistant
}

// NewAssistantHandler creates a new assistant handler
func NewAssistantHandler(assistant services.Assistant) *AssistantHandler {
	return &AssistantHandler{assistant: assistant}
}

// ChatRequest represents a question to the assistant
type ChatRequest struct {
	Message string `json:"message"`
}

// Greeting returns the assistant's opening message
// @Summary Assistant greeting
// @Tags Assistant
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /api/v1/assistant/greeting [get]
func (h *AssistantHandler) Greeting(c *fiber.Ctx) error {
	return response.Success(c, "", fiber.Map{"reply": h.assistant.Greeting()})
}

// Insights returns a short analysis of the library's numbers
// @Summary Library insights
// @Description Falls back to a fixed message when the assistant is unavailable
// @Tags Assistant
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /api/v1/assistant/insights [get]
func (h *AssistantHandler) Insights(c *fiber.Ctx) error {
	return response.Success(c, "", fiber.Map{"insight": h.assistant.Insights(c.UserContext())})
}

// Chat answers a question
// @Summary Ask the assistant
// @Tags Assistant
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body ChatRequest true "Question"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /api/v1/assistant/chat [post]
func (h *AssistantHandler) Chat(c *fiber.Ctx) error {
	var req ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	reply, err := h.assistant.Chat(c.UserContext(), req.Message)
	if err != nil {
		if errors.Is(err, services.ErrEmptyQuestion) {
			return response.BadRequest(c, "Message is required")
		}
		return handleServiceError(c, err, "Failed to answer")
	}

	return response.Success(c, "", fiber.Map{"reply": reply})
}
