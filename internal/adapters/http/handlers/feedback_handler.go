package handlers

import (
	"time"

	"emaihl-library/internal/core/services"
	"emaihl-library/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// FeedbackHandler handles feedback endpoints
type FeedbackHandler struct {
	feedbackService *services.FeedbackService
}

// NewFeedbackHandler creates a new feedback handler
func NewFeedbackHandler(feedbackService *services.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{feedbackService: feedbackService}
}

// FeedbackResponse is a stored feedback message
type FeedbackResponse struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// Submit stores a suggestion or bug report
// @Summary Send feedback
// @Tags Feedback
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.FeedbackInput true "Feedback"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /api/v1/feedback [post]
func (h *FeedbackHandler) Submit(c *fiber.Ctx) error {
	var req services.FeedbackInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	fb, err := h.feedbackService.Submit(c.UserContext(), &req)
	if err != nil {
		return handleServiceError(c, err, "Failed to send feedback")
	}

	return response.Created(c, "Thank you for your feedback", FeedbackResponse{
		ID:        fb.ID,
		Type:      string(fb.Type),
		Message:   fb.Message,
		CreatedAt: fb.CreatedAt,
	})
}
