package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"emaihl-library/internal/adapters/persistence/repositories"
	"emaihl-library/internal/core/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FeedbackService records suggestions and bug reports from the librarian
type FeedbackService struct {
	repo   repositories.FeedbackRepository
	logger *zap.Logger
}

// NewFeedbackService creates a new feedback service
func NewFeedbackService(repo repositories.FeedbackRepository, logger *zap.Logger) *FeedbackService {
	return &FeedbackService{repo: repo, logger: logger}
}

// FeedbackInput represents feedback form input
type FeedbackInput struct {
	Type    string `json:"type" validate:"required,oneof=feedback bug"`
	Message string `json:"message" validate:"required,max=2000"`
}

// Submit stores a feedback message
func (s *FeedbackService) Submit(ctx context.Context, input *FeedbackInput) (*domain.Feedback, error) {
	message := strings.TrimSpace(input.Message)
	if message == "" {
		return nil, fmt.Errorf("%w: message is required", domain.ErrInvalidInput)
	}

	fb := domain.Feedback{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Type:      domain.FeedbackType(input.Type),
		Message:   message,
		CreatedAt: time.Now(),
	}
	if fb.Type != domain.FeedbackSuggestion && fb.Type != domain.FeedbackBug {
		return nil, fmt.Errorf("%w: unknown feedback type %q", domain.ErrInvalidInput, input.Type)
	}

	if err := s.repo.SaveFeedback(ctx, fb); err != nil {
		return nil, err
	}

	s.logger.Info("📨 Feedback received", zap.String("id", fb.ID), zap.String("type", string(fb.Type)))
	return &fb, nil
}
