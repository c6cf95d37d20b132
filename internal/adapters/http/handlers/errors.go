package handlers

import (
	"errors"

	"emaihl-library/internal/core/domain"
	"emaihl-library/internal/core/services"
	"emaihl-library/internal/pkg/response"
	"emaihl-library/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
)

// handleServiceError maps service errors onto API responses
func handleServiceError(c *fiber.Ctx, err error, fallback string) error {
	var verr *validation.Error
	if errors.As(err, &verr) {
		return response.ValidationError(c, verr.Fields)
	}

	switch {
	case errors.Is(err, services.ErrNotReady):
		return response.ServiceUnavailable(c, "Library is not ready", nil)
	case errors.Is(err, domain.ErrBookNotFound):
		return response.NotFound(c, "Book not found")
	case errors.Is(err, domain.ErrStudentNotFound):
		return response.NotFound(c, "Student not found")
	case errors.Is(err, domain.ErrLoanNotFound):
		return response.NotFound(c, "Loan not found")
	case errors.Is(err, domain.ErrBookUnavailable):
		return response.Conflict(c, "Book is already on loan")
	case errors.Is(err, domain.ErrLoanNotActive):
		return response.Conflict(c, "Loan has already been returned")
	case errors.Is(err, domain.ErrInvalidLoanPeriod):
		return response.BadRequest(c, "Loan period must be between 1 and 60 days")
	case errors.Is(err, domain.ErrInvalidInput):
		return response.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrInconsistentWrite):
		return response.InternalServerError(c, "The record store may be out of sync, please reload the library")
	}

	var cmdErr *services.CommandError
	if errors.As(err, &cmdErr) {
		return response.BadGateway(c, fallback)
	}
	return response.InternalServerError(c, fallback)
}
