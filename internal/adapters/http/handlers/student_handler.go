package handlers

import (
	"emaihl-library/internal/adapters/persistence/models"
	"emaihl-library/internal/core/services"
	"emaihl-library/internal/pkg/pagination"
	"emaihl-library/internal/pkg/response"
	"emaihl-library/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
)

// StudentHandler handles student endpoints
type StudentHandler struct {
	library   services.Library
	validator *validation.Validator
}

// NewStudentHandler creates a new student handler
func NewStudentHandler(library services.Library, v *validation.Validator) *StudentHandler {
	return &StudentHandler{library: library, validator: v}
}

// CreateStudentRequest represents the add student form
type CreateStudentRequest struct {
	Name          string `json:"name" validate:"required,max=200"`
	StudentNumber string `json:"studentNumber" validate:"required,max=50"`
	Grade         string `json:"grade" validate:"max=50"`
	Email         string `json:"email" validate:"omitempty,email"`
	Phone         string `json:"phone" validate:"max=30"`
}

// List returns the filtered student list
// @Summary List students
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param q query string false "Name or student number"
// @Param grade query string false "Grade"
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Router /api/v1/students [get]
func (h *StudentHandler) List(c *fiber.Ctx) error {
	snap := h.library.Snapshot()
	students := services.FilterStudents(snap.Students, services.StudentFilter{
		Query: c.Query("q"),
		Grade: c.Query("grade", services.StatusFilterAll),
	})

	page, meta := pagination.Slice(students, pagination.GetParams(c))
	docs := make([]*models.StudentDocument, 0, len(page))
	for _, s := range page {
		docs = append(docs, models.NewStudentDocument(s))
	}
	return response.Paginated(c, "", docs, meta)
}

// Grades returns the distinct grades for the grade filter
// @Summary List grades
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /api/v1/students/grades [get]
func (h *StudentHandler) Grades(c *fiber.Ctx) error {
	return response.Success(c, "", services.Grades(h.library.Snapshot().Students))
}

// Create registers a student
// @Summary Add student
// @Tags Students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateStudentRequest true "Student"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /api/v1/students [post]
func (h *StudentHandler) Create(c *fiber.Ctx) error {
	var req CreateStudentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.Validate(&req); err != nil {
		return handleServiceError(c, err, "Failed to add student")
	}

	student, err := h.library.AddStudent(c.UserContext(), services.StudentInput{
		Name:          req.Name,
		StudentNumber: req.StudentNumber,
		Grade:         req.Grade,
		Email:         req.Email,
		Phone:         req.Phone,
	})
	if err != nil {
		return handleServiceError(c, err, "Failed to add student")
	}

	return response.Created(c, "Student added", models.NewStudentDocument(student))
}

// Delete removes a student
// @Summary Delete student
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/students/{id} [delete]
func (h *StudentHandler) Delete(c *fiber.Ctx) error {
	if err := h.library.DeleteStudent(c.UserContext(), c.Params("id")); err != nil {
		return handleServiceError(c, err, "Failed to delete student")
	}
	return response.Success(c, "Student deleted", nil)
}
