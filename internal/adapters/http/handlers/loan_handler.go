package handlers

import (
	"emaihl-library/internal/adapters/persistence/models"
	"emaihl-library/internal/core/services"
	"emaihl-library/internal/pkg/pagination"
	"emaihl-library/internal/pkg/response"
	"emaihl-library/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
)

// LoanHandler handles loan endpoints
type LoanHandler struct {
	library   services.Library
	validator *validation.Validator
}

// NewLoanHandler creates a new loan handler
func NewLoanHandler(library services.Library, v *validation.Validator) *LoanHandler {
	return &LoanHandler{library: library, validator: v}
}

// CreateLoanRequest represents the loan form. Days defaults to 15.
type CreateLoanRequest struct {
	BookID    string `json:"bookId" validate:"required"`
	StudentID string `json:"studentId" validate:"required"`
	Days      int    `json:"days" validate:"omitempty,min=1,max=60"`
}

// LoanRowResponse is a loan with display fields
type LoanRowResponse struct {
	models.LoanDocument
	BookTitle     string `json:"bookTitle"`
	StudentName   string `json:"studentName"`
	DisplayStatus string `json:"displayStatus"`
	CanReturn     bool   `json:"canReturn"`
}

func newLoanRowResponse(row services.LoanRow) LoanRowResponse {
	return LoanRowResponse{
		LoanDocument:  *models.NewLoanDocument(row.Loan),
		BookTitle:     row.BookTitle,
		StudentName:   row.StudentName,
		DisplayStatus: string(row.DisplayStatus),
		CanReturn:     row.CanReturn,
	}
}

// List returns loans newest first
// @Summary List loans
// @Tags Loans
// @Produce json
// @Security BearerAuth
// @Param status query string false "Active, Overdue or Returned"
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Router /api/v1/loans [get]
func (h *LoanHandler) List(c *fiber.Ctx) error {
	rows := services.LoanRows(h.library.Snapshot(), h.library.Now())

	if status := c.Query("status"); status != "" && status != services.StatusFilterAll {
		filtered := rows[:0]
		for _, r := range rows {
			if string(r.DisplayStatus) == status {
				filtered = append(filtered, r)
			}
		}
		rows = filtered
	}

	page, meta := pagination.Slice(rows, pagination.GetParams(c))
	out := make([]LoanRowResponse, 0, len(page))
	for _, r := range page {
		out = append(out, newLoanRowResponse(r))
	}
	return response.Paginated(c, "", out, meta)
}

// Create lends a book to a student
// @Summary Create loan
// @Tags Loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateLoanRequest true "Loan"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/loans [post]
func (h *LoanHandler) Create(c *fiber.Ctx) error {
	var req CreateLoanRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.Validate(&req); err != nil {
		return handleServiceError(c, err, "Failed to create loan")
	}
	if req.Days == 0 {
		req.Days = services.DefaultLoanDays
	}

	loan, err := h.library.AddLoan(c.UserContext(), services.LoanInput{
		BookID:    req.BookID,
		StudentID: req.StudentID,
		Days:      req.Days,
	})
	if err != nil {
		return handleServiceError(c, err, "Failed to create loan")
	}

	return response.Created(c, "Loan created", models.NewLoanDocument(loan))
}

// Return marks a loan returned
// @Summary Return loan
// @Tags Loans
// @Produce json
// @Security BearerAuth
// @Param id path string true "Loan ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/loans/{id}/return [post]
func (h *LoanHandler) Return(c *fiber.Ctx) error {
	loan, err := h.library.ReturnLoan(c.UserContext(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err, "Failed to return loan")
	}
	return response.Success(c, "Loan returned", models.NewLoanDocument(loan))
}

// CandidateBooks searches available books for the loan form
// @Summary Search available books
// @Tags Loans
// @Produce json
// @Security BearerAuth
// @Param q query string false "Title"
// @Success 200 {object} response.Response
// @Router /api/v1/loans/candidates/books [get]
func (h *LoanHandler) CandidateBooks(c *fiber.Ctx) error {
	books := services.SearchAvailableBooks(h.library.Snapshot().Books, c.Query("q"))
	docs := make([]*models.BookDocument, 0, len(books))
	for _, b := range books {
		docs = append(docs, models.NewBookDocument(b))
	}
	return response.Success(c, "", docs)
}

// CandidateStudents searches students for the loan form
// @Summary Search students
// @Tags Loans
// @Produce json
// @Security BearerAuth
// @Param q query string false "Name"
// @Success 200 {object} response.Response
// @Router /api/v1/loans/candidates/students [get]
func (h *LoanHandler) CandidateStudents(c *fiber.Ctx) error {
	students := services.SearchStudents(h.library.Snapshot().Students, c.Query("q"))
	docs := make([]*models.StudentDocument, 0, len(students))
	for _, s := range students {
		docs = append(docs, models.NewStudentDocument(s))
	}
	return response.Success(c, "", docs)
}
