package handlers

import (
	"encoding/base64"
	"errors"
	"io"
	"strings"

	"emaihl-library/internal/adapters/persistence/models"
	"emaihl-library/internal/core/services"
	"emaihl-library/internal/pkg/pagination"
	"emaihl-library/internal/pkg/response"
	"emaihl-library/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
)

// BookHandler handles book endpoints
type BookHandler struct {
	library   services.Library
	assistant services.Assistant
	validator *validation.Validator
}

// NewBookHandler creates a new book handler
func NewBookHandler(library services.Library, assistant services.Assistant, v *validation.Validator) *BookHandler {
	return &BookHandler{library: library, assistant: assistant, validator: v}
}

// CreateBookRequest represents the add book form
type CreateBookRequest struct {
	Title     string `json:"title" validate:"required,max=300"`
	Author    string `json:"author" validate:"max=200"`
	ISBN      string `json:"isbn" validate:"max=32"`
	Category  string `json:"category" validate:"max=100"`
	Publisher string `json:"publisher" validate:"max=200"`
	PageCount int    `json:"pageCount" validate:"gte=0,lte=100000"`
}

// ScanBookRequest carries a base64 cover photo when not sent as multipart
type ScanBookRequest struct {
	Image    string `json:"image" validate:"required"`
	MimeType string `json:"mimeType"`
}

// List returns the filtered book list
// @Summary List books
// @Tags Books
// @Produce json
// @Security BearerAuth
// @Param q query string false "Title or author"
// @Param status query string false "All, Available or Loaned"
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Router /api/v1/books [get]
func (h *BookHandler) List(c *fiber.Ctx) error {
	snap := h.library.Snapshot()
	books := services.FilterBooks(snap.Books, services.BookFilter{
		Query:  c.Query("q"),
		Status: c.Query("status", services.StatusFilterAll),
	})

	page, meta := pagination.Slice(books, pagination.GetParams(c))
	docs := make([]*models.BookDocument, 0, len(page))
	for _, b := range page {
		docs = append(docs, models.NewBookDocument(b))
	}
	return response.Paginated(c, "", docs, meta)
}

// Create adds a book
// @Summary Add book
// @Description Missing author, ISBN, category and publisher get default values
// @Tags Books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateBookRequest true "Book"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 502 {object} response.Response
// @Router /api/v1/books [post]
func (h *BookHandler) Create(c *fiber.Ctx) error {
	var req CreateBookRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	req.Title = strings.TrimSpace(req.Title)
	if err := h.validator.Validate(&req); err != nil {
		return handleServiceError(c, err, "Failed to add book")
	}

	book, err := h.library.AddBook(c.UserContext(), services.BookInput{
		Title:     req.Title,
		Author:    req.Author,
		ISBN:      req.ISBN,
		Category:  req.Category,
		Publisher: req.Publisher,
		PageCount: req.PageCount,
	})
	if err != nil {
		return handleServiceError(c, err, "Failed to add book")
	}

	return response.Created(c, "Book added", models.NewBookDocument(book))
}

// Delete removes a book
// @Summary Delete book
// @Tags Books
// @Produce json
// @Security BearerAuth
// @Param id path string true "Book ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/books/{id} [delete]
func (h *BookHandler) Delete(c *fiber.Ctx) error {
	if err := h.library.DeleteBook(c.UserContext(), c.Params("id")); err != nil {
		return handleServiceError(c, err, "Failed to delete book")
	}
	return response.Success(c, "Book deleted", nil)
}

// Scan reads book details from a cover photo
// @Summary Scan book cover
// @Description Accepts a multipart "image" file or a JSON body with a base64 image
// @Tags Books
// @Accept mpfd,json
// @Produce json
// @Security BearerAuth
// @Param image formData file false "Cover photo"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /api/v1/books/scan [post]
func (h *BookHandler) Scan(c *fiber.Ctx) error {
	image, mimeType, err := h.readImage(c)
	if err != nil {
		return response.BadRequest(c, err.Error())
	}

	details, err := h.assistant.ExtractBookDetails(c.UserContext(), image, mimeType)
	if err != nil {
		if errors.Is(err, services.ErrNoDetection) {
			return response.UnprocessableEntity(c, "No book details could be read from the photo. Try again in better light.")
		}
		return handleServiceError(c, err, "Failed to scan book")
	}

	return response.Success(c, "Book details detected", details)
}

func (h *BookHandler) readImage(c *fiber.Ctx) ([]byte, string, error) {
	if fh, err := c.FormFile("image"); err == nil {
		f, err := fh.Open()
		if err != nil {
			return nil, "", errors.New("Could not read uploaded image")
		}
		defer f.Close()

		data, err := io.ReadAll(f)
		if err != nil {
			return nil, "", errors.New("Could not read uploaded image")
		}
		return data, fh.Header.Get("Content-Type"), nil
	}

	var req ScanBookRequest
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.Image) == "" {
		return nil, "", errors.New("Image is required")
	}

	// Accept data URLs as produced by canvas.toDataURL
	raw := req.Image
	if i := strings.Index(raw, ";base64,"); strings.HasPrefix(raw, "data:") && i > 0 {
		if req.MimeType == "" {
			req.MimeType = raw[len("data:"):i]
		}
		raw = raw[i+len(";base64,"):]
	}

	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, "", errors.New("Image must be base64 encoded")
	}
	return data, req.MimeType, nil
}
