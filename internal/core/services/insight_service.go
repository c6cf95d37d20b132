package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"emaihl-library/internal/core/domain"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// Insight errors
var (
	ErrNoDetection   = errors.New("no book details detected")
	ErrEmptyQuestion = errors.New("question is empty")
)

// Fixed assistant texts
const (
	AssistantGreeting = "Hello! I am the EMAIHL library assistant and I am connected to your library data. How can I help you?"
	InsightsFallback  = "The analysis is not available right now, please try again later."
	ChatFallback      = "Sorry, I cannot reach the assistant right now. Please check the API key."
	ChatEmptyReply    = "Sorry, no answer could be generated."
)

const extractionPrompt = "This is a book cover. Return the book's title, author, ISBN if present, publisher and category as JSON."

// FieldType is the JSON type of a structured output field
type FieldType string

const (
	FieldString FieldType = "string"
	FieldNumber FieldType = "number"
)

// SchemaField is one property of a structured output object
type SchemaField struct {
	Name string
	Type FieldType
}

// ResponseSchema describes the JSON object a structured generation must return
type ResponseSchema struct {
	Fields   []SchemaField
	Required []string
}

// BookDetailsSchema is the object requested from a cover photo
var BookDetailsSchema = &ResponseSchema{
	Fields: []SchemaField{
		{Name: "title", Type: FieldString},
		{Name: "author", Type: FieldString},
		{Name: "isbn", Type: FieldString},
		{Name: "publisher", Type: FieldString},
		{Name: "category", Type: FieldString},
		{Name: "pageCount", Type: FieldNumber},
	},
	Required: []string{"title"},
}

// Generator is a generative language model
type Generator interface {
	// GenerateText answers a free-text prompt
	GenerateText(ctx context.Context, prompt string) (string, error)
	// GenerateStructured answers prompt about an image with a JSON object matching schema
	GenerateStructured(ctx context.Context, prompt string, image []byte, mimeType string, schema *ResponseSchema) (string, error)
}

// BookDetails is what could be read off a book cover
type BookDetails struct {
	Title     string `json:"title"`
	Author    string `json:"author"`
	ISBN      string `json:"isbn"`
	Publisher string `json:"publisher"`
	Category  string `json:"category"`
	PageCount int    `json:"pageCount"`
}

// InsightService talks to the generative model. A nil generator makes every call take its fallback.
type InsightService struct {
	gen     Generator
	library Library
	logger  *zap.Logger
}

// NewInsightService creates a new insight service
func NewInsightService(gen Generator, library Library, logger *zap.Logger) *InsightService {
	if gen == nil {
		logger.Warn("⚠️ GEMINI_API_KEY is not set, assistant features will use fallback answers")
	}
	return &InsightService{gen: gen, library: library, logger: logger}
}

// Greeting returns the assistant's first chat message
func (s *InsightService) Greeting() string {
	return AssistantGreeting
}

// ExtractBookDetails reads book metadata from a cover photo
func (s *InsightService) ExtractBookDetails(ctx context.Context, image []byte, mimeType string) (*BookDetails, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("%w: image is required", domain.ErrInvalidInput)
	}
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	if s.gen == nil {
		return nil, ErrNoDetection
	}

	out, err := s.gen.GenerateStructured(ctx, extractionPrompt, image, mimeType, BookDetailsSchema)
	if err != nil {
		s.logger.Warn("⚠️ Book detail extraction failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrNoDetection, err)
	}

	return parseBookDetails(out)
}

func parseBookDetails(out string) (*BookDetails, error) {
	if !gjson.Valid(out) {
		return nil, fmt.Errorf("%w: model returned invalid JSON", ErrNoDetection)
	}

	res := gjson.Parse(out)
	if !res.IsObject() {
		return nil, fmt.Errorf("%w: model did not return an object", ErrNoDetection)
	}

	title := strings.TrimSpace(res.Get("title").String())
	if title == "" {
		return nil, fmt.Errorf("%w: no title found", ErrNoDetection)
	}

	details := &BookDetails{
		Title:     title,
		Author:    strings.TrimSpace(res.Get("author").String()),
		ISBN:      strings.TrimSpace(res.Get("isbn").String()),
		Publisher: strings.TrimSpace(res.Get("publisher").String()),
		Category:  strings.TrimSpace(res.Get("category").String()),
	}
	if pc := res.Get("pageCount"); pc.Exists() && pc.Int() > 0 {
		details.PageCount = int(pc.Int())
	}
	return details, nil
}

// Insights returns a short narrative about the library's current numbers
func (s *InsightService) Insights(ctx context.Context) string {
	if s.gen == nil {
		return InsightsFallback
	}

	books, students, active := s.counts()
	prompt := fmt.Sprintf(
		"Library status: %d books, %d registered students, %d books currently on loan. "+
			"Write a short, professional and encouraging analysis.",
		books, students, active,
	)

	text, err := s.gen.GenerateText(ctx, prompt)
	if err != nil || strings.TrimSpace(text) == "" {
		s.logger.Warn("⚠️ Insight generation failed", zap.Error(err))
		return InsightsFallback
	}
	return text
}

// Chat answers a librarian's question with the library statistics as context
func (s *InsightService) Chat(ctx context.Context, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", ErrEmptyQuestion
	}
	if s.gen == nil {
		return ChatFallback, nil
	}

	books, students, active := s.counts()
	prompt := fmt.Sprintf(
		"Library statistics:\n- Registered books: %d\n- Registered students: %d\n- On loan: %d\n\n"+
			"Question: %s\n\nAnswer as the EMAIHL library assistant in a kind and informative tone.",
		books, students, active, question,
	)

	text, err := s.gen.GenerateText(ctx, prompt)
	if err != nil {
		s.logger.Warn("⚠️ Chat generation failed", zap.Error(err))
		return ChatFallback, nil
	}
	if strings.TrimSpace(text) == "" {
		return ChatEmptyReply, nil
	}
	return text, nil
}

func (s *InsightService) counts() (books, students, active int) {
	snap := s.library.Snapshot()
	return len(snap.Books), len(snap.Students), CountActive(snap.Loans)
}
