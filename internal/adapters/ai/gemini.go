// Package ai implements the insight service's Generator on the Gemini API.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"emaihl-library/internal/core/services"
	"emaihl-library/internal/pkg/metrics"

	"google.golang.org/genai"
)

// ErrEmptyResponse is returned when the model answers without any text
var ErrEmptyResponse = errors.New("model returned an empty response")

// GeminiGenerator generates text with a Gemini model
type GeminiGenerator struct {
	models *genai.Models
	model  string
}

// NewGeminiGenerator creates a Gemini client for apiKey
func NewGeminiGenerator(ctx context.Context, apiKey, model string) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiGenerator{models: client.Models, model: model}, nil
}

// GenerateText answers a free-text prompt
func (g *GeminiGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	text, err := responseText(resp, err)
	metrics.RecordAICall("text", err)
	return text, err
}

// GenerateStructured answers a prompt about an image with JSON matching schema
func (g *GeminiGenerator) GenerateStructured(ctx context.Context, prompt string, image []byte, mimeType string, schema *services.ResponseSchema) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(image, mimeType),
			genai.NewPartFromText(prompt),
		}, genai.RoleUser),
	}
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   toSchema(schema),
	}

	resp, err := g.models.GenerateContent(ctx, g.model, contents, cfg)
	text, err := responseText(resp, err)
	metrics.RecordAICall("structured", err)
	return text, err
}

func responseText(resp *genai.GenerateContentResponse, err error) (string, error) {
	if err != nil {
		return "", err
	}
	if resp == nil {
		return "", ErrEmptyResponse
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// toSchema converts a response schema into Gemini's schema type
func toSchema(s *services.ResponseSchema) *genai.Schema {
	if s == nil {
		return nil
	}

	props := make(map[string]*genai.Schema, len(s.Fields))
	order := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		t := genai.TypeString
		if f.Type == services.FieldNumber {
			t = genai.TypeNumber
		}
		props[f.Name] = &genai.Schema{Type: t}
		order = append(order, f.Name)
	}

	return &genai.Schema{
		Type:             genai.TypeObject,
		Properties:       props,
		PropertyOrdering: order,
		Required:         s.Required,
	}
}
