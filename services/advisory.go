package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"google.golang.org/genai"
)

// Diagnosis is the structured verdict for an uploaded leaf image.
// ProductKeyword is empty when the leaf is healthy.
type Diagnosis struct {
	DiseaseName       string `json:"disease_name"`
	RemedyDescription string `json:"remedy_description"`
	ProductKeyword    string `json:"product_keyword"`
}

// AdvisoryService wraps the Gemini vision model for leaf-disease detection.
type AdvisoryService struct {
	client *genai.Client
	model  string
}

func NewAdvisoryService(ctx context.Context) (*AdvisoryService, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	model := os.Getenv("GEMINI_MODEL")
	if model == "" {
		model = "gemini-1.5-flash-latest"
	}

	return &AdvisoryService{client: client, model: model}, nil
}

const advisoryPrompt = `You are an expert agricultural botanist. Analyze this image of a plant leaf.
Respond ONLY with a single JSON object in the following format:
{
  "disease_name": "Name of the disease or 'Healthy'",
  "remedy_description": "A brief, one-sentence suggestion for treatment. If healthy, suggest a general care tip.",
  "product_keyword": "A single, generic search term for a product to treat the disease (e.g., 'fungicide', 'neem oil', 'bactericide'). If healthy, this should be empty."
}`

// DetectDisease sends the leaf image to Gemini and parses the structured verdict.
func (s *AdvisoryService) DetectDisease(ctx context.Context, imageData []byte, mimeType string) (*Diagnosis, error) {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	parts := []*genai.Part{
		genai.NewPartFromText(advisoryPrompt),
		genai.NewPartFromBytes(imageData, mimeType),
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	result, err := s.client.Models.GenerateContent(ctx, s.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("gemini generate failed: %w", err)
	}

	text := strings.TrimSpace(result.Text())
	// Some model revisions still wrap JSON output in markdown fences
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	var diagnosis Diagnosis
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &diagnosis); err != nil {
		return nil, fmt.Errorf("unexpected model response: %w", err)
	}

	return &diagnosis, nil
}
