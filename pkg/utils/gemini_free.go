package utils

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// VisionClientInterface sends one prompt plus one image to a multimodal model and returns the
// model's text.
type VisionClientInterface interface {
	DescribeImage(ctx context.Context, prompt, mimeType string, image []byte) (string, error)
	Close() error
}

// ErrAnalysisNotConfigured is returned when no API key is configured for the selected provider.
var ErrAnalysisNotConfigured = errors.New("analysis provider not configured")

// GeminiVisionClient implements VisionClientInterface using Google's Gemini models
type GeminiVisionClient struct {
	client *genai.Client
	model  string
}

func NewGeminiVisionClient(ctx context.Context, apiKey, model string) (*GeminiVisionClient, error) {
	if model == "" {
		model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiVisionClient{
		client: client,
		model:  model,
	}, nil
}

func (c *GeminiVisionClient) DescribeImage(ctx context.Context, prompt, mimeType string, image []byte) (string, error) {
	m := c.client.GenerativeModel(c.model)
	m.ResponseMIMEType = "application/json"
	m.SetTemperature(0.4)
	m.SetTopP(0.95)
	m.SetTopK(40)

	// genai.ImageData wants the subtype only ("jpeg", "png").
	format := strings.TrimPrefix(mimeType, "image/")

	resp, err := m.GenerateContent(ctx, genai.Text(prompt), genai.ImageData(format, image))
	if err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no content generated by Gemini")
	}

	var out strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			out.WriteString(string(t))
		}
	}
	return out.String(), nil
}

func (c *GeminiVisionClient) Close() error {
	return c.client.Close()
}

// unconfiguredClient stands in when the provider's API key is missing so the analysis step can
// still return a configuration failure to the user.
type unconfiguredClient struct {
	message string
}

func (c unconfiguredClient) DescribeImage(context.Context, string, string, []byte) (string, error) {
	return "", fmt.Errorf("%w: %s", ErrAnalysisNotConfigured, c.message)
}

func (c unconfiguredClient) Close() error { return nil }

// NewVisionClient picks the client for provider ("gemini" or "openai").
func NewVisionClient(ctx context.Context, provider, apiKey, model string) (VisionClientInterface, error) {
	switch strings.ToLower(provider) {
	case "openai":
		if apiKey == "" {
			return unconfiguredClient{message: "Invalid or missing OpenAI API key. Please check your OPENAI_API_KEY environment variable."}, nil
		}
		return NewOpenAIVisionClient(apiKey, model), nil
	case "gemini", "":
		if apiKey == "" {
			return unconfiguredClient{message: "Invalid or missing Gemini API key. Please check your GEMINI_API_KEY environment variable."}, nil
		}
		return NewGeminiVisionClient(ctx, apiKey, model)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}
