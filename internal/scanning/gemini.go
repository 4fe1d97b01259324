package scanning

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Gemini implements the Scanner interface using Google Gemini.
type Gemini struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGemini creates a new Gemini Scanner instance.
func NewGemini(apiKey string, modelName string) (*Gemini, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	// Same sampling setup as the GLM backend: deterministic, bounded.
	model.SetTemperature(0.1)
	model.SetMaxOutputTokens(2048)

	return &Gemini{
		client: client,
		model:  model,
	}, nil
}

// ScanReceipt sends a payment screenshot to Gemini and extracts
// transaction fields from its reply.
func (g *Gemini) ScanReceipt(ctx context.Context, image []byte) (*Fields, error) {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	prepared, err := prepareImage(image)
	if err != nil {
		return nil, err
	}

	// genai.ImageData expects just the format suffix (e.g. "png"), not
	// the full MIME type.
	format := strings.TrimPrefix(DetectMIME(prepared), "image/")
	resp, err := g.model.GenerateContent(ctx,
		genai.ImageData(format, prepared),
		genai.Text(receiptPrompt),
	)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, ErrEmptyResponse
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}

	raw := sb.String()
	if strings.TrimSpace(raw) == "" {
		return nil, ErrEmptyResponse
	}

	return ParseFields(raw)
}

// Close closes the Gemini client
func (g *Gemini) Close() error {
	return g.client.Close()
}
