package scanning

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultGLMBaseURL = "https://open.bigmodel.cn/api/paas/v4"

// GLM implements the Scanner interface against Zhipu's OpenAI-style chat
// completions API.
type GLM struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// NewGLM creates a new GLM Scanner instance. An empty API key is allowed
// at construction: ScanReceipt reports ErrMissingAPIKey instead, so a
// missing credential fails uploads without taking the process down.
func NewGLM(apiKey, modelName, baseURL string) *GLM {
	if modelName == "" {
		modelName = "GLM-4.6V-Flash"
	}
	if baseURL == "" {
		baseURL = defaultGLMBaseURL
	}

	return &GLM{
		apiKey:  apiKey,
		model:   modelName,
		baseURL: baseURL,
		client: &http.Client{
			// The provider call is the only suspension point in an
			// upload. It is bounded, never retried.
			Timeout: 60 * time.Second,
		},
	}
}

// glmRequest is the chat completions request body.
type glmRequest struct {
	Model       string       `json:"model"`
	Messages    []glmMessage `json:"messages"`
	Temperature float64      `json:"temperature"`
	MaxTokens   int          `json:"max_tokens"`
}

type glmMessage struct {
	Role    string           `json:"role"`
	Content []glmContentPart `json:"content"`
}

type glmContentPart struct {
	Type     string       `json:"type"`
	Text     string       `json:"text,omitempty"`
	ImageURL *glmImageURL `json:"image_url,omitempty"`
}

type glmImageURL struct {
	URL string `json:"url"`
}

type glmResponse struct {
	Choices []struct {
		Message struct {
			Content          string `json:"content"`
			ReasoningContent string `json:"reasoning_content"`
		} `json:"message"`
	} `json:"choices"`
}

// ScanReceipt sends a payment screenshot to GLM and extracts transaction
// fields from its reply.
func (g *GLM) ScanReceipt(ctx context.Context, image []byte) (*Fields, error) {
	if g.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	prepared, err := prepareImage(image)
	if err != nil {
		return nil, err
	}

	reqBody := glmRequest{
		Model: g.model,
		Messages: []glmMessage{{
			Role: "user",
			Content: []glmContentPart{
				{Type: "text", Text: receiptPrompt},
				{Type: "image_url", ImageURL: &glmImageURL{URL: dataURI(prepared)}},
			},
		}},
		// Low temperature keeps the extraction stable; the token budget
		// leaves room for the reasoning channel on top of the JSON.
		Temperature: 0.1,
		MaxTokens:   2048,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &TransportError{Status: resp.StatusCode, Err: fmt.Errorf("%s", snapshot(string(body)))}
	}

	var chatResp glmResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, fmt.Errorf("decoding provider response: %w", err)
	}

	var raw string
	if len(chatResp.Choices) > 0 {
		msg := chatResp.Choices[0].Message
		raw = msg.Content
		// GLM-4.6V-Flash is a reasoning model; the JSON sometimes lands
		// in the reasoning channel while content comes back empty.
		if strings.TrimSpace(raw) == "" {
			raw = msg.ReasoningContent
		}
	}
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("%w, raw payload: %s", ErrEmptyResponse, snapshot(string(body)))
	}

	return ParseFields(raw)
}

// Close closes the GLM client (no-op for HTTP client)
func (g *GLM) Close() error {
	return nil
}

// dataURI wraps image bytes in the data: form the chat API expects,
// synthesizing the mime prefix from the magic bytes.
func dataURI(image []byte) string {
	return fmt.Sprintf("data:%s;base64,%s", DetectMIME(image), base64.StdEncoding.EncodeToString(image))
}
