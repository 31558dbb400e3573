package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/johnquangdev/lumina/internal/domain/entities"
	"github.com/johnquangdev/lumina/pkg/config"
)

const (
	defaultGroqBaseURL = "https://api.groq.com"
	defaultGroqModel   = "llama-3.3-70b-versatile"
)

// GroqClient is a minimal client for Groq's OpenAI-compatible chat API used
// as a transcript-only analysis provider
type GroqClient struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// NewGroqClient creates a Groq client from the provided config. Empty
// base URL and model fall back to Groq's public endpoint and default model.
func NewGroqClient(cfg config.GroqConfig) *GroqClient {
	base := cfg.BaseURL
	if base == "" {
		base = defaultGroqBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultGroqModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	return &GroqClient{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(base, "/"),
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

// ChatMessage is one message of a chat completion request
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ResponseFormat constrains the completion to a JSON schema
type ResponseFormat struct {
	Type       string      `json:"type"`
	JSONSchema *JSONSchema `json:"json_schema,omitempty"`
}

// JSONSchema names the schema sent with a ResponseFormat
type JSONSchema struct {
	Name   string                 `json:"name"`
	Schema map[string]interface{} `json:"schema"`
}

// ChatRequest is the shape for chat completion requests
type ChatRequest struct {
	Model          string          `json:"model,omitempty"`
	Messages       []ChatMessage   `json:"messages,omitempty"`
	Temperature    float64         `json:"temperature,omitempty"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

// ChatResponse is a minimal response shape
type ChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Name implements the analysis provider interface
func (g *GroqClient) Name() string {
	return "groq"
}

// Generate sends the transcript and schema to Groq and returns the assistant content.
// Audio payloads are rejected: the chat API takes text only.
func (g *GroqClient) Generate(ctx context.Context, req *entities.GenerationRequest) (string, error) {
	if req.HasAudio() {
		return "", entities.NewValidationError("The groq provider does not accept audio; paste a transcript instead.")
	}

	reqBody := ChatRequest{
		Model: g.model,
		Messages: []ChatMessage{
			{Role: "system", Content: req.Instruction},
			{Role: "user", Content: req.Transcript},
		},
		Temperature: 0.3,
		MaxTokens:   8000,
	}
	if req.Schema != nil {
		reqBody.ResponseFormat = &ResponseFormat{
			Type:       "json_schema",
			JSONSchema: &JSONSchema{Name: "meeting_analysis", Schema: req.Schema.JSONSchema()},
		}
	} else if req.ResponseMIMEType == "application/json" {
		reqBody.ResponseFormat = &ResponseFormat{Type: "json_object"}
	}

	b, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to encode groq request: %w", err)
	}

	endpoint := g.baseURL + "/openai/v1/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return "", fmt.Errorf("failed to build groq request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return "", entities.NewProviderError("The groq analysis service could not be reached.", 0, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", entities.NewProviderError("The groq response could not be read.", resp.StatusCode, err)
	}

	if resp.StatusCode >= 300 {
		msg := fmt.Sprintf("groq returned status %d", resp.StatusCode)
		var er errorResponse
		if json.Unmarshal(body, &er) == nil && er.Error.Message != "" {
			msg = er.Error.Message
		}
		return "", entities.NewProviderError(msg, resp.StatusCode, nil)
	}

	var cr ChatResponse
	if err := json.Unmarshal(body, &cr); err != nil {
		return "", entities.NewProviderError("The groq response envelope is malformed.", resp.StatusCode, err)
	}
	if len(cr.Choices) == 0 {
		return "", nil
	}
	return cr.Choices[0].Message.Content, nil
}
