package gemini

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/johnquangdev/lumina/internal/domain/entities"
	"github.com/johnquangdev/lumina/pkg/config"
)

const defaultModel = "gemini-3-flash-preview"

// Client is the Gemini analysis provider. Requests use schema-constrained
// JSON output; audio is sent inline followed by the instruction text.
type Client struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

// NewClient creates a Gemini provider from explicit configuration
func NewClient(ctx context.Context, cfg *config.GeminiConfig, logger *zap.Logger) (*Client, error) {
	if cfg == nil || cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}

	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	return &Client{
		client: client,
		model:  model,
		logger: logger,
	}, nil
}

// Name implements the analysis provider interface
func (c *Client) Name() string {
	return "gemini"
}

// Model returns the configured model name
func (c *Client) Model() string {
	return c.model
}

// Generate calls GenerateContent and returns the raw JSON text
func (c *Client) Generate(ctx context.Context, req *entities.GenerationRequest) (string, error) {
	contents := []*genai.Content{BuildContent(req)}

	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: req.ResponseMIMEType,
		ResponseSchema:   ConvertSchema(req.Schema),
	}

	res, err := c.client.Models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		return "", translateError(err)
	}

	if res.PromptFeedback != nil && res.PromptFeedback.BlockReason != "" {
		msg := res.PromptFeedback.BlockReasonMessage
		if msg == "" {
			msg = fmt.Sprintf("The request was blocked by the provider (%s).", res.PromptFeedback.BlockReason)
		}
		return "", entities.NewProviderError(msg, 0, nil)
	}

	text := res.Text()
	if c.logger != nil {
		c.logger.Debug("📨 Gemini response received",
			zap.String("model", c.model),
			zap.Int("response_size", len(text)),
		)
	}
	return text, nil
}

// BuildContent assembles the user turn: inline audio then the instruction,
// or the labelled transcript followed by the instruction
func BuildContent(req *entities.GenerationRequest) *genai.Content {
	var parts []*genai.Part
	if req.HasAudio() {
		parts = append(parts,
			genai.NewPartFromBytes(req.Audio, req.AudioMIMEType),
			genai.NewPartFromText(req.Instruction),
		)
	} else {
		parts = append(parts, genai.NewPartFromText(req.Transcript+"\n\n"+req.Instruction))
	}
	return genai.NewContentFromParts(parts, genai.RoleUser)
}

// ConvertSchema translates the provider-neutral schema into Gemini's dialect
func ConvertSchema(s *entities.Schema) *genai.Schema {
	if s == nil {
		return nil
	}

	out := &genai.Schema{
		Type:             convertType(s.Type),
		Description:      s.Description,
		Enum:             s.Enum,
		Required:         s.Required,
		PropertyOrdering: s.Order,
		Minimum:          s.Minimum,
		Maximum:          s.Maximum,
		Items:            ConvertSchema(s.Items),
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, p := range s.Properties {
			out.Properties[name] = ConvertSchema(p)
		}
	}
	return out
}

func convertType(t entities.SchemaType) genai.Type {
	switch t {
	case entities.SchemaObject:
		return genai.TypeObject
	case entities.SchemaArray:
		return genai.TypeArray
	case entities.SchemaNumber:
		return genai.TypeNumber
	default:
		return genai.TypeString
	}
}

// translateError maps SDK errors onto ProviderError, keeping the API message
func translateError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return entities.NewProviderError(apiMessage(apiErr), apiErr.Code, err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return entities.NewProviderError(apiMessage(*apiErrPtr), apiErrPtr.Code, err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return entities.NewProviderError("The analysis request was interrupted.", 0, err)
	}
	return entities.NewProviderError("The gemini analysis service could not be reached.", 0, err)
}

func apiMessage(e genai.APIError) string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("gemini returned status %d %s", e.Code, e.Status)
}
