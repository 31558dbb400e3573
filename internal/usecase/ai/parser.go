package ai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/johnquangdev/lumina/internal/domain/entities"
	"github.com/johnquangdev/lumina/pkg/validator"
)

// requiredFields must be present and non-null in every provider response
var requiredFields = []string{
	"title",
	"summary",
	"keyTakeaways",
	"decisions",
	"actionItems",
	"sentimentTimeline",
	"deepInsights",
	"unspokenDynamics",
	"strategicAlignment",
}

// Parser handles parsing and validation of provider responses
type Parser struct {
	validator *validator.CustomValidator
}

// NewParser creates a new Parser instance
func NewParser() *Parser {
	return &Parser{validator: validator.New()}
}

// Parse turns a raw provider body into a fully validated MeetingAnalysis.
// Empty or non-JSON bodies fail with SchemaError; a JSON document that omits a
// required field or violates an element constraint fails with ValidationError.
func (p *Parser) Parse(raw string) (*entities.MeetingAnalysis, error) {
	body := extractJSON(raw)
	if body == "" {
		return nil, entities.NewSchemaError("The analysis service returned an empty response.", nil)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &fields); err != nil {
		return nil, entities.NewSchemaError("The analysis service returned a response that is not valid JSON.", err)
	}

	var missing []string
	for _, name := range requiredFields {
		v, ok := fields[name]
		if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, entities.NewValidationError(fmt.Sprintf("The analysis is missing required fields: %s.", strings.Join(missing, ", ")))
	}

	var analysis entities.MeetingAnalysis
	if err := json.Unmarshal([]byte(body), &analysis); err != nil {
		return nil, entities.NewSchemaError("The analysis response does not match the expected structure.", err)
	}

	analysis.NormalizePriorities()

	if err := p.validator.Validate(&analysis); err != nil {
		return nil, entities.NewValidationError(fmt.Sprintf("The analysis failed validation: %s.", validator.Describe(err)))
	}

	return &analysis, nil
}

// extractJSON extracts JSON content from markdown code blocks or plain text
func extractJSON(content string) string {
	content = strings.TrimSpace(content)

	// Check if wrapped in markdown code block
	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
		if idx := strings.LastIndex(content, "```"); idx != -1 {
			content = content[:idx]
		}
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
		if idx := strings.LastIndex(content, "```"); idx != -1 {
			content = content[:idx]
		}
	}

	return strings.TrimSpace(content)
}
