package entities

// SchemaType names a JSON schema node type
type SchemaType string

const (
	SchemaObject SchemaType = "object"
	SchemaArray  SchemaType = "array"
	SchemaString SchemaType = "string"
	SchemaNumber SchemaType = "number"
)

// Schema is a provider-neutral description of a structured response.
// Providers translate it into their own schema dialect.
type Schema struct {
	Type        SchemaType
	Description string
	Properties  map[string]*Schema
	// Order lists property names in the order they should be emitted
	Order    []string
	Items    *Schema
	Required []string
	Enum     []string
	Minimum  *float64
	Maximum  *float64
}

// JSONSchema renders the descriptor as a JSON Schema document
func (s *Schema) JSONSchema() map[string]interface{} {
	if s == nil {
		return nil
	}
	out := map[string]interface{}{"type": string(s.Type)}
	if s.Description != "" {
		out["description"] = s.Description
	}
	if len(s.Enum) > 0 {
		out["enum"] = s.Enum
	}
	if s.Minimum != nil {
		out["minimum"] = *s.Minimum
	}
	if s.Maximum != nil {
		out["maximum"] = *s.Maximum
	}
	if s.Items != nil {
		out["items"] = s.Items.JSONSchema()
	}
	if len(s.Properties) > 0 {
		props := make(map[string]interface{}, len(s.Properties))
		for name, p := range s.Properties {
			props[name] = p.JSONSchema()
		}
		out["properties"] = props
		out["additionalProperties"] = false
	}
	if len(s.Required) > 0 {
		out["required"] = s.Required
	}
	return out
}

func stringSchema(description string) *Schema {
	return &Schema{Type: SchemaString, Description: description}
}

func float64Ptr(v float64) *float64 {
	return &v
}

// MeetingAnalysisSchema describes the exact MeetingAnalysis document the
// provider must return. Every field except date is required.
func MeetingAnalysisSchema() *Schema {
	return &Schema{
		Type: SchemaObject,
		Properties: map[string]*Schema{
			"title":   stringSchema("Short descriptive title of the meeting"),
			"date":    stringSchema("Meeting date if it can be inferred"),
			"summary": stringSchema("Professional summary of the meeting"),
			"keyTakeaways": {
				Type:  SchemaArray,
				Items: stringSchema(""),
			},
			"decisions": {
				Type:  SchemaArray,
				Items: stringSchema(""),
			},
			"actionItems": {
				Type: SchemaArray,
				Items: &Schema{
					Type: SchemaObject,
					Properties: map[string]*Schema{
						"task":     stringSchema(""),
						"owner":    stringSchema(""),
						"priority": {Type: SchemaString, Enum: []string{string(PriorityHigh), string(PriorityMedium), string(PriorityLow)}},
					},
					Order:    []string{"task", "owner", "priority"},
					Required: []string{"task", "owner", "priority"},
				},
			},
			"sentimentTimeline": {
				Type: SchemaArray,
				Items: &Schema{
					Type: SchemaObject,
					Properties: map[string]*Schema{
						"time":      stringSchema("Segment marker within the meeting"),
						"sentiment": {Type: SchemaNumber, Minimum: float64Ptr(-1), Maximum: float64Ptr(1)},
						"label":     stringSchema(""),
					},
					Order:    []string{"time", "sentiment", "label"},
					Required: []string{"time", "sentiment", "label"},
				},
			},
			"deepInsights": {
				Type: SchemaArray,
				Items: &Schema{
					Type: SchemaObject,
					Properties: map[string]*Schema{
						"category":     stringSchema(""),
						"insight":      stringSchema(""),
						"evidence":     stringSchema(""),
						"significance": stringSchema(""),
					},
					Order:    []string{"category", "insight", "evidence", "significance"},
					Required: []string{"category", "insight", "evidence", "significance"},
				},
			},
			"unspokenDynamics":   stringSchema(""),
			"strategicAlignment": stringSchema(""),
		},
		Order: []string{
			"title", "date", "summary", "keyTakeaways", "decisions", "actionItems",
			"sentimentTimeline", "deepInsights", "unspokenDynamics", "strategicAlignment",
		},
		Required: []string{
			"title", "summary", "keyTakeaways", "decisions", "actionItems",
			"sentimentTimeline", "deepInsights", "unspokenDynamics", "strategicAlignment",
		},
	}
}
