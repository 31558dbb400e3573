package entities

import (
	"strings"
)

// Priority is the urgency the model assigns to an action item
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// ParsePriority maps a case-insensitive priority label onto the canonical form.
// Unknown labels are returned unchanged so validation can reject them.
func ParsePriority(s string) Priority {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return PriorityHigh
	case "medium":
		return PriorityMedium
	case "low":
		return PriorityLow
	}
	return Priority(s)
}

// MeetingAnalysis is the structured result returned by the analysis provider
type MeetingAnalysis struct {
	Title              string           `json:"title"`
	Date               string           `json:"date"`
	Summary            string           `json:"summary"`
	KeyTakeaways       []string         `json:"keyTakeaways"`
	Decisions          []string         `json:"decisions"`
	ActionItems        []ActionItem     `json:"actionItems" validate:"dive"`
	SentimentTimeline  []SentimentPoint `json:"sentimentTimeline" validate:"dive"`
	DeepInsights       []DeepInsight    `json:"deepInsights" validate:"dive"`
	UnspokenDynamics   string           `json:"unspokenDynamics"`
	StrategicAlignment string           `json:"strategicAlignment"`
}

// ActionItem represents a task extracted from the meeting
type ActionItem struct {
	Task     string   `json:"task" validate:"required"`
	Owner    string   `json:"owner"`
	Priority Priority `json:"priority" validate:"required,oneof=High Medium Low"`
}

// SentimentPoint is one segment of the meeting's emotional arc.
// Sentiment ranges from -1 (negative) to 1 (positive).
type SentimentPoint struct {
	Time      string  `json:"time" validate:"required"`
	Sentiment float64 `json:"sentiment" validate:"gte=-1,lte=1"`
	Label     string  `json:"label" validate:"required"`
}

// DeepInsight is an organizational or psychological observation that is not
// explicit in the literal transcript
type DeepInsight struct {
	Category     string `json:"category" validate:"required"`
	Insight      string `json:"insight" validate:"required"`
	Evidence     string `json:"evidence"`
	Significance string `json:"significance"`
}

// NormalizePriorities rewrites every action item priority into its canonical form
func (a *MeetingAnalysis) NormalizePriorities() {
	for i := range a.ActionItems {
		a.ActionItems[i].Priority = ParsePriority(string(a.ActionItems[i].Priority))
	}
}

// AverageSentiment returns the mean sentiment across the timeline, or 0 when empty
func (a *MeetingAnalysis) AverageSentiment() float64 {
	if len(a.SentimentTimeline) == 0 {
		return 0
	}
	var total float64
	for _, p := range a.SentimentTimeline {
		total += p.Sentiment
	}
	return total / float64(len(a.SentimentTimeline))
}
