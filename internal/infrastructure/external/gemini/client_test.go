package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"google.golang.org/genai"

	"github.com/johnquangdev/lumina/internal/domain/entities"
	"github.com/johnquangdev/lumina/pkg/config"
)

func TestConvertSchema(t *testing.T) {
	s := ConvertSchema(entities.MeetingAnalysisSchema())

	if s.Type != genai.TypeObject {
		t.Fatalf("expected object, got %s", s.Type)
	}
	if len(s.Required) != 9 {
		t.Fatalf("expected 9 required fields, got %v", s.Required)
	}
	for _, f := range s.Required {
		if f == "date" {
			t.Fatal("date must stay optional")
		}
	}
	if len(s.PropertyOrdering) != 10 || s.PropertyOrdering[0] != "title" {
		t.Fatalf("unexpected ordering %v", s.PropertyOrdering)
	}

	items := s.Properties["actionItems"]
	if items.Type != genai.TypeArray || items.Items.Type != genai.TypeObject {
		t.Fatalf("actionItems not an array of objects")
	}
	priority := items.Items.Properties["priority"]
	if strings.Join(priority.Enum, ",") != "High,Medium,Low" {
		t.Fatalf("unexpected priority enum %v", priority.Enum)
	}

	sentiment := s.Properties["sentimentTimeline"].Items.Properties["sentiment"]
	if sentiment.Type != genai.TypeNumber || *sentiment.Minimum != -1 || *sentiment.Maximum != 1 {
		t.Fatalf("unexpected sentiment schema %+v", sentiment)
	}
	if ConvertSchema(nil) != nil {
		t.Fatal("nil schema should convert to nil")
	}
}

func TestBuildContent(t *testing.T) {
	audio := &entities.GenerationRequest{Instruction: "analyze", Audio: []byte{1, 2, 3}, AudioMIMEType: "audio/mp4"}
	c := BuildContent(audio)
	if c.Role != genai.RoleUser || len(c.Parts) != 2 {
		t.Fatalf("unexpected audio content %+v", c)
	}
	if c.Parts[0].InlineData == nil || c.Parts[0].InlineData.MIMEType != "audio/mp4" {
		t.Fatal("audio must be the first, inline part")
	}
	if c.Parts[1].Text != "analyze" {
		t.Fatalf("instruction must follow the audio, got %q", c.Parts[1].Text)
	}

	text := &entities.GenerationRequest{Instruction: "analyze", Transcript: "Meeting Transcript: hi"}
	c = BuildContent(text)
	if len(c.Parts) != 1 || c.Parts[0].Text != "Meeting Transcript: hi\n\nanalyze" {
		t.Fatalf("unexpected transcript content %+v", c.Parts)
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	c, err := NewClient(context.Background(), &config.GeminiConfig{APIKey: "test-key", Model: "test-model", BaseURL: ts.URL}, nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestGenerate_Success(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "models/test-model:generateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("invalid body: %v", err)
		}
		if _, ok := body["contents"]; !ok {
			t.Errorf("contents missing from request")
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []map[string]interface{}{{
				"content": map[string]interface{}{
					"role":  "model",
					"parts": []map[string]string{{"text": `{"title":"Sync"}`}},
				},
				"finishReason": "STOP",
			}},
		})
	})

	req := &entities.GenerationRequest{
		Instruction:      "analyze",
		Transcript:       "Meeting Transcript: hi",
		ResponseMIMEType: "application/json",
		Schema:           entities.MeetingAnalysisSchema(),
	}
	out, err := c.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if out != `{"title":"Sync"}` {
		t.Fatalf("unexpected text %q", out)
	}
}

func TestGenerate_APIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":400,"message":"API key not valid. Please pass a valid API key.","status":"INVALID_ARGUMENT"}}`))
	})

	_, err := c.Generate(context.Background(), &entities.GenerationRequest{Instruction: "x", Transcript: "y"})
	if !errors.Is(err, entities.ErrProvider) {
		t.Fatalf("expected provider error, got %v", err)
	}
	ae, _ := entities.AsAnalysisError(err)
	if ae.StatusCode != http.StatusBadRequest || !strings.Contains(ae.Message, "API key not valid") {
		t.Fatalf("provider message lost: %+v", ae)
	}
}

func TestTranslateError(t *testing.T) {
	err := translateError(genai.APIError{Code: 503, Status: "UNAVAILABLE"})
	ae, ok := entities.AsAnalysisError(err)
	if !ok || ae.StatusCode != 503 || ae.Message != "gemini returned status 503 UNAVAILABLE" || !ae.Retryable() {
		t.Fatalf("unexpected translation %+v", ae)
	}

	err = translateError(&genai.APIError{Code: 429, Message: "Resource exhausted"})
	ae, _ = entities.AsAnalysisError(err)
	if ae.StatusCode != 429 || ae.Message != "Resource exhausted" {
		t.Fatalf("pointer api error not unwrapped: %+v", ae)
	}

	err = translateError(errors.New("dial tcp: i/o timeout"))
	if !errors.Is(err, entities.ErrProvider) {
		t.Fatalf("transport error not classified: %v", err)
	}
}

func TestNewClient_RequiresKey(t *testing.T) {
	if _, err := NewClient(context.Background(), &config.GeminiConfig{}, nil); err == nil {
		t.Fatal("expected error without api key")
	}
}
