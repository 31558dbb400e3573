package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/johnquangdev/lumina/internal/domain/entities"
	"github.com/johnquangdev/lumina/pkg/config"
)

func transcriptRequest() *entities.GenerationRequest {
	return &entities.GenerationRequest{
		Instruction:      "Analyze this meeting.",
		Transcript:       "Meeting Transcript: Alice: we decided to ship Friday.",
		ResponseMIMEType: "application/json",
		Schema:           entities.MeetingAnalysisSchema(),
	}
}

func TestGroqGenerate_Success(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("expected POST got %s", r.Method)
		}
		if r.URL.Path != "/openai/v1/chat/completions" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Fatalf("unexpected auth header %q", got)
		}

		var payload ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("invalid payload: %v", err)
		}
		if payload.Model != "test-model" {
			t.Fatalf("unexpected model %s", payload.Model)
		}
		if len(payload.Messages) != 2 || payload.Messages[1].Content != "Meeting Transcript: Alice: we decided to ship Friday." {
			t.Fatalf("unexpected messages %+v", payload.Messages)
		}
		if payload.ResponseFormat == nil || payload.ResponseFormat.Type != "json_schema" {
			t.Fatalf("response format missing: %+v", payload.ResponseFormat)
		}
		required, _ := payload.ResponseFormat.JSONSchema.Schema["required"].([]interface{})
		if len(required) != 9 {
			t.Fatalf("expected 9 required fields, got %v", required)
		}

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": `{"title":"x"}`}},
			},
		})
	}))
	defer ts.Close()

	client := NewGroqClient(config.GroqConfig{APIKey: "test-key", BaseURL: ts.URL, Model: "test-model"})
	out, err := client.Generate(context.Background(), transcriptRequest())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if out != `{"title":"x"}` {
		t.Fatalf("unexpected content %s", out)
	}
}

func TestGroqGenerate_ErrorStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"Rate limit reached","type":"tokens"}}`))
	}))
	defer ts.Close()

	client := NewGroqClient(config.GroqConfig{APIKey: "k", BaseURL: ts.URL})
	_, err := client.Generate(context.Background(), transcriptRequest())
	if !errors.Is(err, entities.ErrProvider) {
		t.Fatalf("expected provider error, got %v", err)
	}
	ae, _ := entities.AsAnalysisError(err)
	if ae.Message != "Rate limit reached" || ae.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("unexpected error %+v", ae)
	}
	if !ae.Retryable() {
		t.Fatal("429 should be retryable")
	}
}

func TestGroqGenerate_ErrorWithoutBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	_, err := NewGroqClient(config.GroqConfig{APIKey: "k", BaseURL: ts.URL}).Generate(context.Background(), transcriptRequest())
	ae, ok := entities.AsAnalysisError(err)
	if !ok || ae.Kind != entities.KindProvider || ae.Message != "groq returned status 502" {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestGroqGenerate_Unreachable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := ts.URL
	ts.Close()

	_, err := NewGroqClient(config.GroqConfig{APIKey: "k", BaseURL: url}).Generate(context.Background(), transcriptRequest())
	if !errors.Is(err, entities.ErrProvider) {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func TestGroqGenerate_RejectsAudio(t *testing.T) {
	called := false
	ts := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))
	defer ts.Close()

	req := &entities.GenerationRequest{Audio: []byte{1, 2}, AudioMIMEType: "audio/mpeg"}
	_, err := NewGroqClient(config.GroqConfig{APIKey: "k", BaseURL: ts.URL}).Generate(context.Background(), req)
	if !errors.Is(err, entities.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if called {
		t.Fatal("audio request reached the server")
	}
}

func TestNewGroqClient_IgnoresEnvironment(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "env-key")
	t.Setenv("GROQ_API_URL", "http://env.invalid")

	client := NewGroqClient(config.GroqConfig{APIKey: "cfg-key"})
	if client.apiKey != "cfg-key" {
		t.Fatalf("expected configured key, got %q", client.apiKey)
	}
	if client.baseURL != defaultGroqBaseURL {
		t.Fatalf("expected default base url, got %q", client.baseURL)
	}
	if client.model != defaultGroqModel {
		t.Fatalf("expected default model, got %q", client.model)
	}

	empty := NewGroqClient(config.GroqConfig{})
	if empty.apiKey != "" {
		t.Fatalf("api key leaked from environment: %q", empty.apiKey)
	}
}
