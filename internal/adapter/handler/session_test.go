package handler

import (
	"bytes"
	"context"
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/lumina/errors"
	"github.com/johnquangdev/lumina/internal/domain/entities"
	"github.com/johnquangdev/lumina/internal/infrastructure/cache"
	"github.com/johnquangdev/lumina/internal/infrastructure/storage"
	"github.com/johnquangdev/lumina/internal/usecase/ai"
	usecaseErrors "github.com/johnquangdev/lumina/internal/usecase/errors"
	sessionUsecase "github.com/johnquangdev/lumina/internal/usecase/session"
	"github.com/johnquangdev/lumina/pkg/config"
	"github.com/johnquangdev/lumina/pkg/middleware"
	pkgvalidator "github.com/johnquangdev/lumina/pkg/validator"
)

const readyJSON = `{
  "title": "Release sync",
  "summary": "Ship date agreed.",
  "keyTakeaways": ["Scope is frozen"],
  "decisions": ["Ship Friday"],
  "actionItems": [{"task": "Tag release", "owner": "Dana", "priority": "high"}],
  "sentimentTimeline": [{"time": "00:00", "sentiment": 0.5, "label": "Upbeat"}, {"time": "10:00", "sentiment": -0.1, "label": "Tense"}],
  "deepInsights": [],
  "unspokenDynamics": "",
  "strategicAlignment": ""
}`

type recordingProvider struct {
	body string
	err  error
	seen chan *entities.GenerationRequest
}

func (p *recordingProvider) Name() string { return "recording" }

func (p *recordingProvider) Generate(ctx context.Context, req *entities.GenerationRequest) (string, error) {
	select {
	case p.seen <- req:
	default:
	}
	return p.body, p.err
}

type fakeExporter struct {
	exported []uuid.UUID
	err      error
}

func (f *fakeExporter) Export(ctx context.Context, id uuid.UUID, a *entities.MeetingAnalysis) (*storage.ExportResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.exported = append(f.exported, id)
	object := storage.ExportPrefix(id) + "export.json"
	return &storage.ExportResult{Object: object, URL: "https://files.test/" + object, ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (f *fakeExporter) List(ctx context.Context, id uuid.UUID) ([]string, error) {
	var out []string
	for _, e := range f.exported {
		if e == id {
			out = append(out, storage.ExportPrefix(id)+"export.json")
		}
	}
	return out, nil
}

type testServer struct {
	e        *echo.Echo
	svc      sessionUsecase.Service
	provider *recordingProvider
}

func newTestServer(t *testing.T, exporter Exporter) *testServer {
	t.Helper()

	provider := &recordingProvider{body: readyJSON, seen: make(chan *entities.GenerationRequest, 4)}
	sessions := cache.NewMemoryStore[*sessionUsecase.Store](time.Hour, time.Hour)
	t.Cleanup(sessions.Close)

	logger := zap.NewNop()
	client := ai.NewClient(provider, ai.ClientConfig{}, logger)
	svc := sessionUsecase.NewService(
		sessions,
		ai.NewNormalizer(1<<20, logger),
		client,
		logger,
	)

	cfg := &config.Config{Server: config.ServerConfig{Environment: "test", BodyLimit: "2M"}}

	e := echo.New()
	e.Validator = pkgvalidator.New()
	NewRouter(
		cfg,
		NewSessionHandler(svc, logger),
		NewExportHandler(svc, exporter, logger),
		middleware.RequireSession(svc),
		client.ProviderName(),
		sessions.Len,
		nil,
		logger,
	).Setup(e)

	return &testServer{e: e, svc: svc, provider: provider}
}

type envelope struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Info    string            `json:"info"`
	Details map[string]string `json:"details"`
	Data    json.RawMessage   `json:"data"`
}

type sessionBody struct {
	ID       string `json:"id"`
	State    string `json:"state"`
	Stage    string `json:"stage"`
	Input    *entities.InputSummary
	Error    *struct{ Kind, Message string }
	Analysis *struct {
		Decisions        []string `json:"decisions"`
		AverageSentiment float64  `json:"averageSentiment"`
		ActionItemCount  int      `json:"actionItemCount"`
		ActionItems      []struct {
			Priority string `json:"priority"`
		} `json:"actionItems"`
	}
}

func (ts *testServer) do(t *testing.T, method, path string, body *bytes.Buffer, contentType string) (int, envelope) {
	t.Helper()

	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	rec := httptest.NewRecorder()
	ts.e.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s %s: response is not json: %q", method, path, rec.Body.String())
	}
	return rec.Code, env
}

func (ts *testServer) create(t *testing.T) string {
	t.Helper()
	code, env := ts.do(t, http.MethodPost, "/v1/sessions", nil, "")
	if code != http.StatusCreated {
		t.Fatalf("create: status %d", code)
	}
	var s sessionBody
	if err := json.Unmarshal(env.Data, &s); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if s.State != string(sessionUsecase.StateIdle) {
		t.Fatalf("new session not idle: %s", s.State)
	}
	return s.ID
}

func (ts *testServer) drain(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := ts.svc.Drain(ctx); err != nil {
		t.Fatalf("drain: %v", err)
	}
}

func decodeSession(t *testing.T, env envelope) sessionBody {
	t.Helper()
	var s sessionBody
	if err := json.Unmarshal(env.Data, &s); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	return s
}

func jsonBody(v interface{}) *bytes.Buffer {
	b, _ := json.Marshal(v)
	return bytes.NewBuffer(b)
}

func TestTranscriptSubmission_ReachesReady(t *testing.T) {
	ts := newTestServer(t, nil)
	id := ts.create(t)

	code, env := ts.do(t, http.MethodPost, "/v1/sessions/"+id+"/transcript",
		jsonBody(map[string]string{"transcript": "  A: ship Friday?\nB: yes  "}), echo.MIMEApplicationJSON)
	if code != http.StatusAccepted {
		t.Fatalf("submit: status %d %+v", code, env)
	}
	if s := decodeSession(t, env); s.Input == nil || s.Input.Mode != entities.InputModeTranscript {
		t.Fatalf("input summary missing: %+v", s)
	}

	req := <-ts.provider.seen
	if !strings.HasPrefix(req.Transcript, ai.TranscriptLabel+"A: ship Friday?") || req.HasAudio() {
		t.Fatalf("unexpected generation request %+v", req)
	}
	ts.drain(t)

	code, env = ts.do(t, http.MethodGet, "/v1/sessions/"+id, nil, "")
	s := decodeSession(t, env)
	if code != http.StatusOK || s.State != string(sessionUsecase.StateReady) {
		t.Fatalf("expected ready, got %d %+v", code, s)
	}

	code, env = ts.do(t, http.MethodGet, "/v1/sessions/"+id+"/analysis", nil, "")
	if code != http.StatusOK {
		t.Fatalf("analysis: status %d", code)
	}
	var analysis struct {
		Decisions        []string `json:"decisions"`
		AverageSentiment float64  `json:"averageSentiment"`
		ActionItemCount  int      `json:"actionItemCount"`
		ActionItems      []struct {
			Priority string `json:"priority"`
		} `json:"actionItems"`
	}
	if err := json.Unmarshal(env.Data, &analysis); err != nil {
		t.Fatalf("decode analysis: %v", err)
	}
	if len(analysis.Decisions) != 1 || analysis.Decisions[0] != "Ship Friday" {
		t.Fatalf("unexpected decisions %v", analysis.Decisions)
	}
	if analysis.ActionItemCount != 1 || analysis.ActionItems[0].Priority != "High" {
		t.Fatalf("priority not normalized: %+v", analysis.ActionItems)
	}
	if analysis.AverageSentiment < 0.19 || analysis.AverageSentiment > 0.21 {
		t.Fatalf("unexpected average sentiment %v", analysis.AverageSentiment)
	}
}

func TestTranscriptSubmission_Rejected(t *testing.T) {
	ts := newTestServer(t, nil)
	id := ts.create(t)

	tests := []struct {
		name string
		body *bytes.Buffer
		code errors.ErrorCode
	}{
		{"missing field", jsonBody(map[string]string{}), errors.ErrorCode_INPUT_VALIDATION},
		{"whitespace only", jsonBody(map[string]string{"transcript": " \n\t "}), errors.ErrorCode_INPUT_VALIDATION},
		{"malformed json", bytes.NewBufferString("{"), errors.ErrorCode_INVALID_PAYLOAD},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := ts.do(t, http.MethodPost, "/v1/sessions/"+id+"/transcript", tt.body, echo.MIMEApplicationJSON)
			if status != http.StatusBadRequest || env.Code != int(tt.code) {
				t.Fatalf("expected 400/%s, got %d/%d %s", tt.code, status, env.Code, env.Message)
			}
		})
	}

	_, env := ts.do(t, http.MethodGet, "/v1/sessions/"+id, nil, "")
	if s := decodeSession(t, env); s.State != string(sessionUsecase.StateIdle) {
		t.Fatalf("rejected input must leave the session idle, got %s", s.State)
	}
	select {
	case req := <-ts.provider.seen:
		t.Fatalf("provider called for rejected input: %+v", req)
	default:
	}
}

func multipartAudio(t *testing.T, name, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	if name != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="file"; filename="`+name+`"`)
		h.Set("Content-Type", contentType)
		part, err := w.CreatePart(h)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		part.Write(data)
	} else {
		w.WriteField("note", "no file")
	}
	w.Close()
	return body, w.FormDataContentType()
}

func TestAudioSubmission(t *testing.T) {
	ts := newTestServer(t, nil)
	id := ts.create(t)

	audio := []byte("ID3\x03\x00\x00\x00\x00\x00\x00fake mpeg frames")
	body, ct := multipartAudio(t, "standup.MP3", "audio/mpeg", audio)

	code, env := ts.do(t, http.MethodPost, "/v1/sessions/"+id+"/audio", body, ct)
	if code != http.StatusAccepted {
		t.Fatalf("submit audio: status %d %+v", code, env)
	}
	s := decodeSession(t, env)
	if s.Input == nil || s.Input.FileName != "standup.MP3" || s.Input.FileSize != int64(len(audio)) {
		t.Fatalf("unexpected input summary %+v", s.Input)
	}

	req := <-ts.provider.seen
	if !bytes.Equal(req.Audio, audio) || req.AudioMIMEType != "audio/mpeg" || req.Transcript != "" {
		t.Fatalf("audio not forwarded intact: mime=%s len=%d", req.AudioMIMEType, len(req.Audio))
	}
	ts.drain(t)
}

func TestAudioSubmission_Rejected(t *testing.T) {
	ts := newTestServer(t, nil)
	id := ts.create(t)

	missing, missingCT := multipartAudio(t, "", "", nil)
	notes, notesCT := multipartAudio(t, "notes.txt", "text/plain", []byte("hello"))
	empty, emptyCT := multipartAudio(t, "empty.m4a", "audio/mp4", nil)

	tests := []struct {
		name string
		body *bytes.Buffer
		ct   string
		code errors.ErrorCode
	}{
		{"no file", missing, missingCT, errors.ErrorCode_INPUT_VALIDATION},
		{"not audio", notes, notesCT, errors.ErrorCode_INPUT_VALIDATION},
		{"not multipart", jsonBody(map[string]string{}), echo.MIMEApplicationJSON, errors.ErrorCode_INVALID_PAYLOAD},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := ts.do(t, http.MethodPost, "/v1/sessions/"+id+"/audio", tt.body, tt.ct)
			if status != http.StatusBadRequest || env.Code != int(tt.code) {
				t.Fatalf("expected 400/%s, got %d/%d %s", tt.code, status, env.Code, env.Message)
			}
		})
	}

	// An empty payload is only detected once the file is read, so the
	// submission fails instead of staying idle.
	status, env := ts.do(t, http.MethodPost, "/v1/sessions/"+id+"/audio", empty, emptyCT)
	if status != http.StatusBadRequest || env.Message != "Audio file is empty." {
		t.Fatalf("expected empty-file rejection, got %d %+v", status, env)
	}
}

func TestSessionConflicts(t *testing.T) {
	ts := newTestServer(t, nil)
	id := ts.create(t)

	status, env := ts.do(t, http.MethodGet, "/v1/sessions/"+id+"/analysis", nil, "")
	if status != http.StatusConflict || env.Code != int(errors.ErrorCode_ANALYSIS_NOT_READY) {
		t.Fatalf("expected analysis-not-ready, got %d %+v", status, env)
	}

	status, env = ts.do(t, http.MethodPost, "/v1/sessions/"+id+"/retry", nil, "")
	if status != http.StatusConflict || env.Code != int(errors.ErrorCode_NOTHING_TO_RETRY) {
		t.Fatalf("expected nothing-to-retry, got %d %+v", status, env)
	}

	ts.do(t, http.MethodPost, "/v1/sessions/"+id+"/transcript", jsonBody(map[string]string{"transcript": "hi"}), echo.MIMEApplicationJSON)
	<-ts.provider.seen
	ts.drain(t)

	status, env = ts.do(t, http.MethodPost, "/v1/sessions/"+id+"/transcript", jsonBody(map[string]string{"transcript": "again"}), echo.MIMEApplicationJSON)
	if status != http.StatusConflict || env.Code != int(errors.ErrorCode_SESSION_INVALID_STATE) {
		t.Fatalf("resubmission from ready must be rejected, got %d %+v", status, env)
	}

	status, env = ts.do(t, http.MethodPost, "/v1/sessions/"+id+"/reset", nil, "")
	if s := decodeSession(t, env); status != http.StatusOK || s.State != string(sessionUsecase.StateIdle) || s.Analysis != nil {
		t.Fatalf("reset did not clear the session: %d %+v", status, s)
	}
}

func TestFailedSession_Retry(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.provider.body = "not json"
	id := ts.create(t)

	ts.do(t, http.MethodPost, "/v1/sessions/"+id+"/transcript", jsonBody(map[string]string{"transcript": "hi"}), echo.MIMEApplicationJSON)
	<-ts.provider.seen
	ts.drain(t)

	_, env := ts.do(t, http.MethodGet, "/v1/sessions/"+id, nil, "")
	s := decodeSession(t, env)
	if s.State != string(sessionUsecase.StateFailed) || s.Error == nil || s.Error.Kind != string(entities.KindSchema) {
		t.Fatalf("expected schema failure, got %+v", s)
	}
	if s.Input == nil || s.Input.TranscriptLength != 2 {
		t.Fatalf("failed session must keep its inputs: %+v", s.Input)
	}

	ts.provider.body = readyJSON
	status, _ := ts.do(t, http.MethodPost, "/v1/sessions/"+id+"/retry", nil, "")
	if status != http.StatusAccepted {
		t.Fatalf("retry: status %d", status)
	}
	<-ts.provider.seen
	ts.drain(t)

	_, env = ts.do(t, http.MethodGet, "/v1/sessions/"+id, nil, "")
	if s := decodeSession(t, env); s.State != string(sessionUsecase.StateReady) {
		t.Fatalf("retry did not reach ready: %+v", s)
	}
}

func TestSessionLookupErrors(t *testing.T) {
	ts := newTestServer(t, nil)

	status, env := ts.do(t, http.MethodGet, "/v1/sessions/not-a-uuid", nil, "")
	if status != http.StatusBadRequest || env.Code != int(errors.ErrorCode_INVALID_ARGUMENT) {
		t.Fatalf("expected invalid argument, got %d %+v", status, env)
	}

	missing := uuid.New().String()
	status, env = ts.do(t, http.MethodGet, "/v1/sessions/"+missing, nil, "")
	if status != http.StatusNotFound || env.Code != int(errors.ErrorCode_SESSION_NOT_FOUND) || env.Details["session_id"] != missing {
		t.Fatalf("expected session not found, got %d %+v", status, env)
	}

	status, env = ts.do(t, http.MethodGet, "/v1/unknown", nil, "")
	if status != http.StatusNotFound || env.Code != int(errors.ErrorCode_NOT_FOUND) {
		t.Fatalf("expected route not found envelope, got %d %+v", status, env)
	}

	id := ts.create(t)
	if status, _ := ts.do(t, http.MethodDelete, "/v1/sessions/"+id, nil, ""); status != http.StatusOK {
		t.Fatalf("delete: status %d", status)
	}
	if status, _ := ts.do(t, http.MethodGet, "/v1/sessions/"+id, nil, ""); status != http.StatusNotFound {
		t.Fatalf("deleted session still reachable: %d", status)
	}
}

func TestExport(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		ts := newTestServer(t, nil)
		id := ts.create(t)
		status, env := ts.do(t, http.MethodPost, "/v1/sessions/"+id+"/export", nil, "")
		if status != http.StatusServiceUnavailable || env.Code != int(errors.ErrorCode_EXPORT_DISABLED) {
			t.Fatalf("expected export disabled, got %d %+v", status, env)
		}
	})

	t.Run("enabled", func(t *testing.T) {
		exporter := &fakeExporter{}
		ts := newTestServer(t, exporter)
		id := ts.create(t)

		status, env := ts.do(t, http.MethodPost, "/v1/sessions/"+id+"/export", nil, "")
		if status != http.StatusConflict {
			t.Fatalf("export before ready must conflict, got %d", status)
		}

		ts.do(t, http.MethodPost, "/v1/sessions/"+id+"/transcript", jsonBody(map[string]string{"transcript": "hi"}), echo.MIMEApplicationJSON)
		<-ts.provider.seen
		ts.drain(t)

		status, env = ts.do(t, http.MethodPost, "/v1/sessions/"+id+"/export", nil, "")
		if status != http.StatusOK {
			t.Fatalf("export: status %d %+v", status, env)
		}
		var res struct {
			Object string `json:"object"`
			URL    string `json:"url"`
		}
		json.Unmarshal(env.Data, &res)
		if !strings.HasPrefix(res.Object, "analyses/"+id+"/") || res.URL == "" {
			t.Fatalf("unexpected export %+v", res)
		}

		status, env = ts.do(t, http.MethodGet, "/v1/sessions/"+id+"/exports", nil, "")
		var list struct {
			Objects []string `json:"objects"`
		}
		json.Unmarshal(env.Data, &list)
		if status != http.StatusOK || len(list.Objects) != 1 {
			t.Fatalf("unexpected export list %d %+v", status, list)
		}

		exporter.err = stdErrors.New("bucket gone")
		status, env = ts.do(t, http.MethodPost, "/v1/sessions/"+id+"/export", nil, "")
		if status != http.StatusBadGateway || env.Code != int(errors.ErrorCode_EXPORT_FAILED) || env.Info != "bucket gone" {
			t.Fatalf("expected export failure, got %d %+v", status, env)
		}
	})
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.create(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	ts.e.ServeHTTP(rec, req)

	var health struct {
		Status   string `json:"status"`
		Provider string `json:"provider"`
		Sessions int    `json:"sessions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &health); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if rec.Code != http.StatusOK || health.Status != "ok" || health.Provider != "recording" || health.Sessions != 1 {
		t.Fatalf("unexpected health %d %+v", rec.Code, health)
	}
}

func TestToAppError_SubmissionDiscarded(t *testing.T) {
	id := uuid.NewString()
	err := toAppError(fmt.Errorf("submit: %w", usecaseErrors.ErrSubmissionDiscarded), id)

	var appErr errors.AppError
	if !stdErrors.As(err, &appErr) {
		t.Fatalf("expected AppError, got %T", err)
	}
	if appErr.HTTPCode != http.StatusConflict || appErr.Code != errors.ErrorCode_SUBMISSION_DISCARDED {
		t.Fatalf("unexpected mapping %d/%s", appErr.HTTPCode, appErr.Code)
	}
	if appErr.Details["session_id"] != id {
		t.Fatalf("missing session id detail: %v", appErr.Details)
	}
}
