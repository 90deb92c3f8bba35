package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/asadmkhan/portfolio-chat-bot-backend-sub000/internal/chat"
	"github.com/asadmkhan/portfolio-chat-bot-backend-sub000/internal/config"
	"github.com/asadmkhan/portfolio-chat-bot-backend-sub000/internal/generator"
	"github.com/asadmkhan/portfolio-chat-bot-backend-sub000/internal/models"
	"github.com/asadmkhan/portfolio-chat-bot-backend-sub000/internal/retriever"
)

type stubSearcher struct {
	hits []models.RetrievedHit
	err  error
}

func (s *stubSearcher) Search(ctx context.Context, query, lang string, opts retriever.Options) ([]models.RetrievedHit, error) {
	return s.hits, s.err
}

type stubGenerator struct {
	tokens []string
}

func (g *stubGenerator) Stream(ctx context.Context, messages []generator.Message, emit func(string) error) error {
	for _, tok := range g.tokens {
		if err := emit(tok); err != nil {
			return err
		}
	}
	return nil
}

type stubFeedback struct {
	recorded []models.Feedback
	err      error
}

func (f *stubFeedback) RecordFeedback(fb models.Feedback) error {
	if f.err != nil {
		return f.err
	}
	f.recorded = append(f.recorded, fb)
	return nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Documents.IndexRoot = t.TempDir()
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config, searcher chat.Searcher, gen generator.TokenGenerator, feedback FeedbackRecorder) *Server {
	t.Helper()
	settings := chat.Settings{
		DefaultK:         cfg.Retrieval.DefaultK,
		MaxK:             cfg.Retrieval.MaxK,
		UseMMR:           cfg.Retrieval.UseMMROrDefault(),
		FetchK:           cfg.Retrieval.FetchK,
		MMRLambda:        cfg.Retrieval.MMRLambda,
		MinScore:         cfg.Retrieval.MinScore,
		MaxCharsPerChunk: cfg.Retrieval.MaxCharsPerChunk,
		IncludeCitations: cfg.Chat.IncludeCitationsOrDefault(),
		Languages:        cfg.Chat.Languages,
		DefaultLanguage:  cfg.Chat.DefaultLanguage,
	}
	svc := chat.NewService(settings, searcher, gen, chat.NewHistory(cfg.Chat.HistoryTurns), nil, zap.NewNop())
	return NewServer(svc, feedback, cfg, zap.NewNop())
}

type sseEvent struct {
	name string
	data string
}

// parseSSE reads a full SSE response body into events, joining multi-line data.
func parseSSE(t *testing.T, body *bufio.Reader) []sseEvent {
	t.Helper()
	var events []sseEvent
	var current sseEvent
	var dataLines []string
	for {
		line, err := body.ReadString('\n')
		if line != "" {
			line = strings.TrimRight(line, "\n")
			switch {
			case strings.HasPrefix(line, "event: "):
				current.name = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				dataLines = append(dataLines, strings.TrimPrefix(line, "data: "))
			case line == "":
				if current.name != "" || len(dataLines) > 0 {
					current.data = strings.Join(dataLines, "\n")
					events = append(events, current)
					current = sseEvent{}
					dataLines = nil
				}
			}
		}
		if err != nil {
			return events
		}
	}
}

func TestChatStreamEndToEnd(t *testing.T) {
	searcher := &stubSearcher{hits: []models.RetrievedHit{
		{ChunkID: "a.md::chunk::0", Source: "a.md", Text: "ctx", Score: 0.9},
	}}
	gen := &stubGenerator{tokens: []string{"one ", "two\nthree"}}
	srv := newTestServer(t, testConfig(t), searcher, gen, nil)

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	body, _ := json.Marshal(models.ChatRequest{Message: "hello", ConversationID: "c1"})
	resp, err := http.Post(ts.URL+"/v1/chat/stream", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content type = %q", ct)
	}

	events := parseSSE(t, bufio.NewReader(resp.Body))
	if len(events) < 4 {
		t.Fatalf("got %d events: %+v", len(events), events)
	}
	if events[0].name != "trace" {
		t.Errorf("first event = %q", events[0].name)
	}
	if events[1].name != "sources" {
		t.Errorf("second event = %q", events[1].name)
	}
	last := events[len(events)-1]
	if last.name != "done" || last.data != "[DONE]" {
		t.Errorf("last event = %+v", last)
	}

	var answer strings.Builder
	for _, evt := range events {
		if evt.name == "chunk" {
			answer.WriteString(evt.data)
		}
	}
	// The newline inside the second token must survive the data-line split.
	if answer.String() != "one two\nthree" {
		t.Errorf("answer = %q", answer.String())
	}

	var refs []models.SourceRef
	if err := json.Unmarshal([]byte(events[1].data), &refs); err != nil {
		t.Fatalf("sources payload: %v", err)
	}
	if len(refs) != 1 || refs[0].Source != "a.md" {
		t.Errorf("refs = %+v", refs)
	}
}

func TestChatStreamValidation(t *testing.T) {
	srv := newTestServer(t, testConfig(t), &stubSearcher{}, &stubGenerator{}, nil)
	router := srv.Router()

	cases := []struct {
		name string
		body string
	}{
		{"k too large", `{"message":"hi","k":1000}`},
		{"k zero", `{"message":"hi","k":0}`},
		{"lambda out of range", `{"message":"hi","mmr_lambda":1.5}`},
		{"negative lambda", `{"message":"hi","mmr_lambda":-0.1}`},
		{"fetch_k zero", `{"message":"hi","fetch_k":0}`},
		{"max_chars zero", `{"message":"hi","max_chars_per_chunk":0}`},
		{"malformed json", `{"message":`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/chat/stream", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestFeedbackEndpoint(t *testing.T) {
	feedback := &stubFeedback{}
	srv := newTestServer(t, testConfig(t), &stubSearcher{}, &stubGenerator{}, feedback)
	router := srv.Router()

	body := `{"conversation_id":"c1","message_id":"m1","rating":"up","comment":"nice"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/analytics/feedback", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if len(feedback.recorded) != 1 || feedback.recorded[0].Rating != "up" {
		t.Errorf("recorded = %+v", feedback.recorded)
	}
}

func TestFeedbackRejectsBadRating(t *testing.T) {
	srv := newTestServer(t, testConfig(t), &stubSearcher{}, &stubGenerator{}, &stubFeedback{})
	req := httptest.NewRequest(http.MethodPost, "/v1/analytics/feedback",
		strings.NewReader(`{"rating":"meh"}`))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestFeedbackStoreError(t *testing.T) {
	srv := newTestServer(t, testConfig(t), &stubSearcher{}, &stubGenerator{},
		&stubFeedback{err: errors.New("disk full")})
	req := httptest.NewRequest(http.MethodPost, "/v1/analytics/feedback",
		strings.NewReader(`{"rating":"down"}`))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, testConfig(t), &stubSearcher{}, &stubGenerator{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestStatusEndpoint(t *testing.T) {
	cfg := testConfig(t)

	// One available index, one missing.
	manifest := models.IndexManifest{Lang: "en", ModelName: "hash", Count: 7}
	data, _ := json.Marshal(&manifest)
	enDir := filepath.Join(cfg.Documents.IndexRoot, "en")
	if err := os.MkdirAll(enDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(enDir, "manifest.json"), data, 0o644); err != nil {
		t.Fatal(err)
	}

	srv := newTestServer(t, cfg, &stubSearcher{}, &stubGenerator{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/v1/status", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var payload struct {
		Indices map[string]struct {
			Available bool   `json:"available"`
			Chunks    int    `json:"chunks"`
			Model     string `json:"model"`
		} `json:"indices"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	en, ok := payload.Indices["en"]
	if !ok || !en.Available || en.Chunks != 7 || en.Model != "hash" {
		t.Errorf("en index status = %+v", en)
	}
	if de := payload.Indices["de"]; de.Available {
		t.Error("de index should be unavailable")
	}
}
