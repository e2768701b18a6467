package vision

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/eleven-am/careflow/internal/observation"
)

func testFrame() *Frame {
	return &Frame{
		Data:       []byte("jpeg"),
		MimeType:   "image/jpeg",
		Width:      2,
		Height:     2,
		CapturedAt: time.Unix(1700000000, 0),
	}
}

func geminiReply(text string) map[string]any {
	return map[string]any{
		"candidates": []any{
			map[string]any{"content": map[string]any{"parts": []any{map[string]any{"text": text}}}},
		},
	}
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(Config{})
	if c.model != defaultGeminiModel {
		t.Errorf("expected model %s, got %s", defaultGeminiModel, c.model)
	}
	if c.http.BaseURL != defaultGeminiURL {
		t.Errorf("expected base URL %s, got %s", defaultGeminiURL, c.http.BaseURL)
	}
	if c.http.GetClient().Timeout != 30*time.Second {
		t.Errorf("expected 30s timeout, got %v", c.http.GetClient().Timeout)
	}
}

func TestClient_Infer_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/v1beta/models/test-model:generateContent" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "secret" {
			t.Errorf("expected api key header, got %q", r.Header.Get("x-goog-api-key"))
		}

		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if len(req.Contents) != 1 || req.Contents[0].Role != "user" {
			t.Fatalf("unexpected contents %+v", req.Contents)
		}
		parts := req.Contents[0].Parts
		if len(parts) != 2 {
			t.Fatalf("expected 2 parts, got %d", len(parts))
		}
		if !strings.HasPrefix(parts[0].Text, "You are monitoring a post-surgery patient") {
			t.Errorf("unexpected prompt %q", parts[0].Text)
		}
		if parts[1].InlineData == nil || parts[1].InlineData.MimeType != "image/jpeg" || parts[1].InlineData.Data != "anBlZw==" {
			t.Errorf("unexpected inline data %+v", parts[1].InlineData)
		}
		if req.GenerationConfig.Temperature != 0.2 || req.GenerationConfig.MaxOutputTokens != 64 {
			t.Errorf("unexpected generation config %+v", req.GenerationConfig)
		}

		json.NewEncoder(w).Encode(geminiReply("Medicine Status: Taken | Emotion: Happy"))
	}))
	defer server.Close()

	c := NewClient(Config{BaseURL: server.URL, APIKey: "secret", Model: "test-model"})
	rec, err := c.Infer(context.Background(), Request{Frame: testFrame()})
	if err != nil {
		t.Fatalf("Infer failed: %v", err)
	}
	if rec.Medicine != observation.MedicineTaken || rec.Emotion != "Happy" {
		t.Errorf("unexpected record %+v", rec)
	}
	if !rec.CapturedAt.Equal(time.Unix(1700000000, 0)) {
		t.Errorf("expected frame capture time, got %v", rec.CapturedAt)
	}
}

func TestClient_Infer_SendsHistory(t *testing.T) {
	var prompt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		json.NewDecoder(r.Body).Decode(&req)
		prompt = req.Contents[0].Parts[0].Text
		json.NewEncoder(w).Encode(geminiReply("Medicine Status: Unknown | Emotion: Neutral"))
	}))
	defer server.Close()

	c := NewClient(Config{BaseURL: server.URL})
	_, err := c.Infer(context.Background(), Request{
		Frame:   testFrame(),
		History: []observation.Record{{Medicine: observation.MedicineNotTaken, Emotion: "Sad"}},
	})
	if err != nil {
		t.Fatalf("Infer failed: %v", err)
	}
	if !strings.HasSuffix(prompt, "Previous observations:\nMedicine Status: Not taken | Emotion: Sad") {
		t.Errorf("history missing from prompt: %q", prompt)
	}
}

func TestClient_Infer_MalformedReplyFallsBack(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(geminiReply("The patient is sitting."))
	}))
	defer server.Close()

	rec, err := NewClient(Config{BaseURL: server.URL}).Infer(context.Background(), Request{Frame: testFrame()})
	if err != nil {
		t.Fatalf("malformed reply should not be an error: %v", err)
	}
	if !rec.Fallback {
		t.Errorf("expected fallback record, got %+v", rec)
	}
}

func TestClient_Infer_HTTPError(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"quota"}}`))
	}))
	defer server.Close()

	_, err := NewClient(Config{BaseURL: server.URL}).Infer(context.Background(), Request{Frame: testFrame()})
	if !errors.Is(err, ErrInference) {
		t.Fatalf("expected ErrInference, got %v", err)
	}
	if !strings.Contains(err.Error(), "429") {
		t.Errorf("expected status in error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected exactly one attempt, got %d", calls)
	}
}

func TestClient_Infer_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := NewClient(Config{BaseURL: url}).Infer(context.Background(), Request{Frame: testFrame()})
	if !errors.Is(err, ErrInference) {
		t.Errorf("expected ErrInference, got %v", err)
	}
}

func TestClient_Infer_NoFrame(t *testing.T) {
	_, err := NewClient(Config{}).Infer(context.Background(), Request{})
	if !errors.Is(err, ErrInference) {
		t.Errorf("expected ErrInference, got %v", err)
	}
}

func TestClient_IsAvailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-goog-api-key") != "k" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Write([]byte(`{"name":"models/m"}`))
	}))
	defer server.Close()

	if !NewClient(Config{BaseURL: server.URL, APIKey: "k", Model: "m"}).IsAvailable(context.Background()) {
		t.Error("expected available")
	}
	if NewClient(Config{BaseURL: server.URL, APIKey: "wrong", Model: "m"}).IsAvailable(context.Background()) {
		t.Error("expected unavailable with bad key")
	}
}

func TestNew_SelectsProvider(t *testing.T) {
	g, err := New(Config{})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := g.(*Client); !ok {
		t.Errorf("expected Gemini client by default, got %T", g)
	}

	o, err := New(Config{Provider: ProviderOpenAI, APIKey: "k"})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := o.(*OpenAIClient); !ok {
		t.Errorf("expected OpenAI client, got %T", o)
	}

	if _, err := New(Config{Provider: "nope"}); err == nil {
		t.Error("expected error for unknown provider")
	}
}
