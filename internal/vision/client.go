package vision

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/eleven-am/careflow/internal/observation"
	"github.com/go-resty/resty/v2"
)

const (
	defaultGeminiURL   = "https://generativelanguage.googleapis.com"
	defaultGeminiModel = "gemini-2.0-flash"

	temperature     = 0.2
	maxOutputTokens = 64
)

// Client calls the Gemini generateContent endpoint.
type Client struct {
	http   *resty.Client
	apiKey string
	model  string
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultGeminiURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultGeminiModel
	}

	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout).
			SetRetryCount(0).
			SetHeader("Content-Type", "application/json").
			SetHeader("Accept", "application/json"),
		apiKey: cfg.APIKey,
		model:  model,
	}
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Role  string `json:"role"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

func (c *Client) Infer(ctx context.Context, req Request) (observation.Record, error) {
	if req.Frame == nil || len(req.Frame.Data) == 0 {
		return observation.Record{}, fmt.Errorf("%w: no frame data provided", ErrInference)
	}

	body := generateRequest{
		Contents: []content{{
			Role: "user",
			Parts: []part{
				{Text: BuildPrompt(req.History)},
				{InlineData: &inlineData{MimeType: req.Frame.MimeType, Data: req.Frame.Base64()}},
			},
		}},
		GenerationConfig: generationConfig{
			Temperature:     temperature,
			MaxOutputTokens: maxOutputTokens,
		},
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("x-goog-api-key", c.apiKey).
		SetBody(body).
		Post("/v1beta/models/" + c.model + ":generateContent")
	if err != nil {
		return observation.Record{}, fmt.Errorf("%w: %w", ErrInference, err)
	}
	if !resp.IsSuccess() {
		return observation.Record{}, fmt.Errorf("%w: status %d: %s", ErrInference, resp.StatusCode(), snippet(resp.Body()))
	}

	rec := parseReply(resp.Body())
	rec.CapturedAt = req.Frame.CapturedAt
	return rec, nil
}

// IsAvailable reports whether the configured model can be looked up with the
// configured key.
func (c *Client) IsAvailable(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("x-goog-api-key", c.apiKey).
		Get("/v1beta/models/" + c.model)
	if err != nil {
		return false
	}
	return resp.StatusCode() == http.StatusOK
}

func snippet(b []byte) string {
	const n = 200
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
