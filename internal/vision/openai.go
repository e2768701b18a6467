package vision

import (
	"context"
	"fmt"
	"time"

	"github.com/eleven-am/careflow/internal/observation"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAIClient sends the same prompt and frame to an OpenAI-compatible chat
// completions endpoint.
type OpenAIClient struct {
	client openai.Client
	model  string
}

func NewOpenAIClient(cfg Config) *OpenAIClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithRequestTimeout(timeout),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}

	return &OpenAIClient{
		client: openai.NewClient(opts...),
		model:  model,
	}
}

func (c *OpenAIClient) Infer(ctx context.Context, req Request) (observation.Record, error) {
	if req.Frame == nil || len(req.Frame.Data) == 0 {
		return observation.Record{}, fmt.Errorf("%w: no frame data provided", ErrInference)
	}

	dataURL := "data:" + req.Frame.MimeType + ";base64," + req.Frame.Base64()
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(BuildPrompt(req.History)),
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: dataURL}),
			}),
		},
		Temperature: openai.Float(temperature),
		MaxTokens:   openai.Int(maxOutputTokens),
	})
	if err != nil {
		return observation.Record{}, fmt.Errorf("%w: %w", ErrInference, err)
	}

	rec := observation.Fallback()
	if len(resp.Choices) > 0 {
		rec = observation.Parse(resp.Choices[0].Message.Content)
	}
	rec.CapturedAt = req.Frame.CapturedAt
	return rec, nil
}

func (c *OpenAIClient) IsAvailable(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	_, err := c.client.Models.Get(ctx, c.model)
	return err == nil
}
