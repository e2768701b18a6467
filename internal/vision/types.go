package vision

import (
	"context"
	"encoding/base64"
	"errors"
	"time"

	"github.com/eleven-am/careflow/internal/observation"
)

var ErrInference = errors.New("inference failed")

type Provider string

const (
	ProviderGemini Provider = "gemini"
	ProviderOpenAI Provider = "openai"
)

type Config struct {
	Provider Provider
	APIKey   string
	BaseURL  string
	Model    string
	Timeout  time.Duration
}

type Frame struct {
	Data       []byte
	MimeType   string
	Width      int
	Height     int
	CapturedAt time.Time
}

func (f *Frame) Base64() string {
	return base64.StdEncoding.EncodeToString(f.Data)
}

// Request is one capture cycle's payload: the encoded frame plus the
// session's previous observations, oldest first.
type Request struct {
	Frame   *Frame
	History []observation.Record
}

// Inferrer turns a frame and its history into a record. Transport and
// HTTP failures wrap ErrInference; unreadable replies become the fallback
// record instead of an error.
type Inferrer interface {
	Infer(ctx context.Context, req Request) (observation.Record, error)
}

// Prober is implemented by inferrers that can check their upstream without
// spending a completion.
type Prober interface {
	IsAvailable(ctx context.Context) bool
}

func New(cfg Config) (Inferrer, error) {
	switch cfg.Provider {
	case "", ProviderGemini:
		return NewClient(cfg), nil
	case ProviderOpenAI:
		return NewOpenAIClient(cfg), nil
	default:
		return nil, errors.New("unknown inference provider: " + string(cfg.Provider))
	}
}
