//go:build !linux

package device

import (
	"context"
	"fmt"
	"log/slog"
)

type WebcamConfig struct {
	Paths  []string
	Width  int
	Height int
	Logger *slog.Logger
}

// Webcam is only backed by V4L2; elsewhere every Acquire fails.
type Webcam struct{}

func NewWebcam(WebcamConfig) *Webcam {
	return &Webcam{}
}

func (w *Webcam) Acquire(context.Context, Constraints) (Stream, error) {
	return nil, fmt.Errorf("%w: v4l2 capture requires linux", ErrUnavailable)
}
