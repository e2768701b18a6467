package device

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"sync"
)

// Still serves a single fixed image. A nil Image yields a stream that never
// renders anything.
type Still struct {
	Image image.Image
}

func (d *Still) Acquire(ctx context.Context, _ Constraints) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return &stillStream{img: d.Image, track: &stillTrack{}}, nil
}

// ImageFile decodes a JPEG or PNG from disk on every Acquire.
type ImageFile struct {
	Path string
}

func (d *ImageFile) Acquire(ctx context.Context, c Constraints) (Stream, error) {
	f, err := os.Open(d.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", ErrUnavailable, d.Path, err)
	}

	still := &Still{Image: img}
	return still.Acquire(ctx, c)
}

type stillStream struct {
	img   image.Image
	track *stillTrack
}

func (s *stillStream) Attach(surface *Surface) {
	if s.img == nil || s.track.isStopped() {
		return
	}
	surface.Render(s.img)
}

func (s *stillStream) Tracks() []Track {
	return []Track{s.track}
}

type stillTrack struct {
	mu      sync.Mutex
	stopped bool
}

func (t *stillTrack) Kind() string {
	return "video"
}

func (t *stillTrack) Stop() error {
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()
	return nil
}

func (t *stillTrack) isStopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}
