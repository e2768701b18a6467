package device

import (
	"image"
	"sync"
	"time"
)

// Surface holds the most recently rendered frame of a stream.
type Surface struct {
	mu         sync.RWMutex
	frame      image.Image
	renderedAt time.Time
	rendered   uint64
}

func NewSurface() *Surface {
	return &Surface{}
}

func (s *Surface) Render(img image.Image) {
	if img == nil {
		return
	}
	s.mu.Lock()
	s.frame = img
	s.renderedAt = time.Now()
	s.rendered++
	s.mu.Unlock()
}

func (s *Surface) Current() (image.Image, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.frame == nil {
		return nil, ErrNoFrame
	}
	return s.frame, nil
}

// Size reports the dimensions of the frame currently on display, or zero
// when nothing has been rendered.
func (s *Surface) Size() (int, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.frame == nil {
		return 0, 0
	}
	b := s.frame.Bounds()
	return b.Dx(), b.Dy()
}

func (s *Surface) RenderedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.renderedAt
}

func (s *Surface) Rendered() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rendered
}

func (s *Surface) Clear() {
	s.mu.Lock()
	s.frame = nil
	s.renderedAt = time.Time{}
	s.mu.Unlock()
}
