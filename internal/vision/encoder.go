package vision

import (
	"bytes"
	"fmt"
	"image/jpeg"
	"time"

	"github.com/eleven-am/careflow/internal/device"
)

const DefaultJPEGQuality = 80

type Encoder struct {
	quality int
}

func NewEncoder(quality int) *Encoder {
	if quality <= 0 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	return &Encoder{quality: quality}
}

// Encode compresses whatever the surface currently displays, at the size it
// is displayed. It returns device.ErrNoFrame before the first render.
func (e *Encoder) Encode(surface *device.Surface) (*Frame, error) {
	img, err := surface.Current()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: e.quality}); err != nil {
		return nil, fmt.Errorf("jpeg encode: %w", err)
	}

	b := img.Bounds()
	return &Frame{
		Data:       buf.Bytes(),
		MimeType:   "image/jpeg",
		Width:      b.Dx(),
		Height:     b.Dy(),
		CapturedAt: time.Now(),
	}, nil
}
