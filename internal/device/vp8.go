package device

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"

	"golang.org/x/image/vp8"
)

var errNotKeyframe = errors.New("not a keyframe")

type FrameDecoder interface {
	Decode(data []byte) (image.Image, error)
}

// vp8Frames is the part of vp8.Decoder used here. A vp8.Decoder writes every
// frame of a given size into the same buffer, so one is never reused.
type vp8Frames interface {
	Init(r io.Reader, n int)
	DecodeFrameHeader() (vp8.FrameHeader, error)
	DecodeFrame() (*image.YCbCr, error)
}

// VP8Decoder decodes VP8 keyframes. Interframes are rejected, the RTC stream
// requests keyframes on a fixed cadence instead. Each returned image owns its
// pixels and stays valid after later decodes.
type VP8Decoder struct {
	newFrames func() vp8Frames
}

func NewVP8Decoder() *VP8Decoder {
	return &VP8Decoder{newFrames: func() vp8Frames { return vp8.NewDecoder() }}
}

func (d *VP8Decoder) Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, errors.New("empty frame data")
	}
	if data[0]&0x01 != 0 {
		return nil, errNotKeyframe
	}

	dec := d.newFrames()
	dec.Init(bytes.NewReader(data), len(data))
	fh, err := dec.DecodeFrameHeader()
	if err != nil {
		return nil, fmt.Errorf("decode frame header: %w", err)
	}
	if fh.Width == 0 || fh.Height == 0 {
		return nil, fmt.Errorf("invalid frame dimensions: %dx%d", fh.Width, fh.Height)
	}

	img, err := dec.DecodeFrame()
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	return img, nil
}
