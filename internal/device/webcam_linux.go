//go:build linux

package device

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/jpeg"
	"log/slog"
	"slices"
	"sync"

	"github.com/blackjack/webcam"
)

// V4L2 fourcc for Motion-JPEG.
const pixelFormatMJPEG webcam.PixelFormat = 0x47504A4D

type WebcamConfig struct {
	// Paths lists candidate device nodes, front-facing camera first.
	Paths  []string
	Width  int
	Height int
	Logger *slog.Logger
}

type Webcam struct {
	cfg    WebcamConfig
	logger *slog.Logger
}

func NewWebcam(cfg WebcamConfig) *Webcam {
	if len(cfg.Paths) == 0 {
		cfg.Paths = []string{"/dev/video0"}
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		cfg.Width, cfg.Height = 640, 480
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Webcam{
		cfg:    cfg,
		logger: cfg.Logger.With("component", "webcam"),
	}
}

func (w *Webcam) Acquire(ctx context.Context, c Constraints) (Stream, error) {
	width, height := w.cfg.Width, w.cfg.Height
	if c.Width > 0 && c.Height > 0 {
		width, height = c.Width, c.Height
	}

	var errs []error
	for _, path := range candidatePaths(w.cfg.Paths, c.Facing) {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		cam, err := webcam.Open(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("open %s: %w", path, err))
			continue
		}

		if err := configureMJPEG(cam, width, height); err != nil {
			cam.Close()
			errs = append(errs, fmt.Errorf("configure %s: %w", path, err))
			continue
		}

		if err := cam.StartStreaming(); err != nil {
			cam.Close()
			errs = append(errs, fmt.Errorf("start %s: %w", path, err))
			continue
		}

		w.logger.Info("webcam acquired", "path", path, "width", width, "height", height)
		return newWebcamStream(cam, path, w.logger), nil
	}

	return nil, fmt.Errorf("%w: %w", ErrUnavailable, errors.Join(errs...))
}

// candidatePaths puts the front camera first for FacingUser and last for
// FacingEnvironment.
func candidatePaths(paths []string, facing Facing) []string {
	out := slices.Clone(paths)
	if facing == FacingEnvironment {
		slices.Reverse(out)
	}
	return out
}

func configureMJPEG(cam *webcam.Webcam, width, height int) error {
	formats := cam.GetSupportedFormats()
	if _, ok := formats[pixelFormatMJPEG]; !ok {
		return errors.New("device does not offer MJPEG")
	}
	_, _, _, err := cam.SetImageFormat(pixelFormatMJPEG, uint32(width), uint32(height))
	return err
}

type webcamStream struct {
	cam    *webcam.Webcam
	path   string
	logger *slog.Logger

	mu       sync.Mutex
	attached bool
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	stopErr  error
}

func newWebcamStream(cam *webcam.Webcam, path string, logger *slog.Logger) *webcamStream {
	return &webcamStream{
		cam:    cam,
		path:   path,
		logger: logger.With("path", path),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

func (s *webcamStream) Attach(surface *Surface) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.attached {
		return
	}
	select {
	case <-s.stop:
		return
	default:
	}
	s.attached = true
	go s.pump(surface)
}

func (s *webcamStream) Tracks() []Track {
	return []Track{s}
}

func (s *webcamStream) Kind() string {
	return "video"
}

func (s *webcamStream) pump(surface *Surface) {
	defer close(s.done)

	for {
		select {
		case <-s.stop:
			return
		default:
		}

		err := s.cam.WaitForFrame(1)
		switch err.(type) {
		case nil:
		case *webcam.Timeout:
			continue
		default:
			s.logger.Error("webcam wait failed", "error", err)
			return
		}

		frame, err := s.cam.ReadFrame()
		if err != nil {
			s.logger.Error("webcam read failed", "error", err)
			return
		}
		if len(frame) == 0 {
			continue
		}

		img, err := jpeg.Decode(bytes.NewReader(frame))
		if err != nil {
			s.logger.Debug("mjpeg decode failed", "error", err, "bytes", len(frame))
			continue
		}
		surface.Render(img)
	}
}

// Stop ends the frame pump and releases the device node.
func (s *webcamStream) Stop() error {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		close(s.stop)
		attached := s.attached
		s.mu.Unlock()

		if attached {
			<-s.done
		}

		var errs []error
		if err := s.cam.StopStreaming(); err != nil {
			errs = append(errs, err)
		}
		if err := s.cam.Close(); err != nil {
			errs = append(errs, err)
		}
		s.stopErr = errors.Join(errs...)
		s.logger.Info("webcam released")
	})
	return s.stopErr
}
