package monitor

import (
	"context"
	"errors"
	"image"
	"image/color"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/eleven-am/careflow/internal/device"
	"github.com/eleven-am/careflow/internal/observation"
	"github.com/eleven-am/careflow/internal/vision"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 8, 6))
	for y := 0; y < 6; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 30), G: uint8(y * 40), B: 90, A: 255})
		}
	}
	return img
}

type fakeTrack struct {
	stops atomic.Int32
}

func (t *fakeTrack) Kind() string { return "video" }

func (t *fakeTrack) Stop() error {
	t.stops.Add(1)
	return nil
}

type fakeStream struct {
	img    image.Image
	track  *fakeTrack
	answer string
}

func (s *fakeStream) Attach(surface *device.Surface) {
	if s.img != nil {
		surface.Render(s.img)
	}
}

func (s *fakeStream) Tracks() []device.Track { return []device.Track{s.track} }

func (s *fakeStream) Answer() string { return s.answer }

type fakeDevice struct {
	img    image.Image
	err    error
	answer string

	mu     sync.Mutex
	tracks []*fakeTrack
	seen   []device.Constraints
}

func (d *fakeDevice) Acquire(ctx context.Context, c device.Constraints) (device.Stream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen = append(d.seen, c)
	if d.err != nil {
		return nil, d.err
	}
	tr := &fakeTrack{}
	d.tracks = append(d.tracks, tr)
	return &fakeStream{img: d.img, track: tr, answer: d.answer}, nil
}

func (d *fakeDevice) acquired() []*fakeTrack {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*fakeTrack(nil), d.tracks...)
}

// scriptedInferrer answers calls in order with the configured replies. An
// entry in errs at the same index turns that call into a failure.
type scriptedInferrer struct {
	mu       sync.Mutex
	replies  []string
	errs     map[int]error
	requests []vision.Request
}

func (s *scriptedInferrer) Infer(ctx context.Context, req vision.Request) (observation.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := len(s.requests)
	s.requests = append(s.requests, req)
	if err, ok := s.errs[i]; ok {
		return observation.Record{}, err
	}
	if i >= len(s.replies) {
		return observation.Parse(""), nil
	}
	return observation.Parse(s.replies[i]), nil
}

func (s *scriptedInferrer) calls() []vision.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]vision.Request(nil), s.requests...)
}

type gatedResult struct {
	rec observation.Record
	err error
}

type gatedCall struct {
	ctx   context.Context
	req   vision.Request
	reply chan gatedResult
}

// gatedInferrer blocks every call until the test releases it.
type gatedInferrer struct {
	started chan *gatedCall
}

func newGatedInferrer() *gatedInferrer {
	return &gatedInferrer{started: make(chan *gatedCall, 8)}
}

func (g *gatedInferrer) Infer(ctx context.Context, req vision.Request) (observation.Record, error) {
	call := &gatedCall{ctx: ctx, req: req, reply: make(chan gatedResult, 1)}
	g.started <- call
	res := <-call.reply
	return res.rec, res.err
}

func (g *gatedInferrer) next(t *testing.T) *gatedCall {
	t.Helper()
	select {
	case call := <-g.started:
		return call
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for inference call")
		return nil
	}
}

func (c *gatedCall) resolve(reply string) {
	c.reply <- gatedResult{rec: observation.Parse(reply)}
}

func (c *gatedCall) fail(err error) {
	c.reply <- gatedResult{err: err}
}

var errUpstream = errors.New("upstream 503")

func newTestSession(t *testing.T, dev device.Device, inf vision.Inferrer, historyLen int) *Session {
	t.Helper()
	s := NewSession(Config{
		ID:         "mon_test",
		Label:      "Room 12",
		Device:     dev,
		Inferrer:   inf,
		Interval:   time.Hour,
		HistoryLen: historyLen,
	}, discardLogger())
	t.Cleanup(func() { _ = s.Dispose() })
	return s
}

func openSession(t *testing.T, s *Session) uint64 {
	t.Helper()
	if err := s.Open(context.Background()); err != nil {
		t.Fatalf("open: %v", err)
	}
	return s.currentEpoch()
}

func runCycle(s *Session, epoch, seq uint64) {
	s.cycle(epoch, Tick{Seq: seq, At: time.Now()})
}

func startCycle(s *Session, epoch, seq uint64) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		runCycle(s, epoch, seq)
	}()
	return done
}

func wait(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for cycle")
	}
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func historyLines(records []observation.Record) []string {
	lines := make([]string, len(records))
	for i, r := range records {
		lines[i] = r.String()
	}
	return lines
}
