package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/eleven-am/careflow/internal/device"
	"github.com/eleven-am/careflow/internal/observation"
	"github.com/eleven-am/careflow/internal/vision"
)

const DefaultInferenceTimeout = 30 * time.Second

var ErrDisposed = errors.New("session disposed")

type State string

const (
	StateClosed State = "closed"
	StateOpen   State = "open"
)

type Config struct {
	ID               string
	Label            string
	Device           device.Device
	Inferrer         vision.Inferrer
	Encoder          *vision.Encoder
	Interval         time.Duration
	HistoryLen       int
	InferenceTimeout time.Duration
	Constraints      device.Constraints
	Sinks            []StatusSink
}

// Snapshot is a point-in-time copy of a session.
type Snapshot struct {
	ID       string               `json:"id"`
	Label    string               `json:"label"`
	State    State                `json:"state"`
	Status   Status               `json:"status"`
	Loading  bool                 `json:"loading"`
	InFlight int                  `json:"in_flight"`
	History  []observation.Record `json:"history"`
	OpenedAt *time.Time           `json:"opened_at,omitempty"`
	Answer   string               `json:"sdp,omitempty"`
}

// Session owns one camera stream, its capture scheduler and its
// observation window. Results are applied only while the episode that
// issued them is still open.
type Session struct {
	id          string
	label       string
	inferrer    vision.Inferrer
	encoder     *vision.Encoder
	interval    time.Duration
	timeout     time.Duration
	constraints device.Constraints
	notifier    *notifier
	logger      *slog.Logger

	// transition serializes Open and Close; mu guards the fields below.
	transition sync.Mutex

	mu            sync.Mutex
	dev           device.Device
	state         State
	epoch         uint64
	stream        device.Stream
	surface       *device.Surface
	scheduler     *Scheduler
	window        *observation.Window
	latest        Status
	displayedTick uint64
	seq           uint64
	inFlight      int
	openedAt      time.Time
	subscribers   map[int]chan Status
	nextSub       int
	disposed      bool
}

func NewSession(cfg Config, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Encoder == nil {
		cfg.Encoder = vision.NewEncoder(vision.DefaultJPEGQuality)
	}
	if cfg.InferenceTimeout <= 0 {
		cfg.InferenceTimeout = DefaultInferenceTimeout
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Constraints.Facing == "" {
		cfg.Constraints.Facing = device.FacingUser
	}

	log := logger.With("component", "monitor_session", "session_id", cfg.ID)
	return &Session{
		id:          cfg.ID,
		label:       cfg.Label,
		dev:         cfg.Device,
		inferrer:    cfg.Inferrer,
		encoder:     cfg.Encoder,
		interval:    cfg.Interval,
		timeout:     cfg.InferenceTimeout,
		constraints: cfg.Constraints,
		notifier:    newNotifier(cfg.Sinks, log),
		logger:      log,
		state:       StateClosed,
		window:      observation.NewWindow(cfg.HistoryLen),
		latest:      waitingStatus(),
		subscribers: make(map[int]chan Status),
	}
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Label() string {
	return s.label
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// UseDevice swaps the device used by the next Open. It has no effect on a
// stream that is already running.
func (s *Session) UseDevice(dev device.Device) {
	s.transition.Lock()
	defer s.transition.Unlock()
	s.mu.Lock()
	s.dev = dev
	s.mu.Unlock()
}

// Open acquires the camera and starts sampling. On failure the session stays
// closed, shows the camera error and the returned error wraps
// device.ErrUnavailable.
func (s *Session) Open(ctx context.Context) error {
	s.transition.Lock()
	defer s.transition.Unlock()

	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return ErrDisposed
	}
	if s.state == StateOpen {
		s.mu.Unlock()
		return nil
	}
	dev := s.dev
	s.mu.Unlock()

	if dev == nil {
		return s.failOpen(fmt.Errorf("%w: no device configured", device.ErrUnavailable))
	}

	stream, err := dev.Acquire(ctx, s.constraints)
	if err != nil {
		if !errors.Is(err, device.ErrUnavailable) {
			err = fmt.Errorf("%w: %w", device.ErrUnavailable, err)
		}
		return s.failOpen(err)
	}

	surface := device.NewSurface()
	stream.Attach(surface)

	s.mu.Lock()
	s.epoch++
	epoch := s.epoch
	s.window.Reset()
	s.seq = 0
	s.inFlight = 0
	s.displayedTick = 0
	s.stream = stream
	s.surface = surface
	s.state = StateOpen
	s.openedAt = time.Now()
	sched := NewScheduler(s.interval, func(t Tick) { s.cycle(epoch, t) })
	s.scheduler = sched
	s.setStatusLocked(waitingStatus())
	s.mu.Unlock()

	sched.Start()
	s.logger.Info("monitor session opened", "epoch", epoch, "interval", s.interval)
	return nil
}

func (s *Session) failOpen(err error) error {
	s.mu.Lock()
	s.setStatusLocked(errorStatus(cameraErrorText, err))
	s.mu.Unlock()
	s.logger.Error("failed to acquire camera", "error", err)
	return err
}

// Close stops sampling and releases the camera. Inference calls already in
// flight finish on their own, and their results are discarded.
func (s *Session) Close() error {
	s.transition.Lock()
	defer s.transition.Unlock()
	return s.closeHeld()
}

// closeHeld runs Close with the transition lock already held.
func (s *Session) closeHeld() error {
	s.mu.Lock()
	if s.state == StateClosed && s.stream == nil {
		s.mu.Unlock()
		return nil
	}
	sched, stream, surface := s.scheduler, s.stream, s.surface
	s.state = StateClosed
	s.scheduler = nil
	s.stream = nil
	s.surface = nil
	epoch := s.epoch
	s.mu.Unlock()

	if sched != nil {
		sched.Stop()
	}
	err := device.StopAll(stream)
	if err != nil {
		s.logger.Warn("failed to stop camera tracks", "error", err)
	}
	if surface != nil {
		surface.Clear()
	}

	s.logger.Info("monitor session closed", "epoch", epoch)
	return err
}

// Dispose closes the session and releases its subscribers and sinks. The
// session cannot be reopened afterwards.
func (s *Session) Dispose() error {
	s.transition.Lock()
	defer s.transition.Unlock()

	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return nil
	}
	s.disposed = true
	s.mu.Unlock()

	err := s.closeHeld()

	s.mu.Lock()
	for id, ch := range s.subscribers {
		close(ch)
		delete(s.subscribers, id)
	}
	s.mu.Unlock()

	s.notifier.close()
	return err
}

// Subscribe returns a channel that receives every status the session
// applies. Slow subscribers miss updates rather than block the session.
func (s *Session) Subscribe() (<-chan Status, func()) {
	ch := make(chan Status, 16)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		close(ch)
		return ch, func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if c, ok := s.subscribers[id]; ok {
				delete(s.subscribers, id)
				close(c)
			}
		})
	}
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:       s.id,
		Label:    s.label,
		State:    s.state,
		Status:   s.latest,
		Loading:  s.inFlight > 0,
		InFlight: s.inFlight,
		History:  s.window.Records(),
	}
	if s.state == StateOpen {
		opened := s.openedAt
		snap.OpenedAt = &opened
		if n, ok := s.stream.(device.Negotiated); ok {
			snap.Answer = n.Answer()
		}
	}
	return snap
}

func (s *Session) currentEpoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

func (s *Session) activeLocked(epoch uint64) bool {
	return s.state == StateOpen && s.epoch == epoch
}

// cycle samples the surface once and runs inference on it. epoch pins the
// cycle to the open episode that scheduled it.
func (s *Session) cycle(epoch uint64, tick Tick) {
	s.mu.Lock()
	if !s.activeLocked(epoch) {
		s.mu.Unlock()
		return
	}
	surface := s.surface
	history := s.window.Records()
	s.mu.Unlock()

	frame, err := s.encoder.Encode(surface)
	if err != nil {
		if errors.Is(err, device.ErrNoFrame) {
			s.logger.Debug("no frame rendered yet, skipping cycle", "tick", tick.Seq)
			return
		}
		s.logger.Warn("failed to encode frame", "error", err, "tick", tick.Seq)
		return
	}

	s.mu.Lock()
	if !s.activeLocked(epoch) {
		s.mu.Unlock()
		return
	}
	s.inFlight++
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	rec, err := s.inferrer.Infer(ctx, vision.Request{Frame: frame, History: history})
	cancel()

	s.apply(epoch, tick, rec, err)
}

func (s *Session) apply(epoch uint64, tick Tick, rec observation.Record, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.epoch == epoch && s.inFlight > 0 {
		s.inFlight--
	}
	if !s.activeLocked(epoch) {
		s.logger.Debug("discarding result from closed episode", "tick", tick.Seq, "epoch", epoch)
		return
	}

	if err != nil {
		s.logger.Error("inference failed", "error", err, "tick", tick.Seq)
		if tick.Seq >= s.displayedTick {
			s.displayedTick = tick.Seq
			st := errorStatus(inferenceErrorText, err)
			st.Tick = tick.Seq
			s.setStatusLocked(st)
		}
		return
	}

	s.seq++
	rec.Seq = s.seq
	if rec.CapturedAt.IsZero() {
		rec.CapturedAt = tick.At
	}
	s.window.Append(rec)

	// A result from an older tick still enters the window but never
	// replaces what a newer tick already put on display.
	if tick.Seq < s.displayedTick {
		s.logger.Debug("late result kept out of display", "tick", tick.Seq, "displayed", s.displayedTick)
		if !s.disposed {
			s.notifier.enqueueRecord(s.id, rec)
		}
		return
	}
	s.displayedTick = tick.Seq
	s.setStatusLocked(observationStatus(rec, tick.Seq))
}

func (s *Session) setStatusLocked(st Status) {
	s.latest = st
	if s.disposed {
		return
	}
	for _, ch := range s.subscribers {
		select {
		case ch <- st:
		default:
		}
	}
	s.notifier.enqueue(s.id, st)
}
