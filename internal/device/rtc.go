package device

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pion/rtcp"
	"github.com/pion/rtp/codecs"
	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media/samplebuilder"
)

type ICEServer struct {
	URLs       []string
	Username   string
	Credential string
}

type RTCConfig struct {
	ICEServers       []ICEServer
	PortMin          int
	PortMax          int
	KeyframeInterval time.Duration
	Logger           *slog.Logger
}

// RTCEngine owns the pion API shared by every browser camera session.
type RTCEngine struct {
	cfg    RTCConfig
	api    *webrtc.API
	logger *slog.Logger
}

func NewRTCEngine(cfg RTCConfig) (*RTCEngine, error) {
	if cfg.KeyframeInterval == 0 {
		cfg.KeyframeInterval = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	me := &webrtc.MediaEngine{}
	if err := me.RegisterDefaultCodecs(); err != nil {
		return nil, err
	}

	se := webrtc.SettingEngine{}
	if cfg.PortMin > 0 && cfg.PortMax > cfg.PortMin {
		if err := se.SetEphemeralUDPPortRange(uint16(cfg.PortMin), uint16(cfg.PortMax)); err != nil {
			return nil, err
		}
	}

	return &RTCEngine{
		cfg:    cfg,
		api:    webrtc.NewAPI(webrtc.WithMediaEngine(me), webrtc.WithSettingEngine(se)),
		logger: cfg.Logger.With("component", "rtc-device"),
	}, nil
}

func (e *RTCEngine) iceServers() []webrtc.ICEServer {
	servers := make([]webrtc.ICEServer, 0, len(e.cfg.ICEServers))
	for _, s := range e.cfg.ICEServers {
		server := webrtc.ICEServer{URLs: s.URLs}
		if s.Username != "" {
			server.Username = s.Username
			server.Credential = s.Credential
			server.CredentialType = webrtc.ICECredentialTypePassword
		}
		servers = append(servers, server)
	}
	if len(servers) == 0 {
		servers = append(servers, webrtc.ICEServer{URLs: []string{"stun:stun.l.google.com:19302"}})
	}
	return servers
}

// Device wraps one browser offer. The returned device can be acquired once.
func (e *RTCEngine) Device(offerSDP string) *RTCDevice {
	return &RTCDevice{engine: e, offer: offerSDP}
}

type RTCDevice struct {
	engine *RTCEngine
	offer  string
	used   atomic.Bool
}

func (d *RTCDevice) Acquire(ctx context.Context, _ Constraints) (Stream, error) {
	if !d.used.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("%w: offer already answered", ErrUnavailable)
	}
	if !strings.Contains(d.offer, "m=video") {
		return nil, fmt.Errorf("%w: offer has no video", ErrUnavailable)
	}

	pc, err := d.engine.api.NewPeerConnection(webrtc.Configuration{ICEServers: d.engine.iceServers()})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	s := &rtcStream{
		pc:       pc,
		decoder:  NewVP8Decoder(),
		logger:   d.engine.logger,
		keyframe: d.engine.cfg.KeyframeInterval,
		closed:   make(chan struct{}),
	}
	pc.OnTrack(s.onTrack)
	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		s.logger.Debug("peer connection state", "state", state.String())
	})

	fail := func(err error) (Stream, error) {
		_ = pc.Close()
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	if err := pc.SetRemoteDescription(webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: d.offer}); err != nil {
		return fail(err)
	}
	answer, err := pc.CreateAnswer(nil)
	if err != nil {
		return fail(err)
	}
	gathered := webrtc.GatheringCompletePromise(pc)
	if err := pc.SetLocalDescription(answer); err != nil {
		return fail(err)
	}

	select {
	case <-gathered:
	case <-ctx.Done():
		return fail(ctx.Err())
	}

	s.answer = pc.LocalDescription().SDP
	return s, nil
}

type rtcStream struct {
	pc       *webrtc.PeerConnection
	decoder  FrameDecoder
	logger   *slog.Logger
	keyframe time.Duration
	answer   string

	mu        sync.Mutex
	surface   *Surface
	closed    chan struct{}
	closeOnce sync.Once
}

func (s *rtcStream) Answer() string {
	return s.answer
}

func (s *rtcStream) Attach(surface *Surface) {
	s.mu.Lock()
	s.surface = surface
	s.mu.Unlock()
}

func (s *rtcStream) Tracks() []Track {
	return []Track{s}
}

func (s *rtcStream) Kind() string {
	return "video"
}

func (s *rtcStream) Stop() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.closed)
		err = s.pc.Close()
		s.logger.Info("rtc stream released")
	})
	return err
}

func (s *rtcStream) currentSurface() *Surface {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.surface
}

func (s *rtcStream) onTrack(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
	if track.Kind() != webrtc.RTPCodecTypeVideo {
		return
	}
	mime := track.Codec().MimeType
	if !strings.EqualFold(mime, webrtc.MimeTypeVP8) {
		s.logger.Warn("unsupported video codec", "mime_type", mime)
		return
	}

	go s.requestKeyframes(uint32(track.SSRC()))
	go s.readVideo(track)
}

func (s *rtcStream) requestKeyframes(ssrc uint32) {
	ticker := time.NewTicker(s.keyframe)
	defer ticker.Stop()

	for {
		select {
		case <-s.closed:
			return
		case <-ticker.C:
			if err := s.pc.WriteRTCP([]rtcp.Packet{&rtcp.PictureLossIndication{MediaSSRC: ssrc}}); err != nil {
				s.logger.Debug("keyframe request failed", "error", err)
			}
		}
	}
}

func (s *rtcStream) readVideo(track *webrtc.TrackRemote) {
	sb := samplebuilder.New(64, &codecs.VP8Packet{}, track.Codec().ClockRate)

	for {
		pkt, _, err := track.ReadRTP()
		if err != nil {
			s.logger.Debug("video track ended", "error", err)
			return
		}
		sb.Push(pkt)

		for sample := sb.Pop(); sample != nil; sample = sb.Pop() {
			surface := s.currentSurface()
			if surface == nil {
				continue
			}
			img, err := s.decoder.Decode(sample.Data)
			if err != nil {
				if !errors.Is(err, errNotKeyframe) {
					s.logger.Debug("frame decode failed", "error", err)
				}
				continue
			}
			surface.Render(img)
		}
	}
}
