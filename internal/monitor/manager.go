package monitor

import (
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/eleven-am/careflow/internal/device"
	"github.com/eleven-am/careflow/internal/shared"
	"github.com/eleven-am/careflow/internal/vision"
)

type ManagerConfig struct {
	Inferrer         vision.Inferrer
	Encoder          *vision.Encoder
	Interval         time.Duration
	HistoryLen       int
	InferenceTimeout time.Duration
	Sinks            []StatusSink
	Log              *slog.Logger
}

type Manager struct {
	cfg      ManagerConfig
	sessions map[string]*Session
	mu       sync.RWMutex
	log      *slog.Logger
}

func NewManager(cfg ManagerConfig) *Manager {
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	if cfg.Encoder == nil {
		cfg.Encoder = vision.NewEncoder(vision.DefaultJPEGQuality)
	}

	return &Manager{
		cfg:      cfg,
		sessions: make(map[string]*Session),
		log:      cfg.Log.With("component", "monitor_manager"),
	}
}

// Create registers a closed session bound to dev.
func (m *Manager) Create(label string, dev device.Device) *Session {
	session := NewSession(Config{
		ID:               shared.NewID("mon_"),
		Label:            label,
		Device:           dev,
		Inferrer:         m.cfg.Inferrer,
		Encoder:          m.cfg.Encoder,
		Interval:         m.cfg.Interval,
		HistoryLen:       m.cfg.HistoryLen,
		InferenceTimeout: m.cfg.InferenceTimeout,
		Sinks:            m.cfg.Sinks,
	}, m.cfg.Log)

	m.mu.Lock()
	m.sessions[session.ID()] = session
	m.mu.Unlock()

	m.log.Info("monitor session created", "session_id", session.ID(), "label", label)
	return session
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	session, ok := m.sessions[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return session, nil
}

func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	session, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	if !ok {
		return shared.ErrNotFound
	}
	err := session.Dispose()
	m.log.Info("monitor session removed", "session_id", id)
	return err
}

// List returns snapshots ordered by label, then id.
func (m *Manager) List() []Snapshot {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	snaps := make([]Snapshot, 0, len(sessions))
	for _, s := range sessions {
		snaps = append(snaps, s.Snapshot())
	}
	sort.Slice(snaps, func(i, j int) bool {
		if snaps[i].Label != snaps[j].Label {
			return snaps[i].Label < snaps[j].Label
		}
		return snaps[i].ID < snaps[j].ID
	})
	return snaps
}

func (m *Manager) SessionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Manager) OpenCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, s := range m.sessions {
		if s.State() == StateOpen {
			n++
		}
	}
	return n
}

func (m *Manager) Close() error {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	var errs []error
	for _, s := range sessions {
		if err := s.Dispose(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
