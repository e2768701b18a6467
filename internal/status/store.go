// Package status persists and fans out the statuses monitoring sessions
// apply, so dashboards and nurse-call bridges see them without holding a
// websocket open.
package status

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/eleven-am/careflow/internal/monitor"
	"github.com/eleven-am/careflow/internal/observation"
	"github.com/eleven-am/careflow/internal/shared"
	"github.com/redis/go-redis/v9"
)

const (
	defaultTTL = 24 * time.Hour
	maxRecords = 50
)

// Entry is the stored form of a session status.
type Entry struct {
	SessionID string              `json:"session_id"`
	Kind      monitor.StatusKind  `json:"kind"`
	Text      string              `json:"text"`
	Record    *observation.Record `json:"record,omitempty"`
	Detail    string              `json:"detail,omitempty"`
	UpdatedAt time.Time           `json:"updated_at"`
}

func FromStatus(sessionID string, st monitor.Status) Entry {
	return Entry{
		SessionID: sessionID,
		Kind:      st.Kind,
		Text:      st.Text,
		Record:    st.Record,
		Detail:    st.Detail,
		UpdatedAt: st.UpdatedAt,
	}
}

type Store struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewStore(redisClient *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Store{redis: redisClient, ttl: ttl}
}

func statusKey(sessionID string) string {
	return fmt.Sprintf("monitor:%s:status", sessionID)
}

func recordsKey(sessionID string) string {
	return fmt.Sprintf("monitor:%s:records", sessionID)
}

// Publish lets the store sit behind a session as a status sink.
func (s *Store) Publish(ctx context.Context, sessionID string, st monitor.Status) error {
	return s.Save(ctx, sessionID, FromStatus(sessionID, st))
}

func (s *Store) Save(ctx context.Context, sessionID string, e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}

	pipe := s.redis.TxPipeline()
	pipe.Set(ctx, statusKey(sessionID), data, s.ttl)
	if e.Record != nil {
		if err := s.pushRecord(ctx, pipe, sessionID, *e.Record); err != nil {
			return err
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save status: %w", err)
	}
	return nil
}

// AppendRecord logs an observation without changing the stored status.
func (s *Store) AppendRecord(ctx context.Context, sessionID string, rec observation.Record) error {
	pipe := s.redis.TxPipeline()
	if err := s.pushRecord(ctx, pipe, sessionID, rec); err != nil {
		return err
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append record: %w", err)
	}
	return nil
}

func (s *Store) pushRecord(ctx context.Context, pipe redis.Pipeliner, sessionID string, rec observation.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	key := recordsKey(sessionID)
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, maxRecords-1)
	pipe.Expire(ctx, key, s.ttl)
	return nil
}

func (s *Store) Latest(ctx context.Context, sessionID string) (*Entry, error) {
	data, err := s.redis.Get(ctx, statusKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Recent returns up to limit stored records, newest first.
func (s *Store) Recent(ctx context.Context, sessionID string, limit int) ([]observation.Record, error) {
	if limit <= 0 || limit > maxRecords {
		limit = maxRecords
	}

	items, err := s.redis.LRange(ctx, recordsKey(sessionID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	records := make([]observation.Record, 0, len(items))
	for _, item := range items {
		var r observation.Record
		if err := json.Unmarshal([]byte(item), &r); err != nil {
			continue
		}
		records = append(records, r)
	}
	return records, nil
}

func (s *Store) Delete(ctx context.Context, sessionID string) error {
	return s.redis.Del(ctx, statusKey(sessionID), recordsKey(sessionID)).Err()
}
