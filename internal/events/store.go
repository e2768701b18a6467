package events

import (
	"context"
	"fmt"

	"github.com/eleven-am/careflow/internal/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const defaultPriority = 1

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Migrate() error {
	return s.db.AutoMigrate(&Event{})
}

// List returns every event, soonest due first.
func (s *Store) List(ctx context.Context) ([]*Event, error) {
	var events []*Event
	err := s.db.WithContext(ctx).
		Order("event_date_to_complete_by ASC").
		Order("priority DESC").
		Find(&events).Error
	return events, err
}

func (s *Store) UpdateStatus(ctx context.Context, id string, status Status) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	result := s.db.WithContext(ctx).Model(&Event{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Create inserts new events as pending. Missing ids are generated.
func (s *Store) Create(ctx context.Context, events ...*Event) error {
	if len(events) == 0 {
		return nil
	}
	for _, e := range events {
		if !e.Type.Valid() {
			return fmt.Errorf("invalid event type %q", e.Type)
		}
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		if e.Status == "" {
			e.Status = StatusPending
		}
		if e.Priority == 0 {
			e.Priority = defaultPriority
		}
	}
	return s.db.WithContext(ctx).Create(&events).Error
}
