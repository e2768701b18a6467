// Package events serves the patient's care-plan events: medications,
// exercises and appointments the care team tracks to completion.
package events

import (
	"errors"
	"time"
)

var ErrInvalidStatus = errors.New("invalid event status")

type Type string

const (
	TypeMedication  Type = "medication"
	TypeExercise    Type = "exercise"
	TypeAppointment Type = "appointment"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusMissed    Status = "missed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusMissed:
		return true
	}
	return false
}

func (t Type) Valid() bool {
	switch t {
	case TypeMedication, TypeExercise, TypeAppointment:
		return true
	}
	return false
}

type Event struct {
	ID                    string     `gorm:"primaryKey" json:"id"`
	Type                  Type       `gorm:"not null" json:"type"`
	Status                Status     `gorm:"not null;index" json:"status"`
	EventDateToCompleteBy *time.Time `json:"event_date_to_complete_by,omitempty"`
	EventHeader           string     `gorm:"not null" json:"event_header"`
	EventDescription      string     `json:"event_description"`
	Priority              int        `json:"priority"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

func (Event) TableName() string {
	return "events"
}
