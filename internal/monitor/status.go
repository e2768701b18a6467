package monitor

import (
	"time"

	"github.com/eleven-am/careflow/internal/observation"
)

type StatusKind string

const (
	StatusWaiting     StatusKind = "waiting"
	StatusObservation StatusKind = "observation"
	StatusError       StatusKind = "error"
)

const (
	waitingText        = "Waiting for first frame..."
	cameraErrorText    = "Camera error. Check device permissions."
	inferenceErrorText = "Inference error. Retrying on next frame."
)

// Status is what a session currently displays to the caregiver.
type Status struct {
	Kind      StatusKind          `json:"kind"`
	Text      string              `json:"text"`
	Record    *observation.Record `json:"record,omitempty"`
	Detail    string              `json:"detail,omitempty"`
	Tick      uint64              `json:"tick"`
	UpdatedAt time.Time           `json:"updated_at"`
}

func waitingStatus() Status {
	return Status{Kind: StatusWaiting, Text: waitingText, UpdatedAt: time.Now()}
}

func errorStatus(text string, err error) Status {
	st := Status{Kind: StatusError, Text: text, UpdatedAt: time.Now()}
	if err != nil {
		st.Detail = err.Error()
	}
	return st
}

func observationStatus(rec observation.Record, tick uint64) Status {
	return Status{
		Kind:      StatusObservation,
		Text:      rec.String(),
		Record:    &rec,
		Tick:      tick,
		UpdatedAt: time.Now(),
	}
}
