// Package device acquires live video sources and renders their frames onto a
// Surface that the capture loop samples from.
package device

import (
	"context"
	"errors"
)

var (
	ErrUnavailable = errors.New("capture device unavailable")
	ErrNoFrame     = errors.New("no frame available")
)

type Facing string

const (
	FacingUser        Facing = "user"
	FacingEnvironment Facing = "environment"
)

type Constraints struct {
	Facing Facing
	Width  int
	Height int
}

// Device hands out live streams. Acquire failures wrap ErrUnavailable.
type Device interface {
	Acquire(ctx context.Context, c Constraints) (Stream, error)
}

// Stream is an acquired device handle. Attach binds it to the surface its
// frames are rendered on.
type Stream interface {
	Attach(surface *Surface)
	Tracks() []Track
}

type Track interface {
	Kind() string
	Stop() error
}

// Negotiated is implemented by streams that answer a remote offer.
type Negotiated interface {
	Answer() string
}

func StopAll(s Stream) error {
	if s == nil {
		return nil
	}
	var errs []error
	for _, t := range s.Tracks() {
		if err := t.Stop(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
