package events

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/eleven-am/careflow/internal/shared"
	"github.com/go-resty/resty/v2"
)

// Client talks to the event API of a running server.
type Client struct {
	http *resty.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout).
			SetHeader("Accept", "application/json"),
	}
}

func (c *Client) List(ctx context.Context) ([]Event, error) {
	var events []Event
	var apiErr shared.APIError
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&events).
		SetError(&apiErr).
		Get("/get-events")
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	if resp.IsError() {
		return nil, responseError(resp.StatusCode(), &apiErr)
	}
	return events, nil
}

func (c *Client) UpdateStatus(ctx context.Context, id string, status Status) error {
	var apiErr shared.APIError
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(UpdateStatusRequest{ID: id, Status: status}).
		SetError(&apiErr).
		Post("/update-event-status")
	if err != nil {
		return fmt.Errorf("update event status: %w", err)
	}
	if resp.IsError() {
		return responseError(resp.StatusCode(), &apiErr)
	}
	return nil
}

func responseError(code int, apiErr *shared.APIError) error {
	switch code {
	case http.StatusNotFound:
		return shared.ErrNotFound
	case http.StatusBadRequest:
		if apiErr.Code == "invalid_status" {
			return ErrInvalidStatus
		}
	}
	if apiErr.Message != "" {
		return fmt.Errorf("event api %d: %s", code, apiErr.Message)
	}
	return fmt.Errorf("event api %d", code)
}
