package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// ListEvents returns the events roster in the order the service sent it.
func (c *Client) ListEvents(ctx context.Context, token string) ([]Event, error) {
	var raw json.RawMessage
	if _, err := c.do(ctx, request{
		method: http.MethodGet,
		url:    c.endpoints.Events,
		token:  token,
		out:    &raw,
	}); err != nil {
		return nil, err
	}

	if !isArray(raw) {
		return nil, fmt.Errorf("%w: events response is not a list", ErrUnavailable)
	}

	return decodeList[Event](raw, func(index int, err error) {
		c.logger.Warn().Err(err).Int("index", index).Msg("Skipping malformed event")
	}), nil
}

// CreateEvent creates an event owned by ev.OrganizerID.
func (c *Client) CreateEvent(ctx context.Context, token string, ev NewEvent) error {
	_, err := c.do(ctx, request{
		method: http.MethodPost,
		url:    c.endpoints.Events,
		token:  token,
		body:   ev,
	})
	return err
}

// UpdateEvent replaces the editable fields of event id.
func (c *Client) UpdateEvent(ctx context.Context, token string, id ID, ev EventUpdate) error {
	_, err := c.do(ctx, request{
		method: http.MethodPut,
		url:    c.endpoints.Events + "/" + url.PathEscape(string(id)),
		token:  token,
		body:   ev,
	})
	return err
}

// DeleteEvent removes event id.
func (c *Client) DeleteEvent(ctx context.Context, token string, id ID) error {
	_, err := c.do(ctx, request{
		method: http.MethodDelete,
		url:    c.endpoints.Events + "/" + url.PathEscape(string(id)),
		token:  token,
	})
	return err
}

// SendNotification asks the notification service to deliver reminder.
func (c *Client) SendNotification(ctx context.Context, reminder Reminder) error {
	_, err := c.do(ctx, request{
		method: http.MethodPost,
		url:    c.endpoints.Notification + "/api/notifications/send",
		body:   reminder,
	})
	return err
}

func isArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}
