/*
Package backend is the HTTP client for the campus services the portal sits in front of:
the events service, the booking service, the notification service and the auth service.

Each service has its own base URL. Every call takes a context and, where the service
requires it, the user's access token which is sent as a bearer credential. Non-2xx answers
become *APIError carrying the service's "detail" message.
*/
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"campusportal/internal/pkg/logx"
)

// maxErrorBody bounds how much of an error response is read for its detail.
const maxErrorBody = 64 << 10

// ErrUnavailable wraps transport failures (connection refused, timeouts, bad payloads).
var ErrUnavailable = errors.New("backend unavailable")

// Endpoints holds the base URL of every service.
type Endpoints struct {
	// Events is the events collection URL, already ending in "/events".
	Events       string
	Booking      string
	Notification string
	Auth         string
}

// Client talks to the backend services. It is safe for concurrent use.
type Client struct {
	endpoints Endpoints
	http      *http.Client
	logger    zerolog.Logger
}

// NewClient builds a Client whose requests time out after timeout.
func NewClient(endpoints Endpoints, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   32,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}

	return NewClientWithHTTP(endpoints, &http.Client{Transport: transport, Timeout: timeout})
}

// NewClientWithHTTP builds a Client on top of an existing http.Client.
func NewClientWithHTTP(endpoints Endpoints, hc *http.Client) *Client {
	endpoints.Events = strings.TrimRight(endpoints.Events, "/")
	endpoints.Booking = strings.TrimRight(endpoints.Booking, "/")
	endpoints.Notification = strings.TrimRight(endpoints.Notification, "/")
	endpoints.Auth = strings.TrimRight(endpoints.Auth, "/")

	return &Client{
		endpoints: endpoints,
		http:      hc,
		logger:    logx.Component("backend"),
	}
}

// APIError is a non-2xx answer from a backend service.
type APIError struct {
	Method string
	URL    string
	Status int

	// Detail is the service's "detail" message, empty when it sent none.
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.URL, e.Status, e.Detail)
	}
	return fmt.Sprintf("%s %s: HTTP %d", e.Method, e.URL, e.Status)
}

// StatusOf returns the HTTP status of an *APIError in err's chain, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// IsNotFound reports whether err is a 404 from a backend service.
func IsNotFound(err error) bool {
	return StatusOf(err) == http.StatusNotFound
}

// DetailOf returns the backend's detail message carried by err, or "".
func DetailOf(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Detail
	}
	return ""
}

// request is one backend call.
type request struct {
	method string
	url    string
	token  string
	body   any

	// out receives the decoded 2xx body when non-nil.
	out any
}

// do executes req and returns the response status. Non-2xx answers return *APIError.
func (c *Client) do(ctx context.Context, req request) (int, error) {
	var body io.Reader
	if req.body != nil {
		payload, err := json.Marshal(req.body)
		if err != nil {
			return 0, fmt.Errorf("encode %s %s: %w", req.method, req.url, err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, req.url, body)
	if err != nil {
		return 0, fmt.Errorf("build %s %s: %w", req.method, req.url, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.token)
	}

	start := time.Now()
	res, err := c.http.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		return 0, fmt.Errorf("%w: %s %s: %v", ErrUnavailable, req.method, req.url, err)
	}
	defer res.Body.Close()

	c.logger.Debug().
		Str("method", req.method).
		Str("url", req.url).
		Int("status", res.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("Backend call finished")

	if res.StatusCode < 200 || res.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		return res.StatusCode, &APIError{
			Method: req.method,
			URL:    req.url,
			Status: res.StatusCode,
			Detail: parseDetail(raw),
		}
	}

	if req.out == nil || res.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, res.Body)
		return res.StatusCode, nil
	}

	if err := json.NewDecoder(res.Body).Decode(req.out); err != nil && !errors.Is(err, io.EOF) {
		return res.StatusCode, fmt.Errorf("%w: decode %s %s: %v", ErrUnavailable, req.method, req.url, err)
	}
	return res.StatusCode, nil
}

// parseDetail extracts "detail" from an error body. FastAPI-style validation errors carry
// a list of {msg} objects, which are joined with ", ".
func parseDetail(raw []byte) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil || len(envelope.Detail) == 0 {
		return ""
	}

	var text string
	if err := json.Unmarshal(envelope.Detail, &text); err == nil {
		return text
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(envelope.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, item := range items {
			if item.Msg != "" {
				msgs = append(msgs, item.Msg)
			}
		}
		return strings.Join(msgs, ", ")
	}

	return ""
}

// decodeList decodes a JSON array element by element. A body that is not an array yields
// an empty list; elements that fail to decode are skipped and reported through onSkip.
func decodeList[T any](raw json.RawMessage, onSkip func(index int, err error)) []T {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return []T{}
	}

	out := make([]T, 0, len(elems))
	for i, elem := range elems {
		var v T
		if err := json.Unmarshal(elem, &v); err != nil {
			if onSkip != nil {
				onSkip(i, err)
			}
			continue
		}
		out = append(out, v)
	}
	return out
}
