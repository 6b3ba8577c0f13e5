package view

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"campusportal/internal/pkg/errs"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message from the browser.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of a frame sent by the browser.
	maxMessageSize = 4096

	// sendBuffer is how many frames may queue for a slow connection before it is dropped.
	sendBuffer = 32
)

// Subscriber is a live WebSocket connection receiving a page's snapshots.
type Subscriber struct {
	page *Page
	conn *websocket.Conn

	// send queues encoded frames for WritePump.
	send      chan []byte
	closeOnce sync.Once

	// criteria is guarded by page.mu.
	criteria Criteria

	logger zerolog.Logger
}

// NewSubscriber wraps conn for page, showing rows matching criteria.
func NewSubscriber(page *Page, conn *websocket.Conn, criteria Criteria) *Subscriber {
	return &Subscriber{
		page:     page,
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
		criteria: criteria,
		logger:   page.logger.With().Str("remote_addr", conn.RemoteAddr().String()).Logger(),
	}
}

// push queues msg without blocking and reports whether it was queued. Callers hold page.mu.
func (s *Subscriber) push(msg Message) bool {
	frame, err := marshalMessage(msg)
	if err != nil {
		s.logger.Error().Err(err).Str("type", string(msg.Type)).Msg("Error marshaling frame")
		return true
	}

	select {
	case s.send <- frame:
		return true
	default:
		s.logger.Warn().Int("queue_len", len(s.send)).Msg("Subscriber send channel full, dropping connection")
		return false
	}
}

// closeSend ends WritePump after the queued frames. Callers hold page.mu.
func (s *Subscriber) closeSend() {
	s.closeOnce.Do(func() { close(s.send) })
}

// ReadPump reads frames from the browser until the connection fails, then detaches.
func (s *Subscriber) ReadPump() {
	defer func() {
		s.page.Detach(s)

		if err := s.conn.Close(); err != nil {
			s.logger.Debug().Err(err).Msg("Connection close error")
		}
	}()

	s.conn.SetReadLimit(maxMessageSize)

	if err := s.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		s.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	s.conn.SetPongHandler(func(string) error {
		s.page.Touch()
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Info().Err(err).Msg("Error reading frame (browser close/going away)")
			}
			return
		}

		s.processInbound(frame)
	}
}

func (s *Subscriber) processInbound(frame []byte) {
	var msg inbound
	if err := json.Unmarshal(frame, &msg); err != nil {
		s.logger.Warn().Err(err).Msg("Browser sent invalid JSON")
		s.page.sendError(s, errs.NewError(errs.ErrInvalidJSONFormat))
		return
	}

	switch msg.Type {
	case TypeFilter:
		var payload FilterPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			s.page.sendError(s, errs.NewError(errs.ErrInvalidParams))
			return
		}

		criteria, err := ParseCriteria(payload.Month, payload.Query, payload.Tab)
		if err != nil {
			s.page.sendError(s, errs.WithMessage(errs.ErrInvalidParams, err.Error()))
			return
		}
		s.page.setCriteria(s, criteria)

	case TypeRefresh:
		s.page.Touch()
		s.page.refetchInBackground(nil)

	default:
		s.logger.Warn().Str("msg_type", string(msg.Type)).Msg("Browser sent unsupported frame type")
	}
}

// WritePump writes queued frames and periodic pings until the send channel is closed or a
// write fails.
func (s *Subscriber) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		if err := s.conn.Close(); err != nil {
			s.logger.Debug().Err(err).Msg("Connection close error in WritePump")
		}
	}()

	for {
		select {
		case frame, ok := <-s.send:
			if !s.writeFrame(frame, ok) {
				return
			}

		case <-ticker.C:
			if !s.writePing() {
				return
			}
		}
	}
}

// writeFrame writes one queued frame, or a close frame once the channel is closed.
// Returns false when WritePump should stop.
func (s *Subscriber) writeFrame(frame []byte, ok bool) bool {
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		s.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if !ok {
		if err := s.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
			s.logger.Debug().Err(err).Msg("Error writing close message")
		}
		return false
	}

	if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		s.logger.Warn().Err(err).Msg("Error writing frame")
		return false
	}
	return true
}

func (s *Subscriber) writePing() bool {
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		s.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
		return false
	}

	if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		s.logger.Warn().Err(err).Msg("Error writing ping")
		return false
	}
	return true
}
