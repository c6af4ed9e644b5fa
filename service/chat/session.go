package chat

import (
	"sync"
	"time"

	"EasyChat/logger"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

// Peer is what fan-out needs from a live connection: a non-blocking,
// best-effort push. *Session implements it; tests substitute fakes.
type Peer interface {
	Push(payload []byte) error
}

var (
	ErrSessionClosed = errors.New("session closed")
	ErrSendQueueFull = errors.New("send queue full")
)

// Session is one user's live WebSocket connection. Owned by the
// Registry while open; all writes to the socket go through a single
// writer goroutine consuming the send queue, because gorilla conns do
// not allow concurrent writers.
type Session struct {
	UserID int64

	ws            *websocket.Conn
	send          chan []byte
	writeDeadline time.Duration

	closeOnce sync.Once
	done      chan struct{}
}

func NewSession(userID int64, ws *websocket.Conn, queueSize int, writeDeadline time.Duration) *Session {
	if queueSize <= 0 {
		queueSize = 256
	}
	if writeDeadline <= 0 {
		writeDeadline = 5 * time.Second
	}
	return &Session{
		UserID:        userID,
		ws:            ws,
		send:          make(chan []byte, queueSize),
		writeDeadline: writeDeadline,
		done:          make(chan struct{}),
	}
}

// Push enqueues a frame for the writer goroutine. It never blocks: a
// full queue means the client is too slow and the frame is dropped as a
// delivery failure (the client catches up via history fetch).
func (s *Session) Push(payload []byte) error {
	select {
	case <-s.done:
		return ErrSessionClosed
	default:
	}
	select {
	case s.send <- payload:
		return nil
	default:
		return ErrSendQueueFull
	}
}

// WritePump drains the send queue onto the socket until Close. Run it in
// its own goroutine, one per session.
func (s *Session) WritePump() {
	for {
		select {
		case <-s.done:
			return
		case payload := <-s.send:
			if err := s.write(payload); err != nil {
				logger.Warnf("[session] write failed user=%d err=%v", s.UserID, err)
				s.Close()
				return
			}
		}
	}
}

func (s *Session) write(payload []byte) error {
	if err := s.ws.SetWriteDeadline(time.Now().Add(s.writeDeadline)); err != nil {
		return err
	}
	return s.ws.WriteMessage(websocket.TextMessage, payload)
}

// Close tears the session down; safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		if s.ws != nil {
			_ = s.ws.Close()
		}
	})
}

// Closed reports whether Close has run.
func (s *Session) Closed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}
