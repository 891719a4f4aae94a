// pkg/websocket/hub.go
package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"quiz-modes/internal/session"
)

// Message represents the standard message format exchanged over WebSocket.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	maxMessageSize = 512
)

// RemainingSource reports the seconds left in a session's timed run without
// changing it.
type RemainingSource interface {
	Peek(ctx context.Context, sid string) (remaining int, active bool, err error)
}

// TimerStream pushes the rapid-mode countdown to the quiz page. It only
// reads session state; ending the run is left to the next quiz request.
type TimerStream struct {
	source   RemainingSource
	upgrader websocket.Upgrader
	interval time.Duration
	log      *logrus.Entry
}

func NewTimerStream(source RemainingSource, allowedOrigins []string, log *logrus.Entry) *TimerStream {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return &TimerStream{
		source:   source,
		interval: time.Second,
		log:      log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed[origin] || origin == "http://"+r.Host || origin == "https://"+r.Host
			},
		},
	}
}

func (s *TimerStream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sid := session.ID(r.Context())

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("timer stream upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go s.readPump(conn, cancel)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		done, err := s.push(ctx, conn, sid)
		if err != nil {
			s.log.WithError(err).Debug("timer stream closed")
			return
		}
		if done {
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// push sends one update and reports whether the stream is finished.
func (s *TimerStream) push(ctx context.Context, conn *websocket.Conn, sid string) (bool, error) {
	remaining, active, err := s.source.Peek(ctx, sid)
	if err != nil {
		return true, err
	}

	var msg Message
	switch {
	case !active:
		msg = Message{Type: "idle"}
	case remaining <= 0:
		msg = Message{Type: "time_up"}
	default:
		msg = Message{Type: "timer", Data: map[string]int{"remaining": remaining}}
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return true, err
	}

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return true, err
	}
	return msg.Type != "timer", nil
}

// readPump drains client frames so control messages are processed, and
// cancels the stream once the client goes away.
func (s *TimerStream) readPump(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
