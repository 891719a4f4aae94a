package websocket

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiz-modes/internal/session"
)

type scriptedSource struct {
	steps []int
	calls int
	err   error
}

func (s *scriptedSource) Peek(_ context.Context, sid string) (int, bool, error) {
	if s.err != nil {
		return 0, false, s.err
	}
	if sid != "s1" {
		return 0, false, nil
	}
	i := s.calls
	s.calls++
	if i >= len(s.steps) {
		return 0, true, nil
	}
	return s.steps[i], true, nil
}

func dial(t *testing.T, source RemainingSource, sid string) *websocket.Conn {
	stream := NewTimerStream(source, nil, logrus.NewEntry(logrus.New()))
	stream.interval = 5 * time.Millisecond

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stream.ServeHTTP(w, r.WithContext(session.WithID(r.Context(), r.URL.Query().Get("sid"))))
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?sid=" + sid
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestTimerStream_CountsDownThenTimesUp(t *testing.T) {
	conn := dial(t, &scriptedSource{steps: []int{3, 2, 1}}, "s1")

	var got []Message
	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		got = append(got, msg)
	}

	require.Len(t, got, 4)
	assert.Equal(t, "timer", got[0].Type)
	assert.Equal(t, map[string]interface{}{"remaining": float64(3)}, got[0].Data)
	assert.Equal(t, "timer", got[2].Type)
	assert.Equal(t, "time_up", got[3].Type)
}

func TestTimerStream_IdleWithoutRapidRun(t *testing.T) {
	conn := dial(t, &scriptedSource{}, "other")

	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "idle", msg.Type)

	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure))
}

func TestTimerStream_SourceErrorClosesStream(t *testing.T) {
	conn := dial(t, &scriptedSource{err: errors.New("redis down")}, "s1")

	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}
