package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/avvvet/bingobongo/internal/bingo"
	"github.com/avvvet/bingobongo/internal/comm"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoDispatcher struct{}

func (echoDispatcher) Dispatch(_ context.Context, msg *comm.WSMessage) *comm.WSMessage {
	reply, _ := comm.NewMessage(comm.ResponseType(msg.Type), map[string]string{"socket": msg.SocketId})
	reply.SocketId = msg.SocketId
	return reply
}

func (echoDispatcher) Snapshot() bingo.Snapshot {
	return bingo.Snapshot{RemainingCount: bingo.MaxNumber, Selected: []string{}}
}

func dial(t *testing.T, s *Ws) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(s.HandleWebSocket))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func read(t *testing.T, conn *websocket.Conn) *comm.WSMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	msg := &comm.WSMessage{}
	require.NoError(t, conn.ReadJSON(msg))
	return msg
}

func TestStateSentOnConnect(t *testing.T) {
	t.Parallel()

	conn := dial(t, NewWs(echoDispatcher{}, []string{"*"}))

	msg := read(t, conn)
	assert.Equal(t, comm.TypeState, msg.Type)
	assert.NotEmpty(t, msg.SocketId)

	var data comm.StateData
	require.NoError(t, json.Unmarshal(msg.Data, &data))
	assert.Equal(t, bingo.MaxNumber, data.Snapshot.RemainingCount)
}

func TestCommandReplyGoesToSender(t *testing.T) {
	t.Parallel()

	conn := dial(t, NewWs(echoDispatcher{}, []string{"*"}))
	state := read(t, conn)

	require.NoError(t, conn.WriteJSON(comm.WSMessage{Type: comm.CmdDraw}))
	reply := read(t, conn)
	assert.Equal(t, "draw-response", reply.Type)
	assert.Equal(t, state.SocketId, reply.SocketId)
}

func TestMalformedMessage(t *testing.T) {
	t.Parallel()

	conn := dial(t, NewWs(echoDispatcher{}, []string{"*"}))
	read(t, conn)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	msg := read(t, conn)
	assert.Equal(t, comm.TypeError, msg.Type)
}

func TestPublishBroadcasts(t *testing.T) {
	t.Parallel()

	s := NewWs(echoDispatcher{}, []string{"*"})
	a := dial(t, s)
	b := dial(t, s)
	read(t, a)
	read(t, b)
	require.Eventually(t, func() bool { return s.Count() == 2 }, time.Second, 10*time.Millisecond)

	event, err := comm.NewMessage(string(bingo.EventNumberCalled), comm.CallMessage{Number: 42, History: []int{42}, Left: 89})
	require.NoError(t, err)
	s.Publish(event)

	for _, conn := range []*websocket.Conn{a, b} {
		msg := read(t, conn)
		assert.Equal(t, string(bingo.EventNumberCalled), msg.Type)
		var call comm.CallMessage
		require.NoError(t, json.Unmarshal(msg.Data, &call))
		assert.Equal(t, 42, call.Number)
	}
}

func TestOriginCheck(t *testing.T) {
	t.Parallel()

	check := checkOrigin([]string{"http://localhost:3000"})

	r := httptest.NewRequest("GET", "/v1/ws", nil)
	assert.True(t, check(r))

	r.Header.Set("Origin", "http://localhost:3000")
	assert.True(t, check(r))

	r.Header.Set("Origin", "http://evil.example")
	assert.False(t, check(r))
}
