package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/avvvet/bingobongo/internal/bingo"
	"github.com/avvvet/bingobongo/internal/comm"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const writeWait = 10 * time.Second

// Dispatcher executes client commands against the caller session.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg *comm.WSMessage) *comm.WSMessage
	Snapshot() bingo.Snapshot
}

type client struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *client) write(m *comm.WSMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(m)
}

// Ws keeps the open presentation sockets. Each client gets the current state
// on connect and every session event afterwards.
type Ws struct {
	connMap  sync.Map // socketId -> *client
	upgrader websocket.Upgrader
	svc      Dispatcher
}

func NewWs(svc Dispatcher, allowedOrigins []string) *Ws {
	return &Ws{
		svc: svc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin(allowedOrigins),
		},
	}
}

func checkOrigin(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}

// HandleWebSocket upgrades the request and serves the socket until it closes.
func (s *Ws) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Errorf("Failed to upgrade to WebSocket: %v", err)
		return
	}

	socketId := uuid.New().String()
	c := &client{conn: conn}
	s.connMap.Store(socketId, c)
	log.Infof("New WebSocket connection established: %s", socketId)

	state, err := comm.NewMessage(comm.TypeState, comm.StateData{Snapshot: s.svc.Snapshot()})
	if err == nil {
		state.SocketId = socketId
		if err := c.write(state); err != nil {
			log.Errorf("Failed to send state to socket %s: %v", socketId, err)
		}
	}

	go s.handleConnection(c, socketId)
}

func (s *Ws) handleConnection(c *client, socketId string) {
	defer func() {
		log.Infof("Closing WebSocket connection: %s", socketId)
		c.conn.Close()
		s.connMap.Delete(socketId)
	}()

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Errorf("WebSocket unexpected close error for socket %s: %v", socketId, err)
			}
			return
		}

		message := &comm.WSMessage{}
		if err := json.Unmarshal(raw, message); err != nil {
			log.Errorf("Failed to unmarshal message from socket %s: %v", socketId, err)
			s.sendError(c, socketId, "Invalid message format")
			continue
		}
		message.SocketId = socketId
		log.Debugf("Received message from socket %s: type=%s", socketId, message.Type)

		reply := s.svc.Dispatch(context.Background(), message)
		if err := c.write(reply); err != nil {
			log.Errorf("Failed to reply to socket %s: %v", socketId, err)
			return
		}
	}
}

func (s *Ws) sendError(c *client, socketId, text string) {
	msg, err := comm.NewMessage(comm.TypeError, comm.ErrorData{Error: text})
	if err != nil {
		return
	}
	msg.SocketId = socketId
	if err := c.write(msg); err != nil {
		log.Errorf("Failed to send error message to client: %v", err)
	}
}

// Publish broadcasts a session event to every open socket.
func (s *Ws) Publish(msg *comm.WSMessage) {
	s.connMap.Range(func(key, value any) bool {
		if err := value.(*client).write(msg); err != nil {
			log.Warnf("Failed to send %s to socket %s: %v", msg.Type, key, err)
		}
		return true
	})
}

// Count returns the number of open sockets.
func (s *Ws) Count() int {
	n := 0
	s.connMap.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
