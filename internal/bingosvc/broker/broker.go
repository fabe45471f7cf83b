package broker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/avvvet/bingobongo/internal/comm"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

// Conn is the part of *nats.Conn the broker uses.
type Conn interface {
	Publish(subject string, data []byte) error
	Subscribe(subject string, cb nats.MsgHandler) (*nats.Subscription, error)
}

// Dispatcher executes a command and returns the reply.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg *comm.WSMessage) *comm.WSMessage
}

// Broker mirrors session events to NATS and accepts remote commands, so a
// second display or a remote control can follow the caller.
type Broker struct {
	Conn          Conn
	Service       Dispatcher
	EventsSubject string
	ReplySubject  string
}

func NewBroker(conn Conn, svc Dispatcher, eventsSubject, replySubject string) *Broker {
	return &Broker{
		Conn:          conn,
		Service:       svc,
		EventsSubject: eventsSubject,
		ReplySubject:  replySubject,
	}
}

// Subscribe consumes commands from topic.
func (b *Broker) Subscribe(topic string) (*nats.Subscription, error) {
	return b.Conn.Subscribe(topic, b.handleMessage)
}

// Publish sends a session event to the events subject.
func (b *Broker) Publish(msg *comm.WSMessage) {
	b.publish(b.EventsSubject, msg)
}

func (b *Broker) publish(topic string, msg *comm.WSMessage) {
	bytes, err := json.Marshal(msg)
	if err != nil {
		log.Errorf("Failed to marshal %s for NATS: %v", msg.Type, err)
		return
	}
	if err := b.Conn.Publish(topic, bytes); err != nil {
		log.Errorf("Error publishing to topic %s: %s", topic, err)
	}
}

// handleMessage runs a command received over NATS. The reply goes to the
// request's reply inbox when it has one, otherwise to the reply subject.
func (b *Broker) handleMessage(msgNat *nats.Msg) {
	msg := &comm.WSMessage{}
	if err := json.Unmarshal(msgNat.Data, msg); err != nil {
		log.Errorf("Error nats message %s", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	reply := b.Service.Dispatch(ctx, msg)

	topic := b.ReplySubject
	if msgNat.Reply != "" {
		topic = msgNat.Reply
	}
	b.publish(topic, reply)
}
