package nats

import (
	"errors"

	"github.com/nats-io/nats.go"
)

var ErrNoURL = errors.New("nats url not configured")

type Nats struct {
	Url   string
	Token string
	Conn  *nats.Conn
}

// Connect dials the server at url. An empty url returns ErrNoURL so the
// caller can run without a broker.
func Connect(url, token string) (*Nats, error) {
	if url == "" {
		return nil, ErrNoURL
	}
	n := &Nats{
		Url:   url,
		Token: token,
	}

	opts := []nats.Option{
		nats.Name("bingobongo caller"),
	}

	// if token provided
	if n.Token != "" {
		opts = append(opts, nats.Token(n.Token))
	}

	conn, err := nats.Connect(n.Url, opts...)
	if err != nil {
		return nil, err
	}

	n.Conn = conn

	return n, nil
}
