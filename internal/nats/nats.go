package nats

import (
	"context"
	"log/slog"

	"storyd/internal/config"

	libnats "github.com/nats-io/nats.go"
)

// NATS is the subscription transport. Engagement events go out over plain
// core-NATS publish: at-most-once, no backlog for absent subscribers.
type NATS struct {
	Logger *slog.Logger
	Config *config.Config

	conn *libnats.Conn
}

func (n *NATS) Init(_ context.Context) error {
	n.Logger = n.Logger.With("component", "nats.NATS")

	conn, err := libnats.Connect(n.Config.NATSURL)
	if err != nil {
		return err
	}
	n.conn = conn

	return nil
}

func (n *NATS) Publish(subject string, payload []byte) error {
	return n.conn.Publish(subject, payload)
}

func (n *NATS) HealthCheck(context.Context) error {
	_, err := n.conn.RTT()
	return err
}

func (n *NATS) Shutdown(context.Context) error {
	return n.conn.Drain()
}
