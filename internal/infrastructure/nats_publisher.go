package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"ecodescarte-user-service/internal/config"
	"github.com/nats-io/nats.go"
)

// NatsPublisher publishes domain events as JSON. A nil connection means
// NATS is disabled and Publish is a no-op.
type NatsPublisher struct {
	nc     *nats.Conn
	prefix string
	log    *slog.Logger
}

func NewNatsPublisher(cfg config.NATSConfig, log *slog.Logger) (*NatsPublisher, error) {
	p := &NatsPublisher{prefix: cfg.SubjectPrefix, log: log}
	if cfg.URL == "" {
		log.Info("nats not configured, events disabled")
		return p, nil
	}

	nc, err := nats.Connect(cfg.URL,
		nats.Name("ecodescarte-user-service"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	log.Info("connected to nats", "url", nc.ConnectedUrl())
	p.nc = nc
	return p, nil
}

func (p *NatsPublisher) Publish(ctx context.Context, subject string, payload any) error {
	if p.nc == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if !p.nc.IsConnected() {
		return nats.ErrConnectionClosed
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.nc.Publish(p.subject(subject), data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	p.log.DebugContext(ctx, "event published", "subject", p.subject(subject))
	return nil
}

func (p *NatsPublisher) subject(name string) string {
	if p.prefix == "" {
		return name
	}
	return p.prefix + "." + name
}

// Close drains pending messages before closing.
func (p *NatsPublisher) Close() error {
	if p.nc == nil {
		return nil
	}
	return p.nc.Drain()
}
