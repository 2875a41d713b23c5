package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/eventatlas/eventatlas/config/modules"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// NATSPublisher publishes JSON encoded notifications to NATS subjects
type NATSPublisher struct {
	conn *nats.Conn
	log  *zap.SugaredLogger
}

func NewNATSPublisher(cfg modules.NatsConfig) (*NATSPublisher, error) {
	log := zap.S().Named("notify")
	nc, err := nats.Connect(cfg.URL,
		nats.Name(cfg.Name),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warnf("disconnected from nats: %v", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Infof("reconnected to nats %s", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", cfg.URL, err)
	}
	return &NATSPublisher{conn: nc, log: log}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, subject string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}
	return p.conn.Publish(subject, data)
}

func (p *NATSPublisher) Close() error {
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
		return err
	}
	return nil
}

// New returns a NATS publisher when configured, otherwise a NoopPublisher
func New(cfg modules.NatsConfig) (Publisher, error) {
	if !cfg.Enabled() {
		return NoopPublisher{}, nil
	}
	return NewNATSPublisher(cfg)
}
