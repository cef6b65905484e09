package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/vinayprograms/agentkit/logging"
)

// NATSPublisher publishes events to a NATS broker. Routing keys are
// {prefix}.{event type}, e.g. tradingagents.run.finished.
type NATSPublisher struct {
	conn   *nats.Conn
	prefix string
	log    *logging.Logger
}

// NewNATSPublisher connects to the broker at url. An empty prefix
// defaults to "tradingagents".
func NewNATSPublisher(url, prefix string) (*NATSPublisher, error) {
	if prefix == "" {
		prefix = "tradingagents"
	}
	conn, err := nats.Connect(url,
		nats.Name("tradingagents"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats at %s: %w", url, err)
	}
	return &NATSPublisher{
		conn:   conn,
		prefix: prefix,
		log:    logging.New().WithComponent("events"),
	}, nil
}

// Publish sends one event. Marshal failures are returned; broker
// hiccups are logged and swallowed so runs keep going while the
// client library reconnects.
func (p *NATSPublisher) Publish(evt Event) error {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	subj := fmt.Sprintf("%s.%s", p.prefix, evt.Type)
	if err := p.conn.Publish(subj, data); err != nil {
		p.log.Warn("event publish failed", map[string]interface{}{
			"subject": subj,
			"run":     evt.RunID,
			"error":   err.Error(),
		})
	}
	return nil
}

// Close flushes buffered events and drops the connection.
func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}
