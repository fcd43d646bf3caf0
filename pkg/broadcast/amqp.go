package broadcast

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPGroup opens channels backed by RabbitMQ fanout exchanges, so console
// instances on different machines observe each other's session messages.
// One connection is shared; each Open gets its own AMQP channel and an
// exclusive auto-delete queue bound to the exchange.
type AMQPGroup struct {
	conn *amqp.Connection
}

func sanitizeAMQPURL(raw string) (string, error) {
	clean := strings.TrimSpace(raw)
	clean = strings.Trim(clean, "\"'")
	u, err := url.Parse(clean)
	if err != nil {
		return "", err
	}
	if u.Scheme != "amqp" && u.Scheme != "amqps" {
		return "", errors.New("AMQP scheme must be either 'amqp://' or 'amqps://'")
	}
	return clean, nil
}

// NewAMQPGroup dials the broker with a bounded timeout so startup does not
// hang when the broker is unreachable.
func NewAMQPGroup(amqpURL string) (*AMQPGroup, error) {
	cleanURL, err := sanitizeAMQPURL(amqpURL)
	if err != nil {
		return nil, err
	}

	conn, err := amqp.DialConfig(cleanURL, amqp.Config{Dial: amqp.DefaultDial(10 * time.Second)})
	if err != nil {
		return nil, err
	}

	return &AMQPGroup{conn: conn}, nil
}

// Open joins the named fanout exchange.
func (g *AMQPGroup) Open(name string) (Channel, error) {
	ch, err := g.conn.Channel()
	if err != nil {
		return nil, err
	}

	if err := ch.ExchangeDeclare(name, "fanout", false, true, false, false, nil); err != nil {
		ch.Close()
		return nil, err
	}

	// Exclusive queue: deleted when this participant disconnects.
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		ch.Close()
		return nil, err
	}

	if err := ch.QueueBind(q.Name, "", name, false, nil); err != nil {
		ch.Close()
		return nil, err
	}

	deliveries, err := ch.Consume(q.Name, "", true, true, true, false, nil)
	if err != nil {
		ch.Close()
		return nil, err
	}

	ac := &amqpChannel{ch: ch, exchange: name}

	go func() {
		for d := range deliveries {
			ac.deliver(d.Body)
		}
	}()

	return ac, nil
}

// Close closes the shared broker connection and every channel opened from it.
func (g *AMQPGroup) Close() error {
	return g.conn.Close()
}

type amqpChannel struct {
	ch       *amqp.Channel
	exchange string

	mu      sync.Mutex
	handler Handler
	closed  bool
}

func (c *amqpChannel) Post(payload []byte) error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return ErrChannelClosed
	}

	err := c.ch.Publish(c.exchange, "", false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        payload,
	})
	if err != nil {
		return fmt.Errorf("broadcast: publish failed: %w", err)
	}
	return nil
}

func (c *amqpChannel) Subscribe(h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler = h
}

// deliver is invoked for every message on the exchange. Since consoles
// consume their own queue on a fanout exchange, the broker echoes the
// sender's own messages back; the session layer filters those by session id.
func (c *amqpChannel) deliver(payload []byte) {
	c.mu.Lock()
	handler := c.handler
	closed := c.closed
	c.mu.Unlock()

	if closed || handler == nil {
		return
	}
	handler(payload)
}

func (c *amqpChannel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	return c.ch.Close()
}
