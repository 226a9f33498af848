package mailer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
)

// QueuedMail is the payload published for the delivery worker
type QueuedMail struct {
	ID        string    `json:"id"`
	Message   Message   `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// publisher is the subset of *amqp091.Channel used to publish
type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
}

// AMQPMailer hands messages to a RabbitMQ queue for asynchronous delivery
type AMQPMailer struct {
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	pub      publisher
	exchange string
	queue    string
	logger   *slog.Logger
}

// DialAMQP connects to the broker and declares a durable direct exchange
// bound to the mail queue
func DialAMQP(url, exchange, queue string, logger *slog.Logger) (*AMQPMailer, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	m := &AMQPMailer{
		conn:     conn,
		channel:  channel,
		pub:      channel,
		exchange: exchange,
		queue:    queue,
		logger:   logger,
	}

	if err := m.setup(); err != nil {
		m.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	return m, nil
}

func (m *AMQPMailer) setup() error {
	if err := m.channel.ExchangeDeclare(m.exchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	if _, err := m.channel.QueueDeclare(m.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	// Routing key is the queue name on a direct exchange
	if err := m.channel.QueueBind(m.queue, m.queue, m.exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// Send publishes msg as a persistent JSON message
func (m *AMQPMailer) Send(ctx context.Context, msg Message) error {
	body, err := json.Marshal(QueuedMail{
		ID:        uuid.NewString(),
		Message:   msg,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = m.pub.PublishWithContext(ctx, m.exchange, m.queue, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	m.logger.DebugContext(ctx, "queued mail", "to", msg.To, "exchange", m.exchange, "queue", m.queue)
	return nil
}

// Close releases the channel and connection
func (m *AMQPMailer) Close() error {
	if m.channel != nil {
		m.channel.Close()
	}
	if m.conn != nil {
		return m.conn.Close()
	}
	return nil
}
