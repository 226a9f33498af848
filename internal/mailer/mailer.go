// Package mailer delivers notification emails through a configurable transport
package mailer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/findosh/spendwatch/internal/config"
	"github.com/findosh/spendwatch/internal/logging"
)

// Message is an outbound plain-text email
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Mailer sends messages
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// New builds the transport selected by configuration
func New(cfg *config.Config, logger *slog.Logger) (Mailer, error) {
	logger = logging.Component(logger, logging.ComponentMailer)

	switch cfg.MailTransport {
	case config.MailTransportLog, "":
		return NewLogMailer(logger), nil
	case config.MailTransportSMTP:
		return NewSMTPMailer(SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
		}), nil
	case config.MailTransportAMQP:
		m, err := DialAMQP(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unknown mail transport %q", cfg.MailTransport)
	}
}

// LogMailer writes messages to the log instead of delivering them
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer creates a development mailer
func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// Send logs the message
func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	m.logger.InfoContext(ctx, "mail",
		"to", msg.To,
		"subject", msg.Subject,
		"body", msg.Body,
	)
	return nil
}
