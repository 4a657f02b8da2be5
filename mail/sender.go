package mail

import (
	"context"
	"errors"
	"fmt"
	"log"

	"gopkg.in/gomail.v2"
)

// Message is a plain-text email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPConfig holds dialer settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPSender delivers mail through an SMTP relay using gomail.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

// Send builds a MIME message and dials the relay for it.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if msg.To == "" {
		return errors.New("mail: empty recipient")
	}
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("mail: send to %s: %w", msg.To, err)
	}
	return nil
}

// LogSender writes messages to the log instead of sending them. Used when no
// SMTP host is configured.
type LogSender struct {
	logger *log.Logger
}

func NewLogSender(l *log.Logger) *LogSender {
	if l == nil {
		l = log.Default()
	}
	return &LogSender{logger: l}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.logger.Printf("mail: to=%s subject=%q (%d bytes, delivery disabled)", msg.To, msg.Subject, len(msg.Body))
	return nil
}
