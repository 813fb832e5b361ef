// Package mailer sends transactional e-mails outside the request path.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

const sendTimeout = 30 * time.Second

var ErrDisabled = errors.New("mailer disabled")

type Message struct {
	To      string
	Subject string
	Body    string
}

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Workers  int
}

// Noop drops every message. It is used when SMTP is not configured.
type Noop struct{}

func (Noop) Send(context.Context, Message) error { return ErrDisabled }
func (Noop) SendAsync(Message)                   {}
func (Noop) Close()                              {}

// SMTPMailer delivers through an SMTP relay behind a circuit breaker.
// Async deliveries run on a bounded worker pool.
type SMTPMailer struct {
	from    string
	send    func(*gomail.Message) error
	breaker *gobreaker.CircuitBreaker[struct{}]
	pool    *ants.Pool
	logger  *zap.Logger
}

func NewSMTPMailer(cfg Config, logger *zap.Logger) (*SMTPMailer, error) {
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return newSMTPMailer(cfg, dialer.DialAndSend, logger)
}

func newSMTPMailer(cfg Config, send func(...*gomail.Message) error, logger *zap.Logger) (*SMTPMailer, error) {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}
	pool, err := ants.NewPool(workers, ants.WithNonblocking(true))
	if err != nil {
		return nil, fmt.Errorf("failed to create mail pool: %w", err)
	}

	logger = logger.Named("mailer")
	breaker := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "smtp",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &SMTPMailer{
		from:    cfg.From,
		send:    func(m *gomail.Message) error { return send(m) },
		breaker: breaker,
		pool:    pool,
		logger:  logger,
	}, nil
}

// Send delivers msg synchronously.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	gm := gomail.NewMessage()
	gm.SetHeader("From", m.from)
	gm.SetHeader("To", msg.To)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/html", msg.Body)

	_, err := m.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, m.send(gm)
	})
	if err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}
	return nil
}

// SendAsync queues msg on the worker pool. Messages are dropped when the pool is saturated.
func (m *SMTPMailer) SendAsync(msg Message) {
	err := m.pool.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()
		if err := m.Send(ctx, msg); err != nil {
			m.logger.Error("async mail failed", zap.String("subject", msg.Subject), zap.Error(err))
		}
	})
	if err != nil {
		m.logger.Warn("mail dropped", zap.String("to", msg.To), zap.Error(err))
	}
}

// Close waits for queued deliveries and stops the pool.
func (m *SMTPMailer) Close() {
	if err := m.pool.ReleaseTimeout(sendTimeout); err != nil {
		m.logger.Warn("mail pool did not drain", zap.Error(err))
	}
}
