package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-mail/mail/v2"

	"github.com/Code-Chilll/Task-Manager/internal/config"
	"github.com/Code-Chilll/Task-Manager/internal/monitoring"
)

type dialer interface {
	DialAndSend(m ...*mail.Message) error
}

// SMTPSender delivers mail through an SMTP relay, retrying a few times
// and tripping a circuit breaker when the relay keeps failing.
type SMTPSender struct {
	dialer   dialer
	sender   string
	attempts int
	backoff  time.Duration
	breaker  *Breaker
	logger   *slog.Logger
}

func NewSMTPSender(cfg config.SMTPConfig, logger *slog.Logger) *SMTPSender {
	d := mail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.Timeout = 10 * time.Second
	return newSMTPSender(d, cfg.Sender, NewBreaker(DefaultBreakerConfig()), logger)
}

func newSMTPSender(d dialer, sender string, breaker *Breaker, logger *slog.Logger) *SMTPSender {
	breaker.OnStateChange(func(from, to BreakerState) {
		monitoring.SetMailRelayOpen(to == StateOpen)
		logger.Warn("mail relay circuit changed", slog.String("from", from.String()), slog.String("to", to.String()))
	})
	return &SMTPSender{
		dialer:   d,
		sender:   sender,
		attempts: 3,
		backoff:  500 * time.Millisecond,
		breaker:  breaker,
		logger:   logger,
	}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	m := mail.NewMessage()
	m.SetHeader("From", s.sender)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.PlainBody)
	if msg.HTMLBody != "" {
		m.AddAlternative("text/html", msg.HTMLBody)
	}

	err := s.breaker.Execute(ctx, func(ctx context.Context) error {
		return s.deliver(ctx, m)
	})
	monitoring.RecordEmail(err)
	if err != nil {
		return fmt.Errorf("send email to %s: %w", msg.To, err)
	}

	s.logger.InfoContext(ctx, "email sent", slog.String("to", msg.To), slog.String("subject", msg.Subject))
	return nil
}

func (s *SMTPSender) deliver(ctx context.Context, m *mail.Message) error {
	var err error
	for i := 0; i < s.attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.backoff * time.Duration(i)):
			}
		}
		if err = s.dialer.DialAndSend(m); err == nil {
			return nil
		}
		s.logger.WarnContext(ctx, "smtp attempt failed", slog.Int("attempt", i+1), slog.String("error", err.Error()))
	}
	return err
}

func (s *SMTPSender) BreakerStats() map[string]any {
	return s.breaker.Stats()
}
