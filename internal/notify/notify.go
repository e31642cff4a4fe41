// Package notify delivers outbound email. Services depend on Sender only;
// the concrete transport is chosen at startup.
package notify

import (
	"context"
	"log/slog"
	"time"
)

type Message struct {
	To        string `json:"to"`
	Subject   string `json:"subject"`
	PlainBody string `json:"plain_body"`
	HTMLBody  string `json:"html_body"`
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender writes messages to the log instead of delivering them.
// Used when SMTP is not configured.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.logger.InfoContext(ctx, "email not sent, smtp disabled",
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
	)
	s.logger.DebugContext(ctx, "undelivered email body", slog.String("to", msg.To), slog.String("body", msg.PlainBody))
	return nil
}

// AsyncSender hands each message to a goroutine so callers never wait on the transport.
type AsyncSender struct {
	inner   Sender
	timeout time.Duration
	logger  *slog.Logger
}

func NewAsyncSender(inner Sender, timeout time.Duration, logger *slog.Logger) *AsyncSender {
	return &AsyncSender{inner: inner, timeout: timeout, logger: logger}
}

func (s *AsyncSender) Send(_ context.Context, msg Message) error {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		if err := s.inner.Send(ctx, msg); err != nil {
			s.logger.Error("async email delivery failed",
				slog.String("to", msg.To),
				slog.String("subject", msg.Subject),
				slog.String("error", err.Error()),
			)
		}
	}()
	return nil
}
