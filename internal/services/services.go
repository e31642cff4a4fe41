// Package services holds the business rules: authorization, the OTP
// workflow, task CRUD and querying, and user administration. Every
// service takes its stores and collaborators explicitly.
package services

import (
	"errors"
	"log/slog"
	"time"

	"github.com/Code-Chilll/Task-Manager/internal/apperr"
	"github.com/Code-Chilll/Task-Manager/internal/repositories"
)

// Clock returns the current time. Services stamp records with it.
type Clock func() time.Time

type Option func(*base)

func WithClock(now Clock) Option {
	return func(b *base) {
		if now != nil {
			b.now = now
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(b *base) {
		if logger != nil {
			b.logger = logger
		}
	}
}

type base struct {
	now    Clock
	logger *slog.Logger
}

func newBase(opts []Option) base {
	b := base{
		now:    func() time.Time { return time.Now().UTC() },
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// storeError wraps an unexpected repository failure.
func storeError(op string, err error) error {
	return apperr.Internal(op, err)
}

func isNotFound(err error) bool {
	return errors.Is(err, repositories.ErrNotFound)
}

func isDuplicate(err error) bool {
	return errors.Is(err, repositories.ErrDuplicate)
}
