package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"time"

	"github.com/Code-Chilll/Task-Manager/internal/apperr"
	"github.com/Code-Chilll/Task-Manager/internal/models"
	"github.com/Code-Chilll/Task-Manager/internal/monitoring"
	"github.com/Code-Chilll/Task-Manager/internal/notify"
	"github.com/Code-Chilll/Task-Manager/internal/repositories"
	"github.com/Code-Chilll/Task-Manager/internal/validation"
)

const (
	DefaultOTPTTL       = 5 * time.Minute
	DefaultOTPRetention = 24 * time.Hour
)

var otpSpace = big.NewInt(10000)

type OTPService interface {
	Issue(ctx context.Context, email string) error
	// Verify checks code against the latest issued record. It never mutates the ledger.
	Verify(ctx context.Context, email, code string) (bool, error)
	PurgeExpired(ctx context.Context) (int64, error)
}

type OTPServiceImpl struct {
	base
	otps      repositories.OtpRepository
	sender    notify.Sender
	ttl       time.Duration
	retention time.Duration
	random    io.Reader
}

func NewOTPService(otps repositories.OtpRepository, sender notify.Sender, ttl, retention time.Duration, opts ...Option) *OTPServiceImpl {
	if ttl <= 0 {
		ttl = DefaultOTPTTL
	}
	if retention < ttl {
		retention = ttl
	}
	return &OTPServiceImpl{
		base:      newBase(opts),
		otps:      otps,
		sender:    sender,
		ttl:       ttl,
		retention: retention,
		random:    rand.Reader,
	}
}

func (s *OTPServiceImpl) Issue(ctx context.Context, email string) error {
	if !validation.IsValidEmail(email) {
		return apperr.Validation("email", "invalid email format")
	}
	email = validation.NormalizeEmail(email)

	code, err := s.generate()
	if err != nil {
		return apperr.Internal("failed to generate OTP", err)
	}

	record := &models.OtpRecord{Email: email, Code: code, IssuedAt: s.now()}
	if err := s.otps.Append(ctx, record); err != nil {
		return storeError("failed to store OTP", err)
	}
	monitoring.RecordOTPIssued()

	msg, err := notify.Render(email, notify.TemplateOTP, notify.NewOTPData(code, s.ttl))
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to render OTP email", slog.String("email", email), slog.String("error", err.Error()))
		return nil
	}
	if err := s.sender.Send(ctx, msg); err != nil {
		s.logger.ErrorContext(ctx, "failed to send OTP email", slog.String("email", email), slog.String("error", err.Error()))
	}
	return nil
}

func (s *OTPServiceImpl) Verify(ctx context.Context, email, code string) (bool, error) {
	if !validation.IsValidOTP(code) {
		monitoring.RecordOTPVerification("malformed")
		return false, nil
	}

	record, err := s.otps.Latest(ctx, validation.NormalizeEmail(email))
	if err != nil {
		if isNotFound(err) {
			monitoring.RecordOTPVerification("missing")
			return false, nil
		}
		return false, storeError("failed to load OTP", err)
	}

	switch {
	case record.ExpiredAt(s.now(), s.ttl):
		monitoring.RecordOTPVerification("expired")
		return false, nil
	case record.Code != code:
		monitoring.RecordOTPVerification("mismatch")
		return false, nil
	}
	monitoring.RecordOTPVerification("valid")
	return true, nil
}

// PurgeExpired drops ledger entries older than the retention window.
func (s *OTPServiceImpl) PurgeExpired(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.retention)
	n, err := s.otps.PurgeBefore(ctx, cutoff)
	if err != nil {
		return 0, storeError("failed to purge OTPs", err)
	}
	if n > 0 {
		monitoring.RecordOTPPurged(n)
		s.logger.InfoContext(ctx, "purged expired OTPs", slog.Int64("count", n))
	}
	return n, nil
}

func (s *OTPServiceImpl) generate() (string, error) {
	n, err := rand.Int(s.random, otpSpace)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%04d", n.Int64()), nil
}
