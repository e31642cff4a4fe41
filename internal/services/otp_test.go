package services_test

import (
	"errors"
	"regexp"
	"time"

	"github.com/Code-Chilll/Task-Manager/internal/apperr"
	"github.com/Code-Chilll/Task-Manager/internal/models"
)

var fourDigits = regexp.MustCompile(`^[0-9]{4}$`)

func (s *ServiceSuite) TestOTP_IssueStoresAndSends() {
	s.Require().NoError(s.otp.Issue(s.ctx, "  Ann@Example.com "))

	record, err := s.otps.Latest(s.ctx, "ann@example.com")
	s.Require().NoError(err)
	s.Regexp(fourDigits, record.Code)
	s.True(record.IssuedAt.Equal(s.clock.Now()))

	msgs := s.sender.Messages()
	s.Require().Len(msgs, 1)
	s.Equal("ann@example.com", msgs[0].To)
	s.Contains(msgs[0].PlainBody, record.Code)
}

func (s *ServiceSuite) TestOTP_IssueRejectsBadEmail() {
	err := s.otp.Issue(s.ctx, "not-an-email")
	s.True(apperr.Is(err, apperr.KindValidation))
	s.Empty(s.sender.Messages())
}

func (s *ServiceSuite) TestOTP_SendFailureKeepsRecord() {
	s.sender.err = errors.New("smtp down")

	s.Require().NoError(s.otp.Issue(s.ctx, "ann@example.com"))
	code := s.latestCode("ann@example.com")

	ok, err := s.otp.Verify(s.ctx, "ann@example.com", code)
	s.Require().NoError(err)
	s.True(ok)
}

func (s *ServiceSuite) TestOTP_CodesAreFourDigits() {
	for i := 0; i < 50; i++ {
		s.Require().NoError(s.otp.Issue(s.ctx, "ann@example.com"))
		s.Regexp(fourDigits, s.latestCode("ann@example.com"))
	}
}

func (s *ServiceSuite) TestOTP_VerifyExpiryBoundary() {
	s.Require().NoError(s.otps.Append(s.ctx, &models.OtpRecord{Email: "ann@example.com", Code: "0042", IssuedAt: s.clock.Now()}))

	s.clock.Advance(5 * time.Minute)
	ok, err := s.otp.Verify(s.ctx, "ann@example.com", "0042")
	s.Require().NoError(err)
	s.True(ok, "exactly five minutes is still valid")

	s.clock.Advance(time.Second)
	ok, err = s.otp.Verify(s.ctx, "ann@example.com", "0042")
	s.Require().NoError(err)
	s.False(ok)
}

func (s *ServiceSuite) TestOTP_VerifyRejects() {
	s.Require().NoError(s.otps.Append(s.ctx, &models.OtpRecord{Email: "ann@example.com", Code: "1234", IssuedAt: s.clock.Now()}))

	for _, code := range []string{"4321", "123", "12345", "12a4", "", " 1234", "١٢٣٤"} {
		ok, err := s.otp.Verify(s.ctx, "ann@example.com", code)
		s.Require().NoError(err)
		s.False(ok, "code %q", code)
	}

	ok, err := s.otp.Verify(s.ctx, "nobody@example.com", "1234")
	s.Require().NoError(err)
	s.False(ok)
}

func (s *ServiceSuite) TestOTP_ReissueSupersedesAndVerifyIsRepeatable() {
	s.Require().NoError(s.otps.Append(s.ctx, &models.OtpRecord{Email: "ann@example.com", Code: "1111", IssuedAt: s.clock.Now()}))
	s.clock.Advance(time.Minute)
	s.Require().NoError(s.otps.Append(s.ctx, &models.OtpRecord{Email: "ann@example.com", Code: "2222", IssuedAt: s.clock.Now()}))

	ok, err := s.otp.Verify(s.ctx, "ann@example.com", "1111")
	s.Require().NoError(err)
	s.False(ok)

	for i := 0; i < 2; i++ {
		ok, err = s.otp.Verify(s.ctx, "ANN@example.com", "2222")
		s.Require().NoError(err)
		s.True(ok)
	}
}

func (s *ServiceSuite) TestOTP_PurgeExpired() {
	s.Require().NoError(s.otps.Append(s.ctx, &models.OtpRecord{Email: "old@example.com", Code: "1111", IssuedAt: s.clock.Now().Add(-25 * time.Hour)}))
	s.Require().NoError(s.otps.Append(s.ctx, &models.OtpRecord{Email: "new@example.com", Code: "2222", IssuedAt: s.clock.Now().Add(-time.Hour)}))

	n, err := s.otp.PurgeExpired(s.ctx)
	s.Require().NoError(err)
	s.EqualValues(1, n)

	ok, err := s.otp.Verify(s.ctx, "old@example.com", "1111")
	s.Require().NoError(err)
	s.False(ok)
	s.Equal("2222", s.latestCode("new@example.com"))
}
