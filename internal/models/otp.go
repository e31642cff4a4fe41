package models

import "time"

// OtpRecord is an append-only ledger entry. The newest entry per email is the live code.
type OtpRecord struct {
	ID       uint64    `json:"id" gorm:"primaryKey;autoIncrement"`
	Email    string    `json:"email" gorm:"size:255;not null;index:idx_otp_email_issued,priority:1"`
	Code     string    `json:"-" gorm:"size:4;not null"`
	IssuedAt time.Time `json:"issued_at" gorm:"not null;index:idx_otp_email_issued,priority:2;index:idx_otp_issued_at"`
}

// ExpiredAt reports whether the code is past ttl at now. A code aged exactly ttl is still valid.
func (o *OtpRecord) ExpiredAt(now time.Time, ttl time.Duration) bool {
	return now.After(o.IssuedAt.Add(ttl))
}
