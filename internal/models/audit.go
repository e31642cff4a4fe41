package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	DecisionAllow = "allow"
	DecisionDeny  = "deny"
)

type AuditLog struct {
	ID          uint64            `json:"id" gorm:"primaryKey;autoIncrement"`
	CallerEmail string            `json:"caller_email" gorm:"size:255;index"`
	Action      string            `json:"action" gorm:"size:32;not null"`
	Resource    string            `json:"resource" gorm:"size:32;not null"`
	ResourceID  string            `json:"resource_id" gorm:"size:255"`
	Decision    string            `json:"decision" gorm:"size:8;not null"`
	Reason      string            `json:"reason"`
	Context     datatypes.JSONMap `json:"context"`
	Timestamp   time.Time         `json:"timestamp" gorm:"not null;index"`
}

// All lists every persisted model in migration order.
func All() []any {
	return []any{&User{}, &Task{}, &OtpRecord{}, &AuditLog{}}
}
