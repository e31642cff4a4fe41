package models

import (
	"time"
)

// Task belongs to exactly one user. OwnerEmail is set at creation and never changes.
type Task struct {
	ID          uint64    `json:"id" gorm:"primaryKey;autoIncrement"`
	Name        string    `json:"name" gorm:"size:200;not null"`
	Description *string   `json:"description"`
	Completed   bool      `json:"completed" gorm:"not null"`
	Priority    *string   `json:"priority" gorm:"size:10"`
	DueDate     *string   `json:"due_date" gorm:"size:64"`
	CreatedAt   time.Time `json:"created_at" gorm:"not null;index"`
	OwnerEmail  string    `json:"owner_email" gorm:"size:255;not null;index"`
}

func (t *Task) OwnedBy(email string) bool {
	return t.OwnerEmail == email
}
