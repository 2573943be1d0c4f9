// models/reminder_log.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReminderLog struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	MemberID     uuid.UUID `gorm:"type:uuid;index;not null" json:"memberId"`
	Message      string    `gorm:"type:text" json:"message"`
	Status       string    `gorm:"type:varchar(20)" json:"status"` // sent, failed
	ErrorKind    string    `gorm:"type:varchar(40)" json:"errorKind,omitempty"`
	ErrorMessage string    `gorm:"type:text" json:"errorMessage,omitempty"`
	Channel      string    `gorm:"type:varchar(20)" json:"channel"` // whatsapp
	SentAt       time.Time `json:"sentAt"`
	gorm.Model
}

func (r *ReminderLog) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return
}
