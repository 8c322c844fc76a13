package models

import (
	"time"
)

// Notification is an outbox row written inside the same transaction as
// the state change it reports, and drained by the notification worker
// after commit. Delivery is best-effort: a failed send is logged and
// retried, never propagated back to the committed request.
type Notification struct {
	ID         string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	TelegramID int64  `gorm:"not null;index" json:"telegram_id"`
	Text       string `gorm:"type:text;not null" json:"text"`

	SentAt    *time.Time `gorm:"index" json:"sent_at,omitempty"`
	Attempts  int        `gorm:"default:0" json:"attempts"`
	LastError string     `gorm:"type:text" json:"last_error,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}
