package models

import (
	"time"

	"gorm.io/gorm"
)

// BotType identifies which bot persona a session belongs to. Each phone
// number holds at most one active session per persona.
type BotType string

const (
	BotInventory BotType = "inventory"
	BotInvoice   BotType = "invoice"
)

// WhatsAppSession binds a phone number, for one bot persona, to a user
// identity for a bounded time. Sessions are deactivated, never deleted.
type WhatsAppSession struct {
	gorm.Model
	UserID         uint      `json:"user_id" gorm:"not null"`
	User           User      `json:"-" gorm:"foreignKey:UserID"`
	WhatsAppNumber string    `json:"whatsapp_number" gorm:"size:20;index;not null"`
	SessionToken   string    `json:"session_token" gorm:"size:255;uniqueIndex;not null"`
	BotType        BotType   `json:"bot_type" gorm:"size:20;not null"`
	IsActive       bool      `json:"is_active" gorm:"default:true"`
	ExpiresAt      time.Time `json:"expires_at" gorm:"not null"`
	LastActivity   time.Time `json:"last_activity"`
}

// IsExpired reports whether the session has passed its expiry time.
func (s *WhatsAppSession) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// IsValid reports whether the session is active and not expired.
func (s *WhatsAppSession) IsValid() bool {
	return s.IsActive && !s.IsExpired()
}
