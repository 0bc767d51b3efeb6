package models

import (
	"gorm.io/gorm"
)

// User is a retailer account that can log in to either bot.
type User struct {
	gorm.Model
	Name           string `json:"name" gorm:"size:100;not null"`
	WhatsAppNumber string `json:"whatsapp_number" gorm:"size:20;uniqueIndex;not null"`
	PasswordHash   string `json:"-" gorm:"size:255;not null"`
	IsActive       bool   `json:"is_active" gorm:"default:true"`
}
