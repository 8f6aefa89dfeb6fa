package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// InvoiceSnapshot is one saved invoice. Payload holds the whole Invoice as
// JSON, sealed with AES-256-GCM when an encryption key is configured.
type InvoiceSnapshot struct {
	ID          uint      `gorm:"primaryKey"`
	Key         string    `gorm:"column:invoice_key;type:varchar(64);uniqueIndex;not null"`
	OwnerTgID   int64     `gorm:"index"`
	Policy      string    `gorm:"type:varchar(20);not null"`
	TotalAmount float64   `gorm:"not null;default:0"`
	ItemCount   int       `gorm:"not null;default:0"`
	Payload     string    `gorm:"type:text;not null"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime;index"`
}

// BeforeSave rejects keys outside the invoice namespace
func (s *InvoiceSnapshot) BeforeSave(tx *gorm.DB) error {
	if !strings.HasPrefix(s.Key, KeyPrefix) || len(s.Key) == len(KeyPrefix) {
		return gorm.ErrInvalidData
	}
	if s.Payload == "" {
		return gorm.ErrInvalidData
	}
	return nil
}

func (InvoiceSnapshot) TableName() string {
	return "invoice_snapshots"
}
