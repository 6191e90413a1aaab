// models/wallet.go
package models

import (
	"time"
)

const DefaultCurrency = "SHARP_COINS"

// Wallet holds a user's coin balance. It is only ever credited, and only in the
// same transaction that writes the matching Reward rows.
type Wallet struct {
	ID              string    `json:"wallet_id" gorm:"primaryKey;type:varchar(36)"`
	UserID          string    `json:"user_id" gorm:"not null;uniqueIndex"`
	TotalBalance    int64     `json:"total_balance" gorm:"not null;check:total_balance >= 0"`
	Currency        string    `json:"currency" gorm:"type:varchar(16);not null"`
	TransactionRefs []string  `json:"transaction_history" gorm:"type:text;serializer:json"`
	CreatedAt       time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt       time.Time `json:"updated_at"`
}
