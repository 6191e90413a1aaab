package models

import "time"

// Timestamps adds GORM auto-times. Ledger rows are never soft-deleted, so the
// per-day unique indexes always see every row.
type Timestamps struct {
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
