package models

import "time"

type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "PENDING"
	VerificationApproved VerificationStatus = "APPROVED"
	VerificationRejected VerificationStatus = "REJECTED"
)

// Attempt is a user's single daily submission against a mission. The unique
// (user_id, mission_id, attempt_day) index is what makes submission idempotent.
type Attempt struct {
	ID          string     `json:"attempt_id" gorm:"primaryKey;type:varchar(36)"`
	UserID      string     `json:"user_id" gorm:"not null;index;uniqueIndex:idx_attempt_user_mission_day"`
	MissionID   string     `json:"mission_id" gorm:"not null;index;uniqueIndex:idx_attempt_user_mission_day"`
	AttemptDay  string     `json:"attempt_day" gorm:"type:varchar(10);not null;uniqueIndex:idx_attempt_user_mission_day"`
	SubmittedAt time.Time  `json:"submitted_at" gorm:"not null;index"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	Proof *Proof `json:"proof,omitempty" gorm:"type:text;serializer:json"`

	VerificationStatus VerificationStatus `json:"verification_status" gorm:"type:varchar(10);not null;index"`
	FraudScore         int                `json:"fraud_score" gorm:"not null;check:fraud_score >= 0 AND fraud_score <= 100"`
	RawResponse        map[string]any     `json:"raw_response,omitempty" gorm:"type:text;serializer:json"`
	Notes              string             `json:"notes,omitempty" gorm:"type:text"`

	Timestamps
}

func (a *Attempt) IsResolved() bool {
	return a.VerificationStatus == VerificationApproved || a.VerificationStatus == VerificationRejected
}
