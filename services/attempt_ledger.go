package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"micro-missions/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AttemptLedger records at most one attempt per (user, mission, UTC day).
type AttemptLedger struct {
	DB      *gorm.DB
	Catalog *MissionCatalog
	Now     func() time.Time
}

func NewAttemptLedger(db *gorm.DB, catalog *MissionCatalog) *AttemptLedger {
	return &AttemptLedger{DB: db, Catalog: catalog, Now: func() time.Time { return time.Now().UTC() }}
}

// Resolution is the one-time outcome written onto a PENDING attempt.
type Resolution struct {
	Status      models.VerificationStatus
	FraudScore  int
	Notes       string
	RawResponse map[string]any
}

// CreateAttempt inserts a PENDING attempt. Concurrent callers racing on the
// same (user, mission, day) are serialized by the unique index: exactly one
// insert wins and the rest get ErrAlreadyAttempted.
func (l *AttemptLedger) CreateAttempt(ctx context.Context, userID, missionID string, proof *models.Proof) (*models.Attempt, error) {
	expired, err := l.Catalog.IsExpired(ctx, missionID)
	if err != nil {
		return nil, err
	}
	if expired {
		return nil, ErrMissionExpired
	}

	now := l.Now()
	dayKey := DayKey(now)

	attempted, err := l.hasAttempted(l.DB.WithContext(ctx), userID, missionID, dayKey)
	if err != nil {
		return nil, err
	}
	if attempted {
		return nil, ErrAlreadyAttempted
	}

	attempt := &models.Attempt{
		ID:                 uuid.NewString(),
		UserID:             userID,
		MissionID:          missionID,
		AttemptDay:         dayKey,
		SubmittedAt:        now,
		Proof:              proof,
		VerificationStatus: models.VerificationPending,
	}
	if err := l.DB.WithContext(ctx).Create(attempt).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyAttempted
		}
		return nil, fmt.Errorf("failed to create attempt: %w", err)
	}
	return attempt, nil
}

// MarkResult resolves a PENDING attempt. A second call fails with ErrAlreadyResolved.
func (l *AttemptLedger) MarkResult(ctx context.Context, attemptID string, res Resolution) (*models.Attempt, error) {
	var attempt *models.Attempt
	err := l.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		attempt, err = l.markResult(tx, attemptID, res)
		return err
	})
	if err != nil {
		return nil, err
	}
	return attempt, nil
}

// markResult does the transition on an open transaction.
func (l *AttemptLedger) markResult(tx *gorm.DB, attemptID string, res Resolution) (*models.Attempt, error) {
	if res.Status != models.VerificationApproved && res.Status != models.VerificationRejected {
		return nil, fmt.Errorf("cannot resolve attempt to %q", res.Status)
	}

	var attempt models.Attempt
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&attempt, "id = ?", attemptID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to load attempt %s: %w", attemptID, err)
	}
	if attempt.IsResolved() {
		return nil, ErrAlreadyResolved
	}

	now := l.Now()
	attempt.VerificationStatus = res.Status
	attempt.FraudScore = clampFraudScore(res.FraudScore)
	attempt.Notes = res.Notes
	attempt.RawResponse = res.RawResponse
	attempt.CompletedAt = &now

	if err := tx.Save(&attempt).Error; err != nil {
		return nil, fmt.Errorf("failed to resolve attempt %s: %w", attemptID, err)
	}
	return &attempt, nil
}

// Discard removes an attempt that is still PENDING, so the user can resubmit
// after a failed reward commit. Resolved attempts are never touched.
func (l *AttemptLedger) Discard(ctx context.Context, attemptID string) error {
	res := l.DB.WithContext(ctx).
		Where("id = ? AND verification_status = ?", attemptID, models.VerificationPending).
		Delete(&models.Attempt{})
	if res.Error != nil {
		return fmt.Errorf("failed to discard attempt %s: %w", attemptID, res.Error)
	}
	return nil
}

// HasAttemptedToday reports whether any attempt, in any state, exists today.
func (l *AttemptLedger) HasAttemptedToday(ctx context.Context, userID, missionID string) (bool, error) {
	return l.hasAttempted(l.DB.WithContext(ctx), userID, missionID, DayKey(l.Now()))
}

func (l *AttemptLedger) hasAttempted(db *gorm.DB, userID, missionID, dayKey string) (bool, error) {
	var count int64
	if err := db.Model(&models.Attempt{}).
		Where("user_id = ? AND mission_id = ? AND attempt_day = ?", userID, missionID, dayKey).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check attempts: %w", err)
	}
	return count > 0, nil
}

// AttemptsForDay returns the user's attempts on asOf's UTC day keyed by mission.
func (l *AttemptLedger) AttemptsForDay(ctx context.Context, userID string, asOf time.Time) (map[string]models.Attempt, error) {
	var attempts []models.Attempt
	if err := l.DB.WithContext(ctx).
		Where("user_id = ? AND attempt_day = ?", userID, DayKey(asOf)).
		Find(&attempts).Error; err != nil {
		return nil, fmt.Errorf("failed to load attempts: %w", err)
	}
	byMission := make(map[string]models.Attempt, len(attempts))
	for _, a := range attempts {
		byMission[a.MissionID] = a
	}
	return byMission, nil
}

// ApprovedCountForDay counts the user's APPROVED attempts on asOf's UTC day.
func (l *AttemptLedger) ApprovedCountForDay(ctx context.Context, userID string, asOf time.Time) (int64, error) {
	var count int64
	if err := l.DB.WithContext(ctx).Model(&models.Attempt{}).
		Where("user_id = ? AND attempt_day = ? AND verification_status = ?", userID, DayKey(asOf), models.VerificationApproved).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count approved attempts: %w", err)
	}
	return count, nil
}

// approvedMissionIDs reads through db so an open transaction sees its own writes.
func approvedMissionIDs(db *gorm.DB, userID, dayKey string) (map[string]bool, error) {
	var ids []string
	if err := db.Model(&models.Attempt{}).
		Where("user_id = ? AND attempt_day = ? AND verification_status = ?", userID, dayKey, models.VerificationApproved).
		Pluck("mission_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to load approved missions: %w", err)
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

func clampFraudScore(s int) int {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}
