package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"micro-missions/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StreakTracker owns per-user consecutive-day state. Every write goes through
// a locked read of the user's row, which is what serializes same-user requests.
type StreakTracker struct {
	DB  *gorm.DB
	Now func() time.Time
}

func NewStreakTracker(db *gorm.DB) *StreakTracker {
	return &StreakTracker{DB: db, Now: func() time.Time { return time.Now().UTC() }}
}

// MultiplierFor maps a streak length onto its reward tier.
func MultiplierFor(count int) float64 {
	switch {
	case count >= 30:
		return 2.5
	case count >= 14:
		return 2.0
	case count >= 7:
		return 1.5
	default:
		return 1.0
	}
}

// AdvanceStreak applies one qualifying completion on completion's UTC day and
// returns the new state plus any badges unlocked by it. It does not touch s.
func AdvanceStreak(s models.Streak, completion time.Time) (models.Streak, []string) {
	today := DayStart(completion)

	gap := 1
	if s.LastCompletionDate != nil {
		gap = DaysBetween(*s.LastCompletionDate, today)
	}

	next := s
	next.BadgesEarned = append([]string(nil), s.BadgesEarned...)

	switch {
	case gap == 0:
		return next, nil
	case gap == 1:
		next.CurrentStreakCount++
	default:
		// gap > 1, or a last completion in the future: start over
		next.CurrentStreakCount = 1
	}
	if next.CurrentStreakCount == 1 {
		started := today
		next.StreakStartedAt = &started
	}
	if next.CurrentStreakCount > next.MaxStreakEver {
		next.MaxStreakEver = next.CurrentStreakCount
	}
	next.Multiplier = MultiplierFor(next.CurrentStreakCount)

	var unlocked []string
	for _, b := range models.BadgeTriggers {
		if next.CurrentStreakCount == b.StreakDays && !next.HasBadge(b.Code) {
			next.BadgesEarned = append(next.BadgesEarned, b.Code)
			unlocked = append(unlocked, b.Code)
		}
	}

	last := today
	next.LastCompletionDate = &last
	return next, unlocked
}

func newStreak(userID string) *models.Streak {
	return &models.Streak{
		ID:           uuid.NewString(),
		UserID:       userID,
		Multiplier:   1.0,
		BadgesEarned: []string{},
	}
}

// ensureStreak inserts the default row if the user has none. Concurrent
// callers cannot create two rows: the loser's insert is a no-op.
func ensureStreak(db *gorm.DB, userID string) error {
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(newStreak(userID)).Error; err != nil {
		return fmt.Errorf("failed to create streak for %s: %w", userID, err)
	}
	return nil
}

// lockStreak get-or-creates the user's streak and holds its row lock until tx ends.
func lockStreak(tx *gorm.DB, userID string) (*models.Streak, error) {
	if err := ensureStreak(tx, userID); err != nil {
		return nil, err
	}
	var s models.Streak
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&s).Error; err != nil {
		return nil, fmt.Errorf("failed to lock streak for %s: %w", userID, err)
	}
	return &s, nil
}

// advance persists AdvanceStreak for a completion on `on`'s day, on a locked
// row, and records unlocked badges.
func (t *StreakTracker) advance(tx *gorm.DB, s *models.Streak, on time.Time) ([]string, error) {
	next, unlocked := AdvanceStreak(*s, on)
	if err := tx.Save(&next).Error; err != nil {
		return nil, fmt.Errorf("failed to save streak for %s: %w", s.UserID, err)
	}
	for _, code := range unlocked {
		badge := models.UserBadge{
			ID:          uuid.NewString(),
			UserID:      s.UserID,
			BadgeCode:   code,
			StreakCount: next.CurrentStreakCount,
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&badge).Error; err != nil {
			return nil, fmt.Errorf("failed to award badge %s: %w", code, err)
		}
		log.Printf("[StreakTracker] badge %s unlocked for %s at %d days", code, s.UserID, next.CurrentStreakCount)
	}
	*s = next
	return unlocked, nil
}

// Advance records a qualifying completion for userID today.
func (t *StreakTracker) Advance(ctx context.Context, userID string) (*models.Streak, []string, error) {
	var (
		streak   *models.Streak
		unlocked []string
	)
	err := t.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		s, err := lockStreak(tx, userID)
		if err != nil {
			return err
		}
		if unlocked, err = t.advance(tx, s, t.Now()); err != nil {
			return err
		}
		streak = s
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return streak, unlocked, nil
}

// GetStreak returns the user's streak, creating the default 0 / 1.0x row on first read.
func (t *StreakTracker) GetStreak(ctx context.Context, userID string) (*models.Streak, error) {
	db := t.DB.WithContext(ctx)
	var s models.Streak
	err := db.Where("user_id = ?", userID).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if err := ensureStreak(db, userID); err != nil {
			return nil, err
		}
		err = db.Where("user_id = ?", userID).First(&s).Error
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load streak for %s: %w", userID, err)
	}
	return &s, nil
}

// CurrentMultiplier is the tier that applies to the user's next completion,
// i.e. before today's advance.
func (t *StreakTracker) CurrentMultiplier(ctx context.Context, userID string) (float64, error) {
	s, err := t.GetStreak(ctx, userID)
	if err != nil {
		return 0, err
	}
	return MultiplierFor(s.CurrentStreakCount), nil
}

type LeaderboardEntry struct {
	Rank               int     `json:"rank"`
	UserID             string  `json:"user_id"`
	CurrentStreakCount int     `json:"current_streak_count"`
	MaxStreakEver      int     `json:"max_streak_ever"`
	Multiplier         float64 `json:"multiplier"`
}

// Leaderboard ranks users by longest streak ever, ties broken by current streak.
func (t *StreakTracker) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	var streaks []models.Streak
	if err := t.DB.WithContext(ctx).
		Order("max_streak_ever DESC").
		Order("current_streak_count DESC").
		Limit(limit).
		Find(&streaks).Error; err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}

	entries := make([]LeaderboardEntry, 0, len(streaks))
	for i, s := range streaks {
		entries = append(entries, LeaderboardEntry{
			Rank:               i + 1,
			UserID:             s.UserID,
			CurrentStreakCount: s.CurrentStreakCount,
			MaxStreakEver:      s.MaxStreakEver,
			Multiplier:         s.Multiplier,
		})
	}
	return entries, nil
}

// BreakStaleStreaks zeroes every running streak whose last completion is more
// than one day behind today. Running it twice changes nothing further.
func (t *StreakTracker) BreakStaleStreaks(ctx context.Context) (int, error) {
	now := t.Now()
	broken := 0

	err := t.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var running []models.Streak
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("current_streak_count > ?", 0).
			Find(&running).Error; err != nil {
			return fmt.Errorf("failed to load running streaks: %w", err)
		}

		var stale []string
		for _, s := range running {
			if s.LastCompletionDate == nil || DaysBetween(*s.LastCompletionDate, now) > 1 {
				stale = append(stale, s.ID)
			}
		}
		if len(stale) == 0 {
			return nil
		}

		if err := tx.Model(&models.Streak{}).
			Where("id IN ?", stale).
			Updates(map[string]any{"current_streak_count": 0, "multiplier": 1.0}).Error; err != nil {
			return fmt.Errorf("failed to reset streaks: %w", err)
		}
		broken = len(stale)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return broken, nil
}
