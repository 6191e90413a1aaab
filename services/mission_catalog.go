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
)

// MissionCatalog owns mission definitions and answers expiry questions.
// Expiry is always computed from timestamps; IsActive is housekeeping only.
type MissionCatalog struct {
	DB    *gorm.DB
	Cache MissionCache // optional
	Now   func() time.Time
}

func NewMissionCatalog(db *gorm.DB, cache MissionCache) *MissionCatalog {
	return &MissionCatalog{DB: db, Cache: cache, Now: func() time.Time { return time.Now().UTC() }}
}

// MissionView is a mission annotated with its live remaining time.
type MissionView struct {
	models.Mission
	TimeRemainingMs    int64 `json:"time_remaining_ms"`
	TimeRemainingHours int64 `json:"time_remaining_hours"`
	IsExpired          bool  `json:"is_expired"`
}

func newMissionView(m models.Mission, now time.Time) MissionView {
	remaining := m.ExpiresAt.Sub(now)
	if remaining < 0 {
		remaining = 0
	}
	return MissionView{
		Mission:            m,
		TimeRemainingMs:    remaining.Milliseconds(),
		TimeRemainingHours: int64(remaining / time.Hour),
		IsExpired:          remaining == 0,
	}
}

// DailyMissions returns the active missions created on asOf's UTC day, oldest first.
func (c *MissionCatalog) DailyMissions(ctx context.Context, asOf time.Time) ([]MissionView, error) {
	missions, err := c.cachedMissionsForDay(ctx, DayKey(asOf))
	if err != nil {
		return nil, err
	}

	now := c.Now()
	views := make([]MissionView, 0, len(missions))
	for _, m := range missions {
		if !m.IsActive {
			continue
		}
		views = append(views, newMissionView(m, now))
	}
	return views, nil
}

func (c *MissionCatalog) cachedMissionsForDay(ctx context.Context, dayKey string) ([]models.Mission, error) {
	if c.Cache != nil {
		missions, ok, err := c.Cache.GetDay(ctx, dayKey)
		if err != nil {
			log.Printf("[MissionCatalog] cache read failed for %s: %v", dayKey, err)
		} else if ok {
			return missions, nil
		}
	}

	missions, err := c.activeMissionsForDay(c.DB.WithContext(ctx), dayKey)
	if err != nil {
		return nil, err
	}

	if c.Cache != nil {
		if err := c.Cache.SetDay(ctx, dayKey, missions); err != nil {
			log.Printf("[MissionCatalog] cache write failed for %s: %v", dayKey, err)
		}
	}
	return missions, nil
}

// activeMissionsForDay reads straight from db, which may be an open transaction.
func (c *MissionCatalog) activeMissionsForDay(db *gorm.DB, dayKey string) ([]models.Mission, error) {
	var missions []models.Mission
	if err := db.
		Where("mission_day = ? AND is_active = ?", dayKey, true).
		Order("created_at ASC").
		Find(&missions).Error; err != nil {
		return nil, fmt.Errorf("failed to load missions for %s: %w", dayKey, err)
	}
	return missions, nil
}

// GetMission loads one mission by id.
func (c *MissionCatalog) GetMission(ctx context.Context, missionID string) (*models.Mission, error) {
	var m models.Mission
	if err := c.DB.WithContext(ctx).First(&m, "id = ?", missionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMissionNotFound
		}
		return nil, fmt.Errorf("failed to load mission %s: %w", missionID, err)
	}
	return &m, nil
}

// IsExpired is true for a missing mission or once now is past expires_at.
// A lookup failure also reports expired, together with the error.
func (c *MissionCatalog) IsExpired(ctx context.Context, missionID string) (bool, error) {
	m, err := c.GetMission(ctx, missionID)
	if errors.Is(err, ErrMissionNotFound) {
		return true, nil
	}
	if err != nil {
		return true, err
	}
	return missionExpired(m, c.Now()), nil
}

func missionExpired(m *models.Mission, now time.Time) bool {
	return now.After(m.ExpiresAt)
}

// CreateMission validates and inserts a mission definition.
func (c *MissionCatalog) CreateMission(ctx context.Context, m *models.Mission) error {
	if err := validateMission(m); err != nil {
		return err
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if err := c.DB.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("failed to create mission %q: %w", m.Slot, err)
	}
	c.invalidate(ctx, m.MissionDay)
	return nil
}

func validateMission(m *models.Mission) error {
	if m.Title == "" || m.Slot == "" {
		return fmt.Errorf("mission title and slot are required")
	}
	if m.BaseReward < models.MinBaseReward || m.BaseReward > models.MaxBaseReward {
		return fmt.Errorf("base_reward %d outside [%d, %d]", m.BaseReward, models.MinBaseReward, models.MaxBaseReward)
	}
	switch m.Difficulty {
	case models.DifficultyEasy, models.DifficultyMedium, models.DifficultyHard:
	default:
		return fmt.Errorf("unknown difficulty %q", m.Difficulty)
	}
	switch m.RequirementType {
	case models.RequirementSteps, models.RequirementPhoneFree, models.RequirementQuiz,
		models.RequirementExpenseTrack, models.RequirementProductivity:
	default:
		return fmt.Errorf("unknown requirement type %q", m.RequirementType)
	}
	switch m.ProofRequirement {
	case models.ProofAPIVerification, models.ProofManualConfirmation, models.ProofScreenshot:
	default:
		return fmt.Errorf("unknown proof requirement %q", m.ProofRequirement)
	}
	if m.ExpiresAt.IsZero() {
		return fmt.Errorf("expires_at is required")
	}
	return nil
}

// ExpireMissions flips is_active off for every mission whose expiry has passed
// and drops the cached lists of the affected days.
func (c *MissionCatalog) ExpireMissions(ctx context.Context) (int, error) {
	now := c.Now()

	var expired []models.Mission
	if err := c.DB.WithContext(ctx).
		Where("is_active = ? AND expires_at <= ?", true, now).
		Find(&expired).Error; err != nil {
		return 0, fmt.Errorf("failed to find expired missions: %w", err)
	}
	if len(expired) == 0 {
		return 0, nil
	}

	ids := make([]string, 0, len(expired))
	days := map[string]struct{}{}
	for _, m := range expired {
		ids = append(ids, m.ID)
		days[m.MissionDay] = struct{}{}
	}

	if err := c.DB.WithContext(ctx).
		Model(&models.Mission{}).
		Where("id IN ?", ids).
		Update("is_active", false).Error; err != nil {
		return 0, fmt.Errorf("failed to deactivate missions: %w", err)
	}

	for d := range days {
		c.invalidate(ctx, d)
	}
	return len(expired), nil
}

func (c *MissionCatalog) invalidate(ctx context.Context, dayKey string) {
	if c.Cache == nil || dayKey == "" {
		return
	}
	if err := c.Cache.InvalidateDay(ctx, dayKey); err != nil {
		log.Printf("[MissionCatalog] cache invalidation failed for %s: %v", dayKey, err)
	}
}
