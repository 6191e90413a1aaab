package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"micro-missions/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BadgeService struct {
	DB *gorm.DB
}

func NewBadgeService(db *gorm.DB) *BadgeService {
	return &BadgeService{DB: db}
}

// SeedBadgeTypes upserts the streak badge catalogue from models.BadgeTriggers.
func (s *BadgeService) SeedBadgeTypes(ctx context.Context) error {
	for _, trigger := range models.BadgeTriggers {
		bt := trigger
		bt.ID = uuid.NewString()
		if err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "code"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "description", "rarity", "streak_days"}),
		}).Create(&bt).Error; err != nil {
			return fmt.Errorf("failed to seed badge %s: %w", trigger.Code, err)
		}
	}
	log.Printf("[BadgeService] %d badge types seeded", len(models.BadgeTriggers))
	return nil
}

// UserBadgeView is an awarded badge joined with its catalogue entry.
type UserBadgeView struct {
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IconURL     string    `json:"icon_url,omitempty"`
	Rarity      string    `json:"rarity"`
	StreakCount int       `json:"streak_count"`
	AwardedAt   time.Time `json:"awarded_at"`
}

// ListUserBadges returns the user's badges in award order.
func (s *BadgeService) ListUserBadges(ctx context.Context, userID string) ([]UserBadgeView, error) {
	var awarded []models.UserBadge
	if err := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("awarded_at ASC").
		Find(&awarded).Error; err != nil {
		return nil, fmt.Errorf("failed to load badges for %s: %w", userID, err)
	}
	if len(awarded) == 0 {
		return []UserBadgeView{}, nil
	}

	codes := make([]string, 0, len(awarded))
	for _, ub := range awarded {
		codes = append(codes, ub.BadgeCode)
	}
	var types []models.BadgeType
	if err := s.DB.WithContext(ctx).Where("code IN ?", codes).Find(&types).Error; err != nil {
		return nil, fmt.Errorf("failed to load badge types: %w", err)
	}
	byCode := make(map[string]models.BadgeType, len(types))
	for _, bt := range types {
		byCode[bt.Code] = bt
	}

	views := make([]UserBadgeView, 0, len(awarded))
	for _, ub := range awarded {
		bt, ok := byCode[ub.BadgeCode]
		if !ok {
			// catalogue not seeded yet; fall back to the built-in definition
			for _, t := range models.BadgeTriggers {
				if t.Code == ub.BadgeCode {
					bt = t
				}
			}
		}
		views = append(views, UserBadgeView{
			Code:        ub.BadgeCode,
			Name:        bt.Name,
			Description: bt.Description,
			IconURL:     bt.IconURL,
			Rarity:      bt.Rarity,
			StreakCount: ub.StreakCount,
			AwardedAt:   ub.AwardedAt,
		})
	}
	return views, nil
}
