package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"micro-missions/models"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm/clause"
)

type missionTemplate struct {
	Title            string
	Description      string
	Difficulty       models.Difficulty
	BaseReward       int
	RequirementType  models.RequirementType
	RequirementValue int
	ProofRequirement models.ProofRequirement
	Category         string
	Tags             []string
}

// dailyMissionTemplates is the set of missions published every UTC day.
var dailyMissionTemplates = []missionTemplate{
	{
		Title:            "Walk 1,000 Steps",
		Description:      "Get moving! Walk at least 1,000 steps today.",
		Difficulty:       models.DifficultyEasy,
		BaseReward:       10,
		RequirementType:  models.RequirementSteps,
		RequirementValue: 1000,
		ProofRequirement: models.ProofAPIVerification,
		Category:         "health",
		Tags:             []string{"fitness", "walking"},
	},
	{
		Title:            "Phone-Free 10 Minutes",
		Description:      "Put your phone down for 10 minutes straight.",
		Difficulty:       models.DifficultyEasy,
		BaseReward:       15,
		RequirementType:  models.RequirementPhoneFree,
		RequirementValue: 10,
		ProofRequirement: models.ProofManualConfirmation,
		Category:         "wellbeing",
		Tags:             []string{"focus", "digital-detox"},
	},
	{
		Title:            "Complete Financial Quiz",
		Description:      "Answer today's money quiz.",
		Difficulty:       models.DifficultyMedium,
		BaseReward:       20,
		RequirementType:  models.RequirementQuiz,
		RequirementValue: 1,
		ProofRequirement: models.ProofManualConfirmation,
		Category:         "finance",
		Tags:             []string{"learning"},
	},
	{
		Title:            "Track One Expense",
		Description:      "Log at least one expense you made today.",
		Difficulty:       models.DifficultyMedium,
		BaseReward:       25,
		RequirementType:  models.RequirementExpenseTrack,
		RequirementValue: 1,
		ProofRequirement: models.ProofManualConfirmation,
		Category:         "finance",
		Tags:             []string{"budgeting"},
	},
	{
		Title:            "Complete Productivity Task",
		Description:      "Finish one focused task from your list.",
		Difficulty:       models.DifficultyHard,
		BaseReward:       40,
		RequirementType:  models.RequirementProductivity,
		RequirementValue: 1,
		ProofRequirement: models.ProofManualConfirmation,
		Category:         "productivity",
		Tags:             []string{"focus"},
	},
}

// SeedDailyMissions creates the day's missions, one per template slot, created
// at the day's UTC midnight and expiring at the next. Running it again for the
// same day is a no-op.
func (c *MissionCatalog) SeedDailyMissions(ctx context.Context, asOf time.Time) ([]models.Mission, error) {
	start := DayStart(asOf)
	dayKey := DayKey(start)

	missions := make([]models.Mission, 0, len(dailyMissionTemplates))
	for _, t := range dailyMissionTemplates {
		m := models.Mission{
			ID:               uuid.NewString(),
			Slot:             slug.Make(t.Title),
			Title:            t.Title,
			Description:      t.Description,
			Difficulty:       t.Difficulty,
			BaseReward:       t.BaseReward,
			RequirementType:  t.RequirementType,
			RequirementValue: t.RequirementValue,
			ProofRequirement: t.ProofRequirement,
			Category:         t.Category,
			Tags:             t.Tags,
			CreatedAt:        start,
			ExpiresAt:        start.Add(day),
			IsActive:         true,
		}
		if err := validateMission(&m); err != nil {
			return nil, fmt.Errorf("invalid mission template %q: %w", t.Title, err)
		}
		missions = append(missions, m)
	}

	res := c.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slot"}, {Name: "mission_day"}},
			DoNothing: true,
		}).
		Create(&missions)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to seed missions for %s: %w", dayKey, res.Error)
	}
	if res.RowsAffected > 0 {
		log.Printf("[MissionCatalog] seeded %d missions for %s", res.RowsAffected, dayKey)
	}
	c.invalidate(ctx, dayKey)

	return c.activeMissionsForDay(c.DB.WithContext(ctx), dayKey)
}
