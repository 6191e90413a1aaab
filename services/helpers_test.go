package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"micro-missions/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "missions.db") + "?_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, models.AutoMigrate(db))
	return db
}

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock(t time.Time) *testClock { return &testClock{t: t} }

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

func (c *testClock) Add(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// noon on a fixed UTC day keeps every test away from midnight.
var testNoon = time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

type fixture struct {
	db       *gorm.DB
	gw       *MissionGateway
	clock    *testClock
	missions map[models.RequirementType]models.Mission
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	clock := newTestClock(testNoon)

	gw := NewMissionGateway(db, GatewayConfig{BonusCoins: 50})
	gw.SetClock(clock.Now)

	seeded, err := gw.Catalog.SeedDailyMissions(context.Background(), clock.Now())
	require.NoError(t, err)
	require.Len(t, seeded, 5)

	byType := make(map[models.RequirementType]models.Mission, len(seeded))
	for _, m := range seeded {
		byType[m.RequirementType] = m
	}
	return &fixture{db: db, gw: gw, clock: clock, missions: byType}
}

func (f *fixture) mission(rt models.RequirementType) models.Mission {
	return f.missions[rt]
}

// validProof satisfies the seeded mission of the given type.
func validProof(rt models.RequirementType) *models.Proof {
	switch rt {
	case models.RequirementSteps:
		return &models.Proof{
			Type:          models.ProofTypeSteps,
			Platform:      models.PlatformIOS,
			HealthKitData: &models.HealthKitData{StepCount: 4200},
		}
	case models.RequirementPhoneFree:
		minutes := 15
		return &models.Proof{Type: models.ProofTypePhoneFree, DurationMinutes: &minutes}
	case models.RequirementQuiz:
		return &models.Proof{Type: models.ProofTypeQuiz, QuizResults: &models.QuizResults{QuestionsAnswered: 5, CorrectAnswers: 4}}
	case models.RequirementExpenseTrack:
		return &models.Proof{Type: models.ProofTypeExpenseTrack, Expenses: []models.Expense{{Amount: 12.5, Category: "food"}}}
	case models.RequirementProductivity:
		done := true
		return &models.Proof{Type: models.ProofTypeProductivity, TaskCompleted: &done}
	}
	return nil
}

func seedStreak(t *testing.T, db *gorm.DB, userID string, count int, last time.Time) {
	t.Helper()
	lastDay := DayStart(last)
	s := newStreak(userID)
	s.CurrentStreakCount = count
	s.MaxStreakEver = count
	s.Multiplier = MultiplierFor(count)
	s.LastCompletionDate = &lastDay
	require.NoError(t, db.Create(s).Error)
}

// memoryCache is an in-process MissionCache that records invalidations.
type memoryCache struct {
	mu          sync.Mutex
	days        map[string][]models.Mission
	invalidated []string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{days: map[string][]models.Mission{}}
}

func (m *memoryCache) GetDay(_ context.Context, dayKey string) ([]models.Mission, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	missions, ok := m.days[dayKey]
	return missions, ok, nil
}

func (m *memoryCache) SetDay(_ context.Context, dayKey string, missions []models.Mission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.days[dayKey] = missions
	return nil
}

func (m *memoryCache) InvalidateDay(_ context.Context, dayKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.days, dayKey)
	m.invalidated = append(m.invalidated, dayKey)
	return nil
}
