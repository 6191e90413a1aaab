package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"micro-missions/models"
	"micro-missions/services"
	"micro-missions/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testNoon = time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

type testApp struct {
	app      *fiber.App
	gw       *services.MissionGateway
	missions map[models.RequirementType]models.Mission
}

func newTestApp(t *testing.T, uploader ProofUploader) *testApp {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "handlers.db") + "?_busy_timeout=5000"
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

	gw := services.NewMissionGateway(db, services.GatewayConfig{BonusCoins: 50})
	gw.SetClock(func() time.Time { return testNoon })
	require.NoError(t, gw.Badges.SeedBadgeTypes(context.Background()))

	seeded, err := gw.Catalog.SeedDailyMissions(context.Background(), testNoon)
	require.NoError(t, err)
	byType := map[models.RequirementType]models.Mission{}
	for _, m := range seeded {
		byType[m.RequirementType] = m
	}

	app := fiber.New()
	SetupHealthRoutes(app)
	SetupMissionRoutes(app, gw, uploader)
	SetupRewardRoutes(app, gw.Wallets)
	SetupStreakRoutes(app, gw.Streaks, gw.Badges)
	SetupAdminRoutes(app, gw)

	return &testApp{app: app, gw: gw, missions: byType}
}

func (ta *testApp) do(t *testing.T, method, path, userID string, body any) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	if userID == "root" {
		req.Header.Set("X-User-Roles", "user, admin")
	}

	resp, err := ta.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]any{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func completeBody(proof map[string]any) map[string]any {
	return map[string]any{"proof": proof}
}

func walkProof() map[string]any {
	return map[string]any{
		"type":           "STEPS",
		"platform":       "ios",
		"healthkit_data": map[string]any{"step_count": 4200},
	}
}

func TestHealth(t *testing.T) {
	ta := newTestApp(t, nil)
	status, body := ta.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}

func TestMissionRoutes_RequireUser(t *testing.T) {
	ta := newTestApp(t, nil)
	for _, path := range []string{"/missions/daily", "/rewards/wallet", "/streaks/current"} {
		status, _ := ta.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, status, path)
	}
}

func TestDailyMissions(t *testing.T) {
	ta := newTestApp(t, nil)

	status, body := ta.do(t, http.MethodGet, "/missions/daily", "user-1", nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 5, body["count"])

	missions := body["missions"].([]any)
	first := missions[0].(map[string]any)
	assert.Contains(t, first, "time_remaining_ms")
	assert.Contains(t, first, "is_locked")
	assert.Equal(t, false, first["has_attempted"])
}

func TestCompleteMission_Rewarded(t *testing.T) {
	ta := newTestApp(t, nil)
	walk := ta.missions[models.RequirementSteps]

	status, body := ta.do(t, http.MethodPost, "/missions/"+walk.ID+"/complete", "user-1", completeBody(walkProof()))
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "REWARDED", body["state"])

	reward := body["reward"].(map[string]any)
	assert.EqualValues(t, 10, reward["earned_coins"])
	wallet := body["wallet"].(map[string]any)
	assert.EqualValues(t, 10, wallet["total_balance"])
	streak := body["streak"].(map[string]any)
	assert.EqualValues(t, 1, streak["current_count"])

	status, body = ta.do(t, http.MethodPost, "/missions/"+walk.ID+"/complete", "user-1", completeBody(walkProof()))
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "mission already attempted today", body["error"])

	status, body = ta.do(t, http.MethodGet, "/rewards/wallet", "user-1", nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 10, body["total_balance"])
	assert.Equal(t, models.DefaultCurrency, body["currency"])

	status, body = ta.do(t, http.MethodGet, "/rewards/history?limit=5", "user-1", nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, body["count"])

	status, body = ta.do(t, http.MethodGet, "/missions/"+walk.ID, "user-1", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["has_attempted"])
}

func TestCompleteMission_Rejected(t *testing.T) {
	ta := newTestApp(t, nil)
	quiz := ta.missions[models.RequirementQuiz]

	status, body := ta.do(t, http.MethodPost, "/missions/"+quiz.ID+"/complete", "user-1", completeBody(map[string]any{"type": "QUIZ"}))
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "REJECTED", body["state"])
	assert.NotEmpty(t, body["attempt_id"])
	verification := body["verification"].(map[string]any)
	assert.Equal(t, false, verification["is_valid"])
}

func TestCompleteMission_BadRequests(t *testing.T) {
	ta := newTestApp(t, nil)
	walk := ta.missions[models.RequirementSteps]

	status, _ := ta.do(t, http.MethodPost, "/missions/"+walk.ID+"/complete", "user-1", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = ta.do(t, http.MethodPost, "/missions/"+walk.ID+"/complete", "user-1", completeBody(map[string]any{"platform": "ios"}))
	assert.Equal(t, http.StatusBadRequest, status)

	status, body := ta.do(t, http.MethodPost, "/missions/"+walk.ID+"/complete", "user-1", completeBody(map[string]any{
		"type":   "SCREENSHOT",
		"base64": "aGVsbG8=",
	}))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "screenshot uploads are not enabled", body["error"])

	status, _ = ta.do(t, http.MethodPost, "/missions/does-not-exist/complete", "user-1", completeBody(walkProof()))
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = ta.do(t, http.MethodGet, "/missions/does-not-exist", "user-1", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

type stubUploader struct {
	url string
	err error
}

func (s *stubUploader) UploadProofImage(_ context.Context, _, _, _ string) (string, error) {
	return s.url, s.err
}

func TestCompleteMission_ScreenshotUpload(t *testing.T) {
	up := &stubUploader{url: "https://cdn.example.com/proofs/x.png"}
	ta := newTestApp(t, up)
	phone := ta.missions[models.RequirementPhoneFree]

	status, body := ta.do(t, http.MethodPost, "/missions/"+phone.ID+"/complete", "user-1", completeBody(map[string]any{
		"type":             "SCREENSHOT",
		"base64":           "aGVsbG8=",
		"duration_minutes": 15,
	}))
	require.Equal(t, http.StatusOK, status, body)
	verification := body["verification"].(map[string]any)
	raw := verification["raw_response"].(map[string]any)
	assert.Equal(t, up.url, raw["screenshot_url"])

	up.err = utils.ErrInvalidProofImage
	quiz := ta.missions[models.RequirementQuiz]
	status, _ = ta.do(t, http.MethodPost, "/missions/"+quiz.ID+"/complete", "user-1", completeBody(map[string]any{
		"type":   "SCREENSHOT",
		"base64": "bm9wZQ==",
	}))
	assert.Equal(t, http.StatusBadRequest, status)

	up.err = errors.New("bucket unreachable")
	status, _ = ta.do(t, http.MethodPost, "/missions/"+quiz.ID+"/complete", "user-1", completeBody(map[string]any{
		"type":   "SCREENSHOT",
		"base64": "bm9wZQ==",
	}))
	assert.Equal(t, http.StatusBadGateway, status)
}

func TestStreakRoutes(t *testing.T) {
	ta := newTestApp(t, nil)
	walk := ta.missions[models.RequirementSteps]

	status, _ := ta.do(t, http.MethodPost, "/missions/"+walk.ID+"/complete", "user-1", completeBody(walkProof()))
	require.Equal(t, http.StatusOK, status)

	status, body := ta.do(t, http.MethodGet, "/streaks/current", "user-1", nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, body["current_streak_count"])
	assert.EqualValues(t, 1, body["multiplier"])

	status, body = ta.do(t, http.MethodGet, "/streaks/leaderboard", "user-2", nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, body["count"])

	status, body = ta.do(t, http.MethodGet, "/streaks/badges", "user-1", nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 0, body["count"])
}

func TestAdminRoutes(t *testing.T) {
	ta := newTestApp(t, nil)

	status, _ := ta.do(t, http.MethodPost, "/s/admin/missions/expire", "user-1", nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, body := ta.do(t, http.MethodPost, "/s/admin/missions/seed", "root", map[string]any{"date": "2025-03-11"})
	require.Equal(t, http.StatusCreated, status, body)
	assert.Equal(t, "2025-03-11", body["day"])
	assert.EqualValues(t, 5, body["count"])

	status, _ = ta.do(t, http.MethodPost, "/s/admin/missions/seed", "root", map[string]any{"date": "11/03/2025"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = ta.do(t, http.MethodPost, "/s/admin/missions/expire", "root", nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 0, body["expired"])

	status, body = ta.do(t, http.MethodPost, "/s/admin/streaks/sweep", "root", nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 0, body["streaks_reset"])
}

func TestEngineError_StatusMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{services.ErrMissionNotFound, http.StatusNotFound},
		{services.ErrMissionExpired, http.StatusGone},
		{services.ErrAlreadyAttempted, http.StatusConflict},
		{services.ErrMissionLocked, http.StatusForbidden},
		{services.ErrAlreadyResolved, http.StatusConflict},
		{services.ErrTransactionFailed, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		app := fiber.New()
		err := tt.err
		app.Get("/", func(c *fiber.Ctx) error { return engineError(c, err) })

		resp, rerr := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
		require.NoError(t, rerr)
		assert.Equal(t, tt.status, resp.StatusCode, tt.err.Error())
		if tt.status == http.StatusServiceUnavailable {
			assert.Equal(t, "1", resp.Header.Get(fiber.HeaderRetryAfter))
		}
		resp.Body.Close()
	}
}
