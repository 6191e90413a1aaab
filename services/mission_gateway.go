package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"micro-missions/models"

	"gorm.io/gorm"
)

// hardUnlockThreshold is how many approved attempts today unlock HARD missions.
const hardUnlockThreshold = 3

type SubmissionState string

const (
	StateSubmitted SubmissionState = "SUBMITTED"
	StateVerifying SubmissionState = "VERIFYING"
	StateRewarded  SubmissionState = "REWARDED"
	StateRejected  SubmissionState = "REJECTED"
)

type GatewayConfig struct {
	BonusCoins      int64
	EnforceHardLock bool
	Fitness         StepCounter  // nil disables Google Fit step checks
	Cache           MissionCache // nil disables the mission cache
}

// MissionGateway is the engine's single entry point for the HTTP layer.
type MissionGateway struct {
	DB       *gorm.DB
	Catalog  *MissionCatalog
	Attempts *AttemptLedger
	Verifier *ProofVerifier
	Streaks  *StreakTracker
	Rewards  *RewardCalculator
	Wallets  *WalletLedger
	Badges   *BadgeService

	EnforceHardLock bool
	metrics         *gatewayMetrics
}

func NewMissionGateway(db *gorm.DB, cfg GatewayConfig) *MissionGateway {
	if cfg.BonusCoins < 0 {
		cfg.BonusCoins = DefaultBonusCoins
	}
	catalog := NewMissionCatalog(db, cfg.Cache)
	streaks := NewStreakTracker(db)
	return &MissionGateway{
		DB:              db,
		Catalog:         catalog,
		Attempts:        NewAttemptLedger(db, catalog),
		Verifier:        NewProofVerifier(cfg.Fitness),
		Streaks:         streaks,
		Rewards:         NewRewardCalculator(db, catalog, cfg.BonusCoins),
		Wallets:         NewWalletLedger(db),
		Badges:          NewBadgeService(db),
		EnforceHardLock: cfg.EnforceHardLock,
		metrics:         newGatewayMetrics(),
	}
}

// SetClock points every component at the same clock.
func (g *MissionGateway) SetClock(now func() time.Time) {
	g.Catalog.Now = now
	g.Attempts.Now = now
	g.Streaks.Now = now
	g.Rewards.Now = now
	g.Wallets.Now = now
	if sv, ok := g.Verifier.steps.(*StepsVerifier); ok {
		sv.Now = now
	}
}

func (g *MissionGateway) now() time.Time {
	return g.Catalog.Now()
}

// MissionListItem is one entry of the user's daily mission list.
type MissionListItem struct {
	MissionView
	IsLocked           bool                      `json:"is_locked"`
	HasAttempted       bool                      `json:"has_attempted"`
	VerificationStatus models.VerificationStatus `json:"verification_status,omitempty"`
}

// ListDailyMissions returns today's missions with the user's progress on each.
func (g *MissionGateway) ListDailyMissions(ctx context.Context, userID string) ([]MissionListItem, error) {
	now := g.now()
	views, err := g.Catalog.DailyMissions(ctx, now)
	if err != nil {
		return nil, err
	}
	attempts, err := g.Attempts.AttemptsForDay(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	approved := 0
	for _, a := range attempts {
		if a.VerificationStatus == models.VerificationApproved {
			approved++
		}
	}

	items := make([]MissionListItem, 0, len(views))
	for _, v := range views {
		item := MissionListItem{
			MissionView: v,
			IsLocked:    v.Difficulty == models.DifficultyHard && approved < hardUnlockThreshold,
		}
		if a, ok := attempts[v.ID]; ok {
			item.HasAttempted = true
			item.VerificationStatus = a.VerificationStatus
		}
		items = append(items, item)
	}
	return items, nil
}

type MissionDetail struct {
	MissionView
	HasAttempted bool `json:"has_attempted"`
}

func (g *MissionGateway) GetMissionDetail(ctx context.Context, userID, missionID string) (*MissionDetail, error) {
	m, err := g.Catalog.GetMission(ctx, missionID)
	if err != nil {
		return nil, err
	}
	attempted, err := g.Attempts.HasAttemptedToday(ctx, userID, missionID)
	if err != nil {
		return nil, err
	}
	return &MissionDetail{
		MissionView:  newMissionView(*m, g.now()),
		HasAttempted: attempted,
	}, nil
}

type WalletSnapshot struct {
	TotalBalance int64     `json:"total_balance"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type StreakSnapshot struct {
	CurrentCount int      `json:"current_count"`
	Multiplier   float64  `json:"multiplier"`
	BadgesEarned []string `json:"badges_earned"`
}

// CompletionResult is the outcome of SubmitCompletion. A REJECTED result is a
// normal return, not an error.
type CompletionResult struct {
	State                SubmissionState  `json:"state"`
	AttemptID            string           `json:"attempt_id"`
	Verification         Verdict          `json:"verification"`
	Reward               *RewardBreakdown `json:"reward,omitempty"`
	Wallet               *WalletSnapshot  `json:"wallet,omitempty"`
	Streak               *StreakSnapshot  `json:"streak,omitempty"`
	NewBadges            []string         `json:"new_badges,omitempty"`
	AllMissionsCompleted bool             `json:"all_missions_completed"`
}

// SubmitCompletion runs SUBMITTED → VERIFYING → {REWARDED | REJECTED} for one proof.
func (g *MissionGateway) SubmitCompletion(ctx context.Context, userID, missionID string, proof *models.Proof) (*CompletionResult, error) {
	mission, err := g.Catalog.GetMission(ctx, missionID)
	if err != nil {
		g.metrics.recordSubmission(ctx, "not_found")
		return nil, err
	}
	if missionExpired(mission, g.now()) {
		g.metrics.recordSubmission(ctx, "expired")
		return nil, ErrMissionExpired
	}
	if g.EnforceHardLock && mission.Difficulty == models.DifficultyHard {
		approved, err := g.Attempts.ApprovedCountForDay(ctx, userID, g.now())
		if err != nil {
			g.metrics.recordSubmission(ctx, "failed")
			return nil, err
		}
		if approved < hardUnlockThreshold {
			g.metrics.recordSubmission(ctx, "locked")
			return nil, ErrMissionLocked
		}
	}

	attempt, err := g.Attempts.CreateAttempt(ctx, userID, missionID, proof)
	if err != nil {
		switch {
		case errors.Is(err, ErrAlreadyAttempted):
			g.metrics.recordSubmission(ctx, "already_attempted")
		case errors.Is(err, ErrMissionExpired):
			g.metrics.recordSubmission(ctx, "expired")
		}
		return nil, err
	}

	verdict := g.Verifier.Verify(ctx, mission, proof)
	res := Resolution{
		FraudScore:  verdict.FraudScore,
		Notes:       verdict.Notes,
		RawResponse: verdict.RawResponse,
	}

	if !verdict.IsValid {
		res.Status = models.VerificationRejected
		if _, err := g.Attempts.MarkResult(ctx, attempt.ID, res); err != nil {
			g.discard(ctx, attempt.ID)
			g.metrics.recordSubmission(ctx, "failed")
			log.Printf("[MissionGateway] failed to reject attempt %s: %v", attempt.ID, err)
			return nil, fmt.Errorf("%w: %v", ErrTransactionFailed, err)
		}
		g.metrics.recordSubmission(ctx, "rejected")
		log.Printf("[MissionGateway] attempt %s rejected: %s", attempt.ID, verdict.Notes)
		return &CompletionResult{
			State:        StateRejected,
			AttemptID:    attempt.ID,
			Verification: verdict,
		}, nil
	}

	res.Status = models.VerificationApproved
	result, err := g.approve(ctx, userID, mission, attempt, res)
	if err != nil {
		g.discard(ctx, attempt.ID)
		g.metrics.recordSubmission(ctx, "failed")
		log.Printf("[MissionGateway] reward transaction for attempt %s failed: %v", attempt.ID, err)
		return nil, fmt.Errorf("%w: %v", ErrTransactionFailed, err)
	}
	result.Verification = verdict

	g.metrics.recordSubmission(ctx, "rewarded")
	g.metrics.recordCoins(ctx, result.Reward.EarnedCoins, string(models.RewardSourceMissionCompletion))
	g.metrics.recordCoins(ctx, result.Reward.BonusCoins, string(models.RewardSourceAllMissionsBonus))
	return result, nil
}

// discard frees the user's slot after a failed resolution so the client can
// retry. It runs even if the request context is already cancelled.
func (g *MissionGateway) discard(ctx context.Context, attemptID string) {
	if err := g.Attempts.Discard(context.WithoutCancel(ctx), attemptID); err != nil {
		log.Printf("[MissionGateway] failed to discard attempt %s: %v", attemptID, err)
	}
}

// approve resolves the attempt, writes rewards, credits the wallet and
// advances the streak in one transaction. The streak row lock is taken first
// and serializes all approvals for the user. The completion counts for
// the day the attempt was submitted, however long verification took.
func (g *MissionGateway) approve(ctx context.Context, userID string, mission *models.Mission, attempt *models.Attempt, res Resolution) (*CompletionResult, error) {
	result := &CompletionResult{State: StateRewarded, AttemptID: attempt.ID}
	completedOn := attempt.SubmittedAt
	dayKey := attempt.AttemptDay

	err := g.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		streak, err := lockStreak(tx, userID)
		if err != nil {
			return err
		}
		if _, err := g.Attempts.markResult(tx, attempt.ID, res); err != nil {
			return err
		}

		breakdown, err := g.Rewards.compute(tx, userID, mission, streak.CurrentStreakCount, dayKey)
		if err != nil {
			return err
		}

		var wallet *models.Wallet
		for _, r := range g.Rewards.rewardsFor(userID, attempt.ID, dayKey, breakdown) {
			if err := tx.Create(&r).Error; err != nil {
				return fmt.Errorf("failed to write %s reward: %w", r.Source, err)
			}
			if wallet, err = g.Wallets.credit(tx, userID, r.Amount, r.ID); err != nil {
				return err
			}
		}

		unlocked, err := g.Streaks.advance(tx, streak, completedOn)
		if err != nil {
			return err
		}

		result.Reward = &breakdown
		result.AllMissionsCompleted = breakdown.AllMissionsCompleted
		result.Wallet = &WalletSnapshot{TotalBalance: wallet.TotalBalance, UpdatedAt: wallet.UpdatedAt}
		result.Streak = &StreakSnapshot{
			CurrentCount: streak.CurrentStreakCount,
			Multiplier:   streak.Multiplier,
			BadgesEarned: streak.BadgesEarned,
		}
		result.NewBadges = unlocked
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
