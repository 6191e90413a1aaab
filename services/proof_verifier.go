package services

import (
	"context"
	"log"
	"time"

	"micro-missions/models"
)

// Verdict is the outcome of checking one proof against a mission threshold.
type Verdict struct {
	IsValid     bool           `json:"is_valid"`
	FraudScore  int            `json:"fraud_score"`
	RawResponse map[string]any `json:"raw_response,omitempty"`
	Notes       string         `json:"notes"`
}

// Verifier checks a proof against the mission's required value. Implementations
// never fail: bad input downgrades to an invalid verdict.
type Verifier interface {
	Verify(ctx context.Context, proof *models.Proof, required int) Verdict
}

// ProofVerifier dispatches on the mission's requirement type.
type ProofVerifier struct {
	steps        Verifier
	phoneFree    Verifier
	quiz         Verifier
	expenses     Verifier
	productivity Verifier
}

// NewProofVerifier wires the five strategies. fitness may be nil, in which case
// Android step proofs cannot be checked and are rejected.
func NewProofVerifier(fitness StepCounter) *ProofVerifier {
	return &ProofVerifier{
		steps:        &StepsVerifier{Fitness: fitness, Now: func() time.Time { return time.Now().UTC() }},
		phoneFree:    PhoneFreeVerifier{},
		quiz:         QuizVerifier{},
		expenses:     ExpenseTrackVerifier{},
		productivity: ProductivityVerifier{},
	}
}

func (v *ProofVerifier) strategyFor(rt models.RequirementType) Verifier {
	switch rt {
	case models.RequirementSteps:
		return v.steps
	case models.RequirementPhoneFree:
		return v.phoneFree
	case models.RequirementQuiz:
		return v.quiz
	case models.RequirementExpenseTrack:
		return v.expenses
	case models.RequirementProductivity:
		return v.productivity
	default:
		return nil
	}
}

// Verify runs the strategy for mission's requirement type.
func (v *ProofVerifier) Verify(ctx context.Context, mission *models.Mission, proof *models.Proof) Verdict {
	if proof == nil {
		return Verdict{IsValid: false, FraudScore: 100, Notes: "Missing proof"}
	}
	strategy := v.strategyFor(mission.RequirementType)
	if strategy == nil {
		return Verdict{IsValid: false, Notes: "Unknown requirement type"}
	}
	verdict := strategy.Verify(ctx, proof, mission.RequirementValue)
	verdict.FraudScore = clampFraudScore(verdict.FraudScore)
	return verdict
}

func invalidProofFormat() Verdict {
	return Verdict{IsValid: false, FraudScore: 100, Notes: "Invalid proof format"}
}

// StepsVerifier accepts Google Fit (Android), HealthKit (iOS) or a bare manual
// confirmation flagged for review.
type StepsVerifier struct {
	Fitness StepCounter
	Now     func() time.Time
}

func (s *StepsVerifier) Verify(ctx context.Context, proof *models.Proof, required int) Verdict {
	switch {
	case proof.Platform == models.PlatformAndroid && proof.AccessToken != "":
		if s.Fitness == nil {
			return fitnessFailure("fitness api not configured")
		}
		steps, err := s.Fitness.DailySteps(ctx, proof.AccessToken, s.Now())
		if err != nil {
			log.Printf("[ProofVerifier] step lookup failed: %v", err)
			return fitnessFailure(err.Error())
		}
		return stepVerdict(steps, required, "Steps verified via Google Fit")

	case proof.Platform == models.PlatformIOS && proof.HealthKitData != nil:
		return stepVerdict(proof.HealthKitData.StepCount, required, "Steps verified via HealthKit")

	case proof.Type == models.ProofTypeManualConfirmation:
		return Verdict{IsValid: true, FraudScore: 20, Notes: "Manual confirmation (requires review)"}
	}
	return invalidProofFormat()
}

func fitnessFailure(msg string) Verdict {
	return Verdict{
		IsValid:     false,
		FraudScore:  50,
		RawResponse: map[string]any{"error": msg},
		Notes:       "API verification failed",
	}
}

func stepVerdict(steps, required int, okNote string) Verdict {
	v := Verdict{
		IsValid:     steps >= required,
		FraudScore:  stepFraudScore(steps, required),
		RawResponse: map[string]any{"step_count": steps, "required": required},
		Notes:       okNote,
	}
	if !v.IsValid {
		v.Notes = "Insufficient steps"
	}
	return v
}

// stepFraudScore: below the threshold is 100, more than ten times it is
// implausible (40), anything in between is clean.
func stepFraudScore(actual, required int) int {
	switch {
	case actual < required:
		return 100
	case actual > required*10:
		return 40
	default:
		return 0
	}
}

// PhoneFreeVerifier trusts the self-reported duration, hence the fixed score.
type PhoneFreeVerifier struct{}

func (PhoneFreeVerifier) Verify(_ context.Context, proof *models.Proof, required int) Verdict {
	switch proof.Type {
	case models.ProofTypePhoneFree, models.ProofTypeScreenshot, models.ProofTypeManualConfirmation:
	default:
		return invalidProofFormat()
	}

	minutes := 0
	if proof.DurationMinutes != nil {
		minutes = *proof.DurationMinutes
	}
	v := Verdict{
		IsValid:     minutes >= required,
		FraudScore:  30,
		RawResponse: map[string]any{"duration_minutes": minutes, "required": required},
		Notes:       "Phone-free time confirmed",
	}
	if proof.URL != "" {
		v.RawResponse["screenshot_url"] = proof.URL
	}
	if !v.IsValid {
		v.Notes = "Insufficient duration"
	}
	return v
}

type QuizVerifier struct{}

func (QuizVerifier) Verify(_ context.Context, proof *models.Proof, required int) Verdict {
	if proof.QuizResults != nil && proof.QuizResults.QuestionsAnswered >= required {
		return Verdict{
			IsValid:     true,
			FraudScore:  10,
			RawResponse: map[string]any{"questions_answered": proof.QuizResults.QuestionsAnswered},
			Notes:       "Quiz completed successfully",
		}
	}
	return Verdict{IsValid: false, FraudScore: 50, Notes: "Quiz not completed"}
}

type ExpenseTrackVerifier struct{}

func (ExpenseTrackVerifier) Verify(_ context.Context, proof *models.Proof, required int) Verdict {
	if proof.Expenses != nil && len(proof.Expenses) >= required {
		return Verdict{
			IsValid:     true,
			FraudScore:  15,
			RawResponse: map[string]any{"expenses_count": len(proof.Expenses)},
			Notes:       "Expenses tracked successfully",
		}
	}
	return Verdict{IsValid: false, FraudScore: 50, Notes: "Insufficient expenses tracked"}
}

type ProductivityVerifier struct{}

func (ProductivityVerifier) Verify(_ context.Context, proof *models.Proof, _ int) Verdict {
	if proof.TaskCompleted != nil && *proof.TaskCompleted {
		return Verdict{
			IsValid:     true,
			FraudScore:  20,
			RawResponse: map[string]any{"task_completed": true},
			Notes:       "Productivity task completed",
		}
	}
	return Verdict{IsValid: false, FraudScore: 50, Notes: "Task not completed"}
}
