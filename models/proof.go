package models

// ProofType tags the variant carried by a Proof.
type ProofType string

const (
	ProofTypeSteps              ProofType = "STEPS"
	ProofTypePhoneFree          ProofType = "PHONE_FREE"
	ProofTypeQuiz               ProofType = "QUIZ"
	ProofTypeExpenseTrack       ProofType = "EXPENSE_TRACK"
	ProofTypeProductivity       ProofType = "PRODUCTIVITY"
	ProofTypeManualConfirmation ProofType = "MANUAL_CONFIRMATION"
	ProofTypeScreenshot         ProofType = "SCREENSHOT"
)

const (
	PlatformAndroid = "android"
	PlatformIOS     = "ios"
)

// Proof is the evidence submitted against a mission. Type selects which of the
// optional fields are meaningful; everything else is ignored by the verifiers.
type Proof struct {
	Type ProofType `json:"type"`

	// STEPS
	Platform      string         `json:"platform,omitempty"`
	AccessToken   string         `json:"access_token,omitempty"`
	HealthKitData *HealthKitData `json:"healthkit_data,omitempty"`

	// PHONE_FREE (also accepted on SCREENSHOT / MANUAL_CONFIRMATION)
	DurationMinutes *int `json:"duration_minutes,omitempty"`

	// QUIZ
	QuizResults *QuizResults `json:"quiz_results,omitempty"`

	// EXPENSE_TRACK
	Expenses []Expense `json:"expenses,omitempty"`

	// PRODUCTIVITY
	TaskCompleted *bool `json:"task_completed,omitempty"`

	// SCREENSHOT: URL is the stored image reference. Base64 only travels from the
	// client to the HTTP layer and is cleared before the engine sees the proof.
	URL    string `json:"url,omitempty"`
	Base64 string `json:"base64,omitempty"`
}

type HealthKitData struct {
	StepCount int `json:"step_count"`
}

type QuizResults struct {
	QuestionsAnswered int `json:"questions_answered"`
	CorrectAnswers    int `json:"correct_answers,omitempty"`
}

type Expense struct {
	Amount   float64 `json:"amount"`
	Category string  `json:"category,omitempty"`
	Note     string  `json:"note,omitempty"`
}
