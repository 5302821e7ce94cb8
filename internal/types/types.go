package types

import (
	"time"

	"github.com/google/uuid"
)

// Priority ranks an improvement item.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// AnalyzeResumeInput represents the input for analyzing a résumé
type AnalyzeResumeInput struct {
	ResumeText string `json:"resumeText"`
	TargetRole string `json:"targetRole,omitempty"`
}

// CategoryScores are the four named sub-scores, each 0-100
type CategoryScores struct {
	ATSCompatibility    int `json:"atsCompatibility"`
	KeywordOptimization int `json:"keywordOptimization"`
	ContentQuality      int `json:"contentQuality"`
	Formatting          int `json:"formatting"`
}

// KeywordAnalysis groups keywords by whether the résumé already uses them
type KeywordAnalysis struct {
	Found     []string `json:"found"`
	Missing   []string `json:"missing"`
	Suggested []string `json:"suggested"`
}

// Improvement is one prioritized change to make
type Improvement struct {
	Section    string   `json:"section"`
	Priority   Priority `json:"priority"`
	Suggestion string   `json:"suggestion"`
}

// AnalysisResult is the canonical output of a résumé analysis
type AnalysisResult struct {
	OverallScore    int             `json:"overallScore"`
	Scores          CategoryScores  `json:"scores"`
	Recommendations []string        `json:"recommendations"`
	Strengths       []string        `json:"strengths"`
	Weaknesses      []string        `json:"weaknesses"`
	Keywords        KeywordAnalysis `json:"keywords"`
	Improvements    []Improvement   `json:"improvements"`
}

// AnalysisOutput wraps a result with how it was obtained
type AnalysisOutput struct {
	Result *AnalysisResult `json:"result"`
	Shape  string          `json:"shape"`
	Model  string          `json:"model,omitempty"`
	Usage  *TokenUsage     `json:"usage,omitempty"`
}

// TokenUsage represents token usage information from AI responses
type TokenUsage struct {
	InputTokens  int64 `json:"inputTokens"`
	OutputTokens int64 `json:"outputTokens"`
	TotalTokens  int64 `json:"totalTokens"`
}

// Profile is the per-user record kept by the backend
type Profile struct {
	FullName   string    `json:"fullName" validate:"required,max=120"`
	Headline   string    `json:"headline,omitempty" validate:"max=160"`
	Email      string    `json:"email,omitempty" validate:"omitempty,email"`
	Phone      string    `json:"phone,omitempty" validate:"omitempty,phone"`
	City       string    `json:"city,omitempty" validate:"max=80"`
	PostalCode string    `json:"postalCode,omitempty" validate:"omitempty,postal"`
	BirthDate  string    `json:"birthDate,omitempty" validate:"omitempty,plausible_date"`
	Summary    string    `json:"summary,omitempty" validate:"max=2000"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Session is a signed-in backend identity. A nil or expired session cannot
// write.
type Session struct {
	UserID    uuid.UUID `json:"userId"`
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Active reports whether s can be used at now.
func (s *Session) Active(now time.Time) bool {
	return s != nil && s.UserID != uuid.Nil && now.Before(s.ExpiresAt)
}

// Activity is one entry of a user's append-only activity log
type Activity struct {
	ID        int64     `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	Action    string    `json:"action"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
