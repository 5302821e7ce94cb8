package ai

import (
	"context"
	"time"

	"cvforge/internal/types"
)

// Provider is a text-generation backend. Generate returns the raw model text;
// shaping it into an AnalysisResult is the Service's job.
type Provider interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, *types.TokenUsage, error)
	GetModelInfo(ctx context.Context) *ModelInfo
	Close() error
}

// Recorder receives per-analysis measurements. observability.Metrics
// implements it.
type Recorder interface {
	RecordAnalysis(ctx context.Context, shape string, duration time.Duration, usage *types.TokenUsage, err error)
}

// ModelInfo represents information about the AI model
type ModelInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	Version     string `json:"version,omitempty"`
	Available   bool   `json:"available"`
	Error       string `json:"error,omitempty"`
}
