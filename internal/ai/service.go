package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cvforge/internal/config"
	"cvforge/internal/errors"
	"cvforge/internal/types"
)

// Service runs résumé analyses
type Service struct {
	Provider Provider
	config   *config.AIConfig
	logger   *errors.Logger
	recorder Recorder
}

// NewService creates a Service backed by the configured provider
func NewService(ctx context.Context, cfg *config.AIConfig, logger *errors.Logger) (*Service, error) {
	logger.Debug("Initializing AI service",
		"provider", cfg.Provider,
		"model", cfg.Model,
		"temperature", cfg.Temperature,
		"timeout", cfg.Timeout,
		"max_retries", cfg.MaxRetries,
		"use_system_prompts", cfg.UseSystemPrompts)

	var provider Provider
	var err error
	switch cfg.Provider {
	case "gemini":
		provider, err = NewGeminiProvider(ctx, cfg, logger)
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("unsupported AI provider: %s", cfg.Provider), nil)
	}
	if err != nil {
		return nil, err
	}

	return NewServiceWithProvider(provider, cfg, logger), nil
}

// NewServiceWithProvider wires a Service around an existing provider
func NewServiceWithProvider(provider Provider, cfg *config.AIConfig, logger *errors.Logger) *Service {
	return &Service{Provider: provider, config: cfg, logger: logger}
}

// WithRecorder attaches a metrics recorder
func (s *Service) WithRecorder(r Recorder) *Service {
	s.recorder = r
	return s
}

// AnalyzeResume sends the résumé text for analysis and adapts the response
// into the canonical result.
func (s *Service) AnalyzeResume(ctx context.Context, input types.AnalyzeResumeInput) (*types.AnalysisOutput, error) {
	started := time.Now()
	output, err := s.analyze(ctx, input)

	shape := ""
	var usage *types.TokenUsage
	if output != nil {
		shape, usage = output.Shape, output.Usage
	}
	if s.recorder != nil {
		s.recorder.RecordAnalysis(ctx, shape, time.Since(started), usage, err)
	}
	return output, err
}

func (s *Service) analyze(ctx context.Context, input types.AnalyzeResumeInput) (*types.AnalysisOutput, error) {
	text := strings.TrimSpace(input.ResumeText)
	if text == "" {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest, "résumé text is empty", nil).
			WithContext("field", "resumeText")
	}

	systemPrompt := resolvePrompt(s.config.Prompts.LoadedSystem, DefaultSystemPrompt)
	userPrompt := renderUserPrompt(resolvePrompt(s.config.Prompts.LoadedUser, DefaultUserPrompt),
		text, strings.TrimSpace(input.TargetRole))

	raw, usage, err := s.Provider.Generate(ctx, systemPrompt, userPrompt)
	if err != nil {
		s.logger.LogError(err, "Analysis request failed", "model", s.config.Model)
		return nil, err
	}

	result, shape, err := Adapt(raw)
	if err != nil {
		s.logger.LogError(err, "Analysis response could not be adapted",
			"model", s.config.Model,
			"response_length", len(raw))
		return nil, err
	}

	s.logger.Debug("Analysis response adapted",
		"shape", shape,
		"overall_score", result.OverallScore)

	return &types.AnalysisOutput{
		Result: result,
		Shape:  shape,
		Model:  s.config.Model,
		Usage:  usage,
	}, nil
}

// GetModelInfo returns information about the AI model for health checks
func (s *Service) GetModelInfo(ctx context.Context) *ModelInfo {
	return s.Provider.GetModelInfo(ctx)
}

// Close releases the provider
func (s *Service) Close() error {
	return s.Provider.Close()
}
