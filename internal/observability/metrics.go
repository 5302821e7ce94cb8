package observability

import (
	"context"
	"fmt"
	"time"

	"cvforge/internal/errors"
	"cvforge/internal/types"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the custom instruments of the service.
type Metrics struct {
	// Analysis
	AnalysisDuration metric.Float64Histogram
	AnalysisRequests metric.Int64Counter
	AnalysisErrors   metric.Int64Counter
	TokenUsage       metric.Int64Histogram

	// Editing
	LayoutDrops      metric.Int64Counter
	TemplatesApplied metric.Int64Counter

	// Export
	Exports metric.Int64Counter

	// Rate limiting
	RateLimitHits metric.Int64Counter
}

// NewMetrics creates every instrument on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	if m.AnalysisDuration, err = meter.Float64Histogram(
		"cvforge_analysis_duration_seconds",
		metric.WithDescription("Time spent analyzing résumés"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("failed to create analysis duration metric: %w", err)
	}

	if m.AnalysisRequests, err = meter.Int64Counter(
		"cvforge_analysis_requests_total",
		metric.WithDescription("Total number of analysis requests"),
	); err != nil {
		return nil, fmt.Errorf("failed to create analysis request metric: %w", err)
	}

	if m.AnalysisErrors, err = meter.Int64Counter(
		"cvforge_analysis_errors_total",
		metric.WithDescription("Total number of failed analyses"),
	); err != nil {
		return nil, fmt.Errorf("failed to create analysis error metric: %w", err)
	}

	if m.TokenUsage, err = meter.Int64Histogram(
		"cvforge_analysis_tokens",
		metric.WithDescription("Token usage per analysis (input, output, total)"),
		metric.WithUnit("tokens"),
	); err != nil {
		return nil, fmt.Errorf("failed to create token usage metric: %w", err)
	}

	if m.LayoutDrops, err = meter.Int64Counter(
		"cvforge_layout_drops_total",
		metric.WithDescription("Total number of drag-and-drop gestures"),
	); err != nil {
		return nil, fmt.Errorf("failed to create layout drop metric: %w", err)
	}

	if m.TemplatesApplied, err = meter.Int64Counter(
		"cvforge_templates_applied_total",
		metric.WithDescription("Total number of template applications"),
	); err != nil {
		return nil, fmt.Errorf("failed to create template metric: %w", err)
	}

	if m.Exports, err = meter.Int64Counter(
		"cvforge_exports_total",
		metric.WithDescription("Total number of document exports"),
	); err != nil {
		return nil, fmt.Errorf("failed to create export metric: %w", err)
	}

	if m.RateLimitHits, err = meter.Int64Counter(
		"cvforge_rate_limit_hits_total",
		metric.WithDescription("Total number of rate limit hits"),
	); err != nil {
		return nil, fmt.Errorf("failed to create rate limit metric: %w", err)
	}

	return m, nil
}

// RecordAnalysis records one analysis call.
func (m *Metrics) RecordAnalysis(ctx context.Context, shape string, duration time.Duration, usage *types.TokenUsage, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("shape", shape),
		attribute.Bool("success", err == nil),
	}

	m.AnalysisDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	m.AnalysisRequests.Add(ctx, 1, metric.WithAttributes(attrs...))

	if err != nil {
		m.AnalysisErrors.Add(ctx, 1, metric.WithAttributes(
			attribute.String("error_type", errorType(err)),
		))
	}

	if usage != nil {
		for _, tt := range []struct {
			tokenType string
			value     int64
		}{
			{"input", usage.InputTokens},
			{"output", usage.OutputTokens},
			{"total", usage.TotalTokens},
		} {
			m.TokenUsage.Record(ctx, tt.value, metric.WithAttributes(attribute.String("token_type", tt.tokenType)))
		}
	}
}

// RecordDrop records one drag gesture and whether it changed the layout.
func (m *Metrics) RecordDrop(ctx context.Context, changed bool) {
	m.LayoutDrops.Add(ctx, 1, metric.WithAttributes(attribute.Bool("changed", changed)))
}

// RecordTemplateApplied records one template application.
func (m *Metrics) RecordTemplateApplied(ctx context.Context, templateID string) {
	m.TemplatesApplied.Add(ctx, 1, metric.WithAttributes(attribute.String("template", templateID)))
}

// RecordExport records one export of a document format.
func (m *Metrics) RecordExport(ctx context.Context, format string, err error) {
	m.Exports.Add(ctx, 1, metric.WithAttributes(
		attribute.String("format", format),
		attribute.Bool("success", err == nil),
	))
}

// RecordRateLimitHit records one rejected request. scope is "ip" or "user".
func (m *Metrics) RecordRateLimitHit(ctx context.Context, scope string) {
	m.RateLimitHits.Add(ctx, 1, metric.WithAttributes(attribute.String("scope", scope)))
}

func errorType(err error) string {
	if appErr, ok := errors.As(err); ok {
		return string(appErr.Type)
	}
	return "unknown"
}
