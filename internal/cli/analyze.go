package cli

import (
	"context"
	"fmt"
	"strings"

	"cvforge/internal/ai"
	"cvforge/internal/common"
	"cvforge/internal/errors"
	"cvforge/internal/observability"
	"cvforge/internal/types"

	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [resume-file]",
	Short: "Score a résumé with the analysis model",
	Long: `Send a résumé to the analysis model and print its report.

The file may be plain text, Markdown, PDF or DOCX. Without a file the résumé
currently being edited is analyzed.

The report includes:
- An overall score and four category scores
- Strengths, weaknesses and recommendations
- Keywords found, missing and suggested
- Prioritized improvements per section`,
	Args: cobra.MaximumNArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		// Apply default format if not specified
		if analyzeConfig.OutputFormat == "" {
			analyzeConfig.OutputFormat = cfg.App.DefaultFormat
		}
		// Validate format against supported formats
		if err := common.ValidateOutputFormat(analyzeConfig.OutputFormat, cfg.App.SupportedFormats); err != nil {
			return err
		}
		return cfg.RequireAI()
	},
	RunE: runAnalyze,
}

var (
	analyzeConfig common.CommandConfig
	analyzeRole   string
)

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	analyzeCmd.Flags().StringVar(&analyzeConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")
	analyzeCmd.Flags().StringVar(&analyzeRole, "role", "", "Target role to score against")

	// Add completion for format flag
	_ = analyzeCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"json", "text", "markdown"}, cobra.ShellCompDirectiveNoFileComp
	})
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	telemetry, err := observability.NewManager(cliTelemetryConfig(cfg.Observability), Version)
	if err != nil {
		return err
	}
	defer telemetry.Shutdown(context.WithoutCancel(ctx))

	aiService, err := ai.NewService(ctx, &cfg.AI, logger)
	if err != nil {
		return fmt.Errorf("failed to create AI service: %w", err)
	}
	defer aiService.Close()
	aiService.WithRecorder(telemetry.Metrics())

	fc := common.FileCommand{
		Files:  common.NewFileProcessor(cfg.App.MaxFileSize, logger),
		Output: common.NewOutputHandler(cmd.OutOrStdout(), logger),
		Config: analyzeConfig,
		Logger: logger,
	}

	createInput := func(texts []string) (types.AnalyzeResumeInput, error) {
		if len(texts) != 1 {
			return types.AnalyzeResumeInput{}, fmt.Errorf("expected 1 résumé, got %d", len(texts))
		}
		return types.AnalyzeResumeInput{ResumeText: texts[0], TargetRole: analyzeRole}, nil
	}

	logDetails := func(input types.AnalyzeResumeInput, cfg common.CommandConfig) {
		logger.Info("Starting résumé analysis",
			"resume_chars", len(input.ResumeText),
			"target_role", input.TargetRole,
			"output_format", cfg.OutputFormat)
	}

	analyzeOperation := func(ctx context.Context, input types.AnalyzeResumeInput) (*types.AnalysisOutput, error) {
		output, err := aiService.AnalyzeResume(ctx, input)
		if err != nil {
			return nil, err
		}
		if output.Usage != nil {
			logger.Info("AI token usage",
				"input_tokens", output.Usage.InputTokens,
				"output_tokens", output.Usage.OutputTokens,
				"total_tokens", output.Usage.TotalTokens)
		}
		return output, nil
	}

	if len(args) == 0 {
		err = analyzeWorkspace(cmd, fc, logDetails, analyzeOperation)
	} else {
		err = common.RunFileCommand(ctx, fc, args, createInput, analyzeOperation, logDetails)
	}
	if err != nil {
		return fmt.Errorf("failed to analyze résumé: %w", err)
	}

	logger.Info("Résumé analysis completed successfully")
	return nil
}

// analyzeWorkspace analyzes the plain text of the résumé being edited.
func analyzeWorkspace(
	cmd *cobra.Command,
	fc common.FileCommand,
	logDetails common.LogDetailsFunc[types.AnalyzeResumeInput],
	operation common.OperationFunc[types.AnalyzeResumeInput, *types.AnalysisOutput],
) error {
	var text string
	err := withWorkspace(cmd, func(ws *workspace) error {
		text = ws.editor.Content.Plaintext()
		return nil
	})
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"nothing to analyze: the résumé is empty (pass a file or add content first)", nil)
	}

	input := types.AnalyzeResumeInput{ResumeText: text, TargetRole: analyzeRole}
	logDetails(input, fc.Config)
	output, err := operation(cmd.Context(), input)
	if err != nil {
		return err
	}
	return fc.Output.HandleOutput(output, fc.Config)
}
