package cli

import (
	"fmt"

	"cvforge/internal/errors"
	"cvforge/internal/formatters"

	"github.com/spf13/cobra"
)

var activityFlags struct {
	limit  int
	format string
}

var activityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Show your recent activity",
	Long:  "Show your most recent backend activity, newest first.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := getConfigFromContext(ctx)
		logger := getLoggerFromContext(ctx)

		limit := activityFlags.limit
		if limit <= 0 {
			limit = cfg.Backend.ActivityLimit
		}

		return withWorkspace(cmd, func(ws *workspace) error {
			sess, err := signedInSession(ctx, ws.store)
			if err != nil {
				return err
			}
			r, err := openRemote(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer r.Close()

			entries, err := r.store.RecentActivity(ctx, sess, limit)
			if err != nil {
				return err
			}
			output, err := formatters.GlobalRegistry.Format(entries, activityFlags.format)
			if err != nil {
				return errors.NewValidationError(errors.ErrCodeInvalidFormat,
					fmt.Sprintf("Failed to format activity as %s", activityFlags.format), err)
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), output)
			return err
		})
	},
}

func init() {
	activityCmd.Flags().IntVar(&activityFlags.limit, "limit", 0, "Number of entries (default from config)")
	activityCmd.Flags().StringVar(&activityFlags.format, "format", "text", "Output format: text, markdown or json")
}
