package cli

import (
	"fmt"

	"cvforge/internal/errors"
	"cvforge/internal/formatters"
	"cvforge/internal/templates"

	"github.com/spf13/cobra"
)

var templateFormat string

var templateCmd = &cobra.Command{
	Use:     "template",
	Aliases: []string{"templates"},
	Short:   "Browse and apply layout templates",
}

var templateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the available templates",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, done, err := openCatalog(cmd)
		if err != nil {
			return err
		}
		defer done()

		presets, err := catalog.List(cmd.Context())
		if err != nil {
			return err
		}
		output, err := formatters.GlobalRegistry.Format(presets, templateFormat)
		if err != nil {
			return errors.NewValidationError(errors.ErrCodeInvalidFormat,
				fmt.Sprintf("Failed to format templates as %s", templateFormat), err)
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), output)
		return err
	},
}

var templateApplyCmd = &cobra.Command{
	Use:   "apply ID",
	Short: "Rearrange the layout after a template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, done, err := openCatalog(cmd)
		if err != nil {
			return err
		}
		defer done()

		preset, err := catalog.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return withWorkspace(cmd, func(ws *workspace) error {
			ws.editor.ApplyTemplate(cmd.Context(), *preset)
			fmt.Fprintf(cmd.ErrOrStderr(), "Applied template %s.\n", preset.Name)
			return printLayout(cmd, ws.editor.Layout)
		})
	},
}

// openCatalog builds the template catalog. The backend's templates are
// included when it is configured and reachable.
func openCatalog(cmd *cobra.Command) (*templates.Catalog, func(), error) {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	var (
		source templates.Source
		done   = func() {}
	)
	if cfg.RequireBackend() == nil {
		r, err := openRemote(ctx, cfg, logger)
		if err != nil {
			logger.LogError(err, "Backend unavailable, using local templates")
		} else {
			source = r.store
			done = r.Close
		}
	}

	catalog, err := newCatalog(cfg, source, logger)
	if err != nil {
		done()
		return nil, nil, err
	}
	return catalog, done, nil
}

func init() {
	templateListCmd.Flags().StringVar(&templateFormat, "format", "text", "Output format: text, markdown or json")
	templateApplyCmd.Flags().StringVar(&layoutFormat, "format", "text", "Output format: text, markdown or json")

	templateCmd.AddCommand(templateListCmd)
	templateCmd.AddCommand(templateApplyCmd)
}
