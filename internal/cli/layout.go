package cli

import (
	"fmt"

	"cvforge/internal/errors"
	"cvforge/internal/formatters"
	"cvforge/internal/layout"

	"github.com/spf13/cobra"
)

var layoutFormat string

var layoutCmd = &cobra.Command{
	Use:   "layout",
	Short: "Arrange the CV sections",
	Long: `Arrange the CV sections on the grid. Each row holds one full-width section
or two half-width sections side by side.

Drop targets:
- a section id swaps the two sections
- layer-K-left / layer-K-right joins row K on that side
- gap-K moves the section to a new row below row K (gap-0 is the top)`,
}

var layoutShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current layout",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWorkspace(cmd, func(ws *workspace) error {
			return printLayout(cmd, ws.editor.Layout)
		})
	},
}

var layoutNormalizeCmd = &cobra.Command{
	Use:   "normalize",
	Short: "Renumber rows and fix widths",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWorkspace(cmd, func(ws *workspace) error {
			ws.editor.NormalizeLayout()
			return printLayout(cmd, ws.editor.Layout)
		})
	},
}

var layoutDropCmd = &cobra.Command{
	Use:   "drop SOURCE TARGET",
	Short: "Drag a section onto a target",
	Example: `  cvforge layout drop skills gap-0
  cvforge layout drop contact layer-3-right
  cvforge layout drop education experience`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		source, err := sectionArg(args[0])
		if err != nil {
			return err
		}
		return withWorkspace(cmd, func(ws *workspace) error {
			if !ws.editor.Drop(cmd.Context(), layout.DropEvent{Source: source, Target: args[1]}) {
				fmt.Fprintln(cmd.ErrOrStderr(), "Layout unchanged.")
			}
			return printLayout(cmd, ws.editor.Layout)
		})
	},
}

var layoutResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore the default layout",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWorkspace(cmd, func(ws *workspace) error {
			ws.editor.ResetLayout()
			return printLayout(cmd, ws.editor.Layout)
		})
	},
}

var layoutHideCmd = &cobra.Command{
	Use:   "hide ID",
	Short: "Hide a section",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setVisible(cmd, args[0], false)
	},
}

var layoutShowSectionCmd = &cobra.Command{
	Use:   "show-section ID",
	Short: "Show a hidden section",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setVisible(cmd, args[0], true)
	},
}

var layoutRenameCmd = &cobra.Command{
	Use:   "rename ID NAME",
	Short: "Change a section's label",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := sectionArg(args[0])
		if err != nil {
			return err
		}
		return withWorkspace(cmd, func(ws *workspace) error {
			if !ws.editor.Rename(id, args[1]) {
				fmt.Fprintln(cmd.ErrOrStderr(), "Layout unchanged.")
			}
			return printLayout(cmd, ws.editor.Layout)
		})
	},
}

func setVisible(cmd *cobra.Command, raw string, visible bool) error {
	id, err := sectionArg(raw)
	if err != nil {
		return err
	}
	return withWorkspace(cmd, func(ws *workspace) error {
		if !ws.editor.SetVisible(id, visible) {
			fmt.Fprintln(cmd.ErrOrStderr(), "Layout unchanged.")
		}
		return printLayout(cmd, ws.editor.Layout)
	})
}

// sectionArg parses a section id argument.
func sectionArg(raw string) (layout.SectionID, error) {
	id := layout.SectionID(raw)
	if !id.IsKnown() {
		return "", errors.NewValidationError(errors.ErrCodeUnknownEntry,
			fmt.Sprintf("unknown section %q (known: %v)", raw, layout.AllSections), nil)
	}
	return id, nil
}

func printLayout(cmd *cobra.Command, r *layout.Registry) error {
	output, err := formatters.GlobalRegistry.Format(r, layoutFormat)
	if err != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("Failed to format layout as %s", layoutFormat), err)
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), output)
	return err
}

func init() {
	layoutCmd.PersistentFlags().StringVar(&layoutFormat, "format", "text", "Output format: text, markdown or json")

	layoutCmd.AddCommand(layoutShowCmd)
	layoutCmd.AddCommand(layoutNormalizeCmd)
	layoutCmd.AddCommand(layoutDropCmd)
	layoutCmd.AddCommand(layoutResetCmd)
	layoutCmd.AddCommand(layoutHideCmd)
	layoutCmd.AddCommand(layoutShowSectionCmd)
	layoutCmd.AddCommand(layoutRenameCmd)
}
