package cli

import (
	"fmt"
	"os"
	"strings"

	"cvforge/internal/content"
	"cvforge/internal/errors"
	"cvforge/internal/formatters"
	"cvforge/internal/utils"

	"github.com/spf13/cobra"
)

var contentFlags struct {
	format string
	id     int
	remove bool
}

var contentCmd = &cobra.Command{
	Use:   "content",
	Short: "Edit the CV content",
}

var contentShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the CV content",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWorkspace(cmd, func(ws *workspace) error {
			output, err := formatters.GlobalRegistry.Format(ws.editor.Content, contentFlags.format)
			if err != nil {
				return errors.NewValidationError(errors.ErrCodeInvalidFormat,
					fmt.Sprintf("Failed to format content as %s", contentFlags.format), err)
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), output)
			return err
		})
	},
}

var contentEditCmd = &cobra.Command{
	Use:   "edit SECTION OP [key=value...]",
	Short: "Change one section",
	Long: `Change one section of the CV. OP is set, add, update or remove.

Scalar sections (name, profile, contact) only support set. List sections
(experience, education, skills, languages) add entries, and update or remove
the entry given by --id. Every section accepts title=... to change its heading.`,
	Example: `  cvforge content edit name set name="Ada Lovelace" headline=Analyst
  cvforge content edit experience add role=Engineer company=Babbage start=1842
  cvforge content edit skills update --id 2 name=Go
  cvforge content edit languages remove --id 1`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		fields, err := parseFields(args[2:])
		if err != nil {
			return err
		}
		edit := content.Edit{Op: content.Op(args[1]), ID: contentFlags.id, Fields: fields}

		return withWorkspace(cmd, func(ws *workspace) error {
			if err := ws.editor.Edit(args[0], edit); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Updated %s.\n", args[0])
			return nil
		})
	},
}

var contentPhotoCmd = &cobra.Command{
	Use:   "photo [FILE]",
	Short: "Set or remove the photo",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		edit := content.Edit{Op: content.OpRemove}
		if !contentFlags.remove {
			if len(args) != 1 {
				return errors.NewValidationError(errors.ErrCodeInvalidRequest, "give a photo file or --remove", nil)
			}
			if !utils.IsPhoto(args[0]) {
				return errors.NewValidationError(errors.ErrCodeUnsupportedFile,
					fmt.Sprintf("not a photo: %s (use png, jpg, gif or webp)", args[0]), nil)
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return errors.NewIOError(errors.ErrCodeFileNotReadable,
					fmt.Sprintf("Cannot read file: %s", args[0]), err)
			}
			dataURL, err := content.PhotoDataURL(data)
			if err != nil {
				return err
			}
			edit = content.Edit{Op: content.OpSet, Fields: map[string]string{"photo": dataURL}}
		}

		return withWorkspace(cmd, func(ws *workspace) error {
			return ws.editor.Edit("photo", edit)
		})
	},
}

var contentPrefillCmd = &cobra.Command{
	Use:   "prefill",
	Short: "Fill empty fields from your backend profile",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := getConfigFromContext(ctx)
		logger := getLoggerFromContext(ctx)

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

			profile, found, err := r.store.GetProfile(ctx, sess)
			if err != nil {
				return err
			}
			if !found {
				fmt.Fprintln(cmd.ErrOrStderr(), "No profile saved yet.")
				return nil
			}
			if ws.editor.Prefill(*profile) {
				fmt.Fprintln(cmd.ErrOrStderr(), "Filled empty fields from your profile.")
			} else {
				fmt.Fprintln(cmd.ErrOrStderr(), "Nothing to fill.")
			}
			return nil
		})
	},
}

// parseFields turns key=value arguments into edit fields.
func parseFields(args []string) (map[string]string, error) {
	if len(args) == 0 {
		return nil, nil
	}
	fields := make(map[string]string, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, errors.NewValidationError(errors.ErrCodeInvalidField,
				fmt.Sprintf("expected key=value, got %q", arg), nil)
		}
		fields[key] = value
	}
	return fields, nil
}

func init() {
	contentShowCmd.Flags().StringVar(&contentFlags.format, "format", "json", "Output format: json or text")
	contentEditCmd.Flags().IntVar(&contentFlags.id, "id", 0, "Entry id for update and remove")
	contentPhotoCmd.Flags().BoolVar(&contentFlags.remove, "remove", false, "Remove the photo")

	contentCmd.AddCommand(contentShowCmd)
	contentCmd.AddCommand(contentEditCmd)
	contentCmd.AddCommand(contentPhotoCmd)
	contentCmd.AddCommand(contentPrefillCmd)
}
