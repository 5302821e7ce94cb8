package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"cvforge/internal/common"
	"cvforge/internal/export"

	"github.com/spf13/cobra"
)

var exportFlags struct {
	outDir string
	upload bool
}

var exportCmd = &cobra.Command{
	Use:   "export html|docx|pdf|all",
	Short: "Export the CV",
	Long: `Export the CV in its current layout. PDF export prints the HTML export with
headless Chrome. "all" renders every format concurrently.

With --upload the files are also stored in the configured S3 bucket.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"html", "docx", "pdf", "all"},
	RunE:      runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	var uploader *export.Uploader
	if exportFlags.upload {
		u, err := export.NewUploader(ctx, cfg.Export.S3)
		if err != nil {
			return err
		}
		uploader = u
	}

	outDir := exportFlags.outDir
	if outDir == "" {
		outDir = cfg.Export.OutputDir
	}

	return withWorkspace(cmd, func(ws *workspace) error {
		exporter := export.New(cfg.Export, logger)
		metrics := ws.telemetry.Metrics()

		var artifacts []export.Artifact
		if strings.EqualFold(args[0], "all") {
			all, err := exporter.All(ctx, ws.editor.Content, ws.editor.Layout)
			for _, f := range export.Formats {
				metrics.RecordExport(ctx, string(f), err)
			}
			if err != nil {
				return err
			}
			artifacts = all
		} else {
			format, err := export.ParseFormat(args[0])
			if err != nil {
				return err
			}
			a, err := exporter.Render(ctx, format, ws.editor.Content, ws.editor.Layout)
			metrics.RecordExport(ctx, string(format), err)
			if err != nil {
				return err
			}
			artifacts = []export.Artifact{*a}
		}

		files := common.NewFileProcessor(0, logger)
		for i := range artifacts {
			a := &artifacts[i]
			path := filepath.Join(outDir, a.Filename)
			if err := files.WriteFile(path, a.Data); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)

			if uploader != nil {
				key, err := uploader.Upload(ctx, a)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "uploaded %s\n", key)
			}
		}

		recordExportActivity(ctx, ws, artifacts)
		return nil
	})
}

// recordExportActivity logs the export to the backend when signed in. It never
// fails the export.
func recordExportActivity(ctx context.Context, ws *workspace, artifacts []export.Artifact) {
	cfg := getConfigFromContext(ctx)
	if cfg.RequireBackend() != nil {
		return
	}
	sess, err := signedInSession(ctx, ws.store)
	if err != nil {
		return
	}
	r, err := openRemote(ctx, cfg, ws.logger)
	if err != nil {
		ws.logger.LogError(err, "Could not record export activity")
		return
	}
	defer r.Close()

	formats := make([]string, len(artifacts))
	for i, a := range artifacts {
		formats[i] = string(a.Format)
	}
	if _, err := r.store.AppendActivity(ctx, sess, "export", strings.Join(formats, ",")); err != nil {
		ws.logger.LogError(err, "Could not record export activity")
	}
}

func init() {
	exportCmd.Flags().StringVar(&exportFlags.outDir, "out", "", "Output directory (default from config)")
	exportCmd.Flags().BoolVar(&exportFlags.upload, "upload", false, "Also upload the files to S3")
}
