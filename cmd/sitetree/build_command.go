package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/sitetree/internal/pipeline"
	"github.com/dgallion1/sitetree/internal/publish"
)

func newBuildCommand(ctx *commandContext) *cobra.Command {
	var outDir string
	var concurrency int
	var verbose bool

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build every category and publish the trees as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			site, _ := ctx.ensureSite()
			if verbose {
				ctx.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil))
			}

			out := strings.TrimSpace(outDir)
			if out == "" {
				out = site.Dirs().Output
			}

			w := pipeline.NewWorker(ctx.source(), publish.NewWriter(out, ctx.logger), nil, ctx.logger, site.CollisionPolicy(), concurrency)
			job := pipeline.NewJob()
			w.Process(cmd.Context(), job)

			snap := job.Snapshot()
			for _, e := range snap.Progress.Errors {
				fmt.Fprintf(cmd.ErrOrStderr(), "error: %s\n", e)
			}
			if snap.Status == pipeline.StatusFailed {
				return fmt.Errorf("build failed in %s", snap.Phase)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Build %s %s: %d/%d categories published to %s\n",
				snap.ID, snap.Status, len(snap.Progress.Records), snap.Progress.TotalCategories, out)
			if snap.Status == pipeline.StatusPartial {
				return fmt.Errorf("build finished with %d errors", len(snap.Progress.Errors))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Output directory (defaults to the site output dir)")
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "Categories built in parallel")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log progress to stderr")
	return cmd
}
