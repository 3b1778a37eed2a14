package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mpetrov/draftgate/internal/pipeline"
	"github.com/spf13/cobra"
)

var resumeTimeout time.Duration

// resumeCmd represents the resume command
var resumeCmd = &cobra.Command{
	Use:   "resume <run-dir>",
	Short: "Resume an archived run from its checkpoint",
	Long: `Resume reloads a run's checkpoint and continues it. Sections that
already passed keep their drafts and citation ids; sections that were
in flight, exhausted, or failed re-enter the revision loop.

Example:
  draftgate resume ./draftgate-runs/run-20260901-120000`,
	Args: cobra.ExactArgs(1),
	RunE: runResume,
}

func init() {
	rootCmd.AddCommand(resumeCmd)

	resumeCmd.Flags().DurationVar(&resumeTimeout, "timeout", 30*time.Minute, "overall run timeout")

	// Provider and verification flags shared with run
	resumeCmd.Flags().StringVar(&generatorName, "generator", "openai", "generation provider (openai, static)")
	resumeCmd.Flags().StringVar(&generatorModel, "model", "gpt-4o-mini", "generation model name")
	resumeCmd.Flags().StringVar(&researcherName, "researcher", "http", "research provider (http, static)")
	resumeCmd.Flags().StringVar(&searchURL, "search-url", "", "research API endpoint")
	resumeCmd.Flags().IntVar(&maxAttempts, "max-attempts", 3, "revision attempts per section")
	resumeCmd.Flags().Float64Var(&threshold, "threshold", 0.8, "verification acceptance threshold")
	resumeCmd.Flags().IntVar(&workers, "workers", 4, "concurrent section workers")
	resumeCmd.Flags().IntVar(&enrichTop, "enrich-top", 0, "sources per section to enrich with page text (0 disables)")
	resumeCmd.Flags().BoolVar(&dryRun, "dry-run", false, "use static providers (no collaborator calls)")
}

func runResume(cmd *cobra.Command, args []string) error {
	runDir := args[0]

	ctx, cancel := context.WithTimeout(context.Background(), resumeTimeout)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	gen, researcher, err := buildProviders(cfg)
	if err != nil {
		return err
	}

	p, err := pipeline.New(cfg, gen, researcher)
	if err != nil {
		return err
	}

	summary, err := p.Resume(ctx, runDir)
	if err != nil {
		return fmt.Errorf("resume failed: %w", err)
	}

	summary.RenderSummary(os.Stderr)
	return nil
}
