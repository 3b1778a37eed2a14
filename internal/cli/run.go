package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mpetrov/draftgate/internal/model"
	"github.com/mpetrov/draftgate/internal/pipeline"
	"github.com/mpetrov/draftgate/internal/provider"
	"github.com/spf13/cobra"
)

var (
	outputDir     string
	runTimeout    time.Duration
	generatorName string
	generatorModel string
	researcherName string
	searchURL     string
	maxAttempts   int
	threshold     float64
	workers       int
	enrichTop     int
	dryRun        bool
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <outline.yaml>",
	Short: "Generate a document from an outline",
	Long: `Run executes a full document generation pipeline:
- Research each section's guiding questions
- Draft each section with the generation collaborator
- Normalize citations into a document-wide numbered list
- Extract factual claims and verify their sourcing
- Rewrite failing sections under a bounded revision budget
- Assemble the document with its citation list

Sections process concurrently. Sections that never pass verification
are marked exhausted and reported for manual review; they do not fail
the run.

Example:
  draftgate run memo.yaml
  draftgate run memo.yaml --max-attempts 5 --threshold 0.9
  draftgate run memo.yaml --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&outputDir, "output-dir", "./draftgate-runs", "run directory root")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 30*time.Minute, "overall run timeout")
	runCmd.Flags().StringVar(&generatorName, "generator", "openai", "generation provider (openai, static)")
	runCmd.Flags().StringVar(&generatorModel, "model", "gpt-4o-mini", "generation model name")
	runCmd.Flags().StringVar(&researcherName, "researcher", "http", "research provider (http, static)")
	runCmd.Flags().StringVar(&searchURL, "search-url", "", "research API endpoint")
	runCmd.Flags().IntVar(&maxAttempts, "max-attempts", 3, "revision attempts per section")
	runCmd.Flags().Float64Var(&threshold, "threshold", 0.8, "verification acceptance threshold")
	runCmd.Flags().IntVar(&workers, "workers", 4, "concurrent section workers")
	runCmd.Flags().IntVar(&enrichTop, "enrich-top", 0, "sources per section to enrich with page text (0 disables)")
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "use static providers (no collaborator calls)")
}

func runRun(cmd *cobra.Command, args []string) error {
	outlinePath := args[0]

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	// ConfigError before any collaborator call: outline problems fail
	// the run at load time.
	outline, err := model.LoadOutline(outlinePath)
	if err != nil {
		return err
	}

	gen, researcher, err := buildProviders(cfg)
	if err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Document: %s (%d sections)\n", outline.Title, len(outline.Sections))
		fmt.Fprintf(os.Stderr, "Generator: %s, Researcher: %s\n", gen.Name(), researcher.Name())
		fmt.Fprintln(os.Stderr)
	}

	p, err := pipeline.New(cfg, gen, researcher)
	if err != nil {
		return err
	}

	summary, err := p.Run(ctx, outline, outlinePath)
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	summary.RenderSummary(os.Stderr)
	return nil
}

// buildConfig assembles configuration from defaults and flags.
func buildConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	cfg.Output.Dir = outputDir
	cfg.Output.Verbose = verbose
	cfg.Provider.Generator = generatorName
	cfg.Provider.Model = generatorModel
	cfg.Provider.Researcher = researcherName
	cfg.Revision.MaxAttempts = maxAttempts
	cfg.Verify.AcceptThreshold = threshold
	cfg.Concurrency.SectionWorkers = workers
	cfg.Research.EnrichTop = enrichTop
	if searchURL != "" {
		cfg.Provider.SearchURL = searchURL
	}

	if dryRun {
		cfg.Provider.Generator = "static"
		cfg.Provider.Researcher = "static"
	}

	// API keys come from the environment, never flags
	if cfg.Provider.Generator == "openai" {
		cfg.Provider.APIKey = os.Getenv("OPENAI_API_KEY")
		if cfg.Provider.APIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	}
	if cfg.Provider.Researcher == "http" {
		cfg.Provider.SearchAPIKey = os.Getenv("DRAFTGATE_SEARCH_API_KEY")
		if cfg.Provider.SearchURL == "" {
			cfg.Provider.SearchURL = os.Getenv("DRAFTGATE_SEARCH_URL")
		}
		if cfg.Provider.SearchURL == "" {
			return nil, fmt.Errorf("research endpoint not set (--search-url or DRAFTGATE_SEARCH_URL)")
		}
	}

	return cfg, cfg.Validate()
}

func buildProviders(cfg *model.Config) (provider.Generator, provider.Researcher, error) {
	pc := provider.ConfigFromModel(cfg.Provider)

	gen, err := provider.NewGenerator(pc)
	if err != nil {
		return nil, nil, err
	}
	researcher, err := provider.NewResearcher(pc)
	if err != nil {
		return nil, nil, err
	}
	return gen, researcher, nil
}
