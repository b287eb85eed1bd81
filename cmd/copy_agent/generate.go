package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/campaign-copy/internal/export"
	"github.com/jonathan/campaign-copy/internal/observability"
	"github.com/jonathan/campaign-copy/internal/pipeline"
	"github.com/jonathan/campaign-copy/internal/types"
)

// batchLimit bounds concurrent runs when several products are requested
const batchLimit = 2

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate campaign copy for one or more products",
	Long: `Generates copy variants for every selected channel and screens each variant
against the product category's compliance rules.

Several products may be given as a comma-separated list; each product is an
independent run and up to two runs proceed at once. Channels within a run are
generated in the order given.`,
	RunE: runGenerate,
}

var (
	genProducts  string
	genChannels  string
	genTone      string
	genOccasion  string
	genVariants  int
	genDirection string
	genFormat    string
	genOut       string
	genVerbose   bool
)

func init() {
	generateCmd.Flags().StringVarP(&genProducts, "product", "p", "", "Product id, or a comma-separated list for batch mode (required)")
	generateCmd.Flags().StringVarP(&genChannels, "channels", "c", "", "Comma-separated channel ids, in generation order (required)")
	generateCmd.Flags().StringVarP(&genTone, "tone", "t", "", "Campaign tone (defaults to the first tone in the library)")
	generateCmd.Flags().StringVar(&genOccasion, "occasion", "", "Occasion or season, e.g. \"Spring launch\"")
	generateCmd.Flags().IntVarP(&genVariants, "variants", "n", 0, "Variants per channel, 1-5 (defaults to config)")
	generateCmd.Flags().StringVar(&genDirection, "direction", "", "Extra creative direction for the copywriter")
	generateCmd.Flags().StringVarP(&genFormat, "format", "f", "txt", "Output format: txt, csv or json")
	generateCmd.Flags().StringVarP(&genOut, "out", "o", "", "Directory to write exports to (prints to stdout when empty)")
	generateCmd.Flags().BoolVarP(&genVerbose, "verbose", "v", false, "Print request and result summaries")

	rootCmd.AddCommand(generateCmd)
}

// runOutcome is the result of one product's run
type runOutcome struct {
	product types.Product
	runID   uuid.UUID
	results []types.ChannelResult
	err     error
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := loadApp(cmd)
	if err != nil {
		return err
	}

	format, err := export.ParseFormat(genFormat)
	if err != nil {
		return err
	}

	// Resolve every reference id before any generation call
	productIDs := splitList(genProducts)
	if len(productIDs) == 0 {
		return fmt.Errorf("--product is required")
	}
	products := make([]types.Product, 0, len(productIDs))
	for _, id := range productIDs {
		p, err := a.library.Product(id)
		if err != nil {
			return err
		}
		products = append(products, p)
	}

	channelIDs := splitList(genChannels)
	if len(channelIDs) == 0 {
		return fmt.Errorf("--channels is required")
	}
	channels, err := a.library.ChannelsByID(channelIDs)
	if err != nil {
		return err
	}

	tone := genTone
	if tone == "" {
		tone = a.library.Tones()[0]
	}
	variants := genVariants
	if variants == 0 {
		variants = a.cfg.Variants
	}

	client, err := a.newClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close() //nolint:errcheck

	runner := pipeline.New(client, a.composer(), a.evaluator, a.logger)

	database, err := a.openDB(ctx)
	if err != nil {
		return err
	}
	if database != nil {
		defer database.Close()
		runner = runner.WithRecorder(database)
	}

	out := cmd.OutOrStdout()
	printer := observability.NewPrinter(out)

	outcomes := make([]runOutcome, len(products))
	var g errgroup.Group
	g.SetLimit(batchLimit)
	for i, product := range products {
		opts := pipeline.RunOptions{
			RunID:        uuid.New(),
			Product:      product,
			Channels:     channels,
			Tone:         tone,
			Occasion:     genOccasion,
			VariantCount: variants,
			Direction:    genDirection,
			CallTimeout:  a.cfg.Timeout(),
			OnProgress: func(event pipeline.ProgressEvent) {
				a.logger.Info().
					Str("product", product.ID).
					Str("channel", event.ChannelID).
					Int("completed", event.Completed).
					Int("total", event.Total).
					Msg("channel done")
			},
		}
		if genVerbose && len(products) == 1 {
			printer.PrintRunRequest(product, channels, tone, genOccasion, variants)
		}

		// runs are independent; one failing does not cancel the others
		g.Go(func() error {
			results, err := runner.Run(ctx, opts)
			outcomes[i] = runOutcome{product: product, runID: opts.RunID, results: results, err: err}
			return nil
		})
	}
	_ = g.Wait()

	generatedAt := time.Now().UTC()
	var failed int
	for _, o := range outcomes {
		if o.err != nil {
			failed++
			fmt.Fprintf(cmd.ErrOrStderr(), "Run for %s failed: %v\n", o.product.ID, o.err)
			continue
		}
		if genVerbose {
			for _, r := range o.results {
				printer.PrintChannelResult(r)
			}
			printer.PrintSummary(o.results)
		}
		if err := writeExport(out, o, format, generatedAt); err != nil {
			return err
		}
	}

	if failed > 0 {
		if failed == 1 && len(outcomes) == 1 {
			return outcomes[0].err
		}
		return fmt.Errorf("%d of %d runs failed", failed, len(outcomes))
	}
	return nil
}

// writeExport prints the run's export or writes it into --out
func writeExport(out io.Writer, o runOutcome, format export.Format, generatedAt time.Time) error {
	body, err := export.Render(format, o.product, o.results, generatedAt)
	if err != nil {
		return err
	}

	if genOut == "" {
		_, err := out.Write(body)
		return err
	}

	if err := os.MkdirAll(genOut, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(genOut, export.FileName(o.product, format))
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	_, _ = fmt.Fprintf(out, "Wrote %s (run %s)\n", path, o.runID)
	return nil
}

