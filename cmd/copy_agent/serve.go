package main

import (
	"github.com/spf13/cobra"

	"github.com/jonathan/campaign-copy/internal/pipeline"
	"github.com/jonathan/campaign-copy/internal/server"
	"github.com/jonathan/campaign-copy/internal/server/ratelimit"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start an HTTP server that exposes generation, compliance checks and
reference data. Runs are recorded when a database URL is configured.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (defaults to config, then 8080)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("port") {
		a.cfg.Port = servePort
	}

	client, err := a.newClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close() //nolint:errcheck

	deps := server.Deps{
		Runner:    pipeline.New(client, a.composer(), a.evaluator, a.logger),
		Library:   a.library,
		Evaluator: a.evaluator,
		Limiter:   ratelimit.NewLimiter(ratelimit.LoadConfig()),
		Logger:    a.logger,
	}

	database, err := a.openDB(ctx)
	if err != nil {
		return err
	}
	if database != nil {
		defer database.Close()
		deps.Store = database
	} else {
		a.logger.Info().Msg("no database configured; run history is disabled")
	}

	srv := server.New(server.Config{
		Port:            a.cfg.Port,
		DefaultVariants: a.cfg.Variants,
		Model:           a.cfg.Model,
		MaxOutputTokens: a.cfg.MaxOutputTokens,
		CallTimeout:     a.cfg.Timeout(),
	}, deps)

	return srv.Start()
}
