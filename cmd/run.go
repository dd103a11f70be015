// File: cmd/run.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/autoform/internal/driver"
	"github.com/xkilldash9x/autoform/internal/formschema"
	"github.com/xkilldash9x/autoform/internal/observability"
	"github.com/xkilldash9x/autoform/internal/orchestrator"
	"github.com/xkilldash9x/autoform/internal/rowsource"
	"github.com/xkilldash9x/autoform/internal/synthesis"
)

// newRunCmd creates and configures the `run` command.
func newRunCmd() *cobra.Command {
	var (
		formID      string
		table       string
		headless    bool
		placeholder string
	)

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Fetches all rows and submits one form per row",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Context from main.go, cancelled on SIGINT/SIGTERM.
			ctx := cmd.Context()
			logger := observability.GetLogger()

			// Flag overrides on top of file/env config.
			if cmd.Flags().Changed("form") {
				cfg.Form.ID = formID
			}
			if cmd.Flags().Changed("table") {
				cfg.Source.Table = table
			}
			if cmd.Flags().Changed("headless") {
				cfg.Browser.Headless = headless
			}
			if cmd.Flags().Changed("placeholder") {
				cfg.Driver.PlaceholderFile = placeholder
			}

			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			logger.Info("Starting batch run",
				zap.String("form_id", cfg.Form.ID),
				zap.String("table", cfg.Source.Table),
				zap.String("source_backend", cfg.Source.Backend),
				zap.Bool("headless", cfg.Browser.Headless),
			)

			source, err := rowsource.New(cfg.Source, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize row source: %w", err)
			}
			if closer, ok := source.(interface{ Close() }); ok {
				defer closer.Close()
			}

			llmClient, err := synthesis.NewClient(ctx, cfg.LLM, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize completion client: %w", err)
			}

			pipeline, err := orchestrator.New(
				cfg.Form,
				source,
				formschema.NewFetcher(cfg.Form, logger),
				synthesis.New(llmClient, logger),
				driver.New(cfg.Browser, cfg.Driver, logger),
				logger,
			)
			if err != nil {
				return fmt.Errorf("failed to initialize pipeline: %w", err)
			}

			return pipeline.Run(ctx)
		},
	}

	runCmd.Flags().StringVar(&formID, "form", "", "form identifier to fill")
	runCmd.Flags().StringVar(&table, "table", "", "table to read rows from")
	runCmd.Flags().BoolVar(&headless, "headless", true, "run the browser without a window")
	runCmd.Flags().StringVar(&placeholder, "placeholder", "", "local file used for upload fields without a URL answer")

	return runCmd
}

func init() {
	rootCmd.AddCommand(newRunCmd())
}
