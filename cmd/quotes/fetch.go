package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rxtech-lab/argo-quotes/internal/logger"
	"github.com/rxtech-lab/argo-quotes/pkg/marketdata"
	"github.com/rxtech-lab/argo-quotes/pkg/marketdata/provider"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func fetchCommand() *cli.Command {
	return &cli.Command{
		Name:  "fetch",
		Usage: "Fetch the daily series of a symbol and write the configured outputs",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML config file",
			},
			&cli.StringFlag{
				Name:    "provider",
				Aliases: []string{"p"},
				Usage:   fmt.Sprintf("Quote provider (%s, %s)", provider.ProviderAlphaVantage, provider.ProviderPolygon),
			},
			&cli.StringFlag{
				Name:    "symbol",
				Aliases: []string{"s"},
				Usage:   "Ticker symbol, e.g. IBM",
			},
			&cli.StringFlag{
				Name:    "output-size",
				Aliases: []string{"o"},
				Usage:   "compact (latest 100 days) or full",
			},
			&cli.StringFlag{
				Name:  "api-key",
				Usage: "Provider API key. Defaults to the provider's environment variable",
			},
			&cli.StringFlag{
				Name:    "base-url",
				Usage:   "Override the Alpha Vantage query endpoint",
				Sources: cli.EnvVars("ALPHAVANTAGE_BASE_URL"),
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Request timeout",
			},
			&cli.StringFlag{
				Name:  "timezone",
				Usage: "IANA location used to anchor dates",
			},
			&cli.StringFlag{
				Name:  "json",
				Usage: "Path of the JSON output",
			},
			&cli.StringFlag{
				Name:  "csv",
				Usage: "Path of the CSV output",
			},
			&cli.StringFlag{
				Name:  "parquet",
				Usage: "Path of an optional Parquet export",
			},
			&cli.StringFlag{
				Name:  "summary",
				Usage: "Path of an optional YAML run summary",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error",
			},
			&cli.BoolFlag{
				Name:  "progress",
				Usage: "Show a progress bar while paging results",
			},
		},
		Action: fetchAction,
	}
}

// logOutput keeps log lines off stdout, where the run summary is printed.
var logOutput = "stderr"

// loadConfig merges the config file, the environment and the flags. Flags win.
func loadConfig(cmd *cli.Command) (*marketdata.IngestConfig, error) {
	config, err := marketdata.LoadIngestConfig(cmd.String("config"))
	if err != nil {
		return nil, err
	}

	stringFlags := map[string]*string{
		"provider":    &config.Provider,
		"symbol":      &config.Symbol,
		"output-size": &config.OutputSize,
		"api-key":     &config.APIKey,
		"timezone":    &config.Timezone,
		"json":        &config.Output.JSON,
		"csv":         &config.Output.CSV,
		"parquet":     &config.Output.Parquet,
		"summary":     &config.Output.Summary,
		"log-level":   &config.LogLevel,
	}

	for name, target := range stringFlags {
		if cmd.IsSet(name) {
			*target = cmd.String(name)
		}
	}

	if cmd.IsSet("timeout") {
		config.Timeout = cmd.Duration("timeout").String()
	}

	logLevel := config.LogLevel
	config.ApplyEnv(os.Getenv)

	if cmd.IsSet("log-level") {
		config.LogLevel = logLevel
	}

	return config, nil
}

func fetchAction(ctx context.Context, cmd *cli.Command) error {
	config, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	clientConfig, params, err := config.ToClientConfig()
	if err != nil {
		return err
	}

	clientConfig.ShowProgress = cmd.Bool("progress")

	log, err := logger.NewLoggerWithOutput(config.LogLevel, logOutput)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	log.Debug("Loaded config", zap.String("config", config.String()))

	client, err := newIngestClient(clientConfig, cmd.String("base-url"), log)
	if err != nil {
		return err
	}

	result, err := client.Ingest(ctx, params)
	if err != nil {
		return fmt.Errorf("failed to ingest %s: %w", params.Symbol, err)
	}

	summary := result.Summary
	fmt.Fprintf(cmd.Root().Writer, "%s: %d candles from %s to %s (%d skipped, %d quality issues)\n",
		summary.Symbol, summary.Count, summary.FirstDate, summary.LastDate, summary.SkippedRecords, summary.QualityIssues)

	for _, output := range summary.Outputs {
		fmt.Fprintf(cmd.Root().Writer, "  wrote %s\n", output)
	}

	return nil
}

// newIngestClient builds the ingestion client. A base URL only applies to Alpha Vantage.
func newIngestClient(config marketdata.ClientConfig, baseURL string, log *logger.Logger) (*marketdata.Client, error) {
	if baseURL == "" || config.ProviderType != provider.ProviderAlphaVantage {
		return marketdata.NewClient(config, log)
	}

	alphaVantage, err := provider.NewAlphaVantageClient(config.APIKey,
		provider.WithBaseURL(baseURL),
		provider.WithAlphaVantageLogger(log),
	)
	if err != nil {
		return nil, err
	}

	return marketdata.NewClientWithProvider(alphaVantage, config, log)
}
