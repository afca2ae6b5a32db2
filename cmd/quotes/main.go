package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rxtech-lab/argo-quotes/internal/version"
	"github.com/rxtech-lab/argo-quotes/pkg/marketdata"
	"github.com/urfave/cli/v3"
)

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "quotes",
		Usage:   "Fetch daily market data and store it as JSON, CSV and Parquet",
		Version: version.GetVersion(),
		Commands: []*cli.Command{
			fetchCommand(),
			sampleCommand(),
			{
				Name:   "providers",
				Usage:  "List the supported quote providers",
				Action: providersAction,
			},
			{
				Name:   "schema",
				Usage:  "Print the JSON schema of the config file",
				Action: schemaAction,
			},
			{
				Name:  "version",
				Usage: "Print the version",
				Action: func(_ context.Context, cmd *cli.Command) error {
					_, err := fmt.Fprintln(cmd.Root().Writer, version.GetVersion())

					return err
				},
			},
		},
	}
}

func providersAction(_ context.Context, cmd *cli.Command) error {
	for _, name := range marketdata.GetSupportedProviders() {
		info, err := marketdata.GetProviderInfo(name)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.Root().Writer, "%-14s %-14s %s (key: $%s)\n", info.Name, info.DisplayName, info.Description, info.APIKeyEnv)
	}

	return nil
}

func schemaAction(_ context.Context, cmd *cli.Command) error {
	schema, err := marketdata.GetIngestConfigSchema()
	if err != nil {
		return fmt.Errorf("failed to generate schema: %w", err)
	}

	_, err = fmt.Fprintln(cmd.Root().Writer, schema)

	return err
}

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
