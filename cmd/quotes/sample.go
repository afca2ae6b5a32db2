package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/rxtech-lab/argo-quotes/internal/types"
	"github.com/rxtech-lab/argo-quotes/pkg/errors"
	"github.com/rxtech-lab/argo-quotes/pkg/marketdata/writer"
	"github.com/urfave/cli/v3"
)

const (
	defaultSampleLength = 60
	defaultSampleHidden = 10
)

func sampleCommand() *cli.Command {
	return &cli.Command{
		Name:  "sample",
		Usage: "Pick a random window from a written JSON series and split off its future candles",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "input",
				Aliases:  []string{"i"},
				Usage:    "Path of a JSON series written by fetch",
				Required: true,
			},
			&cli.IntFlag{
				Name:  "length",
				Usage: "Number of visible candles",
				Value: defaultSampleLength,
			},
			&cli.IntFlag{
				Name:  "hidden",
				Usage: "Number of future candles hidden after the visible part",
				Value: defaultSampleHidden,
			},
			&cli.Int64Flag{
				Name:  "seed",
				Usage: "Seed for the window start. Zero picks a time-based seed",
			},
			&cli.StringFlag{
				Name:  "output",
				Usage: "Optional path to write the sampled window as JSON",
			},
			&cli.StringFlag{
				Name:  "timezone",
				Usage: "IANA location used to render dates",
				Value: "UTC",
			},
		},
		Action: sampleAction,
	}
}

func sampleAction(_ context.Context, cmd *cli.Command) error {
	loc, err := time.LoadLocation(cmd.String("timezone"))
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidParameter, err, "invalid timezone %q", cmd.String("timezone"))
	}

	candles, err := writer.ReadJSON(cmd.String("input"))
	if err != nil {
		return err
	}

	seed := uint64(cmd.Int64("seed")) //nolint:gosec // any seed value is fine
	if seed == 0 {
		seed = uint64(time.Now().UnixNano()) //nolint:gosec
	}

	rng := rand.New(rand.NewPCG(seed, seed))

	hidden := cmd.Int("hidden")

	window, err := types.NewCandleSeries(candles).SampleWindow(cmd.Int("length"), hidden, rng.IntN)
	if err != nil {
		return fmt.Errorf("failed to sample %s: %w", cmd.String("input"), err)
	}

	forecast, err := window.SplitForecast(hidden)
	if err != nil {
		return fmt.Errorf("failed to split window: %w", err)
	}

	out := cmd.Root().Writer
	summary := window.Summary()

	fmt.Fprintf(out, "window: %d candles from %s to %s\n",
		summary.Count, types.FormatDate(summary.First, loc), types.FormatDate(summary.Last, loc))
	fmt.Fprintf(out, "visible: %d candles, last close %.4f\n", forecast.Visible.Len(), forecast.LastKnownPrice)
	fmt.Fprintf(out, "future: %d candles, final close %.4f\n", forecast.Future.Len(), forecast.FinalPrice)
	fmt.Fprintf(out, "change: %+.2f%% (%s)\n", forecast.PercentChange, direction(forecast.IsRise))

	if path := cmd.String("output"); path != "" {
		written, err := writer.WriteSeries(writer.NewJSONWriter(path), window)
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "  wrote %s\n", written)
	}

	return nil
}

func direction(isRise bool) string {
	if isRise {
		return "rise"
	}

	return "no rise"
}
