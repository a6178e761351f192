// Package main is the madfolio command line tool. It computes the MAD
// efficient frontier for a returns file and writes the result as CSV,
// one row per frontier point with the portfolio weights expanded into
// per-asset columns.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"strconv"

	"madfolio/internal/modules/datasource"
	"madfolio/internal/modules/frontier"
	"madfolio/internal/modules/optimization"
	"madfolio/internal/services"
	"madfolio/pkg/logger"
)

func main() {
	var (
		dataPath    = flag.String("data", "", "CSV file with period labels and per-asset return ratios")
		labelColumn = flag.String("label-column", "Year-Month", "name of the period-label column")
		synthetic   = flag.Bool("synthetic", false, "use generated returns instead of a CSV file")
		seed        = flag.Int64("seed", 42, "seed for the synthetic generator")
		periods     = flag.Int("periods", 24, "number of periods for the synthetic generator")
		muMin       = flag.Float64("mu-min", 0.1, "smallest risk-aversion value")
		muMax       = flag.Float64("mu-max", 31.622776601683793, "largest risk-aversion value")
		points      = flag.Int("points", 100, "number of frontier points")
		spacing     = flag.String("spacing", "log", "mu spacing: log or linear")
		workers     = flag.Int("workers", 4, "parallel solves, 0 or 1 for sequential")
		benchmarks  = flag.Bool("benchmarks", false, "append benchmark portfolios to the output")
		output      = flag.String("out", "", "output CSV path, empty for stdout")
		logLevel    = flag.String("log-level", "warn", "log level: trace, debug, info, warn, error")
	)
	flag.Parse()

	log := logger.New(logger.Config{Level: *logLevel, Pretty: true})

	if *dataPath == "" && !*synthetic {
		fmt.Fprintln(os.Stderr, "either -data or -synthetic is required")
		flag.Usage()
		os.Exit(2)
	}

	var source datasource.Source
	if *synthetic {
		source = &datasource.SyntheticSource{Seed: *seed, Periods: *periods}
	} else {
		source = &datasource.CSVSource{Path: *dataPath, LabelColumn: *labelColumn}
	}

	svc := services.NewFrontierService(source, nil, services.Config{
		Spec: frontier.SweepSpec{
			Min:     *muMin,
			Max:     *muMax,
			Points:  *points,
			Spacing: frontier.Spacing(*spacing),
		},
		Workers: *workers,
	}, log)

	run, err := svc.Compute(context.Background())
	if err != nil {
		log.Fatal().Err(err).Msg("Frontier computation failed")
	}

	out := os.Stdout
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			log.Fatal().Err(err).Str("path", *output).Msg("Failed to create output file")
		}
		defer f.Close()
		out = f
	}

	if err := writeFrontierCSV(out, run.Assets, run.Frontier, run.Benchmarks, *benchmarks); err != nil {
		log.Fatal().Err(err).Msg("Failed to write output")
	}

	if run.Frontier.Solved < run.Frontier.Requested {
		log.Warn().
			Int("solved", run.Frontier.Solved).
			Int("requested", run.Frontier.Requested).
			Msg("Some frontier points failed")
	}
}

func writeFrontierCSV(out *os.File, assets []string, front *frontier.Frontier, benchmarks []frontier.Benchmark, withBenchmarks bool) error {
	w := csv.NewWriter(out)
	defer w.Flush()

	header := []string{"mu", "expected_return", "mad_risk", "objective_value"}
	for _, asset := range assets {
		header = append(header, "weight_"+asset)
	}
	if withBenchmarks {
		header = append(header, "benchmark")
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, p := range front.Points {
		row := pointRow(p, len(assets))
		if withBenchmarks {
			row = append(row, "")
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	if withBenchmarks {
		for _, b := range benchmarks {
			row := []string{"", formatFloat(b.ExpectedReturn), formatFloat(b.MADRisk), ""}
			for _, weight := range b.Weights {
				row = append(row, formatFloat(weight))
			}
			name := b.Name
			if b.Asset != "" {
				name = b.Name + ":" + b.Asset
			}
			row = append(row, name)
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}

	w.Flush()
	return w.Error()
}

func pointRow(p optimization.Result, numAssets int) []string {
	row := []string{
		formatFloat(p.Mu),
		formatFloat(p.ExpectedReturn),
		formatFloat(p.MADRisk),
		formatFloat(p.ObjectiveValue),
	}
	for j := 0; j < numAssets; j++ {
		row = append(row, formatFloat(p.Weights[j]))
	}
	return row
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 10, 64)
}
