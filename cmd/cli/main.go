package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"fraudlens/adapters/ingest"
	"fraudlens/adapters/stats/engine"
	"fraudlens/domain/dataset"
	"fraudlens/internal/config"
	"fraudlens/internal/dashboard"
	"fraudlens/internal/export"
	"fraudlens/internal/testkit"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "fraudlens-cli",
		Short: "Offline fraud-ratio analysis of CSV, XLSX and Parquet files",
	}

	rootCmd.AddCommand(
		newAnalyzeCmd(),
		newDemoCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type analyzeOptions struct {
	file      string
	variable  string
	bins      int
	chartType string
	pngPath   string
	csvPath   string
	demo      bool
	seed      int64
}

func newAnalyzeCmd() *cobra.Command {
	var opts analyzeOptions

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Bin one variable against the fraud flag and print the result",
		Long: `Analyze one numeric variable of a dataset.

Example: fraudlens-cli analyze --file transactions.csv --var amount --bins 12 --type compare-histogram --png amount.png`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.file, "file", "", "CSV, XLSX or Parquet file to analyze")
	cmd.Flags().StringVar(&opts.variable, "var", "", "Variable to analyze; lists variables when empty")
	cmd.Flags().IntVar(&opts.bins, "bins", 0, "Bin count (3-20); defaults to DEFAULT_BIN_COUNT")
	cmd.Flags().StringVar(&opts.chartType, "type", dashboard.Histogram.String(), "Chart type")
	cmd.Flags().StringVar(&opts.pngPath, "png", "", "Write the rendered chart to this PNG file")
	cmd.Flags().StringVar(&opts.csvPath, "csv", "", "Write the analysis table to this CSV file")
	cmd.Flags().BoolVar(&opts.demo, "demo", false, "Analyze a generated synthetic dataset instead of --file")
	cmd.Flags().Int64Var(&opts.seed, "seed", 42, "Random seed for --demo")

	return cmd
}

func newDemoCmd() *cobra.Command {
	var (
		out  string
		rows int
		seed int64
		rate float64
	)

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Write a synthetic transactions CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := testkit.DefaultFraudConfig()
			cfg.Transactions = rows
			cfg.Seed = seed
			cfg.BaseFraudRate = rate

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", out, err)
			}
			defer f.Close()
			if err := testkit.NewFraudDataGenerator(cfg).WriteCSV(f); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d transactions to %s\n", rows, out)
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "transactions.csv", "Output CSV path")
	cmd.Flags().IntVar(&rows, "rows", 5000, "Number of transactions")
	cmd.Flags().Int64Var(&seed, "seed", 42, "Random seed")
	cmd.Flags().Float64Var(&rate, "fraud-rate", 0.05, "Base fraud rate")

	return cmd
}

func loadDataset(cfg *config.Config, opts analyzeOptions) (*dataset.Dataset, error) {
	if opts.demo {
		gen := testkit.DefaultFraudConfig()
		gen.Seed = opts.seed
		return testkit.NewFraudDataGenerator(gen).Dataset("demo.csv")
	}
	if opts.file == "" {
		return nil, fmt.Errorf("either --file or --demo is required")
	}

	f, err := os.Open(opts.file)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", opts.file, err)
	}
	defer f.Close()

	reader := ingest.NewDataReader(cfg.Columns, cfg.Ingest.MaxUploadBytes())
	return reader.Read(filepath.Base(opts.file), f)
}

func runAnalyze(w io.Writer, opts analyzeOptions) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	ds, err := loadDataset(cfg, opts)
	if err != nil {
		return err
	}

	if opts.variable == "" {
		fmt.Fprintf(w, "%s: %d records\nvariables: %s\n", ds.Name, ds.TotalRecords, strings.Join(ds.Variables, ", "))
		return nil
	}

	chartType, err := dashboard.ParseChartType(opts.chartType)
	if err != nil {
		return err
	}
	bins := opts.bins
	if bins == 0 {
		bins = cfg.Chart.DefaultBinCount
	}

	chart := dashboard.NewChart(engine.NewStatsEngine(cfg.Stats), cfg.Chart.DefaultBinCount)
	if err := chart.SetBinCount(bins); err != nil {
		return err
	}
	if err := chart.SetChartType(chartType); err != nil {
		return err
	}
	if err := chart.SelectVariable(ds, opts.variable); err != nil {
		return err
	}

	fmt.Fprintln(w, chart.Title())
	fmt.Fprintln(w, renderTable(chart))

	if opts.csvPath != "" {
		if err := writeFile(opts.csvPath, func(f io.Writer) error { return export.WriteChartCSV(f, chart) }); err != nil {
			return err
		}
		fmt.Fprintf(w, "wrote %s\n", opts.csvPath)
	}
	if opts.pngPath != "" {
		img, err := export.RenderChart(chart, export.CanvasFromConfig(cfg.Chart))
		if err != nil {
			return err
		}
		if err := writeFile(opts.pngPath, func(f io.Writer) error { return export.WritePNG(f, img) }); err != nil {
			return err
		}
		fmt.Fprintf(w, "wrote %s\n", opts.pngPath)
	}
	return nil
}

func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// renderTable formats the chart's current analysis
func renderTable(chart *dashboard.Chart) string {
	t := table.NewWriter()
	switch a := chart.Analysis().(type) {
	case dashboard.BinnedAnalysis:
		t.AppendHeader(table.Row{"Range", "Count", "Fraud", "Rate", "Ratio"})
		for _, b := range a.Bins {
			t.AppendRow(table.Row{
				fmt.Sprintf("[%.4g, %.4g)", b.X0, b.X1),
				b.Count,
				b.FraudCount,
				fmt.Sprintf("%.2f%%", 100*b.FraudRate),
				fmt.Sprintf("%.3f", b.FraudRatio),
			})
		}
		if a.Regression != nil {
			t.AppendFooter(table.Row{"Trend", "slope", fmt.Sprintf("%.4g", a.Regression.Slope), "intercept", fmt.Sprintf("%.4g", a.Regression.Intercept)})
		}
	case dashboard.CompareAnalysis:
		t.AppendHeader(table.Row{"Statistic", "Value"})
		t.AppendRows([]table.Row{
			{"KS D", fmt.Sprintf("%.4f", a.Comparison.Statistic)},
			{"p-value", fmt.Sprintf("%.4g", a.Comparison.PValue)},
			{"Fraud N", a.Comparison.SizeA},
			{"Legit N", a.Comparison.SizeB},
			{"Domain", fmt.Sprintf("[%.4g, %.4g]", a.Domain.Min, a.Domain.Max)},
		})
	case dashboard.OutlierAnalysis:
		b := a.Result.Bounds
		t.AppendHeader(table.Row{"Statistic", "Value"})
		t.AppendRows([]table.Row{
			{"Q1", fmt.Sprintf("%.4g", b.Q1)},
			{"Median", fmt.Sprintf("%.4g", b.Median)},
			{"Q3", fmt.Sprintf("%.4g", b.Q3)},
			{"IQR", fmt.Sprintf("%.4g", b.IQR)},
			{"Fences", fmt.Sprintf("[%.4g, %.4g]", b.LowerBound, b.UpperBound)},
			{"Outliers", len(a.Result.Outliers)},
			{"Inliers", len(a.Result.NonOutliers)},
		})
	default:
		return "no analysis"
	}
	t.SetStyle(table.StyleDefault)
	return t.Render()
}
