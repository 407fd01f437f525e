package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"sales-analytics-service/cmd/salesreport/config"
	"sales-analytics-service/internal/pipeline"
	"sales-analytics-service/internal/prompt"
	"sales-analytics-service/internal/reporter"
	"sales-analytics-service/internal/validator"
	"sales-analytics-service/pkg/logger"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a sales log and generate a report",
	Long: `Analyze parses a pipe-delimited sales log, drops malformed and invalid
records, applies the optional region and amount filters and reports revenue
metrics: regional breakdown, top products and customers, daily trend, peak
day and low-performing products.

Examples:
  # Text report on stdout
  salesreport analyze --input data/sales_data.txt

  # Filtered report written to a file
  salesreport analyze --input data/sales_data.txt --region North \
    --min-amount 1,000 --max-amount 50000 --output output/sales_report.txt

  # Spreadsheet report
  salesreport analyze --input data/sales_data.txt --format xlsx --output output/sales_report.xlsx

  # Enrich with catalog data and keep the enriched records
  salesreport analyze --input data/sales_data.txt --enrich \
    --enriched-output data/enriched_sales_data.txt

  # Choose filters interactively
  salesreport analyze --input data/sales_data.txt --interactive`,

	PreRunE: validateAnalyzeFlags,
	RunE:    runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	flags := analyzeCmd.Flags()

	// Input and output
	flags.StringP(config.KeyInput, "i", "", "path to the sales log (required)")
	flags.StringP(config.KeyOutput, "o", "", "report file path (default: stdout)")
	flags.StringP(config.KeyFormat, "f", "text", "report format: text, json, yaml, csv, xlsx")
	flags.String(config.KeyCurrency, "", "currency symbol prefixed to amounts in the text report")

	// Filters
	flags.StringP(config.KeyRegion, "r", "", "only include this region")
	flags.String(config.KeyMinAmount, "", "only include transactions of at least this amount")
	flags.String(config.KeyMaxAmount, "", "only include transactions of at most this amount")
	flags.Bool(config.KeyInteractive, false, "choose filters interactively")

	// Ranking
	flags.Int(config.KeyTopProducts, 5, "number of top products to report")
	flags.Int(config.KeyTopCustomers, 5, "number of top customers to report")
	flags.Int(config.KeyLowThreshold, 10, "products selling fewer units are reported as low performing")

	// Enrichment
	flags.Bool(config.KeyEnrich, false, "enrich records from the product catalog API")
	flags.String(config.KeyCatalogURL, "https://dummyjson.com", "product catalog base URL")
	flags.Duration(config.KeyCatalogTimeout, 10*time.Second, "product catalog request timeout")
	flags.Int(config.KeyCatalogLimit, 100, "number of catalog products to fetch")
	flags.String(config.KeyEnrichedOutput, "", "write enriched records to this file (requires --enrich)")

	for _, key := range []string{
		config.KeyInput, config.KeyOutput, config.KeyFormat, config.KeyCurrency,
		config.KeyRegion, config.KeyMinAmount, config.KeyMaxAmount, config.KeyInteractive,
		config.KeyTopProducts, config.KeyTopCustomers, config.KeyLowThreshold,
		config.KeyEnrich, config.KeyCatalogURL, config.KeyCatalogTimeout, config.KeyCatalogLimit,
		config.KeyEnrichedOutput,
	} {
		viper.BindPFlag(key, flags.Lookup(key))
	}
}

func validateAnalyzeFlags(cmd *cobra.Command, args []string) error {
	return config.Load(viper.GetViper()).Validate()
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	settings := config.Load(viper.GetViper())
	return executeAnalysis(cmd.Context(), afero.NewOsFs(), settings, os.Stdin, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// executeAnalysis runs a complete analysis. Reports go to stdout unless an
// output file is set; status messages and the prompt use stderr.
func executeAnalysis(ctx context.Context, fs afero.Fs, settings *config.Settings, stdin io.Reader, stdout, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	log := logger.WithComponent("cli")

	pipelineConfig, err := settings.PipelineConfig()
	if err != nil {
		return err
	}
	reportConfig, err := settings.ReportConfig()
	if err != nil {
		return err
	}
	filters, err := settings.Filters()
	if err != nil {
		return err
	}

	service, err := pipeline.NewService(fs, pipelineConfig)
	if err != nil {
		return err
	}

	dataset, err := service.Load(ctx, settings.Input)
	if err != nil {
		return err
	}

	if settings.Interactive {
		filters, err = promptFilters(ctx, dataset, stdin, stderr)
		if err != nil {
			return err
		}
	}

	result, err := service.Analyze(ctx, dataset, settings.Request(filters))
	if err != nil {
		return err
	}

	generator, err := reporter.NewSafeReportGenerator(reportConfig, log)
	if err != nil {
		return err
	}

	if settings.Output == "" {
		return generator.GenerateReportSafely(result, stdout)
	}

	written, err := generator.WriteReportFile(fs, settings.Output, result)
	if err != nil {
		return err
	}

	fmt.Fprintf(stderr, "Report written to %s\n", written)
	if settings.EnrichedOutput != "" {
		fmt.Fprintf(stderr, "Enriched data written to %s\n", settings.EnrichedOutput)
	}
	if settings.Verbose {
		printRunSummary(stderr, result)
	}
	return nil
}

// promptFilters asks for filters, showing the value ranges of the valid records
func promptFilters(ctx context.Context, dataset *pipeline.Dataset, stdin io.Reader, stderr io.Writer) (validator.FilterOptions, error) {
	ranges := validator.DescribeRanges(dataset.Records)
	fmt.Fprintf(stderr, "Loaded %d records from %s\n", len(dataset.Records), dataset.InputFile)
	return prompt.Run(ctx, stdin, stderr, ranges)
}

func printRunSummary(w io.Writer, result *pipeline.Result) {
	fmt.Fprintf(w, "\nAnalysis completed (run %s)\n", result.RunID)
	fmt.Fprintf(w, "%s\n", result.Summary)
	fmt.Fprintf(w, "Total revenue: %s\n", result.Metrics.Overview.TotalRevenue.StringFixed(2))
	if result.Enrichment != nil {
		fmt.Fprintf(w, "Enriched %d of %d records (%s%%)\n",
			result.Enrichment.Enriched, result.Enrichment.Total, result.Enrichment.SuccessRate.StringFixed(2))
	}
	fmt.Fprintf(w, "Processing time: %v\n", result.ProcessingDuration)
}
