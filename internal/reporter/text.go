package reporter

import (
	"fmt"
	"io"
	"strings"

	"sales-analytics-service/internal/pipeline"
)

const timestampLayout = "2006-01-02 15:04:05"

// generateTextReport generates the fixed-layout plain-text report
func (rg *ReportGenerator) generateTextReport(result *pipeline.Result, writer io.Writer) error {
	ew := &errWriter{w: writer}

	rg.writeHeader(ew, result)
	rg.writeOverview(ew, result)
	rg.writeCleaning(ew, result)
	rg.writeRegions(ew, result)
	rg.writeTopProducts(ew, result)
	rg.writeTopCustomers(ew, result)
	rg.writeDailyTrend(ew, result)
	rg.writePeakDay(ew, result)
	rg.writeLowPerformers(ew, result)
	rg.writeEnrichment(ew, result)

	return ew.err
}

func (rg *ReportGenerator) writeHeader(w *errWriter, result *pipeline.Result) {
	rule := strings.Repeat("=", rg.config.Width)
	w.printf("%s\n", rule)
	w.printf("%s\n", center(rg.config.Title, rg.config.Width))
	w.printf("%s\n", rule)
	w.printf("Generated:         %s\n", result.GeneratedAt.Format(timestampLayout))
	w.printf("Run ID:            %s\n", result.RunID)
	w.printf("Input File:        %s\n", result.InputFile)
	if result.Encoding != "" {
		w.printf("Encoding:          %s\n", result.Encoding)
	}
	w.printf("Filters:           %s\n", result.Filters.String())
	w.printf("Records Processed: %s\n", rg.money.Count(result.Summary.FinalCount))
	w.printf("\n")
}

func (rg *ReportGenerator) writeOverview(w *errWriter, result *pipeline.Result) {
	overview := result.Metrics.Overview

	rg.section(w, "OVERALL SUMMARY")
	w.printf("Total Revenue:       %s\n", rg.money.Format(overview.TotalRevenue))
	w.printf("Total Transactions:  %s\n", rg.money.Count(overview.TotalTransactions))
	w.printf("Average Order Value: %s\n", rg.money.Format(overview.AverageOrderValue))
	if overview.FirstDate != "" {
		w.printf("Date Range:          %s to %s\n", overview.FirstDate, overview.LastDate)
	} else {
		w.printf("Date Range:          None\n")
	}
	w.printf("\n")
}

func (rg *ReportGenerator) writeCleaning(w *errWriter, result *pipeline.Result) {
	summary := result.Summary

	rg.section(w, "DATA CLEANING SUMMARY")
	w.printf("Total Lines Read:          %d\n", summary.TotalLines())
	w.printf("Malformed Lines:           %d\n", summary.Malformed)
	w.printf("Invalid Records:           %d\n", summary.InvalidRecords)
	w.printf("Removed by Region Filter:  %d\n", summary.RegionFiltered)
	w.printf("Removed by Amount Filter:  %d\n", summary.AmountFiltered)
	w.printf("Valid After Cleaning:      %d\n", summary.FinalCount)
	w.printf("\n")
}

func (rg *ReportGenerator) writeRegions(w *errWriter, result *pipeline.Result) {
	rg.section(w, "REGION-WISE PERFORMANCE")
	if len(result.Metrics.Regions) == 0 {
		w.printf("None\n\n")
		return
	}

	w.printf("%-15s %18s %10s %14s\n", "Region", "Revenue", "% of Total", "Transactions")
	w.printf("%s\n", strings.Repeat("-", 60))
	for _, region := range result.Metrics.Regions {
		w.printf("%-15s %18s %10s %14d\n",
			truncate(region.Region, 15),
			rg.money.Format(region.Revenue),
			rg.money.Percent(region.Share),
			region.Transactions)
	}
	w.printf("\n")
}

func (rg *ReportGenerator) writeTopProducts(w *errWriter, result *pipeline.Result) {
	rg.section(w, fmt.Sprintf("TOP %d PRODUCTS", len(result.Metrics.TopProducts)))
	if len(result.Metrics.TopProducts) == 0 {
		w.printf("None\n\n")
		return
	}

	w.printf("%-4s %-28s %10s %18s\n", "Rank", "Product", "Quantity", "Revenue")
	w.printf("%s\n", strings.Repeat("-", 63))
	for i, product := range result.Metrics.TopProducts {
		w.printf("%-4d %-28s %10d %18s\n",
			i+1,
			truncate(product.Name, 28),
			product.Quantity,
			rg.money.Format(product.Revenue))
	}
	w.printf("\n")
}

func (rg *ReportGenerator) writeTopCustomers(w *errWriter, result *pipeline.Result) {
	rg.section(w, fmt.Sprintf("TOP %d CUSTOMERS", len(result.Metrics.TopCustomers)))
	if len(result.Metrics.TopCustomers) == 0 {
		w.printf("None\n\n")
		return
	}

	w.printf("%-4s %-12s %18s %8s %16s\n", "Rank", "Customer", "Total Spent", "Orders", "Average")
	w.printf("%s\n", strings.Repeat("-", 62))
	for i, customer := range result.Metrics.TopCustomers {
		w.printf("%-4d %-12s %18s %8d %16s\n",
			i+1,
			truncate(customer.CustomerID, 12),
			rg.money.Format(customer.TotalSpent),
			customer.Count,
			rg.money.Format(customer.AverageOrder))
	}
	w.printf("\n")
}

func (rg *ReportGenerator) writeDailyTrend(w *errWriter, result *pipeline.Result) {
	rg.section(w, "DAILY SALES TREND")
	if len(result.Metrics.DailyTrend) == 0 {
		w.printf("None\n\n")
		return
	}

	w.printf("%-12s %18s %14s %18s\n", "Date", "Revenue", "Transactions", "Unique Customers")
	w.printf("%s\n", strings.Repeat("-", 65))
	for _, day := range result.Metrics.DailyTrend {
		w.printf("%-12s %18s %14d %18d\n",
			day.Date,
			rg.money.Format(day.Revenue),
			day.Count,
			day.UniqueCustomers)
	}
	w.printf("\n")
}

func (rg *ReportGenerator) writePeakDay(w *errWriter, result *pipeline.Result) {
	rg.section(w, "PEAK SALES DAY")
	peak := result.Metrics.PeakDay
	if peak == nil {
		w.printf("None\n\n")
		return
	}

	w.printf("Date:         %s\n", peak.Date)
	w.printf("Revenue:      %s\n", rg.money.Format(peak.Revenue))
	w.printf("Transactions: %d\n", peak.Count)
	w.printf("\n")
}

func (rg *ReportGenerator) writeLowPerformers(w *errWriter, result *pipeline.Result) {
	rg.section(w, fmt.Sprintf("LOW PERFORMING PRODUCTS (quantity < %d)", result.Metrics.LowThreshold))
	if len(result.Metrics.LowPerformers) == 0 {
		w.printf("None\n\n")
		return
	}

	for _, product := range result.Metrics.LowPerformers {
		w.printf("- %s: %d units, %s\n", product.Name, product.Quantity, rg.money.Format(product.Revenue))
	}
	w.printf("\n")
}

func (rg *ReportGenerator) writeEnrichment(w *errWriter, result *pipeline.Result) {
	rg.section(w, "API ENRICHMENT SUMMARY")
	stats := result.Enrichment
	if stats == nil {
		w.printf("Enrichment disabled\n")
		return
	}

	w.printf("Records Enriched: %d of %d\n", stats.Enriched, stats.Total)
	w.printf("Success Rate:     %s\n", rg.money.Percent(stats.SuccessRate))
	w.printf("Catalog Size:     %d\n", stats.CatalogSize)
	if stats.FetchError != "" {
		w.printf("Catalog Error:    %s\n", stats.FetchError)
	}
	if len(stats.FailedProductIDs) == 0 {
		w.printf("Products Not Enriched: None\n")
	} else {
		w.printf("Products Not Enriched: %s\n", strings.Join(stats.FailedProductIDs, ", "))
	}
}

func (rg *ReportGenerator) section(w *errWriter, title string) {
	w.printf("=== %s ===\n", title)
}

// errWriter remembers the first write error so sections can be written without
// checking every call
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func center(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat(" ", (width-len(s))/2) + s
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit-3] + "..."
}
