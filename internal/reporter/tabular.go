package reporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"sales-analytics-service/internal/pipeline"

	"github.com/xuri/excelize/v2"
)

var csvHeader = []string{"Section", "Key", "Revenue", "Quantity", "Transactions", "UniqueCustomers"}

// generateCSVReport writes one row per metric entry, tagged with its section
func (rg *ReportGenerator) generateCSVReport(result *pipeline.Result, writer io.Writer) error {
	csvWriter := csv.NewWriter(writer)
	csvWriter.Comma = rg.config.CSVDelimiter

	if rg.config.CSVHeaders {
		if err := csvWriter.Write(csvHeader); err != nil {
			return fmt.Errorf("failed to write CSV header: %w", err)
		}
	}

	for _, row := range csvRows(result) {
		if err := csvWriter.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

func csvRows(result *pipeline.Result) [][]string {
	metrics := result.Metrics
	overview := metrics.Overview

	rows := [][]string{
		{"overview", "total", overview.TotalRevenue.StringFixed(2), "", strconv.Itoa(overview.TotalTransactions), ""},
	}
	for _, region := range metrics.Regions {
		rows = append(rows, []string{"region", region.Region, region.Revenue.StringFixed(2), "", strconv.Itoa(region.Transactions), ""})
	}
	for _, product := range metrics.TopProducts {
		rows = append(rows, []string{"top_product", product.Name, product.Revenue.StringFixed(2), strconv.Itoa(product.Quantity), "", ""})
	}
	for _, customer := range metrics.TopCustomers {
		rows = append(rows, []string{"top_customer", customer.CustomerID, customer.TotalSpent.StringFixed(2), "", strconv.Itoa(customer.Count), ""})
	}
	for _, day := range metrics.DailyTrend {
		rows = append(rows, []string{"daily", day.Date, day.Revenue.StringFixed(2), "", strconv.Itoa(day.Count), strconv.Itoa(day.UniqueCustomers)})
	}
	if metrics.PeakDay != nil {
		rows = append(rows, []string{"peak_day", metrics.PeakDay.Date, metrics.PeakDay.Revenue.StringFixed(2), "", strconv.Itoa(metrics.PeakDay.Count), ""})
	}
	for _, product := range metrics.LowPerformers {
		rows = append(rows, []string{"low_performer", product.Name, product.Revenue.StringFixed(2), strconv.Itoa(product.Quantity), "", ""})
	}
	return rows
}

const summarySheet = "Summary"

// generateXLSXReport writes a workbook with a summary sheet and one sheet per metric table
func (rg *ReportGenerator) generateXLSXReport(result *pipeline.Result, writer io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("failed to name summary sheet: %w", err)
	}

	metrics := result.Metrics
	summary := result.Summary
	overview := metrics.Overview

	summaryRows := [][]interface{}{
		{"Run ID", result.RunID},
		{"Generated", result.GeneratedAt.Format(timestampLayout)},
		{"Input File", result.InputFile},
		{"Filters", result.Filters.String()},
		{"Total Revenue", overview.TotalRevenue.InexactFloat64()},
		{"Total Transactions", overview.TotalTransactions},
		{"Average Order Value", overview.AverageOrderValue.InexactFloat64()},
		{"Total Lines", summary.TotalLines()},
		{"Malformed Lines", summary.Malformed},
		{"Invalid Records", summary.InvalidRecords},
		{"Removed by Region Filter", summary.RegionFiltered},
		{"Removed by Amount Filter", summary.AmountFiltered},
		{"Valid After Cleaning", summary.FinalCount},
	}
	if result.Enrichment != nil {
		summaryRows = append(summaryRows,
			[]interface{}{"Records Enriched", result.Enrichment.Enriched},
			[]interface{}{"Enrichment Success Rate", result.Enrichment.SuccessRate.InexactFloat64()},
		)
	}
	if err := writeSheet(f, summarySheet, []interface{}{"Metric", "Value"}, summaryRows); err != nil {
		return err
	}

	regionRows := make([][]interface{}, 0, len(metrics.Regions))
	for _, region := range metrics.Regions {
		regionRows = append(regionRows, []interface{}{region.Region, region.Revenue.InexactFloat64(), region.Share.InexactFloat64(), region.Transactions})
	}
	productRows := make([][]interface{}, 0, len(metrics.TopProducts))
	for _, product := range metrics.TopProducts {
		productRows = append(productRows, []interface{}{product.Name, product.Quantity, product.Revenue.InexactFloat64()})
	}
	customerRows := make([][]interface{}, 0, len(metrics.TopCustomers))
	for _, customer := range metrics.TopCustomers {
		customerRows = append(customerRows, []interface{}{customer.CustomerID, customer.TotalSpent.InexactFloat64(), customer.Count, customer.AverageOrder.InexactFloat64()})
	}
	dailyRows := make([][]interface{}, 0, len(metrics.DailyTrend))
	for _, day := range metrics.DailyTrend {
		dailyRows = append(dailyRows, []interface{}{day.Date, day.Revenue.InexactFloat64(), day.Count, day.UniqueCustomers})
	}
	lowRows := make([][]interface{}, 0, len(metrics.LowPerformers))
	for _, product := range metrics.LowPerformers {
		lowRows = append(lowRows, []interface{}{product.Name, product.Quantity, product.Revenue.InexactFloat64()})
	}

	sheets := []struct {
		name   string
		header []interface{}
		rows   [][]interface{}
	}{
		{"Regions", []interface{}{"Region", "Revenue", "Share %", "Transactions"}, regionRows},
		{"Top Products", []interface{}{"Product", "Quantity", "Revenue"}, productRows},
		{"Top Customers", []interface{}{"Customer", "Total Spent", "Orders", "Average"}, customerRows},
		{"Daily Trend", []interface{}{"Date", "Revenue", "Transactions", "Unique Customers"}, dailyRows},
		{"Low Performers", []interface{}{"Product", "Quantity", "Revenue"}, lowRows},
	}
	for _, sheet := range sheets {
		if _, err := f.NewSheet(sheet.name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", sheet.name, err)
		}
		if err := writeSheet(f, sheet.name, sheet.header, sheet.rows); err != nil {
			return err
		}
	}

	if err := f.Write(writer); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, header []interface{}, rows [][]interface{}) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write %s header: %w", sheet, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
