package reporter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"sales-analytics-service/internal/analytics"
	"sales-analytics-service/internal/catalog"
	"sales-analytics-service/internal/models"
	"sales-analytics-service/internal/pipeline"
	"sales-analytics-service/internal/validator"
	"sales-analytics-service/pkg/errors"
	"sales-analytics-service/pkg/logger"

	"github.com/shopspring/decimal"
	"github.com/spf13/afero"
	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

func createSampleResult() *pipeline.Result {
	records := []*models.SalesRecord{
		models.NewSalesRecord("T001", "2024-01-01", "P101", "Laptop", 2, decimal.RequireFromString("45000.00"), "C001", "North"),
		models.NewSalesRecord("T002", "2024-01-02", "P102", "Mouse", 10, decimal.RequireFromString("500.00"), "C002", "South"),
	}

	return &pipeline.Result{
		RunID:       "run-123",
		GeneratedAt: time.Date(2024, 2, 1, 9, 30, 0, 0, time.UTC),
		InputFile:   "data/sales_data.txt",
		Encoding:    "utf-8",
		Summary: &validator.Summary{
			TotalRecords:   3,
			Malformed:      1,
			InvalidRecords: 1,
			FinalCount:     2,
		},
		Metrics: analytics.Compute(records, analytics.DefaultConfig()),
		Enrichment: &catalog.EnrichmentStats{
			Total:            2,
			Enriched:         1,
			SuccessRate:      decimal.RequireFromString("50"),
			FailedProductIDs: []string{"P102"},
			CatalogSize:      30,
		},
	}
}

func createEmptyResult() *pipeline.Result {
	return &pipeline.Result{
		RunID:       "run-empty",
		GeneratedAt: time.Date(2024, 2, 1, 9, 30, 0, 0, time.UTC),
		InputFile:   "data/empty.txt",
		Summary:     &validator.Summary{},
		Metrics:     analytics.Compute(nil, analytics.DefaultConfig()),
	}
}

func TestNewReportGenerator(t *testing.T) {
	tests := []struct {
		name        string
		config      *ReportConfig
		expectError bool
	}{
		{name: "default config", config: nil},
		{name: "valid config", config: DefaultReportConfig()},
		{
			name:        "invalid format",
			config:      &ReportConfig{Format: "pdf", Width: 72, CSVDelimiter: ','},
			expectError: true,
		},
		{
			name:        "width too small",
			config:      &ReportConfig{Format: FormatText, Width: 20, CSVDelimiter: ','},
			expectError: true,
		},
		{
			name:        "quote delimiter",
			config:      &ReportConfig{Format: FormatCSV, Width: 72, CSVDelimiter: '"'},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			generator, err := NewReportGenerator(tt.config)
			if tt.expectError {
				if err == nil {
					t.Error("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if generator == nil {
				t.Error("expected generator but got nil")
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    OutputFormat
		wantErr bool
	}{
		{"text", FormatText, false},
		{"JSON", FormatJSON, false},
		{" yaml ", FormatYAML, false},
		{"csv", FormatCSV, false},
		{"xlsx", FormatXLSX, false},
		{"console", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}

	if !FormatXLSX.IsBinary() || FormatCSV.IsBinary() {
		t.Error("only xlsx should be binary")
	}
	if FormatText.Extension() != ".txt" || FormatYAML.Extension() != ".yaml" {
		t.Error("unexpected format extensions")
	}
}

func TestMoneyFormatter(t *testing.T) {
	tests := []struct {
		name   string
		symbol string
		amount string
		want   string
	}{
		{"thousands", "", "1234567.891", "1,234,567.89"},
		{"zero", "", "0", "0.00"},
		{"small", "", "5.5", "5.50"},
		{"symbol", "$", "95000", "$95,000.00"},
		{"negative with symbol", "$", "-5", "-$5.00"},
		{"negative", "", "-1234.5", "-1,234.50"},
		{"rounds half away from zero", "", "2.345", "2.35"},
		{"negative rounding to zero", "", "-0.001", "0.00"},
		{"beyond float precision", "", "1234567890123456.78", "1,234,567,890,123,456.78"},
		{"beyond int64", "", "123456789012345678901.99", "123,456,789,012,345,678,901.99"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := newMoneyFormatter(tt.symbol).Format(decimal.RequireFromString(tt.amount))
			if got != tt.want {
				t.Errorf("Format(%s) = %q, want %q", tt.amount, got, tt.want)
			}
		})
	}

	if got := newMoneyFormatter("").Percent(decimal.RequireFromString("41.666")); got != "41.67%" {
		t.Errorf("Percent() = %q, want 41.67%%", got)
	}
}

func TestTextReportSections(t *testing.T) {
	generator, err := NewReportGenerator(DefaultReportConfig())
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := generator.GenerateReport(createSampleResult(), &buf); err != nil {
		t.Fatalf("GenerateReport() error = %v", err)
	}
	output := buf.String()

	sections := []string{
		"SALES ANALYTICS REPORT",
		"=== OVERALL SUMMARY ===",
		"=== DATA CLEANING SUMMARY ===",
		"=== REGION-WISE PERFORMANCE ===",
		"=== TOP 2 PRODUCTS ===",
		"=== TOP 2 CUSTOMERS ===",
		"=== DAILY SALES TREND ===",
		"=== PEAK SALES DAY ===",
		"=== LOW PERFORMING PRODUCTS (quantity < 10) ===",
		"=== API ENRICHMENT SUMMARY ===",
	}
	last := -1
	for _, section := range sections {
		idx := strings.Index(output, section)
		if idx < 0 {
			t.Errorf("missing section %q", section)
			continue
		}
		if idx < last {
			t.Errorf("section %q out of order", section)
		}
		last = idx
	}

	expected := []string{
		"Generated:         2024-02-01 09:30:00",
		"Run ID:            run-123",
		"Records Processed: 2",
		"Total Revenue:       95,000.00",
		"Total Transactions:  2",
		"Average Order Value: 47,500.00",
		"Date Range:          2024-01-01 to 2024-01-02",
		"Total Lines Read:          4",
		"Malformed Lines:           1",
		"Valid After Cleaning:      2",
		"Date:         2024-01-01",
		"Revenue:      90,000.00",
		"- Laptop: 2 units, 90,000.00",
		"Records Enriched: 1 of 2",
		"Success Rate:     50.00%",
		"Products Not Enriched: P102",
	}
	for _, want := range expected {
		if !strings.Contains(output, want) {
			t.Errorf("expected output to contain %q", want)
		}
	}
}

func TestTextReportEmptyResult(t *testing.T) {
	generator, err := NewReportGenerator(nil)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := generator.GenerateReport(createEmptyResult(), &buf); err != nil {
		t.Fatalf("GenerateReport() error = %v", err)
	}
	output := buf.String()

	for _, want := range []string{
		"Total Revenue:       0.00",
		"Total Transactions:  0",
		"Average Order Value: 0.00",
		"=== PEAK SALES DAY ===\nNone",
		"(quantity < 10) ===\nNone",
		"Enrichment disabled",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected output to contain %q\n%s", want, output)
		}
	}
}

func TestGenerateReport_InvalidResult(t *testing.T) {
	generator, _ := NewReportGenerator(nil)

	if err := generator.GenerateReport(nil, &bytes.Buffer{}); err == nil {
		t.Error("expected error for nil result")
	}
	if err := generator.GenerateReport(&pipeline.Result{}, &bytes.Buffer{}); err == nil {
		t.Error("expected error for incomplete result")
	}
}

func TestStructuredReports(t *testing.T) {
	result := createSampleResult()

	t.Run("json", func(t *testing.T) {
		generator, _ := NewReportGenerator(&ReportConfig{Format: FormatJSON, Width: 72, CSVDelimiter: ','})
		var buf bytes.Buffer
		if err := generator.GenerateReport(result, &buf); err != nil {
			t.Fatal(err)
		}

		var decoded map[string]interface{}
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if decoded["run_id"] != "run-123" {
			t.Errorf("run_id = %v", decoded["run_id"])
		}
		if _, ok := decoded["metrics"].(map[string]interface{})["top_products"]; !ok {
			t.Error("expected metrics.top_products in JSON output")
		}
	})

	t.Run("yaml", func(t *testing.T) {
		generator, _ := NewReportGenerator(&ReportConfig{Format: FormatYAML, Width: 72, CSVDelimiter: ','})
		var buf bytes.Buffer
		if err := generator.GenerateReport(result, &buf); err != nil {
			t.Fatal(err)
		}

		var decoded map[string]interface{}
		if err := yaml.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid YAML: %v", err)
		}
		if decoded["run_id"] != "run-123" {
			t.Errorf("run_id = %v", decoded["run_id"])
		}
		if !strings.Contains(buf.String(), "failed_product_ids:") {
			t.Error("expected enrichment block in YAML output")
		}
	})
}

func TestCSVReport(t *testing.T) {
	generator, _ := NewReportGenerator(&ReportConfig{Format: FormatCSV, Width: 72, CSVDelimiter: ';', CSVHeaders: true})

	var buf bytes.Buffer
	if err := generator.GenerateReport(createSampleResult(), &buf); err != nil {
		t.Fatal(err)
	}

	reader := csv.NewReader(&buf)
	reader.Comma = ';'
	reader.FieldsPerRecord = len(csvHeader)
	rows, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}

	if strings.Join(rows[0], ",") != strings.Join(csvHeader, ",") {
		t.Errorf("header = %v", rows[0])
	}
	if strings.Join(rows[1], ",") != "overview,total,95000.00,,2," {
		t.Errorf("overview row = %v", rows[1])
	}

	sections := make(map[string]int)
	for _, row := range rows[1:] {
		sections[row[0]]++
	}
	want := map[string]int{"overview": 1, "region": 2, "top_product": 2, "top_customer": 2, "daily": 2, "peak_day": 1, "low_performer": 1}
	for section, count := range want {
		if sections[section] != count {
			t.Errorf("section %s has %d rows, want %d", section, sections[section], count)
		}
	}
}

func TestXLSXReport(t *testing.T) {
	generator, _ := NewReportGenerator(&ReportConfig{Format: FormatXLSX, Width: 72, CSVDelimiter: ','})

	var buf bytes.Buffer
	if err := generator.GenerateReport(createSampleResult(), &buf); err != nil {
		t.Fatal(err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("invalid workbook: %v", err)
	}
	defer f.Close()

	sheets := strings.Join(f.GetSheetList(), ",")
	if sheets != "Summary,Regions,Top Products,Top Customers,Daily Trend,Low Performers" {
		t.Errorf("sheets = %s", sheets)
	}

	rows, err := f.GetRows("Top Products")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 || rows[0][0] != "Product" || rows[1][0] != "Laptop" {
		t.Errorf("Top Products rows = %v", rows)
	}

	summary, err := f.GetRows(summarySheet)
	if err != nil {
		t.Fatal(err)
	}
	if summary[1][0] != "Run ID" || summary[1][1] != "run-123" {
		t.Errorf("Summary rows = %v", summary[:2])
	}
}

func TestWriteReportFile(t *testing.T) {
	fs := afero.NewMemMapFs()

	path, err := WriteReportFile(fs, "/output/reports/sales_report.txt", createSampleResult(), nil)
	if err != nil {
		t.Fatalf("WriteReportFile() error = %v", err)
	}
	if path != "/output/reports/sales_report.txt" {
		t.Errorf("path = %s", path)
	}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		t.Fatalf("report not written: %v", err)
	}
	if !strings.Contains(string(data), "=== OVERALL SUMMARY ===") {
		t.Error("written report is missing the summary section")
	}
}

func TestWriteReportFile_ReadOnly(t *testing.T) {
	fs := afero.NewReadOnlyFs(afero.NewMemMapFs())

	_, err := WriteReportFile(fs, "/output/sales_report.txt", createSampleResult(), nil)
	if !errors.IsCategory(err, errors.CategoryFile) {
		t.Errorf("expected file error, got %v", err)
	}
}

func TestBackupPath(t *testing.T) {
	tests := map[string]string{
		"/out/report.txt": "/out/report_backup.txt",
		"report.json":     "report_backup.json",
		"/out/report":     "/out/report_backup",
	}
	for input, want := range tests {
		if got := backupPath(input); got != want {
			t.Errorf("backupPath(%s) = %s, want %s", input, got, want)
		}
	}
}

func BenchmarkGenerateTextReport(b *testing.B) {
	generator, _ := NewReportGenerator(nil)
	result := createSampleResult()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var buf bytes.Buffer
		generator.GenerateReport(result, &buf)
	}
}

func TestWriteRendered_FallbackExtension(t *testing.T) {
	config := DefaultReportConfig()
	config.Format = FormatXLSX
	generator, err := NewSafeReportGenerator(config, logger.Discard())
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		path     string
		format   OutputFormat
		wantPath string
	}{
		{"text fallback swaps extension", "/out/report.xlsx", FormatText, "/out/report.txt"},
		{"text fallback without extension", "/out/report", FormatText, "/out/report.txt"},
		{"text fallback already .txt", "/out/summary.txt", FormatText, "/out/summary.txt"},
		{"requested format keeps path", "/out/sheet.xlsx", FormatXLSX, "/out/sheet.xlsx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			written, err := generator.writeRendered(fs, tt.path, []byte("report"), tt.format)
			if err != nil {
				t.Fatalf("writeRendered() error = %v", err)
			}
			if written != tt.wantPath {
				t.Errorf("written = %s, want %s", written, tt.wantPath)
			}
			if exists, _ := afero.Exists(fs, tt.wantPath); !exists {
				t.Errorf("%s was not written", tt.wantPath)
			}
			if tt.path != tt.wantPath {
				if exists, _ := afero.Exists(fs, tt.path); exists {
					t.Errorf("%s should not be written on fallback", tt.path)
				}
			}
		})
	}
}
