package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"sales-analytics-service/cmd/salesreport/config"
	"sales-analytics-service/pkg/errors"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
)

const salesLog = `TransactionID|Date|ProductID|ProductName|Quantity|UnitPrice|CustomerID|Region
T001|2024-01-01|P101|Laptop|2|45,000.00|C001|North
T002|2024-01-01|P102|Mouse,Wireless|10|500|C002|South
T003|2024-01-02|P101|Laptop|1|45,000.00|C003|North
T004|2024-01-02|P103|Keyboard|-2|1500|C001|East
T005|2024-01-03|P104|Monitor|abc|9000|C005|East
T006|2024-01-04|P104|Monitor|1|9,000.00|C005|East
`

func newSettings(values map[string]interface{}) *config.Settings {
	v := viper.New()
	config.SetDefaults(v)
	for key, value := range values {
		v.Set(key, value)
	}
	return config.Load(v)
}

func setupFs(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/data/sales_data.txt", []byte(salesLog), 0644); err != nil {
		t.Fatalf("failed to write sales log: %v", err)
	}
	if err := afero.WriteFile(fs, "/data/empty.txt", nil, 0644); err != nil {
		t.Fatalf("failed to write empty log: %v", err)
	}
	return fs
}

func TestExecuteAnalysis_Stdout(t *testing.T) {
	fs := setupFs(t)
	settings := newSettings(map[string]interface{}{config.KeyInput: "/data/sales_data.txt"})

	var stdout, stderr bytes.Buffer
	if err := executeAnalysis(context.Background(), fs, settings, nil, &stdout, &stderr); err != nil {
		t.Fatalf("executeAnalysis() error = %v", err)
	}

	report := stdout.String()
	for _, want := range []string{
		"Records Processed: 4",
		"Total Revenue:       149,000.00",
		"Malformed Lines:           1",
		"Invalid Records:           1",
		"Enrichment disabled",
	} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q\n%s", want, report)
		}
	}
}

func TestExecuteAnalysis_FilteredReportFile(t *testing.T) {
	fs := setupFs(t)
	settings := newSettings(map[string]interface{}{
		config.KeyInput:     "/data/sales_data.txt",
		config.KeyOutput:    "/output/sales_report.json",
		config.KeyFormat:    "json",
		config.KeyRegion:    "North",
		config.KeyMinAmount: "50,000",
	})

	var stdout, stderr bytes.Buffer
	if err := executeAnalysis(context.Background(), fs, settings, nil, &stdout, &stderr); err != nil {
		t.Fatalf("executeAnalysis() error = %v", err)
	}

	if stdout.Len() != 0 {
		t.Error("nothing should be printed to stdout when writing a file")
	}
	if !strings.Contains(stderr.String(), "Report written to /output/sales_report.json") {
		t.Errorf("unexpected status output: %s", stderr.String())
	}

	data, err := afero.ReadFile(fs, "/output/sales_report.json")
	if err != nil {
		t.Fatalf("report not written: %v", err)
	}

	var report struct {
		Summary struct {
			FinalCount     int `json:"final_count"`
			RegionFiltered int `json:"region_filtered"`
			AmountFiltered int `json:"amount_filtered"`
		} `json:"summary"`
	}
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatalf("invalid JSON report: %v", err)
	}
	// Only T001 (90,000) survives: T002 and T006 are other regions, T003 is below the minimum
	if report.Summary.FinalCount != 1 || report.Summary.RegionFiltered != 2 || report.Summary.AmountFiltered != 1 {
		t.Errorf("unexpected summary: %+v", report.Summary)
	}
}

func TestExecuteAnalysis_Enrichment(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"products":[{"id":101,"title":"Laptop","category":"laptops","brand":"Acme","price":900,"rating":4.5}]}`)
	}))
	defer server.Close()

	fs := setupFs(t)
	settings := newSettings(map[string]interface{}{
		config.KeyInput:          "/data/sales_data.txt",
		config.KeyEnrich:         true,
		config.KeyCatalogURL:     server.URL,
		config.KeyEnrichedOutput: "/data/enriched_sales_data.txt",
	})

	var stdout, stderr bytes.Buffer
	if err := executeAnalysis(context.Background(), fs, settings, nil, &stdout, &stderr); err != nil {
		t.Fatalf("executeAnalysis() error = %v", err)
	}

	if !strings.Contains(stdout.String(), "Records Enriched: 2 of 4") {
		t.Errorf("unexpected enrichment summary:\n%s", stdout.String())
	}
	if !strings.Contains(stdout.String(), "Success Rate:     50.00%") {
		t.Errorf("unexpected success rate:\n%s", stdout.String())
	}
	if exists, _ := afero.Exists(fs, "/data/enriched_sales_data.txt"); !exists {
		t.Error("enriched output should be written")
	}
}

func TestExecuteAnalysis_EmptyInput(t *testing.T) {
	fs := setupFs(t)
	settings := newSettings(map[string]interface{}{config.KeyInput: "/data/empty.txt"})

	var stdout, stderr bytes.Buffer
	if err := executeAnalysis(context.Background(), fs, settings, nil, &stdout, &stderr); err != nil {
		t.Fatalf("empty input should not fail: %v", err)
	}
	if !strings.Contains(stdout.String(), "Total Revenue:       0.00") {
		t.Errorf("expected zero revenue:\n%s", stdout.String())
	}
}

func TestExecuteAnalysis_MissingFile(t *testing.T) {
	fs := setupFs(t)
	settings := newSettings(map[string]interface{}{config.KeyInput: "/data/missing.txt"})

	var stdout, stderr bytes.Buffer
	err := executeAnalysis(context.Background(), fs, settings, nil, &stdout, &stderr)
	if !errors.IsCategory(err, errors.CategoryFile) {
		t.Fatalf("expected file error, got %v", err)
	}

	var out bytes.Buffer
	if code := NewCLIErrorHandler(&out).HandleError(err); code != 2 {
		t.Errorf("exit code = %d, want 2", code)
	}
	if !strings.Contains(out.String(), "File error help") {
		t.Errorf("expected file help, got:\n%s", out.String())
	}
}

func TestCLIErrorHandler(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantText string
	}{
		{name: "nil", err: nil, wantCode: 0},
		{
			name:     "configuration",
			err:      errors.ConfigurationError(errors.CodeMissingConfig, "input", "", nil),
			wantCode: 4,
			wantText: "missing required configuration: input",
		},
		{
			name:     "network",
			err:      errors.NetworkError(errors.CodeTimeout, "http://catalog", nil),
			wantCode: 6,
			wantText: "Network error help",
		},
		{
			name: "multiple",
			err: multierr.Combine(
				errors.ConfigurationError(errors.CodeMissingConfig, "input", "", nil),
				errors.FileError(errors.CodeFileNotFound, "/missing.txt", nil),
			),
			wantCode: 4,
			wantText: "Found 2 problems:",
		},
		{
			name:     "not exist",
			err:      os.ErrNotExist,
			wantCode: 2,
			wantText: "File not found",
		},
		{
			name:     "generic",
			err:      fmt.Errorf("boom"),
			wantCode: 1,
			wantText: "Error: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			code := NewCLIErrorHandler(&out).HandleError(tt.err)
			if code != tt.wantCode {
				t.Errorf("HandleError() = %d, want %d", code, tt.wantCode)
			}
			if !strings.Contains(out.String(), tt.wantText) {
				t.Errorf("output missing %q:\n%s", tt.wantText, out.String())
			}
		})
	}
}

func TestFormatErrors(t *testing.T) {
	if FormatErrors(nil) != "" {
		t.Error("expected empty output for no errors")
	}

	errs := make([]error, 12)
	for i := range errs {
		errs[i] = fmt.Errorf("problem %d", i+1)
	}
	out := FormatErrors(errs)
	if !strings.Contains(out, "Found 12 problems:") || !strings.Contains(out, "... and 2 more") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if strings.Contains(out, "problem 11") {
		t.Error("only the first 10 problems should be listed")
	}
}

func TestVersionString(t *testing.T) {
	SetVersionInfo("1.2.3", "abc123", "2024-01-01")
	defer SetVersionInfo("dev", "unknown", "unknown")

	if getVersionString() != "1.2.3" {
		t.Errorf("getVersionString() = %s", getVersionString())
	}
	if rootCmd.Version != "1.2.3" {
		t.Errorf("rootCmd.Version = %s", rootCmd.Version)
	}
}
