package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestAppError(t *testing.T) {
	tests := []struct {
		name       string
		category   ErrorCategory
		code       ErrorCode
		message    string
		cause      error
		expectCode int
		expectText string
	}{
		{
			name:       "file error",
			category:   CategoryFile,
			code:       CodeFileNotFound,
			message:    "file not found",
			cause:      errors.New("no such file"),
			expectCode: 2,
			expectText: "file not found: no such file",
		},
		{
			name:       "parse error",
			category:   CategoryParse,
			code:       CodeFieldCount,
			message:    "wrong field count",
			expectCode: 3,
			expectText: "wrong field count",
		},
		{
			name:       "configuration error",
			category:   CategoryConfiguration,
			code:       CodeInvalidConfig,
			message:    "invalid config",
			cause:      errors.New("missing field"),
			expectCode: 4,
			expectText: "invalid config: missing field",
		},
		{
			name:       "network error",
			category:   CategoryNetwork,
			code:       CodeTimeout,
			message:    "timeout",
			expectCode: 6,
			expectText: "timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err *AppError
			if tt.cause != nil {
				err = Wrap(tt.cause, tt.category, tt.code, tt.message)
			} else {
				err = New(tt.category, tt.code, tt.message)
			}

			if err.Category != tt.category {
				t.Errorf("expected category %s, got %s", tt.category, err.Category)
			}
			if err.Code != tt.code {
				t.Errorf("expected code %s, got %s", tt.code, err.Code)
			}
			if err.GetExitCode() != tt.expectCode {
				t.Errorf("expected exit code %d, got %d", tt.expectCode, err.GetExitCode())
			}
			if err.Error() != tt.expectText {
				t.Errorf("expected error string %q, got %q", tt.expectText, err.Error())
			}
			if tt.cause != nil && err.Unwrap() != tt.cause {
				t.Errorf("expected to unwrap to %v, got %v", tt.cause, err.Unwrap())
			}
			if len(err.StackTrace) == 0 {
				t.Error("expected a captured stack trace")
			}
		})
	}
}

func TestWrapNil(t *testing.T) {
	if err := Wrap(nil, CategoryFile, CodeFileNotFound, "x"); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}

func TestFileError(t *testing.T) {
	err := FileError(CodeFileNotFound, "data/sales.txt", errors.New("open failed"))

	if err.Category != CategoryFile {
		t.Errorf("expected file category, got %s", err.Category)
	}
	if !strings.Contains(err.Message, "data/sales.txt") {
		t.Errorf("expected message to mention the path, got %q", err.Message)
	}
	if err.Suggestion == "" {
		t.Error("expected a suggestion")
	}
	if err.Context["file_path"] != "data/sales.txt" {
		t.Errorf("expected file_path context, got %v", err.Context)
	}
}

func TestParseErrorContext(t *testing.T) {
	err := ParseError(CodeInvalidData, "sales.txt", 7, "quantity", "abc", nil)

	if err.Context["line"] != 7 {
		t.Errorf("expected line 7 in context, got %v", err.Context["line"])
	}
	if err.Context["field"] != "quantity" {
		t.Errorf("expected field quantity in context, got %v", err.Context["field"])
	}
	if keys := err.ContextKeys(); strings.Join(keys, ",") != "field,file,line" {
		t.Errorf("unexpected context keys %v", keys)
	}
}

func TestAsAppError(t *testing.T) {
	base := NetworkError(CodeConnectionFailed, "http://catalog", errors.New("refused"))
	wrapped := fmt.Errorf("enrichment: %w", base)

	got, ok := AsAppError(wrapped)
	if !ok {
		t.Fatal("expected AppError in chain")
	}
	if got != base {
		t.Errorf("expected the original error back")
	}
	if !IsCategory(wrapped, CategoryNetwork) {
		t.Error("expected network category")
	}
	if IsCategory(errors.New("plain"), CategoryNetwork) {
		t.Error("plain errors carry no category")
	}
}

func TestErrorSummary(t *testing.T) {
	empty := NewErrorSummary(nil)
	if empty.Error() != "no errors" || empty.GetExitCode() != 0 {
		t.Errorf("unexpected empty summary: %q / %d", empty.Error(), empty.GetExitCode())
	}

	summary := NewErrorSummary([]*AppError{
		New(CategoryParse, CodeInvalidData, "bad line"),
		New(CategoryNetwork, CodeTimeout, "slow"),
		New(CategoryParse, CodeFieldCount, "short line"),
	})

	if summary.Total != 3 {
		t.Errorf("expected 3 errors, got %d", summary.Total)
	}
	if !summary.HasCategory(CategoryParse) || summary.HasCategory(CategoryFile) {
		t.Errorf("unexpected categories %v", summary.ByCategory)
	}
	if summary.GetExitCode() != 6 {
		t.Errorf("expected highest exit code 6, got %d", summary.GetExitCode())
	}
	if want := "3 errors occurred (network: 1, parse: 2)"; summary.Error() != want {
		t.Errorf("expected %q, got %q", want, summary.Error())
	}
}
