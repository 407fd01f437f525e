package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"sales-analytics-service/pkg/errors"
	"sales-analytics-service/pkg/logger"

	"github.com/spf13/viper"
	"go.uber.org/multierr"
)

// CLIErrorHandler provides user-friendly error handling for CLI operations
type CLIErrorHandler struct {
	logger  logger.Logger
	verbose bool
	out     io.Writer
}

// NewCLIErrorHandler creates a new CLI error handler writing to out
func NewCLIErrorHandler(out io.Writer) *CLIErrorHandler {
	if out == nil {
		out = os.Stderr
	}
	return &CLIErrorHandler{
		logger:  logger.WithComponent("cli"),
		verbose: viper.GetBool("verbose"),
		out:     out,
	}
}

// HandleError prints err for the user and returns the process exit code
func (h *CLIErrorHandler) HandleError(err error) int {
	if err == nil {
		return 0
	}

	h.logger.WithError(err).Debug("Command failed")

	errs := multierr.Errors(err)
	if len(errs) > 1 {
		return h.handleMultipleErrors(errs)
	}

	if appErr, ok := errors.AsAppError(err); ok {
		return h.handleAppError(appErr)
	}

	return h.handleGenericError(err)
}

// handleAppError prints an AppError with its context and suggestion
func (h *CLIErrorHandler) handleAppError(err *errors.AppError) int {
	fmt.Fprintf(h.out, "Error: %s\n", err.Message)

	if len(err.Context) > 0 {
		fmt.Fprintf(h.out, "\nContext:\n")
		for _, key := range err.ContextKeys() {
			fmt.Fprintf(h.out, "  %s: %v\n", key, err.Context[key])
		}
	}

	if err.Suggestion != "" {
		fmt.Fprintf(h.out, "\nSuggestion: %s\n", err.Suggestion)
	}

	fmt.Fprintf(h.out, "\n%s\n", h.getCategoryHelp(err.Category))

	if h.verbose && err.Cause != nil {
		fmt.Fprintf(h.out, "\nUnderlying error: %v\n", err.Cause)
	}

	return err.GetExitCode()
}

// handleMultipleErrors lists every problem and exits with the most severe code
func (h *CLIErrorHandler) handleMultipleErrors(errs []error) int {
	fmt.Fprintln(h.out, FormatErrors(errs))

	var appErrs []*errors.AppError
	for _, err := range errs {
		if appErr, ok := errors.AsAppError(err); ok {
			appErrs = append(appErrs, appErr)
		}
	}
	if len(appErrs) == 0 {
		return 1
	}

	summary := errors.NewErrorSummary(appErrs)
	fmt.Fprintf(h.out, "\n%s\n", h.getCategoryHelp(appErrs[0].Category))
	return summary.GetExitCode()
}

// handleGenericError handles errors that were not categorized
func (h *CLIErrorHandler) handleGenericError(err error) int {
	if os.IsNotExist(err) {
		fmt.Fprintf(h.out, "Error: File not found\n")
		fmt.Fprintf(h.out, "Suggestion: Check if the file path is correct and the file exists\n")
		return 2
	}

	if os.IsPermission(err) {
		fmt.Fprintf(h.out, "Error: Permission denied\n")
		fmt.Fprintf(h.out, "Suggestion: Check file permissions and ensure you have read access\n")
		return 2
	}

	fmt.Fprintf(h.out, "Error: %v\n", err)
	if !h.verbose {
		fmt.Fprintf(h.out, "\nRun with --verbose for more details\n")
	}
	return 1
}

// getCategoryHelp returns category-specific help text
func (h *CLIErrorHandler) getCategoryHelp(category errors.ErrorCategory) string {
	switch category {
	case errors.CategoryFile:
		return `File error help:
• Check that the sales log exists and is readable
• Verify the path (use an absolute path if needed)
• Make sure the output directory is writable`

	case errors.CategoryParse:
		return `Parse error help:
• The sales log must be pipe-delimited with 8 fields per line
• Supported encodings are UTF-8, Latin-1 and Windows-1252`

	case errors.CategoryValidation:
		return `Validation error help:
• Amounts must be plain numbers, thousands separators are allowed
• Amount filters cannot be negative`

	case errors.CategoryConfiguration:
		return `Configuration error help:
• Check your command-line flags and SALESREPORT_* environment variables
• Verify configuration file syntax if using --config
• Use 'salesreport analyze --help' to see all available options`

	case errors.CategoryNetwork:
		return `Network error help:
• Check that the catalog URL is reachable
• Increase --catalog-timeout for slow connections
• Run without --enrich to skip the catalog`

	default:
		return `For more help:
• Use 'salesreport --help' for general help
• Use 'salesreport analyze --help' for command-specific help`
	}
}

// FormatErrors formats several errors as a numbered list
func FormatErrors(errs []error) string {
	if len(errs) == 0 {
		return ""
	}

	if len(errs) == 1 {
		return fmt.Sprintf("Error: %v", errs[0])
	}

	lines := []string{fmt.Sprintf("Found %d problems:", len(errs))}
	for i, err := range errs {
		if i == 10 {
			lines = append(lines, fmt.Sprintf("  ... and %d more", len(errs)-10))
			break
		}
		msg := err.Error()
		if appErr, ok := errors.AsAppError(err); ok {
			msg = appErr.Message
			if appErr.Cause != nil {
				msg = fmt.Sprintf("%s: %v", msg, appErr.Cause)
			}
		}
		lines = append(lines, fmt.Sprintf("  %d. %s", i+1, msg))
	}

	return strings.Join(lines, "\n")
}
