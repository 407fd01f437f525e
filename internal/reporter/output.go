package reporter

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"sales-analytics-service/internal/pipeline"
	"sales-analytics-service/pkg/errors"
	"sales-analytics-service/pkg/logger"

	"github.com/spf13/afero"
)

// SafeReportGenerator wraps ReportGenerator with error handling and fallbacks
type SafeReportGenerator struct {
	*ReportGenerator
	logger logger.Logger
}

// NewSafeReportGenerator creates a new safe report generator
func NewSafeReportGenerator(config *ReportConfig, log logger.Logger) (*SafeReportGenerator, error) {
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	generator, err := NewReportGenerator(config)
	if err != nil {
		return nil, errors.ConfigurationError(
			errors.CodeInvalidConfig,
			"report",
			config,
			err,
		).WithSuggestion("Check the report format and layout settings")
	}

	return &SafeReportGenerator{
		ReportGenerator: generator,
		logger:          log.WithComponent("reporter"),
	}, nil
}

// Render produces the complete report in memory. If the requested format
// fails, the text report is produced instead with a notice at the top.
func (srg *SafeReportGenerator) Render(result *pipeline.Result) ([]byte, OutputFormat, error) {
	if result == nil {
		return nil, "", errors.ValidationError(errors.CodeMissingField, "result", nil, nil).
			WithSuggestion("Run the analysis before generating a report")
	}

	var buf bytes.Buffer
	err := srg.GenerateReport(result, &buf)
	if err == nil {
		return buf.Bytes(), srg.config.Format, nil
	}

	if srg.config.Format == FormatText {
		return nil, "", srg.wrapGenerationError(err)
	}

	srg.logger.WithError(err).WithField("fallback_format", FormatText).
		Warn("Primary report generation failed, attempting fallback")

	fallbackConfig := *srg.config
	fallbackConfig.Format = FormatText
	fallback, ferr := NewReportGenerator(&fallbackConfig)
	if ferr != nil {
		return nil, "", srg.wrapGenerationError(err)
	}

	buf.Reset()
	fmt.Fprintf(&buf, "NOTE: Report generated in text format due to an error with %s\n", srg.config.Format)
	fmt.Fprintf(&buf, "Original error: %v\n\n", err)
	if ferr := fallback.GenerateReport(result, &buf); ferr != nil {
		return nil, "", errors.InternalError(
			errors.CodeUnexpectedError,
			"report fallback",
			fmt.Errorf("both primary and fallback generation failed: primary=%v, fallback=%v", err, ferr),
		)
	}

	srg.logger.Info("Report generated using text fallback")
	return buf.Bytes(), FormatText, nil
}

// GenerateReportSafely renders the report and writes it to writer
func (srg *SafeReportGenerator) GenerateReportSafely(result *pipeline.Result, writer io.Writer) error {
	if writer == nil {
		return errors.ValidationError(errors.CodeMissingField, "writer", nil, nil).
			WithSuggestion("Provide a valid output writer")
	}

	data, _, err := srg.Render(result)
	if err != nil {
		srg.logger.WithError(err).Error("Report generation failed")
		return err
	}

	if _, err := writer.Write(data); err != nil {
		return errors.InternalError(errors.CodeProcessingError, "report output", err)
	}
	return nil
}

// WriteReportFile renders the report and writes it to path, creating parent
// directories as needed. When the path cannot be written a backup file next to
// it is tried before giving up. The path actually written is returned.
func (srg *SafeReportGenerator) WriteReportFile(fs afero.Fs, path string, result *pipeline.Result) (string, error) {
	data, format, err := srg.Render(result)
	if err != nil {
		return "", err
	}
	return srg.writeRendered(fs, path, data, format)
}

// writeRendered writes data rendered as format. A text fallback replaces the
// extension of the requested path so a .xlsx name never holds plain text.
func (srg *SafeReportGenerator) writeRendered(fs afero.Fs, path string, data []byte, format OutputFormat) (string, error) {
	if format != srg.config.Format {
		if ext := format.Extension(); filepath.Ext(path) != ext {
			renamed := strings.TrimSuffix(path, filepath.Ext(path)) + ext
			srg.logger.WithFields(logger.Fields{
				"requested_path": path,
				"path":           renamed,
			}).Warn("Report fell back to text, changing the file extension")
			path = renamed
		}
	}

	log := srg.logger.WithFields(logger.Fields{
		"path":   path,
		"format": format,
		"bytes":  len(data),
	})

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := fs.MkdirAll(dir, 0755); err != nil {
			return "", errors.FileError(errors.CodeDirectoryError, dir, err)
		}
	}

	err := afero.WriteFile(fs, path, data, 0644)
	if err == nil {
		log.Info("Report written")
		return path, nil
	}

	if !isFileError(err) {
		return "", errors.FileError(errors.CodeWriteFailed, path, err)
	}

	backupPath := backupPath(path)
	log.WithError(err).WithField("backup_path", backupPath).Warn("Could not write report, trying backup location")

	if berr := afero.WriteFile(fs, backupPath, data, 0644); berr != nil {
		return "", errors.FileError(errors.CodeWriteFailed, path, err).
			WithContext("backup_path", backupPath).
			WithContext("backup_error", berr.Error())
	}

	log.WithField("backup_path", backupPath).Info("Report written to backup location")
	return backupPath, nil
}

// WriteReportFile renders result with config and writes it to path
func WriteReportFile(fs afero.Fs, path string, result *pipeline.Result, config *ReportConfig) (string, error) {
	generator, err := NewSafeReportGenerator(config, nil)
	if err != nil {
		return "", err
	}
	return generator.WriteReportFile(fs, path, result)
}

func (srg *SafeReportGenerator) wrapGenerationError(err error) error {
	if appErr, ok := errors.AsAppError(err); ok {
		return appErr
	}

	return errors.InternalError(
		errors.CodeProcessingError,
		"report generation",
		err,
	).WithSuggestion("Check the report format settings")
}

func isFileError(err error) bool {
	return os.IsPermission(err) || os.IsExist(err)
}

func backupPath(path string) string {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	name := base[:len(base)-len(ext)]

	return filepath.Join(dir, fmt.Sprintf("%s_backup%s", name, ext))
}
