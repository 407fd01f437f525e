package parsers

import (
	"context"
	"fmt"
	"strings"

	"sales-analytics-service/internal/models"
	"sales-analytics-service/pkg/errors"
	"sales-analytics-service/pkg/logger"

	"github.com/spf13/afero"
)

// SalesParser turns pipe-delimited sales lines into records
type SalesParser struct {
	*BaseParser
	config *ParseConfig
	logger logger.Logger
}

// NewSalesParser creates a new SalesParser with the given configuration
func NewSalesParser(fs afero.Fs, config *ParseConfig) (*SalesParser, error) {
	if config == nil {
		config = DefaultParseConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(
			errors.CodeInvalidConfig,
			"parse_config",
			config.Delimiter,
			err,
		)
	}

	return &SalesParser{
		BaseParser: NewBaseParser(fs, config),
		config:     config,
		logger:     logger.WithComponent("sales_parser"),
	}, nil
}

// ParseFile reads, decodes and parses a sales file
func (sp *SalesParser) ParseFile(ctx context.Context, path string) ([]*models.SalesRecord, *ParseStats, error) {
	sp.logger.WithFields(logger.Fields{
		"file_path": path,
		"operation": "parse_sales",
	}).Info("Starting sales parsing")

	lines, encoding, err := sp.ReadLines(path)
	if err != nil {
		return nil, nil, err
	}

	records, stats, err := sp.ParseLines(ctx, lines)
	if stats != nil {
		stats.Encoding = encoding
	}
	return records, stats, err
}

// ParseLines parses decoded lines. Blank lines and the header are ignored;
// lines without exactly 8 fields or with non-numeric quantity or price are
// skipped and tallied as malformed. Output order follows input order.
func (sp *SalesParser) ParseLines(ctx context.Context, lines []Line) ([]*models.SalesRecord, *ParseStats, error) {
	stats := NewParseStats(sp.config.MaxSampleErrors)
	records := make([]*models.SalesRecord, 0, len(lines))

	progress := logger.NewProgressTracker(logger.ProgressConfig{
		Operation:   "parse_sales",
		Total:       int64(len(lines)),
		LogInterval: sp.config.ProgressInterval,
		Logger:      sp.logger,
	})

	for _, line := range lines {
		if err := ctx.Err(); err != nil {
			sp.logger.Warn("Sales parsing was cancelled")
			return records, stats, errors.InternalError(errors.CodeCancelled, "sales_parsing", err)
		}
		progress.Increment()

		text := strings.TrimSpace(line.Text)
		if text == "" && sp.config.SkipEmptyLines {
			continue
		}
		if sp.IsHeader(text) {
			continue
		}

		stats.TotalLines++

		record, parseErr := sp.parseLine(line.Number, text)
		if parseErr != nil {
			sp.logger.WithFields(logger.Fields{
				"line_number": line.Number,
				"code":        parseErr.Code,
				"field":       parseErr.Field,
			}).Debug(parseErr.Message)
			stats.AddError(parseErr)
			continue
		}

		records = append(records, record)
		stats.RecordsParsed++
	}

	progress.Complete()

	sp.logger.WithFields(logger.Fields{
		"total_lines":    stats.TotalLines,
		"records_parsed": stats.RecordsParsed,
		"malformed":      stats.Malformed,
	}).Info("Sales parsing completed")

	if stats.HasErrors() {
		sp.logger.WithField("sample_errors", stats.GetSampleErrors(3)).Warn("Skipped malformed lines")
	}

	return records, stats, nil
}

func (sp *SalesParser) parseLine(number int, text string) (*models.SalesRecord, *ParseError) {
	record, err := models.CreateSalesRecordFromFields(strings.Split(text, sp.config.Delimiter))
	if err == nil {
		return record, nil
	}

	fieldErr, ok := err.(*models.FieldError)
	if !ok {
		return nil, &ParseError{Line: number, Code: errors.CodeInvalidData, Field: "line", Value: text, Message: "unparseable line", Err: err}
	}

	switch fieldErr.Field {
	case "line":
		return nil, &ParseError{
			Line:    number,
			Code:    errors.CodeFieldCount,
			Field:   fieldErr.Field,
			Value:   fieldErr.Value,
			Message: fmt.Sprintf("expected %d fields", models.FieldCount),
		}
	case "UnitPrice":
		return nil, &ParseError{Line: number, Code: errors.CodeInvalidData, Field: fieldErr.Field, Value: fieldErr.Value, Message: "invalid unit price", Err: fieldErr.Err}
	default:
		return nil, &ParseError{Line: number, Code: errors.CodeInvalidData, Field: fieldErr.Field, Value: fieldErr.Value, Message: "invalid quantity", Err: fieldErr.Err}
	}
}
