// Package parsers reads pipe-delimited sales logs and turns them into
// structured records.
//
// Reading and parsing are split: BaseParser loads a file through afero and
// decodes it, trying UTF-8 first and then the legacy Latin-1 and Windows-1252
// encodings; SalesParser turns the decoded lines into models.SalesRecord
// values. Structural problems (wrong field count, non-numeric quantity or
// price) never abort a run: the line is skipped and tallied in ParseStats.
//
// Example usage:
//
//	parser, err := NewSalesParser(afero.NewOsFs(), DefaultParseConfig())
//	records, stats, err := parser.ParseFile(ctx, "data/sales_data.txt")
package parsers

import (
	"fmt"
	"os"
	"strings"
	"time"

	"sales-analytics-service/pkg/errors"
	"sales-analytics-service/pkg/logger"

	"github.com/spf13/afero"
)

// ParseError describes a line the parser had to skip
type ParseError struct {
	Line    int
	Code    errors.ErrorCode
	Field   string
	Value   string
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse error at line %d (%s='%s'): %s: %v", e.Line, e.Field, e.Value, e.Message, e.Err)
	}
	return fmt.Sprintf("parse error at line %d (%s='%s'): %s", e.Line, e.Field, e.Value, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ParseConfig holds configuration for reading sales logs
type ParseConfig struct {
	Delimiter        string
	HeaderPrefix     string
	SkipEmptyLines   bool
	Decoders         []Decoder
	ProgressInterval time.Duration
	MaxSampleErrors  int
}

// DefaultParseConfig returns a configuration with sensible defaults
func DefaultParseConfig() *ParseConfig {
	return &ParseConfig{
		Delimiter:        "|",
		HeaderPrefix:     "TransactionID",
		SkipEmptyLines:   true,
		Decoders:         DefaultDecoders(),
		ProgressInterval: 2 * time.Second,
		MaxSampleErrors:  100,
	}
}

// Validate checks the configuration
func (c *ParseConfig) Validate() error {
	if c.Delimiter == "" {
		return fmt.Errorf("delimiter cannot be empty")
	}
	if len(c.Decoders) == 0 {
		return fmt.Errorf("at least one decoder is required")
	}
	if c.MaxSampleErrors < 0 {
		return fmt.Errorf("max sample errors cannot be negative")
	}
	return nil
}

// Line is one line of decoded input with its 1-based position in the file
type Line struct {
	Number int
	Text   string
}

// BaseParser provides file access and decoding shared by parsers
type BaseParser struct {
	fs     afero.Fs
	config *ParseConfig
	logger logger.Logger
}

// NewBaseParser creates a new BaseParser over the given filesystem
func NewBaseParser(fs afero.Fs, config *ParseConfig) *BaseParser {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if config == nil {
		config = DefaultParseConfig()
	}

	log := logger.WithComponent("base_parser")
	log.WithFields(logger.Fields{
		"delimiter": config.Delimiter,
		"decoders":  len(config.Decoders),
	}).Debug("Created base parser")

	return &BaseParser{fs: fs, config: config, logger: log}
}

// ReadLines loads path, decodes it and splits it into lines. Blank lines and
// the header are kept; the sales parser decides what to skip.
func (bp *BaseParser) ReadLines(path string) ([]Line, string, error) {
	bp.logger.WithField("file_path", path).Debug("Reading sales file")

	data, err := afero.ReadFile(bp.fs, path)
	if err != nil {
		bp.logger.WithError(err).WithField("file_path", path).Error("Failed to read sales file")
		switch {
		case os.IsNotExist(err):
			return nil, "", errors.FileError(errors.CodeFileNotFound, path, err)
		case os.IsPermission(err):
			return nil, "", errors.FileError(errors.CodeFilePermission, path, err)
		default:
			return nil, "", errors.FileError(errors.CodeFileCorrupted, path, err)
		}
	}

	text, encoding, err := DecodeWithFallback(data, bp.config.Decoders)
	if err != nil {
		bp.logger.WithError(err).WithField("file_path", path).Error("Unable to decode sales file")
		return nil, "", errors.ParseError(errors.CodeEncodingError, path, 0, "encoding", "", err)
	}

	if encoding != UTF8Decoder.Name {
		bp.logger.WithFields(logger.Fields{
			"file_path": path,
			"encoding":  encoding,
		}).Warn("Sales file is not UTF-8, decoded with fallback encoding")
	}

	return SplitLines(text), encoding, nil
}

// SplitLines splits text on newlines, dropping carriage returns
func SplitLines(text string) []Line {
	if text == "" {
		return nil
	}

	raw := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	lines := make([]Line, 0, len(raw))
	for i, l := range raw {
		lines = append(lines, Line{Number: i + 1, Text: strings.TrimRight(l, "\r")})
	}
	return lines
}

// IsHeader reports whether text is the optional header line
func (bp *BaseParser) IsHeader(text string) bool {
	return bp.config.HeaderPrefix != "" && strings.HasPrefix(strings.TrimSpace(text), bp.config.HeaderPrefix)
}

// ParseStats holds statistics about a parsing operation
type ParseStats struct {
	Encoding      string
	TotalLines    int
	RecordsParsed int
	Malformed     int
	Errors        []*ParseError
	maxSamples    int
}

// NewParseStats creates a new ParseStats instance
func NewParseStats(maxSamples int) *ParseStats {
	return &ParseStats{
		Errors:     make([]*ParseError, 0),
		maxSamples: maxSamples,
	}
}

// AddError tallies a skipped line, keeping at most maxSamples errors
func (ps *ParseStats) AddError(err *ParseError) {
	ps.Malformed++
	if ps.maxSamples == 0 || len(ps.Errors) < ps.maxSamples {
		ps.Errors = append(ps.Errors, err)
	}
}

// HasErrors returns true if any line was skipped
func (ps *ParseStats) HasErrors() bool {
	return ps.Malformed > 0
}

func (ps *ParseStats) String() string {
	return fmt.Sprintf("Read %d lines, parsed %d records, skipped %d malformed",
		ps.TotalLines, ps.RecordsParsed, ps.Malformed)
}

// GetSampleErrors returns up to maxSamples error messages
func (ps *ParseStats) GetSampleErrors(maxSamples int) []string {
	if len(ps.Errors) == 0 {
		return nil
	}

	limit := len(ps.Errors)
	if maxSamples > 0 && maxSamples < limit {
		limit = maxSamples
	}

	samples := make([]string, 0, limit)
	for _, err := range ps.Errors[:limit] {
		samples = append(samples, err.Error())
	}
	return samples
}
