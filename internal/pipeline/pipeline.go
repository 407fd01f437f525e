// Package pipeline runs a complete sales analysis: read and parse the log,
// validate and filter records, compute metrics and optionally enrich the
// records from the product catalog.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"sales-analytics-service/internal/analytics"
	"sales-analytics-service/internal/catalog"
	"sales-analytics-service/internal/models"
	"sales-analytics-service/internal/parsers"
	"sales-analytics-service/internal/validator"
	"sales-analytics-service/pkg/errors"
	"sales-analytics-service/pkg/logger"

	"github.com/spf13/afero"
)

// Service orchestrates the complete analysis process
type Service struct {
	fs        afero.Fs
	parser    *parsers.SalesParser
	validator *validator.Validator
	catalog   *catalog.Client
	config    *Config
	logger    logger.Logger
}

// Config holds configuration options for the analysis service
type Config struct {
	Parse     *parsers.ParseConfig
	Analytics *analytics.Config
	Catalog   *catalog.Config
}

// DefaultConfig returns a default configuration for the analysis service
func DefaultConfig() *Config {
	return &Config{
		Parse:     parsers.DefaultParseConfig(),
		Analytics: analytics.DefaultConfig(),
		Catalog:   catalog.DefaultConfig(),
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Parse == nil || c.Analytics == nil || c.Catalog == nil {
		return fmt.Errorf("parse, analytics and catalog configuration are required")
	}
	if err := c.Parse.Validate(); err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	if err := c.Analytics.Validate(); err != nil {
		return fmt.Errorf("analytics: %w", err)
	}
	if err := c.Catalog.Validate(); err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	return nil
}

// Request represents a request for analysis
type Request struct {
	InputFile      string
	Filters        validator.FilterOptions
	Enrich         bool
	EnrichedOutput string
}

// Validate validates the analysis request
func (r *Request) Validate() error {
	if r.InputFile == "" {
		return errors.ConfigurationError(errors.CodeMissingConfig, "input", "", nil)
	}
	if r.EnrichedOutput != "" && !r.Enrich {
		return errors.ConfigurationError(errors.CodeConfigConflict, "enriched-output", r.EnrichedOutput,
			fmt.Errorf("enriched output requires enrichment to be enabled"))
	}
	return r.Filters.Validate()
}

// Dataset is a parsed sales log ready for analysis
type Dataset struct {
	InputFile  string
	Records    []*models.SalesRecord
	ParseStats *parsers.ParseStats
}

// Result contains the complete results of an analysis
type Result struct {
	RunID       string    `json:"run_id" yaml:"run_id"`
	GeneratedAt time.Time `json:"generated_at" yaml:"generated_at"`
	InputFile   string    `json:"input_file" yaml:"input_file"`
	Encoding    string    `json:"encoding" yaml:"encoding"`

	Filters validator.FilterOptions `json:"filters" yaml:"filters"`
	Summary *validator.Summary      `json:"summary" yaml:"summary"`
	Metrics *analytics.Metrics      `json:"metrics" yaml:"metrics"`

	// Enrichment is nil when enrichment was not requested
	Enrichment      *catalog.EnrichmentStats `json:"enrichment,omitempty" yaml:"enrichment,omitempty"`
	EnrichedRecords []*models.EnrichedRecord `json:"-" yaml:"-"`

	ParseErrors        []string      `json:"parse_errors,omitempty" yaml:"parse_errors,omitempty"`
	ProcessingDuration time.Duration `json:"processing_duration" yaml:"processing_duration"`
}

// NewService creates a new analysis service
func NewService(fs afero.Fs, config *Config) (*Service, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if config == nil {
		config = DefaultConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "pipeline", nil, err)
	}

	parser, err := parsers.NewSalesParser(fs, config.Parse)
	if err != nil {
		return nil, err
	}

	client, err := catalog.NewClient(config.Catalog)
	if err != nil {
		return nil, err
	}

	return &Service{
		fs:        fs,
		parser:    parser,
		validator: validator.NewValidator(),
		catalog:   client,
		config:    config,
		logger:    logger.WithComponent("pipeline"),
	}, nil
}

// Load reads and parses the input file
func (s *Service) Load(ctx context.Context, path string) (*Dataset, error) {
	records, stats, err := s.parser.ParseFile(ctx, path)
	if err != nil {
		return nil, err
	}
	return &Dataset{InputFile: path, Records: records, ParseStats: stats}, nil
}

// Process performs the complete analysis for a request
func (s *Service) Process(ctx context.Context, request *Request) (*Result, error) {
	if err := request.Validate(); err != nil {
		return nil, err
	}

	dataset, err := s.Load(ctx, request.InputFile)
	if err != nil {
		return nil, err
	}

	return s.Analyze(ctx, dataset, request)
}
