// Package config turns command-line flags, environment variables and an
// optional config file into component configurations.
package config

import (
	"fmt"
	"strings"
	"time"

	"sales-analytics-service/internal/analytics"
	"sales-analytics-service/internal/catalog"
	"sales-analytics-service/internal/models"
	"sales-analytics-service/internal/pipeline"
	"sales-analytics-service/internal/reporter"
	"sales-analytics-service/internal/validator"
	"sales-analytics-service/pkg/errors"
	"sales-analytics-service/pkg/logger"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
)

// Keys shared by flags, environment variables and config files
const (
	KeyInput          = "input"
	KeyOutput         = "output"
	KeyFormat         = "format"
	KeyRegion         = "region"
	KeyMinAmount      = "min-amount"
	KeyMaxAmount      = "max-amount"
	KeyTopProducts    = "top"
	KeyTopCustomers   = "top-customers"
	KeyLowThreshold   = "low-threshold"
	KeyEnrich         = "enrich"
	KeyCatalogURL     = "catalog-url"
	KeyCatalogTimeout = "catalog-timeout"
	KeyCatalogLimit   = "catalog-limit"
	KeyEnrichedOutput = "enriched-output"
	KeyInteractive    = "interactive"
	KeyCurrency       = "currency"
	KeyVerbose        = "verbose"
	KeyLogLevel       = "log-level"
	KeyLogFormat      = "log-format"
)

// EnvPrefix is prepended to every environment variable, e.g. SALESREPORT_INPUT
const EnvPrefix = "SALESREPORT"

// Settings is the resolved configuration of an analyze run
type Settings struct {
	Input          string
	Output         string
	Format         string
	Region         string
	MinAmount      string
	MaxAmount      string
	TopProducts    int
	TopCustomers   int
	LowThreshold   int
	Enrich         bool
	CatalogURL     string
	CatalogTimeout time.Duration
	CatalogLimit   int
	EnrichedOutput string
	Interactive    bool
	Currency       string
	Verbose        bool
	LogLevel       string
	LogFormat      string
}

// SetDefaults registers default values on v
func SetDefaults(v *viper.Viper) {
	catalogDefaults := catalog.DefaultConfig()
	analyticsDefaults := analytics.DefaultConfig()

	v.SetDefault(KeyFormat, string(reporter.FormatText))
	v.SetDefault(KeyTopProducts, analyticsDefaults.TopProducts)
	v.SetDefault(KeyTopCustomers, analyticsDefaults.TopCustomers)
	v.SetDefault(KeyLowThreshold, analyticsDefaults.LowThreshold)
	v.SetDefault(KeyCatalogURL, catalogDefaults.BaseURL)
	v.SetDefault(KeyCatalogTimeout, catalogDefaults.Timeout)
	v.SetDefault(KeyCatalogLimit, catalogDefaults.Limit)
	v.SetDefault(KeyLogLevel, string(logger.WarnLevel))
	v.SetDefault(KeyLogFormat, string(logger.TextFormat))
}

// BindEnv makes every key readable from SALESREPORT_* variables
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
}

// Load reads the settings from v
func Load(v *viper.Viper) *Settings {
	return &Settings{
		Input:          v.GetString(KeyInput),
		Output:         v.GetString(KeyOutput),
		Format:         v.GetString(KeyFormat),
		Region:         v.GetString(KeyRegion),
		MinAmount:      v.GetString(KeyMinAmount),
		MaxAmount:      v.GetString(KeyMaxAmount),
		TopProducts:    v.GetInt(KeyTopProducts),
		TopCustomers:   v.GetInt(KeyTopCustomers),
		LowThreshold:   v.GetInt(KeyLowThreshold),
		Enrich:         v.GetBool(KeyEnrich),
		CatalogURL:     v.GetString(KeyCatalogURL),
		CatalogTimeout: v.GetDuration(KeyCatalogTimeout),
		CatalogLimit:   v.GetInt(KeyCatalogLimit),
		EnrichedOutput: v.GetString(KeyEnrichedOutput),
		Interactive:    v.GetBool(KeyInteractive),
		Currency:       v.GetString(KeyCurrency),
		Verbose:        v.GetBool(KeyVerbose),
		LogLevel:       v.GetString(KeyLogLevel),
		LogFormat:      v.GetString(KeyLogFormat),
	}
}

// Validate checks every setting and reports all problems at once
func (s *Settings) Validate() error {
	var err error

	if strings.TrimSpace(s.Input) == "" {
		err = multierr.Append(err, errors.ConfigurationError(errors.CodeMissingConfig, KeyInput, "", nil).
			WithSuggestion("Pass the sales log with --input"))
	}

	format, ferr := reporter.ParseFormat(s.Format)
	if ferr != nil {
		err = multierr.Append(err, errors.ConfigurationError(errors.CodeInvalidConfig, KeyFormat, s.Format, ferr))
	}
	if ferr == nil && format.IsBinary() && s.Output == "" {
		err = multierr.Append(err, errors.ConfigurationError(errors.CodeConfigConflict, KeyOutput, "",
			fmt.Errorf("%s reports must be written to a file", format)).
			WithSuggestion("Pass --output with a file path"))
	}

	if _, ferr := s.Filters(); ferr != nil {
		err = multierr.Append(err, ferr)
	}

	if s.EnrichedOutput != "" && !s.Enrich {
		err = multierr.Append(err, errors.ConfigurationError(errors.CodeConfigConflict, KeyEnrichedOutput, s.EnrichedOutput,
			fmt.Errorf("enriched output requires --enrich")))
	}

	if _, perr := s.PipelineConfig(); perr != nil {
		err = multierr.Append(err, perr)
	}
	if lerr := s.LoggerConfig().Validate(); lerr != nil {
		err = multierr.Append(err, errors.ConfigurationError(errors.CodeInvalidConfig, "logging", s.LogLevel, lerr))
	}

	return err
}

// Filters builds the record filters from the settings
func (s *Settings) Filters() (validator.FilterOptions, error) {
	opts := validator.FilterOptions{Region: strings.TrimSpace(s.Region)}

	var err error
	opts.MinAmount, err = parseOptionalAmount(KeyMinAmount, s.MinAmount)
	if err != nil {
		return opts, err
	}
	opts.MaxAmount, err = parseOptionalAmount(KeyMaxAmount, s.MaxAmount)
	if err != nil {
		return opts, err
	}

	return opts, opts.Validate()
}

func parseOptionalAmount(key, value string) (*decimal.Decimal, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	amount, err := models.ParseDecimalFromString(value)
	if err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, key, value, err)
	}
	return &amount, nil
}

// PipelineConfig builds the analysis service configuration
func (s *Settings) PipelineConfig() (*pipeline.Config, error) {
	config := pipeline.DefaultConfig()

	config.Analytics.TopProducts = s.TopProducts
	config.Analytics.TopCustomers = s.TopCustomers
	config.Analytics.LowThreshold = s.LowThreshold

	config.Catalog.BaseURL = s.CatalogURL
	config.Catalog.Timeout = s.CatalogTimeout
	config.Catalog.Limit = s.CatalogLimit

	var err error
	if verr := config.Analytics.Validate(); verr != nil {
		err = multierr.Append(err, errors.ConfigurationError(errors.CodeOutOfRange, "analytics", nil, verr))
	}
	if s.Enrich {
		if verr := config.Catalog.Validate(); verr != nil {
			err = multierr.Append(err, errors.ConfigurationError(errors.CodeInvalidConfig, KeyCatalogURL, s.CatalogURL, verr))
		}
	}
	if err != nil {
		return nil, err
	}
	return config, nil
}

// ReportConfig builds the report configuration
func (s *Settings) ReportConfig() (*reporter.ReportConfig, error) {
	format, err := reporter.ParseFormat(s.Format)
	if err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, KeyFormat, s.Format, err)
	}

	config := reporter.DefaultReportConfig()
	config.Format = format
	config.CurrencySymbol = s.Currency
	return config, nil
}

// LoggerConfig builds the logger configuration
func (s *Settings) LoggerConfig() *logger.Config {
	config := logger.DefaultConfig()
	if s.Verbose {
		config = logger.VerboseConfig()
	}
	if s.LogLevel != "" && !s.Verbose {
		config.Level = logger.Level(strings.ToLower(s.LogLevel))
	}
	if s.LogFormat != "" {
		config.Format = logger.Format(strings.ToLower(s.LogFormat))
	}
	return config
}

// Request builds the pipeline request. The filters are passed in because
// they may come from the interactive prompt.
func (s *Settings) Request(filters validator.FilterOptions) *pipeline.Request {
	return &pipeline.Request{
		InputFile:      s.Input,
		Filters:        filters,
		Enrich:         s.Enrich,
		EnrichedOutput: s.EnrichedOutput,
	}
}
