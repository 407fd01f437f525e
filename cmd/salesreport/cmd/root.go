package cmd

import (
	"context"
	"fmt"

	"sales-analytics-service/cmd/salesreport/config"
	"sales-analytics-service/pkg/errors"
	"sales-analytics-service/pkg/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "salesreport",
	Short: "Sales log analytics and reporting tool",
	Long: `Salesreport reads a pipe-delimited sales transaction log, cleans and
validates the records, computes revenue metrics and writes a formatted report.
Records can optionally be enriched with product data from a catalog API.

Examples:
  salesreport analyze --input data/sales_data.txt
  salesreport analyze --input data/sales_data.txt --output output/sales_report.txt
  salesreport analyze --input data/sales_data.txt --region North --min-amount 1000
  salesreport analyze --input data/sales_data.txt --enrich --enriched-output data/enriched_sales_data.txt
  salesreport version`,
	Version:           getVersionString(),
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: setupLogging,
}

// Execute runs the root command and returns the process exit code
func Execute(ctx context.Context) int {
	err := rootCmd.ExecuteContext(ctx)
	return NewCLIErrorHandler(rootCmd.ErrOrStderr()).HandleError(err)
}

func init() {
	cobra.OnInitialize(initConfig)

	config.SetDefaults(viper.GetViper())

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml, json or toml)")
	rootCmd.PersistentFlags().BoolP(config.KeyVerbose, "v", false, "verbose output")
	rootCmd.PersistentFlags().String(config.KeyLogLevel, "warn", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String(config.KeyLogFormat, "text", "log format: text, json")

	// Bind flags to viper
	viper.BindPFlag(config.KeyVerbose, rootCmd.PersistentFlags().Lookup(config.KeyVerbose))
	viper.BindPFlag(config.KeyLogLevel, rootCmd.PersistentFlags().Lookup(config.KeyLogLevel))
	viper.BindPFlag(config.KeyLogFormat, rootCmd.PersistentFlags().Lookup(config.KeyLogFormat))
}

// initConfig reads in config file and ENV variables.
func initConfig() {
	config.BindEnv(viper.GetViper())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
}

// setupLogging loads the config file, if any, and installs the global logger
func setupLogging(cmd *cobra.Command, args []string) error {
	if cfgFile != "" {
		if err := viper.ReadInConfig(); err != nil {
			return errors.ConfigurationError(errors.CodeInvalidConfig, "config", cfgFile, err).
				WithSuggestion("Check that the config file exists and is valid yaml, json or toml")
		}
	}

	settings := config.Load(viper.GetViper())
	logConfig := settings.LoggerConfig()
	logConfig.Writer = cmd.ErrOrStderr()

	log, err := logger.NewLogger(logConfig)
	if err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, config.KeyLogLevel, settings.LogLevel, err)
	}
	logger.SetGlobalLogger(log)

	if cfgFile != "" {
		log.WithField("config", viper.ConfigFileUsed()).Debug("Using config file")
	}
	return nil
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = getVersionString()
}

func getVersionString() string {
	if version == "dev" {
		return fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
	}
	return version
}
