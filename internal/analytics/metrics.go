package analytics

import (
	"fmt"

	"sales-analytics-service/internal/models"
	"sales-analytics-service/pkg/logger"

	"github.com/shopspring/decimal"
	"github.com/sourcegraph/conc"
)

// Config controls the size of ranked lists
type Config struct {
	TopProducts  int `mapstructure:"top_products"`
	TopCustomers int `mapstructure:"top_customers"`
	LowThreshold int `mapstructure:"low_threshold"`
}

// DefaultConfig returns the default ranking configuration
func DefaultConfig() *Config {
	return &Config{
		TopProducts:  DefaultTopProducts,
		TopCustomers: DefaultTopCustomers,
		LowThreshold: DefaultLowThreshold,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.TopProducts <= 0 {
		return fmt.Errorf("top products must be positive, got %d", c.TopProducts)
	}
	if c.TopCustomers <= 0 {
		return fmt.Errorf("top customers must be positive, got %d", c.TopCustomers)
	}
	if c.LowThreshold <= 0 {
		return fmt.Errorf("low performance threshold must be positive, got %d", c.LowThreshold)
	}
	return nil
}

// Metrics holds every metric computed for a report
type Metrics struct {
	Overview      OverviewStats              `json:"overview" yaml:"overview"`
	RegionRevenue map[string]decimal.Decimal `json:"region_revenue" yaml:"region_revenue"`
	Regions       []RegionStats              `json:"regions" yaml:"regions"`
	TopProducts   []ProductStats             `json:"top_products" yaml:"top_products"`
	TopCustomers  []CustomerStats            `json:"top_customers" yaml:"top_customers"`
	DailyTrend    []DailyStats               `json:"daily_trend" yaml:"daily_trend"`
	PeakDay       *PeakDay                   `json:"peak_day" yaml:"peak_day"`
	LowPerformers []ProductStats             `json:"low_performers" yaml:"low_performers"`
	LowThreshold  int                        `json:"low_threshold" yaml:"low_threshold"`
}

// Compute runs every metric over records. The passes are independent and run
// concurrently; a panic in any of them is re-raised by Compute.
func Compute(records []*models.SalesRecord, config *Config) *Metrics {
	if config == nil {
		config = DefaultConfig()
	}

	log := logger.WithComponent("analytics")
	log.WithFields(logger.Fields{
		"records":       len(records),
		"top_products":  config.TopProducts,
		"low_threshold": config.LowThreshold,
	}).Debug("Computing sales metrics")

	metrics := &Metrics{LowThreshold: config.LowThreshold}
	if metrics.LowThreshold <= 0 {
		metrics.LowThreshold = DefaultLowThreshold
	}

	var wg conc.WaitGroup
	wg.Go(func() { metrics.Overview = Overview(records) })
	wg.Go(func() { metrics.RegionRevenue = RegionRevenue(records) })
	wg.Go(func() { metrics.Regions = RegionBreakdown(records) })
	wg.Go(func() { metrics.TopProducts = TopProducts(records, config.TopProducts) })
	wg.Go(func() { metrics.TopCustomers = TopCustomers(records, config.TopCustomers) })
	wg.Go(func() { metrics.DailyTrend = DailyTrend(records) })
	wg.Go(func() {
		if peak, ok := PeakSalesDay(records); ok {
			metrics.PeakDay = &peak
		}
	})
	wg.Go(func() { metrics.LowPerformers = LowPerformingProducts(records, config.LowThreshold) })
	wg.Wait()

	log.WithFields(logger.Fields{
		"total_revenue": metrics.Overview.TotalRevenue.StringFixed(2),
		"regions":       len(metrics.Regions),
		"days":          len(metrics.DailyTrend),
	}).Info("Sales metrics computed")

	return metrics
}
