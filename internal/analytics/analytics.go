// Package analytics computes sales metrics over a validated record set.
//
// Every function is an independent read-only pass over its input; records are
// never modified, so the passes may run concurrently. Money results are
// rounded to two decimal places once, after summing.
package analytics

import (
	"sort"

	"sales-analytics-service/internal/models"

	"github.com/shopspring/decimal"
)

// Defaults used when a caller passes a non-positive limit
const (
	DefaultTopProducts  = 5
	DefaultTopCustomers = 5
	DefaultLowThreshold = 10
	moneyDecimalPlaces  = 2
)

var hundred = decimal.NewFromInt(100)

func round(d decimal.Decimal) decimal.Decimal {
	return d.Round(moneyDecimalPlaces)
}

// RegionStats is the revenue of one region
type RegionStats struct {
	Region       string          `json:"region" yaml:"region"`
	Revenue      decimal.Decimal `json:"revenue" yaml:"revenue"`
	Transactions int             `json:"transactions" yaml:"transactions"`
	Share        decimal.Decimal `json:"share_percent" yaml:"share_percent"`
}

// ProductStats is the quantity and revenue of one product
type ProductStats struct {
	Name     string          `json:"name" yaml:"name"`
	Quantity int             `json:"quantity" yaml:"quantity"`
	Revenue  decimal.Decimal `json:"revenue" yaml:"revenue"`
}

// CustomerStats summarizes the purchases of one customer
type CustomerStats struct {
	CustomerID   string          `json:"customer_id" yaml:"customer_id"`
	TotalSpent   decimal.Decimal `json:"total_spent" yaml:"total_spent"`
	Count        int             `json:"purchase_count" yaml:"purchase_count"`
	AverageOrder decimal.Decimal `json:"average_order" yaml:"average_order"`
}

// DailyStats summarizes the sales of one date
type DailyStats struct {
	Date            string          `json:"date" yaml:"date"`
	Revenue         decimal.Decimal `json:"revenue" yaml:"revenue"`
	Count           int             `json:"transaction_count" yaml:"transaction_count"`
	UniqueCustomers int             `json:"unique_customers" yaml:"unique_customers"`
}

// PeakDay is the date with the highest revenue
type PeakDay struct {
	Date    string          `json:"date" yaml:"date"`
	Revenue decimal.Decimal `json:"revenue" yaml:"revenue"`
	Count   int             `json:"transaction_count" yaml:"transaction_count"`
}

// OverviewStats holds the headline figures of a record set
type OverviewStats struct {
	TotalRevenue      decimal.Decimal `json:"total_revenue" yaml:"total_revenue"`
	TotalTransactions int             `json:"total_transactions" yaml:"total_transactions"`
	AverageOrderValue decimal.Decimal `json:"average_order_value" yaml:"average_order_value"`
	FirstDate         string          `json:"first_date,omitempty" yaml:"first_date,omitempty"`
	LastDate          string          `json:"last_date,omitempty" yaml:"last_date,omitempty"`
}

// TotalRevenue sums quantity times unit price over all records
func TotalRevenue(records []*models.SalesRecord) decimal.Decimal {
	return round(sumAmounts(records))
}

func sumAmounts(records []*models.SalesRecord) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.Amount())
	}
	return total
}

// RegionRevenue maps each region to its total revenue
func RegionRevenue(records []*models.SalesRecord) map[string]decimal.Decimal {
	sums := make(map[string]decimal.Decimal)
	for _, r := range records {
		sums[r.Region] = sums[r.Region].Add(r.Amount())
	}
	for region, sum := range sums {
		sums[region] = round(sum)
	}
	return sums
}

// RegionBreakdown returns per-region revenue, transaction count and share of
// the total, ordered by revenue descending and then by region name.
func RegionBreakdown(records []*models.SalesRecord) []RegionStats {
	index := make(map[string]*RegionStats)
	sums := make(map[string]decimal.Decimal)
	total := decimal.Zero

	for _, r := range records {
		stats, ok := index[r.Region]
		if !ok {
			stats = &RegionStats{Region: r.Region}
			index[r.Region] = stats
		}
		stats.Transactions++
		sums[r.Region] = sums[r.Region].Add(r.Amount())
		total = total.Add(r.Amount())
	}

	result := make([]RegionStats, 0, len(index))
	for region, stats := range index {
		stats.Revenue = round(sums[region])
		stats.Share = decimal.Zero
		if total.IsPositive() {
			stats.Share = round(sums[region].Div(total).Mul(hundred))
		}
		result = append(result, *stats)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].Revenue.Equal(result[j].Revenue) {
			return result[i].Revenue.GreaterThan(result[j].Revenue)
		}
		return result[i].Region < result[j].Region
	})
	return result
}

// productTotals groups records by product name
func productTotals(records []*models.SalesRecord) []ProductStats {
	index := make(map[string]*ProductStats)
	sums := make(map[string]decimal.Decimal)

	for _, r := range records {
		stats, ok := index[r.ProductName]
		if !ok {
			stats = &ProductStats{Name: r.ProductName}
			index[r.ProductName] = stats
		}
		stats.Quantity += r.Quantity
		sums[r.ProductName] = sums[r.ProductName].Add(r.Amount())
	}

	result := make([]ProductStats, 0, len(index))
	for name, stats := range index {
		stats.Revenue = round(sums[name])
		result = append(result, *stats)
	}
	return result
}

// TopProducts returns the n products with the highest revenue. Ties are
// ordered by product name. A non-positive n uses DefaultTopProducts.
func TopProducts(records []*models.SalesRecord, n int) []ProductStats {
	if n <= 0 {
		n = DefaultTopProducts
	}

	products := productTotals(records)
	sort.Slice(products, func(i, j int) bool {
		if !products[i].Revenue.Equal(products[j].Revenue) {
			return products[i].Revenue.GreaterThan(products[j].Revenue)
		}
		return products[i].Name < products[j].Name
	})

	if len(products) > n {
		products = products[:n]
	}
	return products
}

// CustomerSummary maps each customer to total spent, purchase count and
// average order value.
func CustomerSummary(records []*models.SalesRecord) map[string]CustomerStats {
	sums := make(map[string]decimal.Decimal)
	counts := make(map[string]int)

	for _, r := range records {
		sums[r.CustomerID] = sums[r.CustomerID].Add(r.Amount())
		counts[r.CustomerID]++
	}

	result := make(map[string]CustomerStats, len(sums))
	for id, sum := range sums {
		count := counts[id]
		result[id] = CustomerStats{
			CustomerID:   id,
			TotalSpent:   round(sum),
			Count:        count,
			AverageOrder: round(sum.Div(decimal.NewFromInt(int64(count)))),
		}
	}
	return result
}

// TopCustomers returns the n customers who spent the most. Ties are ordered
// by customer id. A non-positive n uses DefaultTopCustomers.
func TopCustomers(records []*models.SalesRecord, n int) []CustomerStats {
	if n <= 0 {
		n = DefaultTopCustomers
	}

	summary := CustomerSummary(records)
	customers := make([]CustomerStats, 0, len(summary))
	for _, stats := range summary {
		customers = append(customers, stats)
	}

	sort.Slice(customers, func(i, j int) bool {
		if !customers[i].TotalSpent.Equal(customers[j].TotalSpent) {
			return customers[i].TotalSpent.GreaterThan(customers[j].TotalSpent)
		}
		return customers[i].CustomerID < customers[j].CustomerID
	})

	if len(customers) > n {
		customers = customers[:n]
	}
	return customers
}

type dayAccumulator struct {
	revenue   decimal.Decimal
	count     int
	customers map[string]struct{}
}

// groupByDate accumulates per-date totals and returns the dates in the order
// they were first seen.
func groupByDate(records []*models.SalesRecord) (map[string]*dayAccumulator, []string) {
	days := make(map[string]*dayAccumulator)
	order := make([]string, 0)

	for _, r := range records {
		day, ok := days[r.Date]
		if !ok {
			day = &dayAccumulator{customers: make(map[string]struct{})}
			days[r.Date] = day
			order = append(order, r.Date)
		}
		day.revenue = day.revenue.Add(r.Amount())
		day.count++
		day.customers[r.CustomerID] = struct{}{}
	}
	return days, order
}

// DailyTrend returns per-date revenue, transaction count and number of
// distinct customers, ordered by date ascending.
func DailyTrend(records []*models.SalesRecord) []DailyStats {
	days, order := groupByDate(records)
	sort.Strings(order)

	result := make([]DailyStats, 0, len(order))
	for _, date := range order {
		day := days[date]
		result = append(result, DailyStats{
			Date:            date,
			Revenue:         round(day.revenue),
			Count:           day.count,
			UniqueCustomers: len(day.customers),
		})
	}
	return result
}

// PeakSalesDay returns the date with the highest revenue. When several dates
// share the highest revenue the one encountered first wins. The boolean is
// false for an empty record set.
func PeakSalesDay(records []*models.SalesRecord) (PeakDay, bool) {
	days, order := groupByDate(records)
	if len(order) == 0 {
		return PeakDay{}, false
	}

	best := order[0]
	for _, date := range order[1:] {
		if days[date].revenue.GreaterThan(days[best].revenue) {
			best = date
		}
	}

	return PeakDay{
		Date:    best,
		Revenue: round(days[best].revenue),
		Count:   days[best].count,
	}, true
}

// LowPerformingProducts returns products whose total quantity is below
// threshold, ordered by quantity ascending and then by name. A non-positive
// threshold uses DefaultLowThreshold.
func LowPerformingProducts(records []*models.SalesRecord, threshold int) []ProductStats {
	if threshold <= 0 {
		threshold = DefaultLowThreshold
	}

	low := make([]ProductStats, 0)
	for _, p := range productTotals(records) {
		if p.Quantity < threshold {
			low = append(low, p)
		}
	}

	sort.Slice(low, func(i, j int) bool {
		if low[i].Quantity != low[j].Quantity {
			return low[i].Quantity < low[j].Quantity
		}
		return low[i].Name < low[j].Name
	})
	return low
}

// Overview computes total revenue, transaction count, average order value
// and the covered date range.
func Overview(records []*models.SalesRecord) OverviewStats {
	total := sumAmounts(records)
	stats := OverviewStats{
		TotalRevenue:      round(total),
		TotalTransactions: len(records),
		AverageOrderValue: decimal.Zero,
	}

	if len(records) == 0 {
		return stats
	}

	stats.AverageOrderValue = round(total.Div(decimal.NewFromInt(int64(len(records)))))
	stats.FirstDate = records[0].Date
	stats.LastDate = records[0].Date
	for _, r := range records[1:] {
		if r.Date < stats.FirstDate {
			stats.FirstDate = r.Date
		}
		if r.Date > stats.LastDate {
			stats.LastDate = r.Date
		}
	}
	return stats
}
