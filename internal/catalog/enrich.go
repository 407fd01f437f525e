package catalog

import (
	"sort"

	"sales-analytics-service/internal/models"

	"github.com/shopspring/decimal"
)

// EnrichmentStats summarizes how many records matched the catalog
type EnrichmentStats struct {
	Total            int             `json:"total" yaml:"total"`
	Enriched         int             `json:"enriched" yaml:"enriched"`
	SuccessRate      decimal.Decimal `json:"success_rate" yaml:"success_rate"`
	FailedProductIDs []string        `json:"failed_product_ids" yaml:"failed_product_ids"`
	CatalogSize      int             `json:"catalog_size" yaml:"catalog_size"`
	FetchError       string          `json:"fetch_error,omitempty" yaml:"fetch_error,omitempty"`
}

// Enrich joins each record with its catalog product. Records are matched by
// the numeric part of their product id. The output keeps input order. A nil
// index matches nothing.
func Enrich(records []*models.SalesRecord, index *Index) ([]*models.EnrichedRecord, EnrichmentStats) {
	stats := EnrichmentStats{
		Total:            len(records),
		SuccessRate:      decimal.Zero,
		FailedProductIDs: make([]string, 0),
		CatalogSize:      index.Size(),
	}

	enriched := make([]*models.EnrichedRecord, 0, len(records))
	failed := make(map[string]struct{})

	for _, r := range records {
		e := &models.EnrichedRecord{Record: r}
		if p, ok := index.Lookup(r.ProductID); ok {
			rating := p.Rating
			e.APIMatch = true
			e.APICategory = p.Category
			e.APIBrand = p.Brand
			e.APIRating = &rating
			stats.Enriched++
		} else {
			failed[r.ProductID] = struct{}{}
		}
		enriched = append(enriched, e)
	}

	for id := range failed {
		stats.FailedProductIDs = append(stats.FailedProductIDs, id)
	}
	sort.Strings(stats.FailedProductIDs)

	stats.SuccessRate = SuccessRate(stats.Enriched, stats.Total)
	return enriched, stats
}

// SuccessRate returns matched/total as a percentage rounded to two places,
// or zero when total is zero.
func SuccessRate(matched, total int) decimal.Decimal {
	if total == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(matched)).
		Div(decimal.NewFromInt(int64(total))).
		Mul(decimal.NewFromInt(100)).
		Round(2)
}
