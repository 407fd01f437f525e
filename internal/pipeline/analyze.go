package pipeline

import (
	"context"
	"time"

	"sales-analytics-service/internal/analytics"
	"sales-analytics-service/internal/catalog"
	"sales-analytics-service/internal/models"
	"sales-analytics-service/internal/parsers"
	"sales-analytics-service/pkg/errors"
	"sales-analytics-service/pkg/logger"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc"
)

const maxReportedParseErrors = 10

// Analyze validates a loaded dataset and computes the report metrics. When
// enrichment is requested it runs concurrently with the metric computation.
func (s *Service) Analyze(ctx context.Context, dataset *Dataset, request *Request) (*Result, error) {
	if err := request.Validate(); err != nil {
		return nil, err
	}

	startTime := time.Now()
	result := &Result{
		RunID:       uuid.NewString(),
		GeneratedAt: startTime,
		InputFile:   dataset.InputFile,
		Filters:     request.Filters,
	}

	log := s.logger.WithField("run_id", result.RunID)
	log.WithFields(logger.Fields{
		"input":   dataset.InputFile,
		"records": len(dataset.Records),
		"filters": request.Filters.String(),
		"enrich":  request.Enrich,
	}).Info("Starting sales analysis")

	valid, summary, err := s.validator.Validate(dataset.Records, request.Filters)
	if err != nil {
		return nil, err
	}
	if dataset.ParseStats != nil {
		summary.AddMalformed(dataset.ParseStats.Malformed)
		result.Encoding = dataset.ParseStats.Encoding
		result.ParseErrors = dataset.ParseStats.GetSampleErrors(maxReportedParseErrors)
	}
	result.Summary = summary

	if len(valid) == 0 {
		log.Warn("No valid records remain after cleaning and filtering")
	}

	var wg conc.WaitGroup
	wg.Go(func() {
		result.Metrics = analytics.Compute(valid, s.config.Analytics)
	})
	if request.Enrich {
		wg.Go(func() {
			enriched, stats := s.enrich(ctx, valid)
			result.EnrichedRecords = enriched
			result.Enrichment = &stats
		})
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, errors.InternalError(errors.CodeCancelled, "sales analysis", err)
	}

	if request.EnrichedOutput != "" {
		if err := parsers.WriteEnrichedFile(s.fs, request.EnrichedOutput, result.EnrichedRecords); err != nil {
			return nil, err
		}
		log.WithField("path", request.EnrichedOutput).Info("Enriched data written")
	}

	result.ProcessingDuration = time.Since(startTime)

	log.WithFields(logger.Fields{
		"valid":         summary.FinalCount,
		"malformed":     summary.Malformed,
		"invalid":       summary.InvalidRecords,
		"total_revenue": result.Metrics.Overview.TotalRevenue.StringFixed(2),
		"duration":      result.ProcessingDuration.String(),
	}).Info("Sales analysis completed")

	return result, nil
}

// enrich fetches the catalog and joins it onto records. A failed fetch does
// not fail the run: every record is reported as unmatched.
func (s *Service) enrich(ctx context.Context, records []*models.SalesRecord) ([]*models.EnrichedRecord, catalog.EnrichmentStats) {
	products, err := s.catalog.FetchAll(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("Product catalog unavailable, continuing without enrichment")
		enriched, stats := catalog.Enrich(records, nil)
		stats.FetchError = err.Error()
		return enriched, stats
	}

	enriched, stats := catalog.Enrich(records, catalog.NewIndex(products))
	s.logger.WithFields(logger.Fields{
		"enriched":     stats.Enriched,
		"total":        stats.Total,
		"success_rate": stats.SuccessRate.StringFixed(2),
	}).Info("Records enriched")
	return enriched, stats
}
