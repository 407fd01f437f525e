// Package validator applies business rules and user filters to parsed sales
// records and accounts for every record it removes.
package validator

import (
	"fmt"
	"sort"
	"strings"

	"sales-analytics-service/internal/models"
	"sales-analytics-service/pkg/errors"
	"sales-analytics-service/pkg/logger"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
)

// Reasons a record is rejected by the business rules
const (
	ReasonMissingField  = "missing_field"
	ReasonTransactionID = "invalid_transaction_id"
	ReasonProductID     = "invalid_product_id"
	ReasonCustomerID    = "invalid_customer_id"
	ReasonQuantity      = "non_positive_quantity"
	ReasonUnitPrice     = "non_positive_price"
	ReasonMissingRegion = "missing_region"
)

// FilterOptions selects which valid records are kept. A nil bound is
// unbounded and an empty region keeps every region.
type FilterOptions struct {
	Region    string           `json:"region,omitempty" yaml:"region,omitempty"`
	MinAmount *decimal.Decimal `json:"min_amount,omitempty" yaml:"min_amount,omitempty"`
	MaxAmount *decimal.Decimal `json:"max_amount,omitempty" yaml:"max_amount,omitempty"`
}

// Validate rejects negative amount bounds
func (o FilterOptions) Validate() error {
	var err error
	if o.MinAmount != nil && o.MinAmount.IsNegative() {
		err = multierr.Append(err, errors.ConfigurationError(
			errors.CodeOutOfRange, "min_amount", o.MinAmount.String(),
			fmt.Errorf("minimum amount cannot be negative")))
	}
	if o.MaxAmount != nil && o.MaxAmount.IsNegative() {
		err = multierr.Append(err, errors.ConfigurationError(
			errors.CodeOutOfRange, "max_amount", o.MaxAmount.String(),
			fmt.Errorf("maximum amount cannot be negative")))
	}
	return err
}

// IsEmpty reports whether no filter is set
func (o FilterOptions) IsEmpty() bool {
	return o.Region == "" && o.MinAmount == nil && o.MaxAmount == nil
}

// Inverted reports whether min is greater than max, which selects nothing
func (o FilterOptions) Inverted() bool {
	return o.MinAmount != nil && o.MaxAmount != nil && o.MinAmount.GreaterThan(*o.MaxAmount)
}

func (o FilterOptions) String() string {
	parts := make([]string, 0, 3)
	if o.Region != "" {
		parts = append(parts, "region="+o.Region)
	}
	if o.MinAmount != nil {
		parts = append(parts, "min="+o.MinAmount.StringFixed(2))
	}
	if o.MaxAmount != nil {
		parts = append(parts, "max="+o.MaxAmount.StringFixed(2))
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ", ")
}

// Summary accounts for every line of input
type Summary struct {
	TotalRecords   int            `json:"total_records" yaml:"total_records"`
	Malformed      int            `json:"malformed" yaml:"malformed"`
	InvalidRecords int            `json:"invalid_records" yaml:"invalid_records"`
	RegionFiltered int            `json:"region_filtered" yaml:"region_filtered"`
	AmountFiltered int            `json:"amount_filtered" yaml:"amount_filtered"`
	FinalCount     int            `json:"final_count" yaml:"final_count"`
	InvalidReasons map[string]int `json:"invalid_reasons,omitempty" yaml:"invalid_reasons,omitempty"`
}

// AddMalformed records lines the parser could not turn into records
func (s *Summary) AddMalformed(n int) {
	s.Malformed += n
}

// TotalLines is the number of data lines seen, parsed or not
func (s *Summary) TotalLines() int {
	return s.TotalRecords + s.Malformed
}

// Removed is the number of parsed records that did not survive
func (s *Summary) Removed() int {
	return s.InvalidRecords + s.RegionFiltered + s.AmountFiltered
}

func (s *Summary) String() string {
	return fmt.Sprintf("%d lines, %d malformed, %d invalid, %d filtered by region, %d filtered by amount, %d valid",
		s.TotalLines(), s.Malformed, s.InvalidRecords, s.RegionFiltered, s.AmountFiltered, s.FinalCount)
}

// Validator checks records against the business rules and applies filters
type Validator struct {
	logger logger.Logger
}

// NewValidator creates a new Validator
func NewValidator() *Validator {
	return &Validator{logger: logger.WithComponent("validator")}
}

// CheckRecord returns the reason a record breaks a business rule, or "" if
// the record is valid.
func CheckRecord(r *models.SalesRecord) string {
	if len(r.MissingFields()) > 0 {
		if strings.TrimSpace(r.Region) == "" && len(r.MissingFields()) == 1 {
			return ReasonMissingRegion
		}
		return ReasonMissingField
	}
	switch {
	case !strings.HasPrefix(r.TransactionID, models.TransactionPrefix):
		return ReasonTransactionID
	case !strings.HasPrefix(r.ProductID, models.ProductPrefix):
		return ReasonProductID
	case !strings.HasPrefix(r.CustomerID, models.CustomerPrefix):
		return ReasonCustomerID
	case r.Quantity <= 0:
		return ReasonQuantity
	case !r.UnitPrice.IsPositive():
		return ReasonUnitPrice
	}
	return ""
}

// ruleError describes why r failed a business rule
func ruleError(r *models.SalesRecord, reason string) *errors.AppError {
	switch reason {
	case ReasonTransactionID:
		return errors.ValidationError(errors.CodeInvalidPrefix, "TransactionID", r.TransactionID, nil)
	case ReasonProductID:
		return errors.ValidationError(errors.CodeInvalidPrefix, "ProductID", r.ProductID, nil)
	case ReasonCustomerID:
		return errors.ValidationError(errors.CodeInvalidPrefix, "CustomerID", r.CustomerID, nil)
	case ReasonQuantity:
		return errors.ValidationError(errors.CodeInvalidAmount, "Quantity", r.Quantity, nil)
	case ReasonUnitPrice:
		return errors.ValidationError(errors.CodeInvalidAmount, "UnitPrice", r.UnitPrice.String(), nil)
	case ReasonMissingRegion:
		return errors.ValidationError(errors.CodeMissingField, "Region", "", nil)
	default:
		field := "record"
		if missing := r.MissingFields(); len(missing) > 0 {
			field = missing[0]
		}
		return errors.ValidationError(errors.CodeMissingField, field, "", nil)
	}
}

// Validate drops invalid records, then applies the region filter and the
// amount filter, in that order. The input slice is not modified.
func (v *Validator) Validate(records []*models.SalesRecord, opts FilterOptions) ([]*models.SalesRecord, *Summary, error) {
	if err := opts.Validate(); err != nil {
		return nil, nil, err
	}

	summary := &Summary{
		TotalRecords:   len(records),
		InvalidReasons: make(map[string]int),
	}

	valid := make([]*models.SalesRecord, 0, len(records))
	for _, r := range records {
		if reason := CheckRecord(r); reason != "" {
			summary.InvalidRecords++
			summary.InvalidReasons[reason]++
			v.logger.WithError(ruleError(r, reason)).WithFields(logger.Fields{
				"transaction_id": r.TransactionID,
				"reason":         reason,
			}).Debug("Record failed validation")
			continue
		}
		valid = append(valid, r)
	}

	if opts.Region != "" {
		kept := valid[:0:0]
		for _, r := range valid {
			if r.Region == opts.Region {
				kept = append(kept, r)
			}
		}
		summary.RegionFiltered = len(valid) - len(kept)
		valid = kept
	}

	if opts.MinAmount != nil || opts.MaxAmount != nil {
		if opts.Inverted() {
			v.logger.WithField("filter", opts.String()).Warn("Minimum amount exceeds maximum, no records will match")
		}
		kept := valid[:0:0]
		for _, r := range valid {
			if InRange(r.Amount(), opts.MinAmount, opts.MaxAmount) {
				kept = append(kept, r)
			}
		}
		summary.AmountFiltered = len(valid) - len(kept)
		valid = kept
	}

	summary.FinalCount = len(valid)

	v.logger.WithFields(logger.Fields{
		"total":           summary.TotalRecords,
		"invalid":         summary.InvalidRecords,
		"region_filtered": summary.RegionFiltered,
		"amount_filtered": summary.AmountFiltered,
		"valid":           summary.FinalCount,
		"filter":          opts.String(),
	}).Info("Validation completed")

	return valid, summary, nil
}

// InRange reports whether amount lies within [min, max]; nil bounds are open
func InRange(amount decimal.Decimal, lo, hi *decimal.Decimal) bool {
	if lo != nil && amount.LessThan(*lo) {
		return false
	}
	if hi != nil && amount.GreaterThan(*hi) {
		return false
	}
	return true
}

// Ranges describes the filter values available in a data set
type Ranges struct {
	Regions   []string        `json:"regions" yaml:"regions"`
	MinAmount decimal.Decimal `json:"min_amount" yaml:"min_amount"`
	MaxAmount decimal.Decimal `json:"max_amount" yaml:"max_amount"`
	Count     int             `json:"count" yaml:"count"`
}

// DescribeRanges lists the distinct regions and the transaction amount range
// of the records that pass the business rules.
func DescribeRanges(records []*models.SalesRecord) Ranges {
	var ranges Ranges
	seen := make(map[string]struct{})

	for _, r := range records {
		if CheckRecord(r) != "" {
			continue
		}
		amount := r.Amount()
		if ranges.Count == 0 || amount.LessThan(ranges.MinAmount) {
			ranges.MinAmount = amount
		}
		if ranges.Count == 0 || amount.GreaterThan(ranges.MaxAmount) {
			ranges.MaxAmount = amount
		}
		ranges.Count++

		if _, ok := seen[r.Region]; !ok {
			seen[r.Region] = struct{}{}
			ranges.Regions = append(ranges.Regions, r.Region)
		}
	}

	sort.Strings(ranges.Regions)
	return ranges
}
