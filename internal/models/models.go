package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// FieldCount is the number of pipe-separated fields in a sales line
const FieldCount = 8

// Field names in their canonical line order
var FieldNames = [FieldCount]string{
	"TransactionID",
	"Date",
	"ProductID",
	"ProductName",
	"Quantity",
	"UnitPrice",
	"CustomerID",
	"Region",
}

// Identifier prefixes required by the business rules
const (
	TransactionPrefix = "T"
	ProductPrefix     = "P"
	CustomerPrefix    = "C"
)

// SalesRecord is one parsed line of the sales log. Records are treated as
// read-only once the parser has produced them.
type SalesRecord struct {
	TransactionID string          `json:"transaction_id" yaml:"transaction_id"`
	Date          string          `json:"date" yaml:"date"`
	ProductID     string          `json:"product_id" yaml:"product_id"`
	ProductName   string          `json:"product_name" yaml:"product_name"`
	Quantity      int             `json:"quantity" yaml:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price" yaml:"unit_price"`
	CustomerID    string          `json:"customer_id" yaml:"customer_id"`
	Region        string          `json:"region" yaml:"region"`
}

// NewSalesRecord creates a new SalesRecord instance
func NewSalesRecord(trxID, date, productID, productName string, quantity int, unitPrice decimal.Decimal, customerID, region string) *SalesRecord {
	return &SalesRecord{
		TransactionID: trxID,
		Date:          date,
		ProductID:     productID,
		ProductName:   productName,
		Quantity:      quantity,
		UnitPrice:     unitPrice,
		CustomerID:    customerID,
		Region:        region,
	}
}

// Amount returns quantity × unit price
func (r *SalesRecord) Amount() decimal.Decimal {
	return r.UnitPrice.Mul(decimal.NewFromInt(int64(r.Quantity)))
}

// MissingFields lists the names of required string fields that are empty
func (r *SalesRecord) MissingFields() []string {
	var missing []string
	values := map[string]string{
		"TransactionID": r.TransactionID,
		"Date":          r.Date,
		"ProductID":     r.ProductID,
		"ProductName":   r.ProductName,
		"CustomerID":    r.CustomerID,
		"Region":        r.Region,
	}
	for _, name := range FieldNames {
		if v, ok := values[name]; ok && strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	return missing
}

// Fields returns the record as its 8 line fields
func (r *SalesRecord) Fields() []string {
	return []string{
		r.TransactionID,
		r.Date,
		r.ProductID,
		r.ProductName,
		strconv.Itoa(r.Quantity),
		r.UnitPrice.String(),
		r.CustomerID,
		r.Region,
	}
}

func (r *SalesRecord) String() string {
	return fmt.Sprintf("SalesRecord{ID: %s, Date: %s, Product: %s, Qty: %d, Price: %s, Customer: %s, Region: %s}",
		r.TransactionID, r.Date, r.ProductID, r.Quantity, r.UnitPrice.StringFixed(2), r.CustomerID, r.Region)
}

// Equals compares two records field by field
func (r *SalesRecord) Equals(other *SalesRecord) bool {
	if other == nil {
		return false
	}
	return r.TransactionID == other.TransactionID &&
		r.Date == other.Date &&
		r.ProductID == other.ProductID &&
		r.ProductName == other.ProductName &&
		r.Quantity == other.Quantity &&
		r.UnitPrice.Equal(other.UnitPrice) &&
		r.CustomerID == other.CustomerID &&
		r.Region == other.Region
}

// MarshalJSON renders the unit price as a fixed two-decimal string
func (r *SalesRecord) MarshalJSON() ([]byte, error) {
	type Alias SalesRecord
	return json.Marshal(&struct {
		UnitPrice string `json:"unit_price"`
		Amount    string `json:"amount"`
		*Alias
	}{
		UnitPrice: r.UnitPrice.StringFixed(2),
		Amount:    r.Amount().StringFixed(2),
		Alias:     (*Alias)(r),
	})
}

// Product is an entry of the external product catalog
type Product struct {
	ID       int     `json:"id" yaml:"id"`
	Title    string  `json:"title" yaml:"title"`
	Category string  `json:"category" yaml:"category"`
	Brand    string  `json:"brand" yaml:"brand"`
	Price    float64 `json:"price" yaml:"price"`
	Rating   float64 `json:"rating" yaml:"rating"`
}

// EnrichedRecord is a sales record joined with catalog metadata
type EnrichedRecord struct {
	Record      *SalesRecord `json:"record" yaml:"record"`
	APIMatch    bool         `json:"api_match" yaml:"api_match"`
	APICategory string       `json:"api_category,omitempty" yaml:"api_category,omitempty"`
	APIBrand    string       `json:"api_brand,omitempty" yaml:"api_brand,omitempty"`
	APIRating   *float64     `json:"api_rating,omitempty" yaml:"api_rating,omitempty"`
}

// Fields returns the enriched record as line fields: the 8 sales fields
// followed by category, brand, rating and match flag.
func (e *EnrichedRecord) Fields() []string {
	rating := ""
	if e.APIRating != nil {
		rating = strconv.FormatFloat(*e.APIRating, 'f', -1, 64)
	}
	return append(e.Record.Fields(),
		e.APICategory,
		e.APIBrand,
		rating,
		strconv.FormatBool(e.APIMatch),
	)
}

// ParseDecimalFromString parses a decimal value, stripping thousands separators
func ParseDecimalFromString(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("amount string cannot be empty")
	}

	s = strings.ReplaceAll(s, ",", "")

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid decimal format '%s': %w", s, err)
	}
	return d, nil
}

// ParseQuantity parses an integer quantity, stripping thousands separators
func ParseQuantity(s string) (int, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, fmt.Errorf("quantity cannot be empty")
	}

	q, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid quantity '%s': %w", s, err)
	}
	return q, nil
}

// CleanProductName removes commas and surrounding whitespace from a name
func CleanProductName(name string) string {
	return strings.TrimSpace(strings.ReplaceAll(name, ",", ""))
}

// ProductNumber extracts the numeric part of a product id ("P101" -> 101)
func ProductNumber(productID string) (int, bool) {
	digits := strings.TrimLeft(strings.TrimSpace(productID), "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz")
	if digits == "" {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}

// FieldError names the raw field that could not be converted. Field is
// "line" when the field count is wrong.
type FieldError struct {
	Field string
	Value string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// CreateSalesRecordFromFields builds a record from the 8 raw line fields.
// Only structural problems are reported here, as a *FieldError; business
// rules are checked by the validator.
func CreateSalesRecordFromFields(fields []string) (*SalesRecord, error) {
	if len(fields) != FieldCount {
		return nil, &FieldError{
			Field: "line",
			Value: fmt.Sprintf("%d fields", len(fields)),
			Err:   fmt.Errorf("expected %d fields, got %d", FieldCount, len(fields)),
		}
	}

	quantity, err := ParseQuantity(fields[4])
	if err != nil {
		return nil, &FieldError{Field: "Quantity", Value: fields[4], Err: err}
	}

	price, err := ParseDecimalFromString(fields[5])
	if err != nil {
		return nil, &FieldError{Field: "UnitPrice", Value: fields[5], Err: err}
	}

	return NewSalesRecord(
		strings.TrimSpace(fields[0]),
		strings.TrimSpace(fields[1]),
		strings.TrimSpace(fields[2]),
		CleanProductName(fields[3]),
		quantity,
		price,
		strings.TrimSpace(fields[6]),
		strings.TrimSpace(fields[7]),
	), nil
}
