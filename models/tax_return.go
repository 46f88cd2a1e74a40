package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"taxlaw-backend/taxcalc"
)

// ErrInvalidComputation is returned when a stored computation fails decoding.
var ErrInvalidComputation = errors.New("invalid stored computation")

// TaxReturn is a generated return as persisted in tax_returns.
type TaxReturn struct {
	ID             int64             `json:"id"`
	TIN            string            `json:"tin"`
	AssessmentYear string            `json:"assessment_year"`
	Payable        float64           `json:"payable"`
	Refundable     float64           `json:"refundable"`
	Computation    StoredComputation `json:"computation"`
	Citations      Citations         `json:"citations"`
	CreatedAt      time.Time         `json:"created_at"`
}

// StoredComputation is taxcalc.Computation in a JSON column.
type StoredComputation struct {
	taxcalc.Computation
}

// Value implements driver.Valuer for JSONB
func (c StoredComputation) Value() (driver.Value, error) {
	return json.Marshal(c.Computation)
}

// Scan implements sql.Scanner for JSONB
func (c *StoredComputation) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		return fmt.Errorf("%w: null", ErrInvalidComputation)
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("%w: unsupported column type %T", ErrInvalidComputation, value)
	}
	comp, err := DecodeComputation(raw)
	if err != nil {
		return err
	}
	c.Computation = comp
	return nil
}

// DecodeComputation parses a stored computation and checks that every figure
// is finite and non-negative.
func DecodeComputation(raw []byte) (taxcalc.Computation, error) {
	var comp taxcalc.Computation
	if err := json.Unmarshal(raw, &comp); err != nil {
		return taxcalc.Computation{}, fmt.Errorf("%w: %w", ErrInvalidComputation, err)
	}

	fields := map[string]float64{
		"gross_income":     comp.GrossIncome,
		"total_deductions": comp.TotalDeductions,
		"taxable_income":   comp.TaxableIncome,
		"slab_tax":         comp.SlabTax,
		"surcharge":        comp.Surcharge,
		"rebate":           comp.Rebate,
		"payable":          comp.Payable,
		"refundable":       comp.Refundable,
	}
	for name, v := range fields {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return taxcalc.Computation{}, fmt.Errorf("%w: %s = %v", ErrInvalidComputation, name, v)
		}
	}

	if comp.Breakdown.IncomeItems == nil {
		comp.Breakdown.IncomeItems = map[string]float64{}
	}
	if comp.Breakdown.Deductions == nil {
		comp.Breakdown.Deductions = map[string]float64{}
	}
	if comp.Breakdown.Investments == nil {
		comp.Breakdown.Investments = map[string]float64{}
	}
	return comp, nil
}

// Citations is a JSON array of legal references.
type Citations []string

// Value implements driver.Valuer for JSONB
func (c Citations) Value() (driver.Value, error) {
	if c == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(c))
}

// Scan implements sql.Scanner for JSONB
func (c *Citations) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*c = Citations{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported citations column type %T", value)
	}
	if len(raw) == 0 {
		*c = Citations{}
		return nil
	}
	return json.Unmarshal(raw, (*[]string)(c))
}
