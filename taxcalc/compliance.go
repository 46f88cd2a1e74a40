package taxcalc

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrInvalidInput is returned for amounts that are negative or not finite.
var ErrInvalidInput = errors.New("invalid tax input")

// Disclaimer is attached to every generated return.
const Disclaimer = "AI-generated; not a substitute for certified tax lawyer. User responsible for final submission."

const (
	FlagMissingIdentifiers = "Missing mandatory identifiers (TIN or assessment year)"
	FlagMissingSalary      = "Salary component missing or zero"
)

// TaxInput is one taxpayer's submission.
type TaxInput struct {
	TIN            string             `json:"tin"`
	AssessmentYear string             `json:"assessment_year"`
	IncomeItems    map[string]float64 `json:"income_items"`
	Deductions     map[string]float64 `json:"deductions"`
	Investments    map[string]float64 `json:"investments"`
}

// Compute runs ComputeTax over the input maps.
func (in TaxInput) Compute() Computation {
	return ComputeTax(in.IncomeItems, in.Deductions, in.Investments)
}

// Validate rejects negative, NaN and infinite amounts. It does not require
// identifiers; missing identifiers are reported as compliance flags instead.
func (in TaxInput) Validate() error {
	groups := []struct {
		name  string
		items map[string]float64
	}{
		{"income_items", in.IncomeItems},
		{"deductions", in.Deductions},
		{"investments", in.Investments},
	}
	for _, g := range groups {
		for key, v := range g.items {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: %s.%s is not a finite number", ErrInvalidInput, g.name, key)
			}
			if v < 0 {
				return fmt.Errorf("%w: %s.%s is negative", ErrInvalidInput, g.name, key)
			}
		}
	}
	return nil
}

// ComplianceFlags lists advisory problems with the input. An empty result
// means nothing was flagged.
func ComplianceFlags(in TaxInput) []string {
	flags := []string{}
	if strings.TrimSpace(in.TIN) == "" || strings.TrimSpace(in.AssessmentYear) == "" {
		flags = append(flags, FlagMissingIdentifiers)
	}
	if in.IncomeItems["salary"] == 0 {
		flags = append(flags, FlagMissingSalary)
	}
	return flags
}

// DefaultCitations returns the placeholder legal references attached to a
// generated return.
func DefaultCitations() []string {
	return []string{"Section 44(2)(b)", "Income Tax Ordinance 1984"}
}
