// Package taxcalc computes a simplified Bangladesh income-tax return.
//
// The slab figures and the rebate caps are illustrative placeholders and are
// not statutory values.
package taxcalc

import (
	"maps"
	"math"
	"sort"
)

// Slab is one bracket of a progressive tax table. Width is the size of the
// bracket; math.Inf(1) marks the open-ended top bracket.
type Slab struct {
	Width float64 `json:"width"`
	Rate  float64 `json:"rate"`
}

// SlabTable is consumed in order; each slab taxes only the slice of income
// that falls inside it.
type SlabTable []Slab

// DefaultSlabs is the illustrative table used by ComputeTax.
var DefaultSlabs = SlabTable{
	{Width: 350000, Rate: 0.00},
	{Width: 100000, Rate: 0.05},
	{Width: 400000, Rate: 0.10},
	{Width: 500000, Rate: 0.15},
	{Width: math.Inf(1), Rate: 0.20},
}

const (
	// RebateInvestmentRate is the share of eligible investment granted as rebate.
	RebateInvestmentRate = 0.15
	// RebateTaxCapRate caps the rebate at this share of the slab tax.
	RebateTaxCapRate = 0.15
)

// Tax walks the table marginally and returns the tax on taxable.
func (t SlabTable) Tax(taxable float64) float64 {
	remaining := taxable
	tax := 0.0
	for _, slab := range t {
		if remaining <= 0 {
			break
		}
		applied := math.Min(remaining, slab.Width)
		tax += applied * slab.Rate
		remaining -= applied
	}
	return tax
}

// Breakdown keeps copies of the inputs next to the pre-rebate slab tax for
// audit.
type Breakdown struct {
	IncomeItems map[string]float64 `json:"income_items"`
	Deductions  map[string]float64 `json:"deductions"`
	Investments map[string]float64 `json:"investments"`
	SlabTaxRaw  float64            `json:"slab_tax_raw"`
}

// Computation is the result of ComputeTax. Values are never mutated after
// construction.
//
// Surcharge is always 0: the high-income surcharge rule is not implemented yet.
// Refundable is always 0: advance-tax reconciliation is not implemented yet.
type Computation struct {
	GrossIncome     float64   `json:"gross_income"`
	TotalDeductions float64   `json:"total_deductions"`
	TaxableIncome   float64   `json:"taxable_income"`
	SlabTax         float64   `json:"slab_tax"`
	Surcharge       float64   `json:"surcharge"`
	Rebate          float64   `json:"rebate"`
	Payable         float64   `json:"payable"`
	Refundable      float64   `json:"refundable"`
	Breakdown       Breakdown `json:"breakdown"`
}

// ComputeTax derives taxable income, slab tax, rebate and net payable from
// itemised income, deductions and investments using DefaultSlabs.
func ComputeTax(incomeItems, deductions, investments map[string]float64) Computation {
	gross := Sum(incomeItems)
	totalDeductions := Sum(deductions)
	taxable := math.Max(gross-totalDeductions, 0)

	slabTax := DefaultSlabs.Tax(taxable)
	surcharge := 0.0

	investmentTotal := Sum(investments)
	rebate := math.Min(investmentTotal*RebateInvestmentRate, slabTax*RebateTaxCapRate)
	payable := math.Max(slabTax+surcharge-rebate, 0)

	return Computation{
		GrossIncome:     gross,
		TotalDeductions: totalDeductions,
		TaxableIncome:   taxable,
		SlabTax:         slabTax,
		Surcharge:       surcharge,
		Rebate:          rebate,
		Payable:         payable,
		Refundable:      0,
		Breakdown: Breakdown{
			IncomeItems: maps.Clone(incomeItems),
			Deductions:  maps.Clone(deductions),
			Investments: maps.Clone(investments),
			SlabTaxRaw:  slabTax,
		},
	}
}

// Sum adds the values of m in sorted key order so the float result does not
// depend on map iteration order.
func Sum(m map[string]float64) float64 {
	if len(m) == 0 {
		return 0
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	total := 0.0
	for _, k := range keys {
		total += m[k]
	}
	return total
}
