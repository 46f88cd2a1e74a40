package taxcalc

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var amountReplacer = strings.NewReplacer(",", "", "_", "", " ", "", "৳", "", "Tk", "", "BDT", "")

// ParseAmount parses a human-entered amount such as "1,200,000" or
// " 5000.50 ". Thousands separators and a taka prefix are ignored.
func ParseAmount(s string) (float64, error) {
	cleaned := amountReplacer.Replace(strings.TrimSpace(s))
	if cleaned == "" {
		return 0, fmt.Errorf("%w: empty amount", ErrInvalidInput)
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidInput, s)
	}
	f, _ := d.Float64()
	return f, nil
}

// SanitizeNumber is the lenient form of ParseAmount: anything unparseable
// becomes 0.
func SanitizeNumber(s string) float64 {
	f, err := ParseAmount(s)
	if err != nil {
		return 0
	}
	return f
}
