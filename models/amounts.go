package models

import (
	"bytes"
	"encoding/json"
	"fmt"

	"taxlaw-backend/taxcalc"
)

// Amounts is a map of named money amounts. In JSON each value may be a
// number or a human-entered string such as "1,200,000".
type Amounts map[string]float64

// UnmarshalJSON implements json.Unmarshaler.
func (a *Amounts) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*a = nil
		return nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: amounts must be an object", taxcalc.ErrInvalidInput)
	}

	out := make(Amounts, len(raw))
	for key, v := range raw {
		var text string
		if len(v) > 0 && v[0] == '"' {
			if err := json.Unmarshal(v, &text); err != nil {
				return fmt.Errorf("%w: %s", taxcalc.ErrInvalidInput, key)
			}
		} else {
			text = string(v)
		}
		amount, err := taxcalc.ParseAmount(text)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		out[key] = amount
	}
	*a = out
	return nil
}
