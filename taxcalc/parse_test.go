package taxcalc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{in: "1,200,000", want: 1200000},
		{in: " 5000.50 ", want: 5000.5},
		{in: "৳ 25,000", want: 25000},
		{in: "0", want: 0},
		{in: "", wantErr: true},
		{in: "twelve", wantErr: true},
		{in: "12abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestSanitizeNumber(t *testing.T) {
	assert.InDelta(t, 1500.0, SanitizeNumber("1,500"), 1e-9)
	assert.Zero(t, SanitizeNumber("n/a"))
}
