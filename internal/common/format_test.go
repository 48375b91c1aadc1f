package common

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ternarybob/finview/internal/models"
)

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		name   string
		value  models.Number
		symbol string
		want   string
	}{
		{"absent", models.Absent, "$", "N/A"},
		{"nan", models.Some(math.NaN()), "$", "N/A"},
		{"infinity", models.Some(math.Inf(1)), "$", "N/A"},
		{"billions", models.Some(1_500_000_000), "$", "$1.50B"},
		{"negative millions", models.Some(-2_500_000), "$", "$-2.50M"},
		{"small", models.Some(999), "$", "$999.00"},
		{"zero", models.Some(0), "$", "$0.00"},
		{"thousands", models.Some(12345.678), "$", "$12,345.68"},
		{"negative thousands", models.Some(-999999.5), "$", "$-999,999.50"},
		{"exactly one million", models.Some(1_000_000), "$", "$1.00M"},
		{"exactly one billion", models.Some(1_000_000_000), "$", "$1.00B"},
		{"trillions stay in billions", models.Some(2_345_000_000_000), "$", "$2345.00B"},
		{"per share", models.Some(6.13), "$", "$6.13"},
		{"other symbol", models.Some(1_250_000), "€", "€1.25M"},
		{"empty symbol", models.Some(1000), "", "1,000.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatCurrency(tt.value, tt.symbol))
		})
	}
}

func TestFormatFloat(t *testing.T) {
	assert.Equal(t, "$1.50B", FormatFloat(1.5e9, "$"))
}

func TestCurrencySymbol(t *testing.T) {
	assert.Equal(t, "$", CurrencySymbol("USD"))
	assert.Equal(t, "$", CurrencySymbol(""))
	assert.Equal(t, "A$", CurrencySymbol("aud"))
	assert.Equal(t, "£", CurrencySymbol("GBP"))
	assert.Equal(t, "XYZ ", CurrencySymbol("XYZ"))
}
