package fundamentals

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/finview/internal/models"
)

func TestSummarize(t *testing.T) {
	p := decodePayload(t, `{
	  "financials": {
	    "ttm": {"revenue": 1500000000, "eps_diluted": 6.13, "operating_income": 3000000},
	    "quarterly": {"fcf": [1, 2, 3]}
	  }
	}`)

	cards := Summarize(p, "$")
	require.Len(t, cards, len(models.CanonicalMetrics))

	byName := make(map[string]models.MetricCard, len(cards))
	for i, card := range cards {
		assert.Equal(t, models.CanonicalMetrics[i].Name, card.Name)
		byName[card.Name] = card
	}

	assert.Equal(t, "$1.50B", byName[models.MetricRevenue].Formatted)
	assert.Equal(t, "$6.13", byName[models.MetricEPSDiluted].Formatted)
	assert.True(t, byName[models.MetricEPSDiluted].PerShare)
	assert.False(t, byName[models.MetricRevenue].PerShare)
	assert.Equal(t, "$3.00M", byName[models.MetricOperatingProfit].Formatted)
	assert.Equal(t, "$2.37M", byName[models.MetricNOPAT].Formatted)
	assert.Equal(t, "N/A", byName[models.MetricFreeCashFlow].Formatted)
	assert.NotEmpty(t, byName[models.MetricNOPAT].Description)
}

func TestSummarizeNilPayload(t *testing.T) {
	for _, card := range Summarize(nil, "$") {
		assert.Equal(t, "N/A", card.Formatted)
	}
}

func TestFormatTable(t *testing.T) {
	p := decodePayload(t, historyDoc)
	table := BuildHistory(p, models.Year(2020), models.TTM())

	formatted := FormatTable(table, "$")
	assert.Equal(t, table.Metrics, formatted.Metrics)
	assert.Equal(t, table.Columns, formatted.Columns)
	assert.Equal(t, []string{"N/A", "$100.00", "$200.00", "$250.00"}, formatted.Rows[models.MetricRevenue])
}

func TestFormatTableEmpty(t *testing.T) {
	formatted := FormatTable(models.EmptyTable(), "$")
	assert.Empty(t, formatted.Metrics)
	assert.Empty(t, formatted.Columns)
	assert.NotNil(t, formatted.Rows)
}
