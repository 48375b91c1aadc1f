package fundamentals

import (
	"github.com/ternarybob/finview/internal/common"
	"github.com/ternarybob/finview/internal/models"
)

// Summarize returns one TTM card per canonical metric, in row order.
func Summarize(payload *models.Payload, symbol string) []models.MetricCard {
	cards := make([]models.MetricCard, 0, len(models.CanonicalMetrics))
	for _, spec := range models.CanonicalMetrics {
		value := ResolveMetric(payload, spec)
		cards = append(cards, models.MetricCard{
			Name:        spec.Name,
			Description: spec.Description,
			Value:       value,
			Formatted:   common.FormatCurrency(value, symbol),
			PerShare:    spec.PerShare,
		})
	}
	return cards
}

// FormatTable renders every cell of a table with the currency formatter.
// Shape is preserved; absent cells become "N/A".
func FormatTable(table *models.HistoricalTable, symbol string) *models.FormattedTable {
	out := &models.FormattedTable{
		Metrics: []string{},
		Columns: []models.Column{},
		Rows:    map[string][]string{},
	}
	if table.IsEmpty() {
		return out
	}

	out.Metrics = append(out.Metrics, table.Metrics...)
	out.Columns = append(out.Columns, table.Columns...)
	for _, metric := range table.Metrics {
		cells := make([]string, len(table.Columns))
		for i := range table.Columns {
			cells[i] = common.FormatCurrency(table.Cell(metric, i), symbol)
		}
		out.Rows[metric] = cells
	}
	return out
}
