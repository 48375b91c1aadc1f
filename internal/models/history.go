package models

import (
	"fmt"
	"strconv"
	"strings"
)

// TTMLabel is the column label and selector value for the trailing-twelve-month column.
const TTMLabel = "TTM"

// YearBound is one end of a requested window: a calendar year or the
// "current trailing twelve months" sentinel.
type YearBound struct {
	Year int
	TTM  bool
}

// Year returns a bound on a calendar year.
func Year(y int) YearBound {
	return YearBound{Year: y}
}

// TTM returns the trailing-twelve-month sentinel bound.
func TTM() YearBound {
	return YearBound{TTM: true}
}

// ParseYearBound parses "2021" or "TTM" (case-insensitive).
func ParseYearBound(s string) (YearBound, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, TTMLabel) {
		return TTM(), nil
	}
	y, err := strconv.Atoi(s)
	if err != nil {
		return YearBound{}, fmt.Errorf("invalid year %q: %w", s, err)
	}
	return Year(y), nil
}

// String renders the bound as it appears in selectors and query strings.
func (b YearBound) String() string {
	if b.TTM {
		return TTMLabel
	}
	return strconv.Itoa(b.Year)
}

// Column is one table column: a fiscal year or the TTM column.
type Column struct {
	Label string `json:"label"`
	Year  int    `json:"year,omitempty"`
	TTM   bool   `json:"ttm,omitempty"`
}

// YearColumn returns the column for a fiscal year.
func YearColumn(y int) Column {
	return Column{Label: strconv.Itoa(y), Year: y}
}

// TTMColumn returns the trailing-twelve-month column.
func TTMColumn() Column {
	return Column{Label: TTMLabel, TTM: true}
}

// HistoricalTable is metrics x periods. Rows[metric][i] is the cell under Columns[i].
// An empty table has no metrics and no columns.
type HistoricalTable struct {
	Metrics []string            `json:"metrics"`
	Columns []Column            `json:"columns"`
	Rows    map[string][]Number `json:"rows"`
}

// EmptyTable returns the "no data for this request" table.
func EmptyTable() *HistoricalTable {
	return &HistoricalTable{
		Metrics: []string{},
		Columns: []Column{},
		Rows:    map[string][]Number{},
	}
}

// IsEmpty reports whether the table has nothing to show.
func (t *HistoricalTable) IsEmpty() bool {
	return t == nil || len(t.Columns) == 0 || len(t.Metrics) == 0
}

// Cell returns the value for a metric under column index col.
func (t *HistoricalTable) Cell(metric string, col int) Number {
	if t == nil {
		return Absent
	}
	row, ok := t.Rows[metric]
	if !ok || col < 0 || col >= len(row) {
		return Absent
	}
	return row[col]
}

// FormattedTable is the display variant of a HistoricalTable.
type FormattedTable struct {
	Metrics []string            `json:"metrics"`
	Columns []Column            `json:"columns"`
	Rows    map[string][]string `json:"rows"`
}

// MetricCard is one summary card: a metric's trailing-twelve-month value.
type MetricCard struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Value       Number `json:"value"`
	Formatted   string `json:"formatted"`
	PerShare    bool   `json:"per_share"`
}
