package fundamentals

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/ternarybob/finview/internal/models"
)

// BuildHistory returns the metrics x periods table for the window [start, end].
//
// Annual arrays are right-aligned against the parsed period end dates, one
// field at a time. When end is the TTM sentinel the annual window runs to the
// latest parsed year and a TTM column, filled by ResolveTTM, is appended last.
// start = end = TTM reduces to a single TTM column.
//
// Any problem with the payload yields models.EmptyTable(). The builder does
// not check end >= start; callers validate the window.
func BuildHistory(payload *models.Payload, start, end models.YearBound) (table *models.HistoricalTable) {
	defer func() {
		if r := recover(); r != nil {
			table = models.EmptyTable()
		}
	}()

	if payload == nil {
		return models.EmptyTable()
	}

	years, err := ParseYears(payload.Metadata.PeriodEndDate)
	if err != nil || len(years) == 0 {
		return models.EmptyTable()
	}

	var columns []models.Column
	var selected []int

	switch {
	case start.TTM && end.TTM:
		// TTM-only view
	case start.TTM:
		return models.EmptyTable()
	default:
		effectiveEnd := end.Year
		if end.TTM {
			effectiveEnd = maxYear(years)
		}
		selected = selectYears(years, start.Year, effectiveEnd)
		for _, idx := range selected {
			columns = append(columns, models.YearColumn(years[idx]))
		}
	}

	if end.TTM {
		columns = append(columns, models.TTMColumn())
	}
	if len(columns) == 0 {
		return models.EmptyTable()
	}

	annual := annualRows(payload, len(years))

	table = &models.HistoricalTable{
		Metrics: models.MetricNames(),
		Columns: columns,
		Rows:    make(map[string][]models.Number, len(models.CanonicalMetrics)),
	}

	for _, spec := range models.CanonicalMetrics {
		row := make([]models.Number, 0, len(columns))
		for _, idx := range selected {
			row = append(row, annual[spec.Name][idx])
		}
		if end.TTM {
			row = append(row, ResolveMetric(payload, spec))
		}
		table.Rows[spec.Name] = row
	}

	return table
}

// ParseYears converts period end dates ("2022-09-30") to calendar years by
// taking the text before the first '-'. A single bad entry fails the lot.
func ParseYears(dates []string) ([]int, error) {
	years := make([]int, len(dates))
	for i, date := range dates {
		head, _, _ := strings.Cut(strings.TrimSpace(date), "-")
		y, err := strconv.Atoi(head)
		if err != nil {
			return nil, fmt.Errorf("period end date %d (%q): %w", i, date, err)
		}
		years[i] = y
	}
	return years, nil
}

// AlignRight places data against n period slots so the last element of data
// lands in the last slot. Leading slots data does not reach are absent.
// When data is longer than n only its last n elements are kept.
func AlignRight(data models.Series, n int) []models.Number {
	out := make([]models.Number, n)
	if len(data) > n {
		data = data[len(data)-n:]
	}
	copy(out[n-len(data):], data)
	return out
}

// annualRows returns one aligned row of length n per canonical metric.
func annualRows(payload *models.Payload, n int) map[string][]models.Number {
	rows := make(map[string][]models.Number, len(models.CanonicalMetrics))

	for _, spec := range models.CanonicalMetrics {
		if spec.Derived {
			continue
		}
		rows[spec.Name] = make([]models.Number, n)
		for _, name := range spec.Aliases {
			if series, ok := payload.AnnualSeries(name); ok {
				rows[spec.Name] = AlignRight(series, n)
				break
			}
		}
	}

	rows[models.MetricNOPAT] = nopatRow(payload, rows[models.MetricOperatingProfit], n)
	return rows
}

// nopatRow applies the NOPAT rule per period. Slots the aligned income_tax
// array does not reach count as zero tax; a missing income_tax field, or an
// explicit absent entry inside it, falls back to the flat retention rate.
func nopatRow(payload *models.Payload, operating []models.Number, n int) []models.Number {
	row := make([]models.Number, n)

	taxSeries, hasTax := payload.AnnualSeries(models.FieldIncomeTax)
	if !hasTax {
		for i := range row {
			row[i] = models.NOPAT(operating[i], models.Absent)
		}
		return row
	}

	tax := AlignRight(taxSeries, n)
	reach := n - min(len(taxSeries), n)
	for i := range row {
		if i < reach {
			row[i] = models.NOPAT(operating[i], models.Some(0))
			continue
		}
		row[i] = models.NOPAT(operating[i], tax[i])
	}
	return row
}

// selectYears returns the indexes of years inside [from, to], ordered by
// ascending year. A year listed twice resolves to its later index.
func selectYears(years []int, from, to int) []int {
	byYear := make(map[int]int, len(years))
	for i, y := range years {
		if y >= from && y <= to {
			byYear[y] = i
		}
	}

	keys := make([]int, 0, len(byYear))
	for y := range byYear {
		keys = append(keys, y)
	}
	sort.Ints(keys)

	out := make([]int, len(keys))
	for i, y := range keys {
		out[i] = byYear[y]
	}
	return out
}

func maxYear(years []int) int {
	m := years[0]
	for _, y := range years[1:] {
		if y > m {
			m = y
		}
	}
	return m
}
