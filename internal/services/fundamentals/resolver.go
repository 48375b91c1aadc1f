// Package fundamentals derives dashboard metrics from a provider payload.
// Every function here is pure and total: shape problems in the payload
// degrade to absent values or an empty table, never to an error.
package fundamentals

import (
	"github.com/ternarybob/finview/internal/models"
)

// quartersPerYear is how many quarterly values make a trailing twelve months.
const quartersPerYear = 4

// ResolveTTM returns a metric's trailing-twelve-month value.
//
// An explicit TTM figure for the first alias that has one wins. Failing
// that, the first alias whose quarterly series holds at least four numeric
// values yields the sum of the last four of those values. Absent cells are
// dropped before counting, so the four need not be consecutive quarters.
func ResolveTTM(payload *models.Payload, aliases models.Aliases) models.Number {
	if payload == nil {
		return models.Absent
	}

	for _, name := range aliases {
		if v, ok := payload.Financials.TTM[name]; ok && !v.IsAbsent() {
			return v
		}
	}

	for _, name := range aliases {
		series, ok := payload.Financials.Quarterly[name]
		if !ok {
			continue
		}
		values := series.Numeric()
		if len(values) < quartersPerYear {
			continue
		}
		sum := 0.0
		for _, v := range values[len(values)-quartersPerYear:] {
			sum += v
		}
		return models.Some(sum)
	}

	return models.Absent
}

// ResolveNOPAT returns trailing-twelve-month NOPAT from the resolved
// operating income and income tax.
func ResolveNOPAT(payload *models.Payload) models.Number {
	op := ResolveTTM(payload, models.Aliases{models.FieldOperatingIncome})
	tax := ResolveTTM(payload, models.Aliases{models.FieldIncomeTax})
	return models.NOPAT(op, tax)
}

// ResolveMetric returns the trailing-twelve-month value of a canonical metric.
func ResolveMetric(payload *models.Payload, spec models.MetricSpec) models.Number {
	if spec.Derived {
		return ResolveNOPAT(payload)
	}
	return ResolveTTM(payload, spec.Aliases)
}
