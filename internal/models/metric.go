package models

// Canonical metric names, in display order.
const (
	MetricRevenue           = "Revenue"
	MetricGrossProfit       = "Gross Profit"
	MetricOperatingProfit   = "Operating Profit"
	MetricEBITDA            = "EBITDA"
	MetricNetIncome         = "Net Income"
	MetricEPSDiluted        = "EPS (Diluted)"
	MetricOperatingCashFlow = "Operating Cash Flow"
	MetricFreeCashFlow      = "Free Cash Flow"
	MetricNOPAT             = "NOPAT"
)

// Provider field names used outside the metric table.
const (
	FieldOperatingIncome = "operating_income"
	FieldIncomeTax       = "income_tax"
)

// FlatTaxRetention is the share of operating income kept when no tax
// figure is available (a flat 21% effective rate).
const FlatTaxRetention = 0.79

// Aliases is an ordered, non-empty list of provider field names for one
// metric. Lookups try each name in order and the first present wins.
type Aliases []string

// MetricSpec describes one canonical metric.
type MetricSpec struct {
	Name        string
	Aliases     Aliases
	Derived     bool
	PerShare    bool
	Description string
}

// CanonicalMetrics is the fixed metric table, in row order.
var CanonicalMetrics = []MetricSpec{
	{
		Name:        MetricRevenue,
		Aliases:     Aliases{"revenue"},
		Description: "Total income from sales of goods and services.",
	},
	{
		Name:        MetricGrossProfit,
		Aliases:     Aliases{"gross_profit"},
		Description: "Revenue less cost of goods sold.",
	},
	{
		Name:        MetricOperatingProfit,
		Aliases:     Aliases{FieldOperatingIncome},
		Description: "Earnings before interest and taxes (EBIT).",
	},
	{
		Name:        MetricEBITDA,
		Aliases:     Aliases{"ebitda"},
		Description: "EBIT plus depreciation and amortization.",
	},
	{
		Name:        MetricNetIncome,
		Aliases:     Aliases{"net_income"},
		Description: "Profit attributable to shareholders after all expenses.",
	},
	{
		Name:        MetricEPSDiluted,
		Aliases:     Aliases{"eps_diluted"},
		PerShare:    true,
		Description: "Net income per diluted share.",
	},
	{
		Name:        MetricOperatingCashFlow,
		Aliases:     Aliases{"cf_cfo", "cfo"},
		Description: "Cash generated by normal business operations.",
	},
	{
		Name:        MetricFreeCashFlow,
		Aliases:     Aliases{"fcf"},
		Description: "Operating cash flow less capital expenditure.",
	},
	{
		Name:        MetricNOPAT,
		Derived:     true,
		Description: "Net operating profit after tax, a leverage-neutral profitability measure.",
	},
}

// MetricNames returns the canonical metric names in row order.
func MetricNames() []string {
	names := make([]string, len(CanonicalMetrics))
	for i, spec := range CanonicalMetrics {
		names[i] = spec.Name
	}
	return names
}

// LookupMetric finds a canonical metric by name.
func LookupMetric(name string) (MetricSpec, bool) {
	for _, spec := range CanonicalMetrics {
		if spec.Name == name {
			return spec, true
		}
	}
	return MetricSpec{}, false
}

// NOPAT applies the per-period rule: operating income less tax when both
// are known, operating income at the flat retention rate when only it is
// known, absent otherwise.
func NOPAT(operatingIncome, incomeTax Number) Number {
	op, ok := operatingIncome.Float()
	if !ok {
		return Absent
	}
	if tax, ok := incomeTax.Float(); ok {
		return Some(op - tax)
	}
	return Some(op * FlatTaxRetention)
}
