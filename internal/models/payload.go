package models

import (
	"bytes"
	"encoding/json"
)

// Payload is the provider's all-data document for one ticker.
// Decoding is lenient: a document that is valid JSON always decodes,
// and shape problems surface as absent cells or empty maps.
type Payload struct {
	Metadata   Metadata   `json:"metadata"`
	Financials Financials `json:"financials"`
}

// UnmarshalJSON accepts any JSON value; a non-object payload is empty.
func (p *Payload) UnmarshalJSON(data []byte) error {
	*p = Payload{}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}

	_ = json.Unmarshal(orNull(raw["metadata"]), &p.Metadata)
	_ = json.Unmarshal(orNull(raw["financials"]), &p.Financials)
	return nil
}

// Metadata carries company identity and the fiscal period end dates.
// PeriodEndDate[i] belongs to annual row i of every annual series.
type Metadata struct {
	Name          string   `json:"name"`
	Currency      string   `json:"currency"`
	PeriodEndDate DateList `json:"period_end_date"`
}

// UnmarshalJSON decodes each field independently so one malformed field
// does not discard the others.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	*m = Metadata{}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}

	m.Name = lenientString(raw["name"])
	m.Currency = lenientString(raw["currency"])
	if v, ok := raw["period_end_date"]; ok {
		_ = json.Unmarshal(v, &m.PeriodEndDate)
	}
	return nil
}

// Financials groups the annual, quarterly and trailing-twelve-month statements.
type Financials struct {
	Annual    SeriesMap `json:"annual"`
	Quarterly SeriesMap `json:"quarterly"`
	TTM       ValueMap  `json:"ttm"`
}

// UnmarshalJSON tolerates missing or mistyped sections.
func (f *Financials) UnmarshalJSON(data []byte) error {
	*f = Financials{}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}

	_ = json.Unmarshal(orNull(raw["annual"]), &f.Annual)
	_ = json.Unmarshal(orNull(raw["quarterly"]), &f.Quarterly)
	_ = json.Unmarshal(orNull(raw["ttm"]), &f.TTM)
	return nil
}

// SeriesMap maps a provider field name to its series.
type SeriesMap map[string]Series

// UnmarshalJSON decodes an object of series; anything else is an empty map.
func (m *SeriesMap) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		*m = nil
		return nil
	}

	out := make(SeriesMap, len(raw))
	for key, value := range raw {
		var s Series
		_ = json.Unmarshal(value, &s)
		out[key] = s
	}
	*m = out
	return nil
}

// ValueMap maps a provider field name to a single cell.
type ValueMap map[string]Number

// UnmarshalJSON decodes an object of cells; anything else is an empty map.
func (m *ValueMap) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		*m = nil
		return nil
	}

	out := make(ValueMap, len(raw))
	for key, value := range raw {
		var n Number
		_ = json.Unmarshal(value, &n)
		out[key] = n
	}
	*m = out
	return nil
}

// DateList is the ordered list of period end dates.
// Entries that are not strings decode to "" and fail year parsing later.
type DateList []string

// UnmarshalJSON decodes an array of date strings leniently.
func (d *DateList) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		*d = nil
		return nil
	}

	out := make(DateList, len(raw))
	for i, value := range raw {
		out[i] = lenientString(value)
	}
	*d = out
	return nil
}

// Envelope is the provider's response wrapper.
type Envelope struct {
	Data *Payload `json:"data"`
}

// AnnualSeries returns the annual series for a field and whether the
// statement carries it at all. A present field may still be empty.
func (p *Payload) AnnualSeries(field string) (Series, bool) {
	if p == nil || p.Financials.Annual == nil {
		return nil, false
	}
	series, ok := p.Financials.Annual[field]
	return series, ok
}

func lenientString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func orNull(raw json.RawMessage) json.RawMessage {
	if len(bytes.TrimSpace(raw)) == 0 {
		return json.RawMessage("null")
	}
	return raw
}
