package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Number is a numeric cell that may be absent.
// The zero value is absent.
type Number struct {
	Value float64
	Valid bool
}

// Absent is the missing-value sentinel.
var Absent = Number{}

// Some wraps a present value.
func Some(v float64) Number {
	return Number{Value: v, Valid: true}
}

// IsAbsent reports whether the cell carries no usable value.
// NaN and infinities count as absent.
func (n Number) IsAbsent() bool {
	return !n.Valid || math.IsNaN(n.Value) || math.IsInf(n.Value, 0)
}

// Float returns the value and whether it is present.
func (n Number) Float() (float64, bool) {
	if n.IsAbsent() {
		return 0, false
	}
	return n.Value, true
}

// UnmarshalJSON decodes numbers and numeric strings. Anything else
// (null, "N/A", booleans, objects) decodes to absent without error.
func (n *Number) UnmarshalJSON(data []byte) error {
	*n = Absent

	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}

	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*n = Some(num)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			*n = Some(v)
		}
	}
	return nil
}

// MarshalJSON writes absent cells as null.
func (n Number) MarshalJSON() ([]byte, error) {
	v, ok := n.Float()
	if !ok {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

// Series is an ordered run of cells, oldest first.
type Series []Number

// UnmarshalJSON accepts an array of cells. A value that is not an array
// (null, scalar, object) decodes to an empty series.
func (s *Series) UnmarshalJSON(data []byte) error {
	var cells []Number
	if err := json.Unmarshal(data, &cells); err != nil {
		*s = nil
		return nil
	}
	*s = cells
	return nil
}

// Numeric returns the present values in order, dropping absent cells.
func (s Series) Numeric() []float64 {
	out := make([]float64, 0, len(s))
	for _, n := range s {
		if v, ok := n.Float(); ok {
			out = append(out, v)
		}
	}
	return out
}
