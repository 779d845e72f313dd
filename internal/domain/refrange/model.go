package refrange

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Range maps to the reference_ranges table: the clinically accepted
// [normal_min, normal_max] interval for a test parameter. Qualitative
// parameters (e.g. a COVID-19 result) are stored with null bounds and
// evaluated against sentinels instead of the interval.
type Range struct {
	ID        int      `json:"id"`
	TestType  string   `json:"test_type"`
	Parameter string   `json:"parameter"`
	NormalMin *float64 `json:"normal_min"`
	NormalMax *float64 `json:"normal_max"`
	Units     string   `json:"units"`
}

// Numeric accepts a JSON number or a numeric string. It records whether
// the field was present and whether it parsed, so the service can report
// missing fields and non-numeric values as distinct errors.
type Numeric struct {
	Value float64
	Set   bool
	Valid bool
}

func (n *Numeric) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		return nil
	}
	n.Set = true
	s = strings.Trim(s, `"`)
	if s == "" {
		n.Set = false
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	n.Value = v
	n.Valid = true
	return nil
}

// CreateInput is the payload for creating a reference range.
type CreateInput struct {
	TestType  string  `json:"test_type"`
	Parameter string  `json:"parameter"`
	NormalMin Numeric `json:"normal_min"`
	NormalMax Numeric `json:"normal_max"`
	Units     string  `json:"units"`
}

// UpdateInput is the partial payload for updating a reference range.
// Only supplied, non-empty fields are applied.
type UpdateInput struct {
	TestType  *string `json:"test_type"`
	Parameter *string `json:"parameter"`
	NormalMin Numeric `json:"normal_min"`
	NormalMax Numeric `json:"normal_max"`
	Units     *string `json:"units"`
}

var _ json.Unmarshaler = (*Numeric)(nil)
