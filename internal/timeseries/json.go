package timeseries

import (
	"encoding/json"
)

// MarshalJSON renders a period as its canonical literal.
func (p Period) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// UnmarshalJSON parses the canonical literal form.
func (p *Period) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParsePeriod(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// MarshalJSON renders a point as {"period", "value"}, with a null value for
// explicit gaps so missing data never reads as zero.
func (pt Point) MarshalJSON() ([]byte, error) {
	out := struct {
		Period Period   `json:"period"`
		Value  *float64 `json:"value"`
	}{Period: pt.Period}
	if !pt.Missing {
		out.Value = &pt.Value
	}
	return json.Marshal(out)
}

// MarshalJSON renders a series with its periodicity spelled out.
func (s Series) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Periodicity string  `json:"periodicity"`
		Points      []Point `json:"points"`
	}{Periodicity: s.Freq.String(), Points: s.Points})
}
