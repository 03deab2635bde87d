// Package value defines the typed value union flowing between calculation
// steps (number, date, array, time-series) and the validation rules a step
// may declare for its variables and output.
package value

import (
	"fmt"
	"strings"
	"time"

	"github.com/vk/calcgrid/internal/timeseries"
)

// Kind identifies the runtime shape of a Value.
type Kind int

const (
	Number Kind = iota
	Date
	Array
	Series
)

// String returns the kind name as written in model definitions.
func (k Kind) String() string {
	switch k {
	case Number:
		return "number"
	case Date:
		return "date"
	case Array:
		return "array"
	case Series:
		return "series"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind converts a kind name to its value.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "number":
		return Number, nil
	case "date":
		return Date, nil
	case "array":
		return Array, nil
	case "series":
		return Series, nil
	}
	return 0, fmt.Errorf("value: unknown kind %q", s)
}

// Value is an immutable tagged union. Construct one via the typed
// constructors; the accessor for a mismatched kind reports false.
type Value struct {
	kind   Kind
	num    float64
	date   time.Time
	arr    []float64
	series timeseries.Series
}

func Num(v float64) Value         { return Value{kind: Number, num: v} }
func Dat(t time.Time) Value       { return Value{kind: Date, date: t} }
func Arr(vs ...float64) Value     { return Value{kind: Array, arr: append([]float64(nil), vs...)} }
func Ser(s timeseries.Series) Value { return Value{kind: Series, series: s} }

// Kind returns the runtime shape tag.
func (v Value) Kind() Kind { return v.kind }

// AsNumber returns the scalar payload when the value is a number.
func (v Value) AsNumber() (float64, bool) {
	return v.num, v.kind == Number
}

// AsDate returns the date payload when the value is a date.
func (v Value) AsDate() (time.Time, bool) {
	return v.date, v.kind == Date
}

// AsArray returns a copy of the array payload when the value is an array.
func (v Value) AsArray() ([]float64, bool) {
	if v.kind != Array {
		return nil, false
	}
	return append([]float64(nil), v.arr...), true
}

// AsSeries returns the series payload when the value is a time-series.
func (v Value) AsSeries() (timeseries.Series, bool) {
	return v.series, v.kind == Series
}

func (v Value) String() string {
	switch v.kind {
	case Number:
		return fmt.Sprintf("%g", v.num)
	case Date:
		return v.date.Format("2006-01-02")
	case Array:
		return fmt.Sprintf("%v", v.arr)
	case Series:
		return fmt.Sprintf("series[%d]", v.series.Len())
	}
	return "invalid"
}
