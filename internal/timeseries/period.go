package timeseries

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Periodicity is the calendar resolution of a period or series. It is
// attached as explicit metadata, never inferred from point spacing.
type Periodicity int

const (
	Monthly Periodicity = iota
	Quarterly
	Yearly
)

// ErrBadPeriod is returned when a period literal cannot be parsed.
var ErrBadPeriod = errors.New("timeseries: malformed period")

// String returns the lowercase name of the periodicity.
func (p Periodicity) String() string {
	switch p {
	case Monthly:
		return "monthly"
	case Quarterly:
		return "quarterly"
	case Yearly:
		return "yearly"
	}
	return fmt.Sprintf("periodicity(%d)", int(p))
}

// ParsePeriodicity converts a periodicity name to its value.
func ParsePeriodicity(s string) (Periodicity, error) {
	switch strings.ToLower(s) {
	case "monthly":
		return Monthly, nil
	case "quarterly":
		return Quarterly, nil
	case "yearly":
		return Yearly, nil
	}
	return 0, fmt.Errorf("%w: unknown periodicity %q", ErrBadPeriod, s)
}

// PerYear returns how many periods of this periodicity make up one year.
func (p Periodicity) PerYear() int {
	switch p {
	case Monthly:
		return 12
	case Quarterly:
		return 4
	default:
		return 1
	}
}

// Finer reports whether p has a higher calendar resolution than other.
func (p Periodicity) Finer(other Periodicity) bool {
	return p.PerYear() > other.PerYear()
}

// Period is one calendar bucket: a year plus an ordinal within the year
// (month 1-12, quarter 1-4, always 1 for yearly periods).
type Period struct {
	Year int
	Ord  int
	Freq Periodicity
}

// NewMonth, NewQuarter and NewYear construct periods of each periodicity.
func NewMonth(year, month int) Period { return Period{Year: year, Ord: month, Freq: Monthly} }
func NewQuarter(year, quarter int) Period {
	return Period{Year: year, Ord: quarter, Freq: Quarterly}
}
func NewYear(year int) Period { return Period{Year: year, Ord: 1, Freq: Yearly} }

// ParsePeriod reads a period literal: "2024M03" (month), "2024Q1" (quarter)
// or "2024" (year).
func ParsePeriod(s string) (Period, error) {
	if i := strings.IndexByte(s, 'M'); i > 0 {
		year, err1 := strconv.Atoi(s[:i])
		month, err2 := strconv.Atoi(s[i+1:])
		if err1 != nil || err2 != nil || month < 1 || month > 12 {
			return Period{}, fmt.Errorf("%w: %q", ErrBadPeriod, s)
		}
		return NewMonth(year, month), nil
	}
	if i := strings.IndexByte(s, 'Q'); i > 0 {
		year, err1 := strconv.Atoi(s[:i])
		quarter, err2 := strconv.Atoi(s[i+1:])
		if err1 != nil || err2 != nil || quarter < 1 || quarter > 4 {
			return Period{}, fmt.Errorf("%w: %q", ErrBadPeriod, s)
		}
		return NewQuarter(year, quarter), nil
	}
	year, err := strconv.Atoi(s)
	if err != nil {
		return Period{}, fmt.Errorf("%w: %q", ErrBadPeriod, s)
	}
	return NewYear(year), nil
}

// String renders the canonical literal form, zero-padding months so that
// lexical order matches calendar order within one periodicity.
func (p Period) String() string {
	switch p.Freq {
	case Monthly:
		return fmt.Sprintf("%04dM%02d", p.Year, p.Ord)
	case Quarterly:
		return fmt.Sprintf("%04dQ%d", p.Year, p.Ord)
	default:
		return fmt.Sprintf("%04d", p.Year)
	}
}

// ordinal is the absolute position of the period on its periodicity's axis.
func (p Period) ordinal() int {
	return p.Year*p.Freq.PerYear() + (p.Ord - 1)
}

// Compare orders two periods of the same periodicity: -1, 0 or 1.
// Periods of different periodicities are not comparable and must be
// aligned first.
func (p Period) Compare(other Period) int {
	a, b := p.ordinal(), other.ordinal()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Next returns the immediately following period.
func (p Period) Next() Period {
	o := p.ordinal() + 1
	per := p.Freq.PerYear()
	return Period{Year: o / per, Ord: o%per + 1, Freq: p.Freq}
}

// Add returns the period n steps after p (n may be negative).
func (p Period) Add(n int) Period {
	o := p.ordinal() + n
	per := p.Freq.PerYear()
	return Period{Year: o / per, Ord: o%per + 1, Freq: p.Freq}
}

// Sub returns the number of periods from other to p.
func (p Period) Sub(other Period) int {
	return p.ordinal() - other.ordinal()
}

// Refine maps p onto a finer periodicity, returning the finer periods it
// covers in calendar order. Refining to the same periodicity returns p
// itself; refining to a coarser one is not meaningful and returns nil.
func (p Period) Refine(target Periodicity) []Period {
	if target == p.Freq {
		return []Period{p}
	}
	if !target.Finer(p.Freq) {
		return nil
	}
	span := target.PerYear() / p.Freq.PerYear()
	first := Period{Year: p.Year, Ord: (p.Ord-1)*span + 1, Freq: target}
	out := make([]Period, span)
	for i := range out {
		out[i] = first.Add(i)
	}
	return out
}

// Containing returns the period of a coarser (or equal) periodicity that
// covers p.
func (p Period) Containing(target Periodicity) Period {
	if target == p.Freq || target.Finer(p.Freq) {
		return p
	}
	span := p.Freq.PerYear() / target.PerYear()
	return Period{Year: p.Year, Ord: (p.Ord-1)/span + 1, Freq: target}
}

// ConvertRange maps an inclusive [from, to] range onto another periodicity,
// covering at least the original calendar span.
func ConvertRange(from, to Period, target Periodicity) (Period, Period) {
	if target.Finer(from.Freq) {
		f := from.Refine(target)
		t := to.Refine(target)
		return f[0], t[len(t)-1]
	}
	return from.Containing(target), to.Containing(target)
}

// Range enumerates every period from..to inclusive. Both bounds must share
// one periodicity; an inverted or mixed range yields nil.
func Range(from, to Period) []Period {
	if from.Freq != to.Freq || from.Compare(to) > 0 {
		return nil
	}
	out := make([]Period, 0, to.Sub(from)+1)
	for p := from; p.Compare(to) <= 0; p = p.Next() {
		out = append(out, p)
	}
	return out
}
