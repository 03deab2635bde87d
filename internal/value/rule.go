package value

import (
	"errors"
	"fmt"
	"time"
)

// Validation failure classes. Callers branch on these with errors.Is.
var (
	// ErrTypeMismatch: the runtime shape disagrees with the declared kind.
	ErrTypeMismatch = errors.New("type mismatch")
	// ErrRange: a numeric bound in the rule is violated.
	ErrRange = errors.New("value out of range")
	// ErrFormat: a date/string pattern check failed.
	ErrFormat = errors.New("format check failed")
)

// Rule is an optional validation constraint attached to a variable or a
// declared step output. Nil bounds are unconstrained. Format is a Go
// reference-time layout applied to date values.
type Rule struct {
	Min    *float64
	Max    *float64
	Format string
}

// Validate checks v against the declared kind and optional rule. Numeric
// bounds apply to numbers, every element of an array, and every present
// point of a series.
func Validate(v Value, kind Kind, rule *Rule) error {
	if v.Kind() != kind {
		return fmt.Errorf("%w: declared %s, got %s", ErrTypeMismatch, kind, v.Kind())
	}
	if rule == nil {
		return nil
	}

	check := func(n float64) error {
		if rule.Min != nil && n < *rule.Min {
			return fmt.Errorf("%w: %g below minimum %g", ErrRange, n, *rule.Min)
		}
		if rule.Max != nil && n > *rule.Max {
			return fmt.Errorf("%w: %g above maximum %g", ErrRange, n, *rule.Max)
		}
		return nil
	}

	switch v.Kind() {
	case Number:
		n, _ := v.AsNumber()
		return check(n)
	case Array:
		arr, _ := v.AsArray()
		for _, n := range arr {
			if err := check(n); err != nil {
				return err
			}
		}
	case Series:
		s, _ := v.AsSeries()
		for _, pt := range s.Points {
			if pt.Missing {
				continue
			}
			if err := check(pt.Value); err != nil {
				return err
			}
		}
	case Date:
		if rule.Format != "" {
			d, _ := v.AsDate()
			rendered := d.Format(rule.Format)
			if _, err := time.Parse(rule.Format, rendered); err != nil {
				return fmt.Errorf("%w: layout %q: %v", ErrFormat, rule.Format, err)
			}
		}
	}
	return nil
}

// ParseDate checks a date literal against a layout, classifying failures
// as format errors.
func ParseDate(literal, layout string) (time.Time, error) {
	if layout == "" {
		layout = "2006-01-02"
	}
	t, err := time.Parse(layout, literal)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q does not match layout %q", ErrFormat, literal, layout)
	}
	return t, nil
}
