package value

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/calcgrid/internal/timeseries"
)

func f64(v float64) *float64 { return &v }

func TestKindRoundTrip(t *testing.T) {
	for _, name := range []string{"number", "date", "array", "series"} {
		k, err := ParseKind(name)
		require.NoError(t, err)
		assert.Equal(t, name, k.String())
	}

	_, err := ParseKind("matrix")
	assert.Error(t, err)
}

func TestValueAccessors(t *testing.T) {
	t.Run("number", func(t *testing.T) {
		v := Num(42)
		n, ok := v.AsNumber()
		assert.True(t, ok)
		assert.Equal(t, 42.0, n)
		_, ok = v.AsSeries()
		assert.False(t, ok)
	})

	t.Run("array copies defensively", func(t *testing.T) {
		src := []float64{1, 2, 3}
		v := Arr(src...)
		src[0] = 99
		arr, ok := v.AsArray()
		require.True(t, ok)
		assert.Equal(t, 1.0, arr[0])
	})
}

func TestValidate(t *testing.T) {
	t.Run("kind mismatch", func(t *testing.T) {
		err := Validate(Num(1), Series, nil)
		assert.ErrorIs(t, err, ErrTypeMismatch)
	})

	t.Run("number bounds", func(t *testing.T) {
		rule := &Rule{Min: f64(0), Max: f64(10)}
		assert.NoError(t, Validate(Num(5), Number, rule))
		assert.ErrorIs(t, Validate(Num(-1), Number, rule), ErrRange)
		assert.ErrorIs(t, Validate(Num(11), Number, rule), ErrRange)
	})

	t.Run("array bounds apply per element", func(t *testing.T) {
		rule := &Rule{Min: f64(0)}
		assert.NoError(t, Validate(Arr(1, 2, 3), Array, rule))
		assert.ErrorIs(t, Validate(Arr(1, -2, 3), Array, rule), ErrRange)
	})

	t.Run("series bounds skip gaps", func(t *testing.T) {
		s, err := timeseries.New(timeseries.Monthly,
			timeseries.Point{Period: timeseries.NewMonth(2024, 1), Value: 5},
			timeseries.Point{Period: timeseries.NewMonth(2024, 2), Missing: true, Value: -100},
		)
		require.NoError(t, err)
		rule := &Rule{Min: f64(0)}
		assert.NoError(t, Validate(Ser(s), Series, rule))
	})
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-03-15", "")
	require.NoError(t, err)
	assert.Equal(t, time.March, d.Month())

	_, err = ParseDate("15/03/2024", "")
	assert.ErrorIs(t, err, ErrFormat)

	d, err = ParseDate("15/03/2024", "02/01/2006")
	require.NoError(t, err)
	assert.Equal(t, 2024, d.Year())
}
