package calc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/calcgrid/internal/timeseries"
	"github.com/vk/calcgrid/internal/value"
)

func apply(t *testing.T, typeName string, args Args) (Operand, error) {
	t.Helper()
	def, err := Builtin().Lookup(typeName)
	require.NoError(t, err)
	return def.Apply(args)
}

func seriesOperand(t *testing.T, freq timeseries.Periodicity, points ...timeseries.Point) Operand {
	t.Helper()
	s, err := timeseries.New(freq, points...)
	require.NoError(t, err)
	return FromSeries(s)
}

func monthPoint(month int, v float64) timeseries.Point {
	return timeseries.Point{Period: timeseries.NewMonth(2024, month), Value: v}
}

func TestRegistry(t *testing.T) {
	t.Run("duplicate registration fails", func(t *testing.T) {
		r := NewRegistry()
		def := &Definition{Name: "custom"}
		require.NoError(t, r.Register(def))
		assert.ErrorIs(t, r.Register(def), ErrDuplicateType)
	})

	t.Run("unknown lookup fails", func(t *testing.T) {
		_, err := Builtin().Lookup("teleport")
		assert.ErrorIs(t, err, ErrUnknownType)
	})

	t.Run("builtin catalog", func(t *testing.T) {
		assert.Equal(t, []string{
			"addition", "compound_growth", "division", "empty",
			"forecast_yoy", "inflation_adjustment", "multiplication",
			"percentage", "subtraction",
		}, Builtin().Types())
	})
}

func TestArithmeticFold(t *testing.T) {
	t.Run("scalar multiplication", func(t *testing.T) {
		out, err := apply(t, "multiplication", Args{
			Ordered: []Operand{Scalar(3), Scalar(4), Scalar(2)},
		})
		require.NoError(t, err)
		v, ok := out.ScalarValue()
		require.True(t, ok)
		assert.Equal(t, 24.0, v)
	})

	t.Run("series addition is elementwise", func(t *testing.T) {
		a := seriesOperand(t, timeseries.Monthly, monthPoint(1, 1), monthPoint(2, 2))
		b := seriesOperand(t, timeseries.Monthly, monthPoint(1, 10), monthPoint(2, 20))
		out, err := apply(t, "addition", Args{Ordered: []Operand{a, b}})
		require.NoError(t, err)
		assert.Equal(t, []float64{11, 22}, out.Samples)
	})

	t.Run("scalar broadcasts over a series", func(t *testing.T) {
		a := seriesOperand(t, timeseries.Monthly, monthPoint(1, 10), monthPoint(2, 20))
		out, err := apply(t, "multiplication", Args{Ordered: []Operand{a, Scalar(0.5)}})
		require.NoError(t, err)
		assert.Equal(t, []float64{5, 10}, out.Samples)
	})

	t.Run("gaps propagate through operations", func(t *testing.T) {
		a := seriesOperand(t, timeseries.Monthly,
			monthPoint(1, 1),
			timeseries.Point{Period: timeseries.NewMonth(2024, 2), Missing: true},
		)
		b := seriesOperand(t, timeseries.Monthly, monthPoint(1, 10), monthPoint(2, 20))
		out, err := apply(t, "addition", Args{Ordered: []Operand{a, b}})
		require.NoError(t, err)
		assert.False(t, out.Missing[0])
		assert.True(t, out.Missing[1])
	})

	t.Run("fewer than two inputs fails", func(t *testing.T) {
		_, err := apply(t, "subtraction", Args{Ordered: []Operand{Scalar(1)}})
		assert.ErrorIs(t, err, ErrMissingInput)
	})
}

func TestDivision(t *testing.T) {
	t.Run("left fold", func(t *testing.T) {
		out, err := apply(t, "division", Args{
			Ordered: []Operand{Scalar(100), Scalar(5), Scalar(2)},
		})
		require.NoError(t, err)
		v, _ := out.ScalarValue()
		assert.Equal(t, 10.0, v)
	})

	t.Run("zero denominator fails the step", func(t *testing.T) {
		_, err := apply(t, "division", Args{Ordered: []Operand{Scalar(1), Scalar(0)}})
		assert.ErrorIs(t, err, ErrDivisionByZero)
	})

	t.Run("zero at one period names the period", func(t *testing.T) {
		num := seriesOperand(t, timeseries.Monthly, monthPoint(1, 1), monthPoint(2, 1))
		den := seriesOperand(t, timeseries.Monthly, monthPoint(1, 2), monthPoint(2, 0))
		_, err := apply(t, "division", Args{Ordered: []Operand{num, den}})
		require.ErrorIs(t, err, ErrDivisionByZero)
		assert.Contains(t, err.Error(), "2024M02")
	})
}

func TestPercentage(t *testing.T) {
	// The result stays a fraction, never pre-multiplied by 100.
	out, err := apply(t, "percentage", Args{
		Named: map[string]Operand{
			"numerator":   Scalar(25),
			"denominator": Scalar(200),
		},
	})
	require.NoError(t, err)
	v, _ := out.ScalarValue()
	assert.Equal(t, 0.125, v)
}

func TestCompoundGrowth(t *testing.T) {
	t.Run("three year window", func(t *testing.T) {
		out, err := apply(t, "compound_growth", Args{
			Named:  map[string]Operand{"base": Scalar(10_000_000)},
			Vars:   map[string]value.Value{"rate": value.Num(0.05)},
			Window: timeseries.Range(timeseries.NewYear(2024), timeseries.NewYear(2026)),
		})
		require.NoError(t, err)
		require.Equal(t, 3, out.Len())
		assert.InDelta(t, 10_000_000, out.Samples[0], 1e-6)
		assert.InDelta(t, 10_500_000, out.Samples[1], 1e-6)
		assert.InDelta(t, 11_025_000, out.Samples[2], 1e-6)

		total := 0.0
		for _, v := range out.Samples {
			total += v
		}
		assert.InDelta(t, 31_525_000, total, 1e-6)
	})

	t.Run("mock mode yields the base value", func(t *testing.T) {
		out, err := apply(t, "compound_growth", Args{
			Named: map[string]Operand{"base": Scalar(500)},
			Vars:  map[string]value.Value{"rate": value.Num(0.10)},
		})
		require.NoError(t, err)
		v, ok := out.ScalarValue()
		require.True(t, ok)
		assert.Equal(t, 500.0, v)
	})

	t.Run("missing rate variable", func(t *testing.T) {
		_, err := apply(t, "compound_growth", Args{
			Named: map[string]Operand{"base": Scalar(500)},
		})
		assert.ErrorIs(t, err, ErrMissingInput)
	})

	t.Run("non-numeric rate variable", func(t *testing.T) {
		_, err := apply(t, "compound_growth", Args{
			Named: map[string]Operand{"base": Scalar(500)},
			Vars:  map[string]value.Value{"rate": value.Arr(1, 2)},
		})
		assert.ErrorIs(t, err, value.ErrTypeMismatch)
	})
}

func TestForecastYoY(t *testing.T) {
	window := timeseries.Range(timeseries.NewMonth(2024, 1), timeseries.NewMonth(2025, 3))

	t.Run("full year of history anchors year over year", func(t *testing.T) {
		points := make([]timeseries.Point, 12)
		for m := 1; m <= 12; m++ {
			points[m-1] = monthPoint(m, float64(100*m))
		}
		history := seriesOperand(t, timeseries.Monthly, points...)

		out, err := apply(t, "forecast_yoy", Args{
			Named:  map[string]Operand{"history": history},
			Vars:   map[string]value.Value{"growth_rate": value.Num(0.10)},
			Window: window,
		})
		require.NoError(t, err)
		require.Equal(t, 15, out.Len())

		// 2025M01..M03 = year-earlier observation * 1.10.
		assert.InDelta(t, 110, out.Samples[12], 1e-9)
		assert.InDelta(t, 220, out.Samples[13], 1e-9)
		assert.InDelta(t, 330, out.Samples[14], 1e-9)
	})

	t.Run("short history falls back to compounding from the last value", func(t *testing.T) {
		history := seriesOperand(t, timeseries.Monthly, monthPoint(1, 100), monthPoint(2, 200))

		out, err := apply(t, "forecast_yoy", Args{
			Named:  map[string]Operand{"history": history},
			Vars:   map[string]value.Value{"growth_rate": value.Num(0.10)},
			Window: timeseries.Range(timeseries.NewMonth(2024, 1), timeseries.NewMonth(2024, 4)),
		})
		require.NoError(t, err)
		require.Equal(t, 4, out.Len())
		assert.InDelta(t, 220, out.Samples[2], 1e-9) // 200 * 1.1
		assert.InDelta(t, 242, out.Samples[3], 1e-9) // 200 * 1.1^2
	})

	t.Run("mock mode previews the last observed value", func(t *testing.T) {
		out, err := apply(t, "forecast_yoy", Args{
			Named: map[string]Operand{"history": Scalar(777)},
			Vars:  map[string]value.Value{"growth_rate": value.Num(0.10)},
		})
		require.NoError(t, err)
		v, ok := out.ScalarValue()
		require.True(t, ok)
		assert.Equal(t, 777.0, v)
	})

	t.Run("history with no present values", func(t *testing.T) {
		history := seriesOperand(t, timeseries.Monthly,
			timeseries.Point{Period: timeseries.NewMonth(2024, 1), Missing: true},
		)
		_, err := apply(t, "forecast_yoy", Args{
			Named:  map[string]Operand{"history": history},
			Vars:   map[string]value.Value{"growth_rate": value.Num(0.10)},
			Window: window,
		})
		assert.ErrorIs(t, err, ErrMissingInput)
	})
}

func TestEmpty(t *testing.T) {
	in := seriesOperand(t, timeseries.Monthly,
		monthPoint(1, 42),
		timeseries.Point{Period: timeseries.NewMonth(2024, 2), Missing: true},
	)
	out, err := apply(t, "empty", Args{Named: map[string]Operand{"value": in}})
	require.NoError(t, err)
	assert.Equal(t, in.Samples, out.Samples)
	assert.Equal(t, in.Missing, out.Missing)
}

func TestInflationAdjustment(t *testing.T) {
	out, err := apply(t, "inflation_adjustment", Args{
		Named:  map[string]Operand{"base": Scalar(1000)},
		Vars:   map[string]value.Value{"inflation_rate": value.Num(0.02)},
		Window: timeseries.Range(timeseries.NewYear(2024), timeseries.NewYear(2025)),
	})
	require.NoError(t, err)
	require.Equal(t, 2, out.Len())
	assert.InDelta(t, 1000, out.Samples[0], 1e-9)
	assert.InDelta(t, 1020, out.Samples[1], 1e-9)
}
