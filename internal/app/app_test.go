package app

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/calcgrid/internal/calc"
)

const growthModel = `
node "market" {
  row "size" {
    step {
      number = 1
      calc   = "compound_growth"

      variables {
        rate = 0.05
      }

      input "base" {
        mock = 10000000
      }
    }
  }
}
`

func writeModel(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.hcl")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func testConfig(t *testing.T, modelPath string) *Config {
	t.Helper()
	cfg, err := NewConfig(Config{
		ModelPath: modelPath,
		From:      "2024",
		To:        "2026",
		LogFormat: "json",
		LogLevel:  "error",
	})
	require.NoError(t, err)
	return cfg
}

func TestAppRun(t *testing.T) {
	var buf bytes.Buffer
	cfg := testConfig(t, writeModel(t, growthModel))

	a, err := NewApp(&buf, cfg)
	require.NoError(t, err)
	require.NoError(t, a.Run(context.Background()))

	var result struct {
		RunID  string `json:"run_id"`
		Status string `json:"status"`
		Steps  map[string]struct {
			Mock     *float64 `json:"mock_output"`
			Periodic *struct {
				Points []struct {
					Value float64 `json:"value"`
				} `json:"points"`
			} `json:"periodic_output"`
			Status string `json:"status"`
		} `json:"steps"`
		Rows []struct {
			Node  string  `json:"node"`
			Row   string  `json:"row"`
			Total float64 `json:"total"`
		} `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &result))

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, "ok", result.Status)

	step, ok := result.Steps["market.size.1"]
	require.True(t, ok)
	assert.Equal(t, "ok", step.Status)
	require.NotNil(t, step.Mock)
	assert.InDelta(t, 10_000_000, *step.Mock, 1e-6)
	require.NotNil(t, step.Periodic)
	require.Len(t, step.Periodic.Points, 3)
	assert.InDelta(t, 11_025_000, step.Periodic.Points[2].Value, 1e-6)

	require.Len(t, result.Rows, 1)
	assert.InDelta(t, 31_525_000, result.Rows[0].Total, 1e-6)
}

func TestAppExtraCalcTypes(t *testing.T) {
	var buf bytes.Buffer
	cfg := testConfig(t, writeModel(t, growthModel))

	t.Run("extra definitions extend the catalog", func(t *testing.T) {
		a, err := NewApp(&buf, cfg, &calc.Definition{
			Name: "custom",
			Apply: func(args calc.Args) (calc.Operand, error) {
				return calc.Scalar(1), nil
			},
		})
		require.NoError(t, err)
		assert.Contains(t, a.Registry().Types(), "custom")
	})

	t.Run("colliding with a built-in fails construction", func(t *testing.T) {
		_, err := NewApp(&buf, cfg, &calc.Definition{Name: "addition"})
		assert.ErrorIs(t, err, calc.ErrDuplicateType)
	})
}

func TestAppBadModel(t *testing.T) {
	var buf bytes.Buffer
	cfg := testConfig(t, filepath.Join(t.TempDir(), "missing.hcl"))

	_, err := NewApp(&buf, cfg)
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger("warn", "text", &buf)

	logger.Info("below threshold")
	assert.Empty(t, buf.String())

	logger.Warn("at threshold")
	assert.Contains(t, buf.String(), "at threshold")

	t.Run("unknown level defaults to info", func(t *testing.T) {
		var buf bytes.Buffer
		newLogger("chatty", "text", &buf).Info("visible")
		assert.Contains(t, buf.String(), "visible")
	})
}

func TestTargetParts(t *testing.T) {
	cases := []struct {
		target, node, row string
	}{
		{"", "", ""},
		{"market", "market", ""},
		{"market.size", "market", "size"},
	}
	for _, tc := range cases {
		c := &Config{Target: tc.target}
		node, row := c.TargetParts()
		assert.Equal(t, tc.node, node)
		assert.Equal(t, tc.row, row)
	}
}
