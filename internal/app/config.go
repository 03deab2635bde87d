package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vk/calcgrid/internal/timeseries"
)

// Config holds everything an App instance needs to run one evaluation.
type Config struct {
	// ModelPath points at a single .hcl model file or a directory of them.
	ModelPath string
	// DataPath optionally points at a SQLite historical points database.
	// Empty means no historical source; steps then rely on mock values.
	DataPath string
	// Target restricts evaluation: "", "node" or "node.row".
	Target string
	// From and To are inclusive period literals bounding the run.
	From string
	To   string

	LogFormat   string
	LogLevel    string
	WorkerCount int
}

// NewConfig validates a configuration.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.ModelPath == "" {
		return nil, errors.New("ModelPath is a required configuration field and cannot be empty")
	}
	if cfg.From == "" || cfg.To == "" {
		return nil, errors.New("a period range (From, To) is required")
	}
	if _, err := timeseries.ParsePeriod(cfg.From); err != nil {
		return nil, fmt.Errorf("invalid From period: %w", err)
	}
	if _, err := timeseries.ParsePeriod(cfg.To); err != nil {
		return nil, fmt.Errorf("invalid To period: %w", err)
	}
	if cfg.Target != "" && strings.Count(cfg.Target, ".") > 1 {
		return nil, fmt.Errorf("invalid target %q: use \"node\" or \"node.row\"", cfg.Target)
	}
	return &cfg, nil
}

// TargetParts splits the target selector into node and row names.
func (c *Config) TargetParts() (node, row string) {
	if c.Target == "" {
		return "", ""
	}
	parts := strings.SplitN(c.Target, ".", 2)
	node = parts[0]
	if len(parts) == 2 {
		row = parts[1]
	}
	return node, row
}
