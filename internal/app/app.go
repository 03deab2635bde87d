package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/calcgrid/internal/calc"
	"github.com/vk/calcgrid/internal/ctxlog"
	"github.com/vk/calcgrid/internal/hclmodel"
	"github.com/vk/calcgrid/internal/model"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	registry *calc.Registry
	model    *model.Model
	config   *Config
}

// NewApp constructs a fully initialized App with its own isolated logger
// and calculation-type registry. Extra definitions extend the built-in
// catalog without touching the engine.
func NewApp(outW io.Writer, cfg *Config, extra ...*calc.Definition) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	loader := hclmodel.NewLoader()
	m, err := loader.Load(ctx, cfg.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load model: %w", err)
	}
	logger.Debug("Model loaded.", "node_count", len(m.Nodes))

	reg := calc.Builtin()
	for _, def := range extra {
		if err := reg.Register(def); err != nil {
			return nil, fmt.Errorf("registering calculation type: %w", err)
		}
	}
	logger.Debug("Calculation types registered.", "types", reg.Types())

	return &App{
		outW:     outW,
		logger:   logger,
		registry: reg,
		model:    m,
		config:   cfg,
	}, nil
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *calc.Registry {
	return a.registry
}
