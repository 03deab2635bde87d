package app

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vk/calcgrid/internal/ctxlog"
	"github.com/vk/calcgrid/internal/engine"
	"github.com/vk/calcgrid/internal/graph"
	"github.com/vk/calcgrid/internal/history"
	"github.com/vk/calcgrid/internal/timeseries"
)

// Run builds the dependency graph, evaluates the configured target over the
// configured period range, and renders the result as JSON.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	g, err := graph.Build(ctx, a.model)
	if err != nil {
		return fmt.Errorf("failed to build dependency graph: %w", err)
	}
	a.logger.Debug("Dependency graph built.", "step_count", len(g.Steps))

	var source history.Source
	if a.config.DataPath != "" {
		db, err := history.OpenSQLite(a.config.DataPath)
		if err != nil {
			return fmt.Errorf("opening historical data: %w", err)
		}
		defer db.Close()
		source = db
	} else {
		source = history.NewMemorySource()
	}

	from, _ := timeseries.ParsePeriod(a.config.From)
	to, _ := timeseries.ParsePeriod(a.config.To)
	node, row := a.config.TargetParts()

	eval := engine.New(g, a.registry, source, a.config.WorkerCount)
	result, err := eval.Evaluate(ctx, engine.Request{
		Node: node,
		Row:  row,
		From: from,
		To:   to,
	})
	if err != nil {
		return fmt.Errorf("evaluation failed: %w", err)
	}
	a.logger.Info("Evaluation finished.", "status", result.Status, "steps", len(result.Steps))

	enc := json.NewEncoder(a.outW)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("rendering result: %w", err)
	}

	a.logger.Debug("App.Run method finished.")
	return nil
}
