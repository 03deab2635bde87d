// Package history is the engine's boundary to historical periodic data.
// The engine only pulls points through the Source interface; it never owns
// persistence. Two implementations ship here: an ephemeral in-memory store
// for tests and previews, and a SQLite-backed store.
package history

import (
	"context"
	"errors"

	"github.com/vk/calcgrid/internal/timeseries"
)

// ErrNotFound is returned when no points exist for a reference in the
// requested range. The evaluator maps it onto missing-input handling.
var ErrNotFound = errors.New("history: no points for reference")

// Source supplies ordered periodic points for an external series reference.
type Source interface {
	// Points returns the observations for ref falling inside [from, to],
	// ordered by period. An unknown reference or empty range yields
	// ErrNotFound.
	Points(ctx context.Context, ref string, from, to timeseries.Period) (timeseries.Series, error)
}
