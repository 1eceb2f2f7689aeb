package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/m3rciful/taxibot/core/logger"
)

// Loader prepares a piece of reference data before the bot starts serving.
type Loader interface {
	Name() string
	Load(ctx context.Context) error
}

// LoaderFunc adapts a named function to Loader.
type LoaderFunc struct {
	Label string
	Fn    func(ctx context.Context) error
}

// Name returns the label used in logs and errors.
func (f LoaderFunc) Name() string { return f.Label }

// Load executes the underlying function.
func (f LoaderFunc) Load(ctx context.Context) error { return f.Fn(ctx) }

// runLoaders runs loaders in order and stops at the first failure.
func runLoaders(ctx context.Context, loaders []Loader) error {
	for _, l := range loaders {
		if l == nil {
			continue
		}
		start := time.Now()
		err := l.Load(ctx)
		logger.Info(ctx, "bootstrap", "load",
			slog.String("status", logger.Status(err)),
			slog.String("step", l.Name()),
			slog.Duration("duration", logger.RoundMS(time.Since(start))),
		)
		if err != nil {
			return fmt.Errorf("%s: %w", l.Name(), err)
		}
	}
	return nil
}
