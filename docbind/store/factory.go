package store

import (
	"context"
	"fmt"

	"github.com/arthur-debert/docbind/config"
	"github.com/arthur-debert/docbind/docbind/store/mongo"
	"github.com/arthur-debert/docbind/types"
	"go.uber.org/zap"
)

// Open creates the store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.Store, logger *zap.Logger) (types.Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("driver", cfg.Driver))

	switch cfg.Driver {
	case config.DriverMemory:
		return New(WithLogger(logger)), nil
	case config.DriverJSON:
		return NewJSON(cfg.Path, WithLogger(logger))
	case config.DriverMongo:
		s, err := mongo.Connect(ctx, cfg.URI, cfg.Database, mongo.WithLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to mongo: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
