package storage

import (
	"context"
	"fmt"

	"github.com/yourname/dailywords/internal"
	"github.com/yourname/dailywords/internal/config"
)

// New picks the backend named by the config.
func New(ctx context.Context, cfg *config.Config, logger internal.Logger) (StateRepository, error) {
	switch cfg.Backend {
	case "file":
		return NewFileStore(cfg.DataFile, cfg.User1Name, cfg.User2Name, logger)
	case "postgres":
		return NewPostgresStore(ctx, cfg.PostgresDSN, cfg.User1Name, cfg.User2Name, logger)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
