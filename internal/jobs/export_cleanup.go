package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/luct-reporting/luct-bot/internal/export"
)

// ExportCleanup removes spreadsheet exports older than ttl from dir.
func ExportCleanup(dir string, ttl time.Duration, log *zap.Logger) Job {
	return func(ctx context.Context) error {
		n, err := export.Cleanup(dir, ttl, time.Now())
		if n > 0 {
			log.Info("old exports removed", zap.Int("count", n), zap.String("dir", dir))
		}
		return err
	}
}
