package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/luct-reporting/luct-bot/internal/metrics"
)

// Save writes f to dir/<uuid>/name so concurrent exports with the same
// file name never collide. It returns the full path.
func Save(f *excelize.File, dir, name string) (string, error) {
	sub := filepath.Join(dir, uuid.NewString())
	if err := os.MkdirAll(sub, 0o755); err != nil {
		return "", fmt.Errorf("export dir: %w", err)
	}
	path := filepath.Join(sub, sanitizeFileName(name))
	if err := f.SaveAs(path); err != nil {
		_ = os.RemoveAll(sub)
		return "", fmt.Errorf("save %s: %w", path, err)
	}
	metrics.ExportsWritten.Inc()
	return path, nil
}

// Cleanup removes export directories under dir older than ttl.
// Only directories named by Save are touched.
func Cleanup(dir string, ttl time.Duration, now time.Time) (int, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := uuid.Parse(e.Name()); err != nil {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) < ttl {
			continue
		}
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
