package assets

import (
	"log"
	"os"
	"path/filepath"
	"time"
)

// SweepResult reports what one retention sweep reclaimed.
type SweepResult struct {
	Count      int
	BytesFreed int64
}

// Sweep deletes regular files in dir whose age (now - mtime) exceeds
// retention. Directories are skipped, per-file errors are logged and do
// not abort the sweep. The retention window arrives as a parameter so
// tests can exercise different windows without touching process state.
func Sweep(dir string, retention time.Duration) (SweepResult, error) {
	var result SweepResult

	entries, err := os.ReadDir(dir)
	if err != nil {
		return result, err
	}

	now := time.Now()
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			log.Printf("[janitor] ⚠️  stat %s: %v — skipping", path, err)
			continue
		}
		if now.Sub(info.ModTime()) <= retention {
			continue
		}
		if err := os.Remove(path); err != nil {
			log.Printf("[janitor] ⚠️  remove %s: %v — skipping", path, err)
			continue
		}
		result.Count++
		result.BytesFreed += info.Size()
	}
	return result, nil
}

// SweepAll runs the startup sweep over the video and image caches. It is
// best-effort: failures are logged and never block startup.
func SweepAll(videoDir, imageDir string, retentionDays int) {
	retention := time.Duration(retentionDays) * 24 * time.Hour
	for _, dir := range []string{videoDir, imageDir} {
		result, err := Sweep(dir, retention)
		if err != nil {
			log.Printf("[janitor] ⚠️  sweep of %s failed: %v — continuing startup", dir, err)
			continue
		}
		if result.Count > 0 {
			log.Printf("[janitor] %s: removed %d file(s), freed %.1f MB (older than %dd)",
				dir, result.Count, float64(result.BytesFreed)/1024/1024, retentionDays)
		}
	}
}
