package trainer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"splatpipe/internal/artifacts"
	"splatpipe/internal/logging"
)

// watchPollInterval backs up fsnotify with a periodic rescan; checkpoint
// directories appear before their point_cloud.ply finishes writing, so a
// single Create event is not enough.
const watchPollInterval = 5 * time.Second

// WatchCheckpoints reports each checkpoint that appears under
// <modelDir>/point_cloud until ctx is done. fn is called once per iteration,
// in the order checkpoints are discovered. Checkpoints already on disk when
// the watch starts are reported immediately.
func WatchCheckpoints(ctx context.Context, modelDir string, fn func(artifacts.Checkpoint)) error {
	dir := filepath.Join(modelDir, artifacts.PointCloudDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create point_cloud dir: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	log := logging.New("trainer")
	seen := map[int]bool{}
	report := func() {
		summary, err := artifacts.ScanModel(modelDir)
		if err != nil {
			return
		}
		for _, cp := range summary.Checkpoints {
			if seen[cp.Iteration] {
				continue
			}
			seen[cp.Iteration] = true
			fn(cp)
		}
	}
	report()

	ticker := time.NewTicker(watchPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Write) {
				report()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("watch error", "error", err)
		case <-ticker.C:
			report()
		}
	}
}
