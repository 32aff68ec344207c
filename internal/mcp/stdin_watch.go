package mcp

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// parentPollInterval is how often the watchdog checks the parent PID.
const parentPollInterval = 2 * time.Second

// WatchParent watches for the parent process going away in a background
// goroutine and calls cancel when it does. Agent frontends that crash or get
// restarted would otherwise leave orphaned servers holding the GPU pipeline.
//
// It must NOT read from stdin: the stdio transport owns that descriptor and
// any byte consumed here would corrupt the JSON-RPC stream. Parent death is
// detected by polling os.Getppid instead.
//
// The goroutine exits when ctx is canceled or the parent PID changes.
func WatchParent(ctx context.Context, log *slog.Logger, cancel context.CancelFunc) {
	ppid := os.Getppid()
	go func() {
		ticker := time.NewTicker(parentPollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if os.Getppid() != ppid {
					log.Warn("parent process exited, shutting down", "was_pid", ppid)
					cancel()
					return
				}
			}
		}
	}()
}
