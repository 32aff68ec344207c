// Package frames extracts still frames from video with ffmpeg, the first
// stage of dataset preparation when the input is a capture video rather than
// a photo set.
package frames

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"splatpipe/internal/execx"
	"splatpipe/internal/logging"
)

// FramePattern is the ffmpeg output filename pattern for extracted frames.
const FramePattern = "frame_%04d.jpg"

// Extractor wraps ffmpeg/ffprobe.
type Extractor struct {
	FFmpeg  string // binary name or path
	FFprobe string
	Runner  execx.Runner
}

// NewExtractor returns an Extractor using the given binaries and runner.
func NewExtractor(ffmpeg, ffprobe string, r execx.Runner) *Extractor {
	return &Extractor{FFmpeg: ffmpeg, FFprobe: ffprobe, Runner: r}
}

// Result describes one extraction run.
type Result struct {
	Dir      string  // directory holding the frames
	Count    int     // frames written by this run; leftovers from earlier runs are excluded
	Duration float64 // source duration in seconds, 0 if ffprobe was unavailable
}

// Extract pulls frames from videoPath into outDir at the given rate.
// Frames are written as frame_0001.jpg, frame_0002.jpg, ... with ffmpeg's
// qscale 2 (high-quality JPEG), matching what the downstream COLMAP and
// training stages expect.
func (e *Extractor) Extract(ctx context.Context, videoPath, outDir string, fps int) (*Result, error) {
	if fps <= 0 {
		return nil, fmt.Errorf("fps must be positive, got %d", fps)
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("create frame dir: %w", err)
	}

	log := logging.New("frames")
	res := &Result{Dir: outDir}

	stale, err := frameSet(outDir)
	if err != nil {
		return nil, err
	}
	if len(stale) > 0 {
		log.Warn("output dir already holds frames from an earlier run", "count", len(stale))
	}

	// Duration is informational only; a missing ffprobe does not stop the run.
	if dur, err := e.Probe(ctx, videoPath); err == nil {
		res.Duration = dur
	} else {
		log.Debug("probe failed, continuing without duration", "error", err)
	}

	log.Info("extracting frames", "video", videoPath, "fps", fps, "out", outDir)
	cmd := execx.Cmd{
		Name: e.FFmpeg,
		Args: []string{
			"-i", videoPath,
			"-vf", fmt.Sprintf("fps=%d", fps),
			"-qscale:v", "2",
			filepath.Join(outDir, FramePattern),
		},
	}
	if err := e.Runner.Run(ctx, cmd); err != nil {
		return nil, fmt.Errorf("extract frames: %w", err)
	}

	n, err := countNewFrames(outDir, stale)
	if err != nil {
		return nil, err
	}
	res.Count = n
	log.Info("extraction complete", "frames", n)
	return res, nil
}

// Probe returns the duration of videoPath in seconds via ffprobe.
func (e *Extractor) Probe(ctx context.Context, videoPath string) (float64, error) {
	out, err := e.Runner.Output(ctx, execx.Cmd{
		Name: e.FFprobe,
		Args: []string{
			"-v", "error",
			"-show_entries", "format=duration",
			"-of", "default=noprint_wrappers=1:nokey=1",
			videoPath,
		},
	})
	if err != nil {
		return 0, fmt.Errorf("probe video: %w", err)
	}
	dur, err := strconv.ParseFloat(strings.TrimSpace(out), 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", strings.TrimSpace(out), err)
	}
	return dur, nil
}

// frameSet lists the frame files already present in dir.
func frameSet(dir string) (map[string]struct{}, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "frame_*.jpg"))
	if err != nil {
		return nil, fmt.Errorf("list frames: %w", err)
	}
	set := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		set[m] = struct{}{}
	}
	return set, nil
}

// countNewFrames counts frame files in dir that are not in before.
func countNewFrames(dir string, before map[string]struct{}) (int, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "frame_*.jpg"))
	if err != nil {
		return 0, fmt.Errorf("count frames: %w", err)
	}
	n := 0
	for _, m := range matches {
		if _, ok := before[m]; !ok {
			n++
		}
	}
	return n, nil
}
