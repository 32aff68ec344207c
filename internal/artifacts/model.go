package artifacts

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Fixed names inside a trained model directory. The layout is the external
// trainer's contract, not ours.
const (
	PointCloudDir  = "point_cloud"
	PointCloudFile = "point_cloud.ply"
	CamerasFile    = "cameras.json"
	ResultsFile    = "results.json"
	PerViewFile    = "per_view.json"
	CfgArgsFile    = "cfg_args"
)

// ErrNoCheckpoints is returned when a model directory holds no
// iteration_N checkpoints.
var ErrNoCheckpoints = errors.New("no checkpoints in model directory")

// Checkpoint is one saved point cloud at a training iteration.
type Checkpoint struct {
	Iteration int
	Path      string // .../point_cloud/iteration_N/point_cloud.ply
	SizeBytes int64
	Gaussians int // vertex count from the PLY header; 0 if unreadable
}

// ModelSummary is what ScanModel finds inside one model directory.
type ModelSummary struct {
	Dir         string
	Checkpoints []Checkpoint // ascending by iteration
	Cameras     int          // entries in cameras.json; 0 when absent
	HasResults  bool
	RenderSets  []string // e.g. "test/ours_30000", "train/ours_30000"
}

// CheckpointDir returns the directory of the checkpoint at iteration n.
func CheckpointDir(modelDir string, n int) string {
	return filepath.Join(modelDir, PointCloudDir, fmt.Sprintf("iteration_%d", n))
}

// Latest returns the highest-iteration checkpoint.
func (s *ModelSummary) Latest() (Checkpoint, error) {
	if len(s.Checkpoints) == 0 {
		return Checkpoint{}, fmt.Errorf("%w: %s", ErrNoCheckpoints, s.Dir)
	}
	return s.Checkpoints[len(s.Checkpoints)-1], nil
}

// ScanModel inspects modelDir and summarizes its artifacts. Missing optional
// artifacts (cameras.json, results.json, renders) are not errors; a missing
// or empty point_cloud/ just yields zero checkpoints.
func ScanModel(modelDir string) (*ModelSummary, error) {
	if _, err := os.Stat(modelDir); err != nil {
		return nil, fmt.Errorf("model directory: %w", err)
	}
	s := &ModelSummary{Dir: modelDir}

	entries, err := os.ReadDir(filepath.Join(modelDir, PointCloudDir))
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read point_cloud dir: %w", err)
	}
	for _, e := range entries {
		n, ok := IterationOf(e.Name())
		if !ok || !e.IsDir() {
			continue
		}
		path := filepath.Join(modelDir, PointCloudDir, e.Name(), PointCloudFile)
		fi, err := os.Stat(path)
		if err != nil {
			continue // checkpoint dir without a point cloud, e.g. mid-write
		}
		cp := Checkpoint{Iteration: n, Path: path, SizeBytes: fi.Size()}
		if info, err := ReadPLYHeader(path); err == nil {
			cp.Gaussians = info.Vertices
		}
		s.Checkpoints = append(s.Checkpoints, cp)
	}
	sort.Slice(s.Checkpoints, func(i, j int) bool {
		return s.Checkpoints[i].Iteration < s.Checkpoints[j].Iteration
	})

	if cams, err := ReadCameras(filepath.Join(modelDir, CamerasFile)); err == nil {
		s.Cameras = len(cams)
	}
	if _, err := os.Stat(filepath.Join(modelDir, ResultsFile)); err == nil {
		s.HasResults = true
	}
	s.RenderSets = renderSets(modelDir)
	return s, nil
}

// IterationOf extracts N from an "iteration_N" directory name.
func IterationOf(name string) (int, bool) {
	rest, ok := strings.CutPrefix(name, "iteration_")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// renderSets lists split/ours_N directories that contain renders.
func renderSets(modelDir string) []string {
	var sets []string
	for _, split := range []string{"train", "test"} {
		entries, err := os.ReadDir(filepath.Join(modelDir, split))
		if err != nil {
			continue
		}
		for _, e := range entries {
			if !e.IsDir() || !strings.HasPrefix(e.Name(), "ours_") {
				continue
			}
			if _, err := os.Stat(filepath.Join(modelDir, split, e.Name(), "renders")); err == nil {
				sets = append(sets, filepath.ToSlash(filepath.Join(split, e.Name())))
			}
		}
	}
	sort.Strings(sets)
	return sets
}
