package colmap

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ModelInfo summarizes a text-format sparse model (cameras.txt, images.txt,
// points3D.txt) for status output. The text files exist after
// ConvertToText; binary-only models report ErrNoTextModel.
type ModelInfo struct {
	Cameras     int
	CameraModel string // model of the first camera, e.g. OPENCV
	Width       int
	Height      int
	Images      int // registered images
	Points      int // sparse 3D points
}

// ErrNoTextModel is returned when modelDir has no cameras.txt.
var ErrNoTextModel = fmt.Errorf("no text-format model")

// ReadModel parses the text model in modelDir.
func ReadModel(modelDir string) (*ModelInfo, error) {
	camerasPath := filepath.Join(modelDir, "cameras.txt")
	if _, err := os.Stat(camerasPath); err != nil {
		return nil, fmt.Errorf("%w in %s", ErrNoTextModel, modelDir)
	}

	info := &ModelInfo{}
	if err := readCameras(camerasPath, info); err != nil {
		return nil, err
	}

	n, err := countDataLines(filepath.Join(modelDir, "images.txt"))
	if err != nil {
		return nil, err
	}
	// images.txt carries two lines per image: the pose line and the
	// POINTS2D line.
	info.Images = n / 2

	points, err := countDataLines(filepath.Join(modelDir, "points3D.txt"))
	if err == nil {
		info.Points = points
	}
	return info, nil
}

// readCameras fills camera count and first-camera intrinsics header fields.
// Line format: CAMERA_ID MODEL WIDTH HEIGHT PARAMS[].
func readCameras(path string, info *ModelInfo) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open cameras.txt: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		info.Cameras++
		if info.CameraModel == "" {
			fields := strings.Fields(line)
			if len(fields) >= 4 {
				info.CameraModel = fields[1]
				info.Width, _ = strconv.Atoi(fields[2])
				info.Height, _ = strconv.Atoi(fields[3])
			}
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("scan cameras.txt: %w", err)
	}
	return nil
}

func countDataLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	n := 0
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024) // points3D lines can be long
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		n++
	}
	if err := sc.Err(); err != nil {
		return 0, fmt.Errorf("scan %s: %w", filepath.Base(path), err)
	}
	return n, nil
}
