// Package display provides human-readable names for machine codes.
//
// Rule: code is for machines, words are for humans.
// Use these functions in CLI output, reports, logs, and docs.
// Keep raw codes for JSON fields, map keys, and equality comparisons.
package display

import (
	"fmt"
	"strings"
)

// --- Run kinds ---

var runKinds = map[string]string{
	"prepare": "Dataset Preparation",
	"train":   "Training",
	"render":  "Rendering",
	"metrics": "Evaluation",
}

// RunKind returns the human-readable name for a run kind.
// Unknown codes are returned as-is.
func RunKind(code string) string {
	if name, ok := runKinds[code]; ok {
		return name
	}
	return code
}

// --- COLMAP camera models ---

var cameraModels = map[string]string{
	"SIMPLE_PINHOLE": "Simple Pinhole (f, cx, cy)",
	"PINHOLE":        "Pinhole (fx, fy, cx, cy)",
	"SIMPLE_RADIAL":  "Simple Radial (f, cx, cy, k)",
	"RADIAL":         "Radial (f, cx, cy, k1, k2)",
	"OPENCV":         "OpenCV (fx, fy, cx, cy, k1, k2, p1, p2)",
	"OPENCV_FISHEYE": "OpenCV Fisheye (fx, fy, cx, cy, k1-k4)",
}

// CameraModel returns the human-readable description for a COLMAP camera
// model code. Unknown codes are returned as-is.
func CameraModel(code string) string {
	if name, ok := cameraModels[code]; ok {
		return name
	}
	return code
}

// --- Image-quality metrics ---

var metricNames = map[string]string{
	"PSNR":  "Peak Signal-to-Noise Ratio (dB, higher is better)",
	"SSIM":  "Structural Similarity (higher is better)",
	"LPIPS": "Learned Perceptual Similarity (lower is better)",
}

// Metric returns the long name for a metric code, with its direction.
func Metric(code string) string {
	if name, ok := metricNames[strings.ToUpper(code)]; ok {
		return name
	}
	return code
}

// HigherIsBetter reports the improvement direction of a metric.
func HigherIsBetter(code string) bool {
	return strings.ToUpper(code) != "LPIPS"
}

// --- Method keys ---

// Method renders a results.json key like "ours_30000" as
// "iteration 30000". Keys without the ours_ prefix pass through.
func Method(key string) string {
	if rest, ok := strings.CutPrefix(key, "ours_"); ok {
		return fmt.Sprintf("iteration %s", rest)
	}
	return key
}
