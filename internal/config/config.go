// Package config holds the pipeline configuration: where the external tools
// live, where the trainer checkout is, and the defaults each stage starts
// from. Values come from a splatpipe.yaml/.json file, SPLATPIPE_* environment
// variables, and finally command-line flags, in that order of increasing
// precedence.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Tools names the external binaries the pipeline invokes. Each entry may be a
// bare name (resolved on PATH) or an absolute path.
type Tools struct {
	FFmpeg  string `json:"ffmpeg" yaml:"ffmpeg" env:"SPLATPIPE_FFMPEG"`
	FFprobe string `json:"ffprobe" yaml:"ffprobe" env:"SPLATPIPE_FFPROBE"`
	Colmap  string `json:"colmap" yaml:"colmap" env:"SPLATPIPE_COLMAP"`
	Python  string `json:"python" yaml:"python" env:"SPLATPIPE_PYTHON"`
	Magick  string `json:"magick" yaml:"magick" env:"SPLATPIPE_MAGICK"`
}

// Trainer locates the external gaussian-splatting checkout whose train.py,
// render.py and metrics.py the train/render/metrics commands invoke.
type Trainer struct {
	Repo       string `json:"repo" yaml:"repo" env:"SPLATPIPE_TRAINER_REPO"`
	Iterations int    `json:"iterations" yaml:"iterations" env:"SPLATPIPE_ITERATIONS"`
}

// Colmap holds the reconstruction options passed through to COLMAP.
type Colmap struct {
	CameraModel  string `json:"camera_model" yaml:"camera_model" env:"SPLATPIPE_CAMERA_MODEL"`
	Matcher      string `json:"matcher" yaml:"matcher" env:"SPLATPIPE_MATCHER"`
	UseGPU       bool   `json:"use_gpu" yaml:"use_gpu" env:"SPLATPIPE_COLMAP_GPU"`
	SingleCamera bool   `json:"single_camera" yaml:"single_camera"`
}

// Prepare holds dataset-preparation defaults.
type Prepare struct {
	FPS        int     `json:"fps" yaml:"fps" env:"SPLATPIPE_FPS"`
	TrainRatio float64 `json:"train_ratio" yaml:"train_ratio"`
	ValRatio   float64 `json:"val_ratio" yaml:"val_ratio"`
	Seed       int64   `json:"seed" yaml:"seed"`
}

// Config is the full pipeline configuration.
type Config struct {
	Tools   Tools   `json:"tools" yaml:"tools"`
	Trainer Trainer `json:"trainer" yaml:"trainer"`
	Colmap  Colmap  `json:"colmap" yaml:"colmap"`
	Prepare Prepare `json:"prepare" yaml:"prepare"`
}

// Default returns the configuration used when no file or environment
// overrides are present. The COLMAP options mirror what the wrapped trainer
// expects from its own convert step: one shared OPENCV camera, GPU SIFT.
func Default() *Config {
	return &Config{
		Tools: Tools{
			FFmpeg:  "ffmpeg",
			FFprobe: "ffprobe",
			Colmap:  "colmap",
			Python:  "python3",
			Magick:  "magick",
		},
		Trainer: Trainer{
			Repo:       "gaussian-splatting",
			Iterations: 30000,
		},
		Colmap: Colmap{
			CameraModel:  "OPENCV",
			Matcher:      "exhaustive",
			UseGPU:       true,
			SingleCamera: true,
		},
		Prepare: Prepare{
			FPS:        2,
			TrainRatio: 0.8,
			ValRatio:   0.1,
			Seed:       42,
		},
	}
}

// ApplyEnv overlays SPLATPIPE_* environment variables onto c.
func (c *Config) ApplyEnv() error {
	if err := env.Parse(c); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate checks invariants the stages rely on.
func (c *Config) Validate() error {
	if c.Prepare.FPS <= 0 {
		return fmt.Errorf("prepare.fps must be positive, got %d", c.Prepare.FPS)
	}
	if c.Prepare.TrainRatio <= 0 || c.Prepare.TrainRatio >= 1 {
		return fmt.Errorf("prepare.train_ratio must be in (0,1), got %g", c.Prepare.TrainRatio)
	}
	if c.Prepare.ValRatio < 0 || c.Prepare.TrainRatio+c.Prepare.ValRatio >= 1 {
		return fmt.Errorf("prepare ratios must leave room for a test split (train=%g val=%g)",
			c.Prepare.TrainRatio, c.Prepare.ValRatio)
	}
	switch c.Colmap.Matcher {
	case "exhaustive", "sequential":
	default:
		return fmt.Errorf("colmap.matcher must be exhaustive or sequential, got %q", c.Colmap.Matcher)
	}
	if c.Trainer.Iterations <= 0 {
		return fmt.Errorf("trainer.iterations must be positive, got %d", c.Trainer.Iterations)
	}
	return nil
}
