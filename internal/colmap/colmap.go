// Package colmap drives the COLMAP structure-from-motion pipeline: feature
// extraction, matching, sparse mapping, and model conversion. COLMAP itself
// is an opaque external binary; this package owns only the argument lists
// and the sequencing.
package colmap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"splatpipe/internal/execx"
	"splatpipe/internal/logging"
)

// Options are the reconstruction knobs exposed to users. The defaults
// (single OPENCV camera, GPU SIFT, exhaustive matching) match what the
// wrapped trainer's own conversion step uses.
type Options struct {
	CameraModel  string // OPENCV, PINHOLE, SIMPLE_RADIAL, ...
	Matcher      string // "exhaustive" or "sequential"
	UseGPU       bool
	SingleCamera bool
}

// Pipeline invokes COLMAP stages against one dataset.
type Pipeline struct {
	Bin    string // colmap binary name or path
	Runner execx.Runner
	Opts   Options
}

// New returns a Pipeline for the given binary and options.
func New(bin string, r execx.Runner, opts Options) *Pipeline {
	return &Pipeline{Bin: bin, Runner: r, Opts: opts}
}

// Layout is the on-disk arrangement of one reconstruction, rooted at the
// dataset's distorted/ directory.
type Layout struct {
	ImageDir     string // undistorted input images
	DatabasePath string // distorted/database.db
	SparseDir    string // distorted/sparse
}

// DefaultLayout returns the layout the trainer expects under datasetDir.
func DefaultLayout(datasetDir string) Layout {
	distorted := filepath.Join(datasetDir, "distorted")
	return Layout{
		ImageDir:     filepath.Join(datasetDir, "input"),
		DatabasePath: filepath.Join(distorted, "database.db"),
		SparseDir:    filepath.Join(distorted, "sparse"),
	}
}

// Run executes the full reconstruction sequence against layout:
// feature_extractor → matcher → mapper → model_converter (TXT). The
// converter step only runs when the mapper produced a model at sparse/0;
// mapper silently writes nothing when registration fails for all images.
func (p *Pipeline) Run(ctx context.Context, layout Layout) error {
	log := logging.New("colmap")

	if err := os.MkdirAll(layout.SparseDir, 0755); err != nil {
		return fmt.Errorf("create sparse dir: %w", err)
	}

	log.Info("feature extraction", "images", layout.ImageDir)
	if err := p.FeatureExtract(ctx, layout.DatabasePath, layout.ImageDir); err != nil {
		return err
	}

	log.Info("feature matching", "matcher", p.Opts.Matcher)
	if err := p.Match(ctx, layout.DatabasePath); err != nil {
		return err
	}

	log.Info("sparse reconstruction")
	if err := p.Map(ctx, layout.DatabasePath, layout.ImageDir, layout.SparseDir); err != nil {
		return err
	}

	modelDir := filepath.Join(layout.SparseDir, "0")
	if _, err := os.Stat(modelDir); err == nil {
		log.Info("converting model to text")
		if err := p.ConvertToText(ctx, modelDir); err != nil {
			return err
		}
	} else {
		log.Warn("mapper produced no model; skipping conversion", "dir", modelDir)
	}

	log.Info("reconstruction complete")
	return nil
}

// FeatureExtract runs colmap feature_extractor.
func (p *Pipeline) FeatureExtract(ctx context.Context, dbPath, imageDir string) error {
	args := []string{
		"feature_extractor",
		"--database_path", dbPath,
		"--image_path", imageDir,
		"--ImageReader.camera_model", p.Opts.CameraModel,
		"--ImageReader.single_camera", boolFlag(p.Opts.SingleCamera),
		"--SiftExtraction.use_gpu", boolFlag(p.Opts.UseGPU),
	}
	if err := p.Runner.Run(ctx, execx.Cmd{Name: p.Bin, Args: args}); err != nil {
		return fmt.Errorf("feature extraction: %w", err)
	}
	return nil
}

// Match runs the configured matcher (exhaustive_matcher or
// sequential_matcher; sequential suits ordered video frames).
func (p *Pipeline) Match(ctx context.Context, dbPath string) error {
	matcher := "exhaustive_matcher"
	if p.Opts.Matcher == "sequential" {
		matcher = "sequential_matcher"
	}
	args := []string{
		matcher,
		"--database_path", dbPath,
		"--SiftMatching.use_gpu", boolFlag(p.Opts.UseGPU),
	}
	if err := p.Runner.Run(ctx, execx.Cmd{Name: p.Bin, Args: args}); err != nil {
		return fmt.Errorf("feature matching: %w", err)
	}
	return nil
}

// Map runs colmap mapper, writing sparse models under sparseDir.
func (p *Pipeline) Map(ctx context.Context, dbPath, imageDir, sparseDir string) error {
	args := []string{
		"mapper",
		"--database_path", dbPath,
		"--image_path", imageDir,
		"--output_path", sparseDir,
	}
	if err := p.Runner.Run(ctx, execx.Cmd{Name: p.Bin, Args: args}); err != nil {
		return fmt.Errorf("sparse reconstruction: %w", err)
	}
	return nil
}

// ConvertToText converts the binary model in modelDir to TXT in place, so
// cameras.txt/images.txt are inspectable and the trainer can read either.
func (p *Pipeline) ConvertToText(ctx context.Context, modelDir string) error {
	args := []string{
		"model_converter",
		"--input_path", modelDir,
		"--output_path", modelDir,
		"--output_type", "TXT",
	}
	if err := p.Runner.Run(ctx, execx.Cmd{Name: p.Bin, Args: args}); err != nil {
		return fmt.Errorf("model conversion: %w", err)
	}
	return nil
}

func boolFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
