// Package trainer invokes the external gaussian-splatting scripts
// (train.py, render.py, metrics.py). The checkout is a separately cloned
// repository; this package only locates the scripts and builds their
// argument lists.
package trainer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"splatpipe/internal/execx"
	"splatpipe/internal/logging"
)

// Script filenames inside the trainer checkout.
const (
	TrainScript   = "train.py"
	RenderScript  = "render.py"
	MetricsScript = "metrics.py"
)

// Trainer runs the external training/rendering/evaluation scripts.
type Trainer struct {
	Repo   string // path to the gaussian-splatting checkout
	Python string // python interpreter
	Runner execx.Runner
}

// New returns a Trainer for the given checkout and interpreter.
func New(repo, python string, r execx.Runner) *Trainer {
	return &Trainer{Repo: repo, Python: python, Runner: r}
}

// CheckScripts verifies the checkout holds the three entry scripts.
func (t *Trainer) CheckScripts() error {
	for _, script := range []string{TrainScript, RenderScript, MetricsScript} {
		if _, err := os.Stat(filepath.Join(t.Repo, script)); err != nil {
			return fmt.Errorf("trainer checkout %s is missing %s (clone the gaussian-splatting repo and set trainer.repo)", t.Repo, script)
		}
	}
	return nil
}

// TrainOptions mirror the train.py flags the pipeline exposes.
type TrainOptions struct {
	Dataset    string // -s, the prepared dataset directory
	Model      string // -m, the output model directory
	Iterations int    // --iterations, 0 = script default
	Eval       bool   // --eval, hold out a test set during training
	DepthDir   string // -d, monocular depth maps for depth regularization
	Resolution int    // -r, downscale factor (0 = native)
}

// Train runs train.py. The script streams its own progress; a failure
// surfaces the exit status with the output tail.
func (t *Trainer) Train(ctx context.Context, opts TrainOptions) error {
	dataset, err := filepath.Abs(opts.Dataset)
	if err != nil {
		return fmt.Errorf("resolve dataset path: %w", err)
	}
	model, err := filepath.Abs(opts.Model)
	if err != nil {
		return fmt.Errorf("resolve model path: %w", err)
	}

	args := []string{TrainScript, "-s", dataset, "-m", model}
	if opts.Iterations > 0 {
		args = append(args, "--iterations", strconv.Itoa(opts.Iterations))
	}
	if opts.Eval {
		args = append(args, "--eval")
	}
	if opts.DepthDir != "" {
		depths, err := filepath.Abs(opts.DepthDir)
		if err != nil {
			return fmt.Errorf("resolve depth path: %w", err)
		}
		args = append(args, "-d", depths)
	}
	if opts.Resolution > 0 {
		args = append(args, "-r", strconv.Itoa(opts.Resolution))
	}

	logging.New("trainer").Info("training", "dataset", dataset, "model", model, "iterations", opts.Iterations)
	if err := t.Runner.Run(ctx, execx.Cmd{Name: t.Python, Args: args, Dir: t.Repo}); err != nil {
		return fmt.Errorf("train: %w", err)
	}
	return nil
}

// RenderOptions mirror the render.py flags the pipeline exposes.
type RenderOptions struct {
	Model     string // -m
	Iteration int    // --iteration, 0 = latest
	SkipTrain bool   // --skip_train
	SkipTest  bool   // --skip_test
}

// Render runs render.py, producing renders/ and gt/ under
// <model>/{train,test}/ours_<N>/.
func (t *Trainer) Render(ctx context.Context, opts RenderOptions) error {
	model, err := filepath.Abs(opts.Model)
	if err != nil {
		return fmt.Errorf("resolve model path: %w", err)
	}

	args := []string{RenderScript, "-m", model}
	if opts.Iteration > 0 {
		args = append(args, "--iteration", strconv.Itoa(opts.Iteration))
	}
	if opts.SkipTrain {
		args = append(args, "--skip_train")
	}
	if opts.SkipTest {
		args = append(args, "--skip_test")
	}

	logging.New("trainer").Info("rendering", "model", model, "iteration", opts.Iteration)
	if err := t.Runner.Run(ctx, execx.Cmd{Name: t.Python, Args: args, Dir: t.Repo}); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	return nil
}

// Metrics runs metrics.py, which writes results.json and per_view.json into
// the model directory.
func (t *Trainer) Metrics(ctx context.Context, modelDir string) error {
	model, err := filepath.Abs(modelDir)
	if err != nil {
		return fmt.Errorf("resolve model path: %w", err)
	}

	logging.New("trainer").Info("computing metrics", "model", model)
	args := []string{MetricsScript, "-m", model}
	if err := t.Runner.Run(ctx, execx.Cmd{Name: t.Python, Args: args, Dir: t.Repo}); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	return nil
}
