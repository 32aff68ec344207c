// Package pipeline wires the stage packages together: it is the single
// entry point the CLI and the MCP server call, and the place where runs get
// recorded in the store. Each stage is a blocking sequence of external-tool
// invocations; a failed tool stops the stage and the failure lands in the
// run history.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"splatpipe/internal/artifacts"
	"splatpipe/internal/colmap"
	"splatpipe/internal/config"
	"splatpipe/internal/dataset"
	"splatpipe/internal/execx"
	"splatpipe/internal/frames"
	"splatpipe/internal/logging"
	"splatpipe/internal/store"
	"splatpipe/internal/trainer"
)

// Pipeline executes the stages against one configuration. Store may be nil,
// in which case runs are not recorded.
type Pipeline struct {
	Cfg    *config.Config
	Runner execx.Runner
	Store  store.Store
}

// New returns a Pipeline. A nil runner gets the real ExecRunner.
func New(cfg *config.Config, r execx.Runner, st store.Store) *Pipeline {
	if r == nil {
		r = execx.NewRunner(logging.New("exec"))
	}
	return &Pipeline{Cfg: cfg, Runner: r, Store: st}
}

// record inserts a running run and returns a closure that finalizes it.
func (p *Pipeline) record(run *store.Run) func(error) {
	if p.Store == nil {
		return func(error) {}
	}
	id, err := p.Store.StartRun(run)
	if err != nil {
		logging.New("pipeline").Warn("run not recorded", "error", err)
		return func(error) {}
	}
	return func(stageErr error) {
		status, errText := store.StatusOK, ""
		if stageErr != nil {
			status, errText = store.StatusFailed, stageErr.Error()
		}
		if err := p.Store.FinishRun(id, status, errText); err != nil {
			logging.New("pipeline").Warn("run not finalized", "error", err)
		}
	}
}

// PrepareRequest describes one dataset-preparation run.
type PrepareRequest struct {
	Input      string // video file or photo directory
	Output     string // dataset root to create
	Video      bool   // input is a video
	FPS        int    // frame extraction rate (video only); 0 = config default
	TrainRatio float64
	ValRatio   float64
	SkipColmap bool
	Downscale  bool // also produce input_2/4/8 via ImageMagick
}

// PrepareResult summarizes a finished preparation. Model holds the sparse
// reconstruction stats when COLMAP produced a text model; nil when the
// reconstruction was skipped or registration failed.
type PrepareResult struct {
	Dataset string
	Images  int
	Train   int
	Val     int
	Test    int
	Model   *colmap.ModelInfo
}

// Prepare arranges the input into the dataset layout, splits it, and runs
// the COLMAP reconstruction.
func (p *Pipeline) Prepare(ctx context.Context, req PrepareRequest) (res *PrepareResult, err error) {
	finish := p.record(&store.Run{
		Kind:        store.KindPrepare,
		DatasetPath: req.Output,
		Args:        []string{"--input", req.Input, "--type", inputType(req.Video)},
	})
	defer func() { finish(err) }()

	if req.FPS == 0 {
		req.FPS = p.Cfg.Prepare.FPS
	}
	if req.TrainRatio == 0 {
		req.TrainRatio = p.Cfg.Prepare.TrainRatio
	}
	if req.ValRatio == 0 {
		req.ValRatio = p.Cfg.Prepare.ValRatio
	}

	if req.TrainRatio <= 0 || req.TrainRatio >= 1 {
		err = fmt.Errorf("train ratio must be in (0,1), got %g", req.TrainRatio)
		return nil, err
	}
	if req.ValRatio < 0 || req.TrainRatio+req.ValRatio >= 1 {
		err = fmt.Errorf("ratios must leave room for a test split (train=%g val=%g)",
			req.TrainRatio, req.ValRatio)
		return nil, err
	}
	if err = validateInput(req); err != nil {
		return nil, err
	}
	if err = dataset.Scaffold(req.Output); err != nil {
		return nil, err
	}

	srcDir := req.Input
	if req.Video {
		framesDir := filepath.Join(req.Output, "extracted_frames")
		ex := frames.NewExtractor(p.Cfg.Tools.FFmpeg, p.Cfg.Tools.FFprobe, p.Runner)
		if _, err = ex.Extract(ctx, req.Input, framesDir, req.FPS); err != nil {
			return nil, err
		}
		srcDir = framesDir
	}

	inputDir := filepath.Join(req.Output, "input")
	names, err := dataset.Ingest(ctx, srcDir, inputDir)
	if err != nil {
		return nil, err
	}

	splits := dataset.Split(names, req.TrainRatio, req.ValRatio, p.Cfg.Prepare.Seed)
	if err = dataset.WriteLists(req.Output, splits); err != nil {
		return nil, err
	}
	logging.New("pipeline").Info("split written",
		"train", len(splits.Train), "val", len(splits.Val), "test", len(splits.Test))

	if req.Downscale {
		if err = dataset.Downscale(ctx, p.Runner, p.Cfg.Tools.Magick, inputDir, dataset.DownscaleFactors); err != nil {
			return nil, err
		}
	}

	result := &PrepareResult{
		Dataset: req.Output,
		Images:  len(names),
		Train:   len(splits.Train),
		Val:     len(splits.Val),
		Test:    len(splits.Test),
	}

	if !req.SkipColmap {
		cm := colmap.New(p.Cfg.Tools.Colmap, p.Runner, colmap.Options{
			CameraModel:  p.Cfg.Colmap.CameraModel,
			Matcher:      p.Cfg.Colmap.Matcher,
			UseGPU:       p.Cfg.Colmap.UseGPU,
			SingleCamera: p.Cfg.Colmap.SingleCamera,
		})
		layout := colmap.DefaultLayout(req.Output)
		if err = cm.Run(ctx, layout); err != nil {
			return nil, err
		}
		if info, mErr := colmap.ReadModel(filepath.Join(layout.SparseDir, "0")); mErr == nil {
			result.Model = info
			logging.New("pipeline").Info("sparse model",
				"registered", info.Images, "points", info.Points, "camera_model", info.CameraModel)
		}
	}

	return result, nil
}

// Train invokes the external trainer against a prepared dataset.
func (p *Pipeline) Train(ctx context.Context, opts trainer.TrainOptions) (err error) {
	if opts.Iterations == 0 {
		opts.Iterations = p.Cfg.Trainer.Iterations
	}
	finish := p.record(&store.Run{
		Kind:        store.KindTrain,
		DatasetPath: opts.Dataset,
		ModelPath:   opts.Model,
		Args:        []string{"--iterations", fmt.Sprint(opts.Iterations)},
	})
	defer func() { finish(err) }()

	tr := trainer.New(p.Cfg.Trainer.Repo, p.Cfg.Tools.Python, p.Runner)
	if err = tr.CheckScripts(); err != nil {
		return err
	}
	return tr.Train(ctx, opts)
}

// Render invokes the external renderer for a trained model.
func (p *Pipeline) Render(ctx context.Context, opts trainer.RenderOptions) (err error) {
	finish := p.record(&store.Run{
		Kind:      store.KindRender,
		ModelPath: opts.Model,
		Args:      []string{"--iteration", fmt.Sprint(opts.Iteration)},
	})
	defer func() { finish(err) }()

	tr := trainer.New(p.Cfg.Trainer.Repo, p.Cfg.Tools.Python, p.Runner)
	if err = tr.CheckScripts(); err != nil {
		return err
	}
	return tr.Render(ctx, opts)
}

// Metrics invokes the external evaluation and returns the parsed results.
func (p *Pipeline) Metrics(ctx context.Context, modelDir string) (res artifacts.Results, err error) {
	finish := p.record(&store.Run{
		Kind:      store.KindMetrics,
		ModelPath: modelDir,
	})
	defer func() { finish(err) }()

	tr := trainer.New(p.Cfg.Trainer.Repo, p.Cfg.Tools.Python, p.Runner)
	if err = tr.CheckScripts(); err != nil {
		return nil, err
	}
	if err = tr.Metrics(ctx, modelDir); err != nil {
		return nil, err
	}
	res, err = artifacts.ReadResults(filepath.Join(modelDir, artifacts.ResultsFile))
	if err != nil {
		return nil, fmt.Errorf("evaluation finished but %s is unreadable: %w", artifacts.ResultsFile, err)
	}
	return res, nil
}

func inputType(video bool) string {
	if video {
		return "video"
	}
	return "photos"
}

func validateInput(req PrepareRequest) error {
	fi, err := os.Stat(req.Input)
	if err != nil {
		return fmt.Errorf("input %s: %w", req.Input, err)
	}
	if req.Video && fi.IsDir() {
		return fmt.Errorf("input %s is a directory; --type video expects a file", req.Input)
	}
	if !req.Video && !fi.IsDir() {
		return fmt.Errorf("input %s is a file; --type photos expects a directory", req.Input)
	}
	return nil
}
