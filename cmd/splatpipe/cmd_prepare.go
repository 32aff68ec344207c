package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"splatpipe/internal/config"
	"splatpipe/internal/display"
	"splatpipe/internal/execx"
	"splatpipe/internal/pipeline"
	"splatpipe/internal/store"
)

var prepareFlags struct {
	input      string
	output     string
	inputType  string
	fps        int
	trainRatio float64
	valRatio   float64
	skipColmap bool
	skipDeps   bool
	downscale  bool
	dbPath     string
}

var prepareCmd = &cobra.Command{
	Use:   "prepare",
	Short: "Arrange photos or a video into a COLMAP-ready training dataset",
	Long: `Prepare builds the dataset layout the optimizer expects:

  <output>/input/              copied source images
  <output>/extracted_frames/   raw ffmpeg frames (video input only)
  <output>/distorted/          COLMAP database and sparse model
  <output>/{train,val,test}_list.txt

Video input is decoded with ffmpeg at a fixed frame rate, photo input is
copied as-is. Images are shuffled with a fixed seed and split into
train/val/test lists, then COLMAP runs feature extraction, matching and
sparse reconstruction unless --skip-colmap is given.`,
	RunE: runPrepare,
}

func init() {
	f := prepareCmd.Flags()
	f.StringVarP(&prepareFlags.input, "input", "i", "", "Video file or photo directory (required)")
	f.StringVarP(&prepareFlags.output, "output", "o", "", "Dataset directory to create (required)")
	f.StringVarP(&prepareFlags.inputType, "type", "t", "photos", "Input type: photos or video")
	f.IntVar(&prepareFlags.fps, "fps", 0, "Frames per second for video extraction (default from config)")
	f.Float64Var(&prepareFlags.trainRatio, "train-ratio", 0, "Training split ratio (default from config)")
	f.Float64Var(&prepareFlags.valRatio, "val-ratio", 0, "Validation split ratio (default from config)")
	f.BoolVar(&prepareFlags.skipColmap, "skip-colmap", false, "Skip the COLMAP reconstruction stage")
	f.BoolVar(&prepareFlags.skipDeps, "skip-deps-check", false, "Skip the external tool preflight check")
	f.BoolVar(&prepareFlags.downscale, "downscale", false, "Also produce input_2/4/8 copies via ImageMagick")
	f.StringVar(&prepareFlags.dbPath, "db", store.DefaultDBPath, "Run store DB path")

	_ = prepareCmd.MarkFlagRequired("input")
	_ = prepareCmd.MarkFlagRequired("output")
}

// checkPrepareDeps fails fast when a tool this run needs is not on PATH,
// before any files are written.
func checkPrepareDeps(cfg *config.Config, video, skipColmap bool) error {
	var missing []string
	if video {
		if _, err := execx.LookPath(cfg.Tools.FFmpeg); err != nil {
			missing = append(missing, cfg.Tools.FFmpeg)
		}
	}
	if !skipColmap {
		if _, err := execx.LookPath(cfg.Tools.Colmap); err != nil {
			missing = append(missing, cfg.Tools.Colmap)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required tool(s): %s (run 'splatpipe doctor' for install hints, or pass --skip-deps-check)",
			strings.Join(missing, ", "))
	}
	return nil
}

func runPrepare(cmd *cobra.Command, _ []string) error {
	if prepareFlags.inputType != "photos" && prepareFlags.inputType != "video" {
		return fmt.Errorf("--type must be photos or video, got %q", prepareFlags.inputType)
	}

	p, closeStore, err := newPipeline(prepareFlags.dbPath)
	if err != nil {
		return err
	}
	defer closeStore()

	if !prepareFlags.skipDeps && !rootFlags.dryRun {
		if err := checkPrepareDeps(p.Cfg, prepareFlags.inputType == "video", prepareFlags.skipColmap); err != nil {
			return err
		}
	}

	res, err := p.Prepare(cmd.Context(), pipeline.PrepareRequest{
		Input:      prepareFlags.input,
		Output:     prepareFlags.output,
		Video:      prepareFlags.inputType == "video",
		FPS:        prepareFlags.fps,
		TrainRatio: prepareFlags.trainRatio,
		ValRatio:   prepareFlags.valRatio,
		SkipColmap: prepareFlags.skipColmap,
		Downscale:  prepareFlags.downscale,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Dataset ready: %s\n", res.Dataset)
	fmt.Fprintf(out, "  images: %d (train %d, val %d, test %d)\n", res.Images, res.Train, res.Val, res.Test)
	if prepareFlags.skipColmap {
		fmt.Fprintf(out, "  COLMAP skipped; run it before training\n")
	}
	if res.Model != nil {
		fmt.Fprintf(out, "  reconstruction: %d/%d images registered, %d sparse points, %s\n",
			res.Model.Images, res.Images, res.Model.Points, display.CameraModel(res.Model.CameraModel))
	}
	return nil
}
