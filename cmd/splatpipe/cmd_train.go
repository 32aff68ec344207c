package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"splatpipe/internal/artifacts"
	"splatpipe/internal/format"
	"splatpipe/internal/store"
	"splatpipe/internal/trainer"
)

var trainFlags struct {
	dataset    string
	model      string
	iterations int
	eval       bool
	depthDir   string
	resolution int
	follow     bool
	dbPath     string
}

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train a Gaussian Splatting model on a prepared dataset",
	Long: `Train invokes the optimizer's train.py on a prepared dataset. The process
streams its output into the log and blocks until training finishes.
Checkpoints land under <model>/point_cloud/iteration_<N>/point_cloud.ply.

With --follow, checkpoint directories are announced as they appear.`,
	RunE: runTrain,
}

func init() {
	f := trainCmd.Flags()
	f.StringVarP(&trainFlags.dataset, "source", "s", "", "Prepared dataset directory (required)")
	f.StringVarP(&trainFlags.model, "model", "m", "", "Output model directory (required)")
	f.IntVar(&trainFlags.iterations, "iterations", 0, "Training iterations (default from config)")
	f.BoolVar(&trainFlags.eval, "eval", false, "Hold out a test set during training (required for metrics)")
	f.StringVarP(&trainFlags.depthDir, "depths", "d", "", "Monocular depth map directory for depth regularization")
	f.IntVarP(&trainFlags.resolution, "resolution", "r", 0, "Downscale factor for training images (0 = native)")
	f.BoolVar(&trainFlags.follow, "follow", false, "Announce checkpoints as training writes them")
	f.StringVar(&trainFlags.dbPath, "db", store.DefaultDBPath, "Run store DB path")

	_ = trainCmd.MarkFlagRequired("source")
	_ = trainCmd.MarkFlagRequired("model")
}

func runTrain(cmd *cobra.Command, _ []string) error {
	p, closeStore, err := newPipeline(trainFlags.dbPath)
	if err != nil {
		return err
	}
	defer closeStore()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	out := cmd.OutOrStdout()
	if trainFlags.follow {
		go func() {
			_ = trainer.WatchCheckpoints(ctx, trainFlags.model, func(cp artifacts.Checkpoint) {
				fmt.Fprintf(out, "checkpoint: iteration %d (%s gaussians)\n",
					cp.Iteration, format.FmtCount(cp.Gaussians))
			})
		}()
	}

	err = p.Train(ctx, trainer.TrainOptions{
		Dataset:    trainFlags.dataset,
		Model:      trainFlags.model,
		Iterations: trainFlags.iterations,
		Eval:       trainFlags.eval,
		DepthDir:   trainFlags.depthDir,
		Resolution: trainFlags.resolution,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Training finished: %s\n", trainFlags.model)
	if summary, err := artifacts.ScanModel(trainFlags.model); err == nil {
		if latest, err := summary.Latest(); err == nil {
			fmt.Fprintf(out, "  latest checkpoint: iteration %d (%s gaussians)\n",
				latest.Iteration, format.FmtCount(latest.Gaussians))
		}
	}
	return nil
}
