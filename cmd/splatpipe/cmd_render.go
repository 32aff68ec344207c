package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"splatpipe/internal/artifacts"
	"splatpipe/internal/store"
	"splatpipe/internal/trainer"
)

var renderFlags struct {
	model     string
	iteration int
	skipTrain bool
	skipTest  bool
	dbPath    string
}

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render train/test views from a trained model",
	Long: `Render invokes render.py on a trained model. Output images land under
<model>/{train,test}/ours_<N>/{renders,gt}/ where N is the checkpoint
iteration. Without --iteration the latest checkpoint is used.`,
	RunE: runRender,
}

func init() {
	f := renderCmd.Flags()
	f.StringVarP(&renderFlags.model, "model", "m", "", "Trained model directory (required)")
	f.IntVar(&renderFlags.iteration, "iteration", 0, "Checkpoint iteration to render (default: latest)")
	f.BoolVar(&renderFlags.skipTrain, "skip-train", false, "Skip rendering the training views")
	f.BoolVar(&renderFlags.skipTest, "skip-test", false, "Skip rendering the test views")
	f.StringVar(&renderFlags.dbPath, "db", store.DefaultDBPath, "Run store DB path")

	_ = renderCmd.MarkFlagRequired("model")
}

func runRender(cmd *cobra.Command, _ []string) error {
	p, closeStore, err := newPipeline(renderFlags.dbPath)
	if err != nil {
		return err
	}
	defer closeStore()

	err = p.Render(cmd.Context(), trainer.RenderOptions{
		Model:     renderFlags.model,
		Iteration: renderFlags.iteration,
		SkipTrain: renderFlags.skipTrain,
		SkipTest:  renderFlags.skipTest,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Rendering finished: %s\n", renderFlags.model)
	if summary, err := artifacts.ScanModel(renderFlags.model); err == nil && len(summary.RenderSets) > 0 {
		fmt.Fprintf(out, "  render sets: %s\n", strings.Join(summary.RenderSets, ", "))
	}
	return nil
}
