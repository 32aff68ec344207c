package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"splatpipe/internal/display"
	"splatpipe/internal/format"
	"splatpipe/internal/store"
)

var metricsFlags struct {
	model    string
	markdown bool
	dbPath   string
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Evaluate rendered views and print PSNR/SSIM/LPIPS",
	Long: `Metrics invokes metrics.py on a model's rendered test views and prints
the per-method summary from results.json. The model must have been
trained with --eval and rendered first.`,
	RunE: runMetrics,
}

func init() {
	f := metricsCmd.Flags()
	f.StringVarP(&metricsFlags.model, "model", "m", "", "Trained model directory with rendered views (required)")
	f.BoolVar(&metricsFlags.markdown, "markdown", false, "Print the summary as a Markdown table")
	f.StringVar(&metricsFlags.dbPath, "db", store.DefaultDBPath, "Run store DB path")

	_ = metricsCmd.MarkFlagRequired("model")
}

// metricHeader tags a metric column with its improvement direction.
func metricHeader(code string) string {
	if display.HigherIsBetter(code) {
		return code + " ↑"
	}
	return code + " ↓"
}

func runMetrics(cmd *cobra.Command, _ []string) error {
	p, closeStore, err := newPipeline(metricsFlags.dbPath)
	if err != nil {
		return err
	}
	defer closeStore()

	results, err := p.Metrics(cmd.Context(), metricsFlags.model)
	if err != nil {
		return err
	}

	mode := format.ASCII
	if metricsFlags.markdown {
		mode = format.Markdown
	}
	tbl := format.NewTable(mode)
	tbl.Header("Method", metricHeader("PSNR"), metricHeader("SSIM"), metricHeader("LPIPS"))
	tbl.Columns(
		format.ColumnConfig{Number: 2, Align: format.AlignRight},
		format.ColumnConfig{Number: 3, Align: format.AlignRight},
		format.ColumnConfig{Number: 4, Align: format.AlignRight},
	)
	for _, method := range results.Methods() {
		m := results[method]
		tbl.Row(
			display.Method(method),
			format.FmtMetric("PSNR", m.PSNR),
			format.FmtMetric("SSIM", m.SSIM),
			format.FmtMetric("LPIPS", m.LPIPS),
		)
	}
	fmt.Fprintln(cmd.OutOrStdout(), tbl.String())
	return nil
}
