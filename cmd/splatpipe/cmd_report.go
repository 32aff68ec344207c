package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"splatpipe/internal/artifacts"
	"splatpipe/internal/report"
)

var reportFlags struct {
	model  string
	output string
	title  string
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Write an HTML evaluation report with metric charts",
	Long: `Report reads results.json (and per_view.json when present) from an
evaluated model and writes a standalone HTML page with per-metric bar
charts and a per-view PSNR line chart.`,
	RunE: runReport,
}

func init() {
	f := reportCmd.Flags()
	f.StringVarP(&reportFlags.model, "model", "m", "", "Evaluated model directory (required)")
	f.StringVarP(&reportFlags.output, "output", "o", "", "Report path (default: <model>/report.html)")
	f.StringVar(&reportFlags.title, "title", "", "Report title (default: model directory name)")

	_ = reportCmd.MarkFlagRequired("model")
}

func runReport(cmd *cobra.Command, _ []string) error {
	results, err := artifacts.ReadResults(filepath.Join(reportFlags.model, artifacts.ResultsFile))
	if err != nil {
		return fmt.Errorf("read evaluation results: %w (run 'splatpipe metrics' first)", err)
	}

	// Per-view data is optional; older evaluations may not have it.
	perView, err := artifacts.ReadPerView(filepath.Join(reportFlags.model, artifacts.PerViewFile))
	if err != nil {
		perView = nil
	}

	out := reportFlags.output
	if out == "" {
		out = filepath.Join(reportFlags.model, "report.html")
	}
	title := reportFlags.title
	if title == "" {
		title = filepath.Base(reportFlags.model)
	}

	if err := report.WriteFile(out, title, results, perView); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Report written: %s\n", out)
	return nil
}
