package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"splatpipe/internal/artifacts"
	"splatpipe/internal/display"
	"splatpipe/internal/format"
	"splatpipe/internal/store"
)

var statusFlags struct {
	model  string
	runs   int
	dbPath string
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show model checkpoints and recent pipeline runs",
	RunE:  runStatus,
}

func init() {
	f := statusCmd.Flags()
	f.StringVarP(&statusFlags.model, "model", "m", "", "Model directory to inspect")
	f.IntVar(&statusFlags.runs, "runs", 10, "Recent runs to list (0 = none)")
	f.StringVar(&statusFlags.dbPath, "db", store.DefaultDBPath, "Run store DB path")
}

func runStatus(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()

	if statusFlags.model != "" {
		if err := printModelStatus(out, statusFlags.model); err != nil {
			return err
		}
	}

	if statusFlags.runs > 0 {
		if err := printRecentRuns(out, statusFlags.dbPath, statusFlags.runs); err != nil {
			return err
		}
	}

	if statusFlags.model == "" && statusFlags.runs <= 0 {
		fmt.Fprintln(out, "Nothing to show: pass --model and/or --runs.")
	}
	return nil
}

func printModelStatus(out io.Writer, modelDir string) error {
	summary, err := artifacts.ScanModel(modelDir)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Model:   %s\n", summary.Dir)
	fmt.Fprintf(out, "Cameras: %d\n", summary.Cameras)
	fmt.Fprintf(out, "Results: %s\n", format.BoolMark(summary.HasResults))
	if len(summary.RenderSets) > 0 {
		fmt.Fprintf(out, "Renders: %s\n", strings.Join(summary.RenderSets, ", "))
	}

	if len(summary.Checkpoints) == 0 {
		fmt.Fprintln(out, "No checkpoints yet.")
		return nil
	}

	tbl := format.NewTable(format.ASCII)
	tbl.Header("Iteration", "Gaussians", "Size")
	tbl.Columns(
		format.ColumnConfig{Number: 1, Align: format.AlignRight},
		format.ColumnConfig{Number: 2, Align: format.AlignRight},
		format.ColumnConfig{Number: 3, Align: format.AlignRight},
	)
	for _, cp := range summary.Checkpoints {
		tbl.Row(cp.Iteration, format.FmtCount(cp.Gaussians), humanize.Bytes(uint64(cp.SizeBytes)))
	}
	fmt.Fprintln(out, tbl.String())
	return nil
}

func printRecentRuns(out io.Writer, dbPath string, limit int) error {
	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open run store: %w", err)
	}
	defer st.Close()

	runs, err := st.RecentRuns(limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No recorded runs.")
		return nil
	}

	tbl := format.NewTable(format.ASCII)
	tbl.Header("ID", "Stage", "Status", "Duration", "Started", "Target")
	tbl.Columns(
		format.ColumnConfig{Number: 1, Align: format.AlignRight},
		format.ColumnConfig{Number: 4, Align: format.AlignRight},
		format.ColumnConfig{Number: 6, MaxWidth: 48},
	)
	for _, r := range runs {
		target := r.ModelPath
		if target == "" {
			target = r.DatasetPath
		}
		status := r.Status
		if r.Status == store.StatusFailed && r.Error != "" {
			status = "failed: " + format.Truncate(r.Error, 40)
		}
		tbl.Row(
			r.ID,
			display.RunKind(r.Kind),
			status,
			format.FmtDuration(r.Duration()),
			r.StartedAt.Format("2006-01-02 15:04"),
			target,
		)
	}
	fmt.Fprintln(out, tbl.String())
	return nil
}
