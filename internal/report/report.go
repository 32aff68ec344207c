// Package report renders the evaluation artifacts (results.json,
// per_view.json) as a self-contained HTML page of charts.
package report

import (
	"fmt"
	"io"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"splatpipe/internal/artifacts"
	"splatpipe/internal/display"
)

// metricOrder fixes the chart order on the page.
var metricOrder = []string{"PSNR", "SSIM", "LPIPS"}

// Write renders the report for one model to w. perView may be nil when
// per_view.json is absent; the per-view charts are then skipped.
func Write(w io.Writer, title string, results artifacts.Results, perView artifacts.PerView) error {
	if len(results) == 0 {
		return fmt.Errorf("no evaluation results to report")
	}

	page := components.NewPage()
	page.PageTitle = title

	methods := results.Methods()
	for _, metric := range metricOrder {
		page.AddCharts(metricBar(metric, methods, results))
	}
	if perView != nil {
		for _, method := range methods {
			if chart := perViewLine(method, perView); chart != nil {
				page.AddCharts(chart)
			}
		}
	}

	if err := page.Render(w); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}

// WriteFile renders the report to path.
func WriteFile(path, title string, results artifacts.Results, perView artifacts.PerView) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	if err := Write(f, title, results, perView); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// metricBar charts one metric across all evaluated methods.
func metricBar(metric string, methods []string, results artifacts.Results) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    metric,
			Subtitle: display.Metric(metric),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)

	labels := make([]string, len(methods))
	data := make([]opts.BarData, len(methods))
	for i, m := range methods {
		labels[i] = display.Method(m)
		data[i] = opts.BarData{Value: metricValue(metric, results[m])}
	}
	bar.SetXAxis(labels).AddSeries(metric, data)
	return bar
}

// perViewLine charts per-image PSNR for one method, the quickest way to
// spot views the reconstruction struggles with.
func perViewLine(method string, perView artifacts.PerView) *charts.Line {
	views := perView.Views(method, "PSNR")
	if len(views) == 0 {
		return nil
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Per-view PSNR, " + display.Method(method),
			Subtitle: display.Metric("PSNR"),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)

	data := make([]opts.LineData, len(views))
	for i, v := range views {
		data[i] = opts.LineData{Value: perView[method]["PSNR"][v]}
	}
	line.SetXAxis(views).AddSeries("PSNR", data)
	return line
}

func metricValue(metric string, m artifacts.Metrics) float64 {
	switch metric {
	case "PSNR":
		return m.PSNR
	case "SSIM":
		return m.SSIM
	case "LPIPS":
		return m.LPIPS
	}
	return 0
}
