package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"splatpipe/internal/artifacts"
)

func sampleResults() artifacts.Results {
	return artifacts.Results{
		"ours_7000":  {SSIM: 0.84, PSNR: 24.1, LPIPS: 0.21},
		"ours_30000": {SSIM: 0.90, PSNR: 27.3, LPIPS: 0.14},
	}
}

func TestWrite_ContainsAllMetricCharts(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, "scene", sampleResults(), nil)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	html := buf.String()
	for _, want := range []string{"PSNR", "SSIM", "LPIPS", "iteration 30000", "iteration 7000"} {
		if !strings.Contains(html, want) {
			t.Errorf("report missing %q", want)
		}
	}
	if !strings.Contains(html, "echarts") {
		t.Error("report should embed echarts")
	}
}

func TestWrite_PerViewLine(t *testing.T) {
	pv := artifacts.PerView{
		"ours_30000": {
			"PSNR": {"00001.png": 28.0, "00002.png": 26.0},
		},
	}

	var buf bytes.Buffer
	if err := Write(&buf, "scene", sampleResults(), pv); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !strings.Contains(buf.String(), "Per-view PSNR") {
		t.Error("report missing per-view chart")
	}
	if !strings.Contains(buf.String(), "00001.png") {
		t.Error("report missing per-view labels")
	}
}

func TestWrite_EmptyResults(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, "scene", artifacts.Results{}, nil); err == nil {
		t.Fatal("expected error for empty results")
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.html")
	if err := WriteFile(path, "scene", sampleResults(), nil); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !strings.Contains(string(data), "PSNR") {
		t.Error("written report missing content")
	}
}
