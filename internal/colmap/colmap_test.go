package colmap

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"splatpipe/internal/execx"
)

func defaultOpts() Options {
	return Options{CameraModel: "OPENCV", Matcher: "exhaustive", UseGPU: true, SingleCamera: true}
}

func TestRun_InvokesStagesInOrder(t *testing.T) {
	dataset := t.TempDir()
	layout := DefaultLayout(dataset)
	// Pretend the mapper produced a model so conversion runs.
	if err := os.MkdirAll(filepath.Join(layout.SparseDir, "0"), 0755); err != nil {
		t.Fatal(err)
	}

	fake := &execx.FakeRunner{}
	p := New("colmap", fake, defaultOpts())
	if err := p.Run(context.Background(), layout); err != nil {
		t.Fatalf("Run: %v", err)
	}

	lines := fake.CommandLines()
	if len(lines) != 4 {
		t.Fatalf("expected 4 stages, got %d: %v", len(lines), lines)
	}
	wantOrder := []string{"feature_extractor", "exhaustive_matcher", "mapper", "model_converter"}
	for i, stage := range wantOrder {
		if !strings.Contains(lines[i], "colmap "+stage) {
			t.Errorf("stage %d: got %q, want %q invocation", i, lines[i], stage)
		}
	}
}

func TestRun_SkipsConversionWithoutModel(t *testing.T) {
	layout := DefaultLayout(t.TempDir())

	fake := &execx.FakeRunner{}
	p := New("colmap", fake, defaultOpts())
	if err := p.Run(context.Background(), layout); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if fake.CalledWith("model_converter") {
		t.Errorf("conversion should be skipped when sparse/0 is absent: %v", fake.CommandLines())
	}
}

func TestRun_StopsAtFailedStage(t *testing.T) {
	layout := DefaultLayout(t.TempDir())

	fake := &execx.FakeRunner{Err: errors.New("SIFT GPU not available")}
	p := New("colmap", fake, defaultOpts())
	err := p.Run(context.Background(), layout)
	if err == nil {
		t.Fatal("expected failure")
	}
	if !strings.Contains(err.Error(), "feature extraction") {
		t.Errorf("error should name the failed stage, got: %v", err)
	}
	if len(fake.Calls()) != 1 {
		t.Errorf("pipeline should stop after the failed stage, ran %d", len(fake.Calls()))
	}
}

func TestFeatureExtract_Args(t *testing.T) {
	fake := &execx.FakeRunner{}
	p := New("colmap", fake, defaultOpts())

	if err := p.FeatureExtract(context.Background(), "db.db", "imgs"); err != nil {
		t.Fatalf("FeatureExtract: %v", err)
	}
	want := "colmap feature_extractor --database_path db.db --image_path imgs" +
		" --ImageReader.camera_model OPENCV --ImageReader.single_camera 1" +
		" --SiftExtraction.use_gpu 1"
	if got := fake.CommandLines()[0]; got != want {
		t.Errorf("argv\n got: %s\nwant: %s", got, want)
	}
}

func TestMatch_SequentialMatcher(t *testing.T) {
	fake := &execx.FakeRunner{}
	opts := defaultOpts()
	opts.Matcher = "sequential"
	opts.UseGPU = false
	p := New("colmap", fake, opts)

	if err := p.Match(context.Background(), "db.db"); err != nil {
		t.Fatalf("Match: %v", err)
	}
	want := "colmap sequential_matcher --database_path db.db --SiftMatching.use_gpu 0"
	if got := fake.CommandLines()[0]; got != want {
		t.Errorf("argv\n got: %s\nwant: %s", got, want)
	}
}

func TestDefaultLayout(t *testing.T) {
	got := DefaultLayout("scene")
	want := Layout{
		ImageDir:     filepath.Join("scene", "input"),
		DatabasePath: filepath.Join("scene", "distorted", "database.db"),
		SparseDir:    filepath.Join("scene", "distorted", "sparse"),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("layout mismatch (-want +got):\n%s", diff)
	}
}
