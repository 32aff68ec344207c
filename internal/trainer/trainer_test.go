package trainer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"splatpipe/internal/execx"
)

func checkout(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, script := range []string{TrainScript, RenderScript, MetricsScript} {
		if err := os.WriteFile(filepath.Join(dir, script), []byte("# stub"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestCheckScripts(t *testing.T) {
	tr := New(checkout(t), "python3", &execx.FakeRunner{})
	if err := tr.CheckScripts(); err != nil {
		t.Fatalf("CheckScripts: %v", err)
	}

	tr = New(t.TempDir(), "python3", &execx.FakeRunner{})
	err := tr.CheckScripts()
	if err == nil {
		t.Fatal("expected error for empty checkout")
	}
	if !strings.Contains(err.Error(), TrainScript) {
		t.Errorf("error should name the missing script, got: %v", err)
	}
}

func TestTrain_Args(t *testing.T) {
	fake := &execx.FakeRunner{}
	repo := checkout(t)
	tr := New(repo, "python3", fake)

	err := tr.Train(context.Background(), TrainOptions{
		Dataset:    "scene",
		Model:      "models/scene",
		Iterations: 7000,
		Eval:       true,
		DepthDir:   "scene/depths",
	})
	if err != nil {
		t.Fatalf("Train: %v", err)
	}

	calls := fake.Calls()
	if len(calls) != 1 {
		t.Fatalf("calls = %d, want 1", len(calls))
	}
	c := calls[0]
	if c.Dir != repo {
		t.Errorf("Dir = %q, want the checkout %q", c.Dir, repo)
	}
	line := c.String()
	absDataset, _ := filepath.Abs("scene")
	absModel, _ := filepath.Abs("models/scene")
	absDepths, _ := filepath.Abs("scene/depths")
	for _, want := range []string{
		"python3 " + TrainScript,
		"-s " + absDataset,
		"-m " + absModel,
		"--iterations 7000",
		"--eval",
		"-d " + absDepths,
	} {
		if !strings.Contains(line, want) {
			t.Errorf("argv %q missing %q", line, want)
		}
	}
}

func TestTrain_DefaultsOmitOptionalFlags(t *testing.T) {
	fake := &execx.FakeRunner{}
	tr := New(checkout(t), "python3", fake)

	if err := tr.Train(context.Background(), TrainOptions{Dataset: "scene", Model: "m"}); err != nil {
		t.Fatalf("Train: %v", err)
	}
	line := fake.CommandLines()[0]
	for _, flag := range []string{"--iterations", "--eval", "-d ", "-r "} {
		if strings.Contains(line, flag) {
			t.Errorf("argv %q should not contain %q", line, flag)
		}
	}
}

func TestRender_Args(t *testing.T) {
	fake := &execx.FakeRunner{}
	tr := New(checkout(t), "python3", fake)

	err := tr.Render(context.Background(), RenderOptions{
		Model:     "models/scene",
		Iteration: 30000,
		SkipTrain: true,
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	line := fake.CommandLines()[0]
	absModel, _ := filepath.Abs("models/scene")
	for _, want := range []string{RenderScript, "-m " + absModel, "--iteration 30000", "--skip_train"} {
		if !strings.Contains(line, want) {
			t.Errorf("argv %q missing %q", line, want)
		}
	}
	if strings.Contains(line, "--skip_test") {
		t.Errorf("argv %q should not contain --skip_test", line)
	}
}

func TestMetrics_Args(t *testing.T) {
	fake := &execx.FakeRunner{}
	tr := New(checkout(t), "python3", fake)

	if err := tr.Metrics(context.Background(), "models/scene"); err != nil {
		t.Fatalf("Metrics: %v", err)
	}
	line := fake.CommandLines()[0]
	absModel, _ := filepath.Abs("models/scene")
	if !strings.Contains(line, MetricsScript+" -m "+absModel) {
		t.Errorf("argv = %q", line)
	}
}
