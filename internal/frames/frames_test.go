package frames

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"splatpipe/internal/execx"
)

func TestExtract_BuildsFFmpegArgs(t *testing.T) {
	fake := &execx.FakeRunner{Outputs: map[string]string{"ffprobe": "42.5\n"}}
	e := NewExtractor("ffmpeg", "ffprobe", fake)
	out := t.TempDir()

	res, err := e.Extract(context.Background(), "walk.mp4", out, 4)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.Duration != 42.5 {
		t.Errorf("Duration = %g, want 42.5", res.Duration)
	}

	lines := fake.CommandLines()
	if len(lines) != 2 {
		t.Fatalf("expected probe + extract, got %v", lines)
	}
	want := "ffmpeg -i walk.mp4 -vf fps=4 -qscale:v 2 " + filepath.Join(out, FramePattern)
	if lines[1] != want {
		t.Errorf("ffmpeg argv\n got: %s\nwant: %s", lines[1], want)
	}
}

// frameWriter plays ffmpeg's part: its Run drops frame files into the
// output directory named in the argv.
type frameWriter struct {
	execx.FakeRunner
	names []string
}

func (f *frameWriter) Run(ctx context.Context, c execx.Cmd) error {
	if err := f.FakeRunner.Run(ctx, c); err != nil {
		return err
	}
	dir := filepath.Dir(c.Args[len(c.Args)-1])
	for _, name := range f.names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("jpg"), 0644); err != nil {
			return err
		}
	}
	return nil
}

func TestExtract_CountsWrittenFrames(t *testing.T) {
	fake := &frameWriter{
		FakeRunner: execx.FakeRunner{Outputs: map[string]string{"ffprobe": "1.0"}},
		names:      []string{"frame_0001.jpg", "frame_0002.jpg", "frame_0003.jpg"},
	}
	e := NewExtractor("ffmpeg", "ffprobe", fake)

	res, err := e.Extract(context.Background(), "walk.mp4", t.TempDir(), 2)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.Count != 3 {
		t.Errorf("Count = %d, want 3", res.Count)
	}
}

func TestExtract_CountExcludesEarlierRuns(t *testing.T) {
	out := t.TempDir()
	// Leftovers from a previous extraction into the same directory.
	for _, name := range []string{"frame_0001.jpg", "frame_0002.jpg"} {
		if err := os.WriteFile(filepath.Join(out, name), []byte("old"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	fake := &frameWriter{
		FakeRunner: execx.FakeRunner{Outputs: map[string]string{"ffprobe": "1.0"}},
		names:      []string{"frame_0003.jpg"},
	}
	e := NewExtractor("ffmpeg", "ffprobe", fake)

	res, err := e.Extract(context.Background(), "walk.mp4", out, 2)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.Count != 1 {
		t.Errorf("Count = %d, want 1 (stale frames must not be counted)", res.Count)
	}
}

func TestExtract_RejectsNonPositiveFPS(t *testing.T) {
	e := NewExtractor("ffmpeg", "ffprobe", &execx.FakeRunner{})
	if _, err := e.Extract(context.Background(), "walk.mp4", t.TempDir(), 0); err == nil {
		t.Fatal("expected error for fps=0")
	}
}

func TestExtract_ProbeFailureIsNotFatal(t *testing.T) {
	fake := &execx.FakeRunner{Err: errors.New("no ffprobe"), FailOn: "ffprobe"}
	e := NewExtractor("ffmpeg", "ffprobe", fake)

	res, err := e.Extract(context.Background(), "walk.mp4", t.TempDir(), 2)
	if err != nil {
		t.Fatalf("Extract should survive probe failure: %v", err)
	}
	if res.Duration != 0 {
		t.Errorf("Duration = %g, want 0 when probe fails", res.Duration)
	}
}

func TestExtract_FFmpegFailurePropagates(t *testing.T) {
	fake := &execx.FakeRunner{
		Err:     errors.New("moov atom not found"),
		FailOn:  "ffmpeg",
		Outputs: map[string]string{"ffprobe": "1.0"},
	}
	e := NewExtractor("ffmpeg", "ffprobe", fake)

	_, err := e.Extract(context.Background(), "broken.mp4", t.TempDir(), 2)
	if err == nil {
		t.Fatal("expected ffmpeg failure to propagate")
	}
	if !strings.Contains(err.Error(), "extract frames") {
		t.Errorf("error should name the stage, got: %v", err)
	}
}

func TestProbe_ParsesDuration(t *testing.T) {
	fake := &execx.FakeRunner{Outputs: map[string]string{"ffprobe": " 128.04 \n"}}
	e := NewExtractor("ffmpeg", "ffprobe", fake)

	dur, err := e.Probe(context.Background(), "walk.mp4")
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if dur != 128.04 {
		t.Errorf("Probe = %g, want 128.04", dur)
	}
}

func TestProbe_BadOutput(t *testing.T) {
	fake := &execx.FakeRunner{Outputs: map[string]string{"ffprobe": "N/A"}}
	e := NewExtractor("ffmpeg", "ffprobe", fake)

	if _, err := e.Probe(context.Background(), "walk.mp4"); err == nil {
		t.Fatal("expected parse error for N/A duration")
	}
}
