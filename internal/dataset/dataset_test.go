package dataset

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeImages(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("img:"+name), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestScaffold(t *testing.T) {
	root := filepath.Join(t.TempDir(), "scene")
	if err := Scaffold(root); err != nil {
		t.Fatalf("Scaffold: %v", err)
	}
	for _, dir := range []string{"input", "distorted", filepath.Join("distorted", "sparse")} {
		if fi, err := os.Stat(filepath.Join(root, dir)); err != nil || !fi.IsDir() {
			t.Errorf("missing directory %s: %v", dir, err)
		}
	}
}

func TestIsImage(t *testing.T) {
	for name, want := range map[string]bool{
		"a.jpg": true, "b.JPEG": true, "c.png": true,
		"d.txt": false, "e.mp4": false, "noext": false,
	} {
		if got := IsImage(name); got != want {
			t.Errorf("IsImage(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestIngest_CopiesOnlyImages(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	writeImages(t, src, "b.jpg", "a.png", "notes.txt")

	names, err := Ingest(context.Background(), src, dst)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if diff := cmp.Diff([]string{"a.png", "b.jpg"}, names); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}

	data, err := os.ReadFile(filepath.Join(dst, "a.png"))
	if err != nil {
		t.Fatalf("copied file: %v", err)
	}
	if string(data) != "img:a.png" {
		t.Errorf("copied content = %q", data)
	}
	if _, err := os.Stat(filepath.Join(dst, "notes.txt")); !os.IsNotExist(err) {
		t.Error("non-image file should not be copied")
	}
}

func TestIngest_EmptyDirFails(t *testing.T) {
	if _, err := Ingest(context.Background(), t.TempDir(), t.TempDir()); err == nil {
		t.Fatal("expected error for directory without images")
	}
}

func TestSplit_Deterministic(t *testing.T) {
	names := make([]string, 20)
	for i := range names {
		names[i] = fmt.Sprintf("frame_%04d.jpg", i+1)
	}

	a := Split(names, 0.8, 0.1, 42)
	b := Split(names, 0.8, 0.1, 42)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("same seed must give same split (-a +b):\n%s", diff)
	}

	c := Split(names, 0.8, 0.1, 7)
	if cmp.Equal(a, c) {
		t.Error("different seeds should give different shuffles")
	}
}

func TestSplit_Ratios(t *testing.T) {
	names := make([]string, 20)
	for i := range names {
		names[i] = fmt.Sprintf("frame_%04d.jpg", i+1)
	}

	s := Split(names, 0.8, 0.1, 42)
	if len(s.Train) != 16 || len(s.Val) != 2 || len(s.Test) != 2 {
		t.Errorf("split sizes = %d/%d/%d, want 16/2/2", len(s.Train), len(s.Val), len(s.Test))
	}

	// Every input lands in exactly one set.
	seen := map[string]int{}
	for _, set := range [][]string{s.Train, s.Val, s.Test} {
		for _, n := range set {
			seen[n]++
		}
	}
	if len(seen) != 20 {
		t.Errorf("expected 20 distinct names, got %d", len(seen))
	}
	for n, count := range seen {
		if count != 1 {
			t.Errorf("%s appears %d times", n, count)
		}
	}
}

func TestSplit_ClampsOutOfRangeRatios(t *testing.T) {
	names := make([]string, 10)
	for i := range names {
		names[i] = fmt.Sprintf("frame_%04d.jpg", i+1)
	}

	// Ratios summing past 1.0 must not slice out of bounds; the overflow
	// drains the tail sets instead.
	s := Split(names, 0.9, 0.5, 42)
	if len(s.Train) != 9 || len(s.Val) != 1 || len(s.Test) != 0 {
		t.Errorf("split sizes = %d/%d/%d, want 9/1/0", len(s.Train), len(s.Val), len(s.Test))
	}

	s = Split(names, 2.0, 0.5, 42)
	if len(s.Train) != 10 || len(s.Val) != 0 || len(s.Test) != 0 {
		t.Errorf("split sizes = %d/%d/%d, want 10/0/0", len(s.Train), len(s.Val), len(s.Test))
	}

	s = Split(names, -0.5, 0.2, 42)
	if len(s.Train) != 0 {
		t.Errorf("negative train ratio yields %d train entries, want 0", len(s.Train))
	}
	if len(s.Train)+len(s.Val)+len(s.Test) != 10 {
		t.Errorf("partition lost names: %d/%d/%d", len(s.Train), len(s.Val), len(s.Test))
	}
}

func TestWriteAndReadLists(t *testing.T) {
	root := t.TempDir()
	s := Splits{
		Train: []string{"a.jpg", "b.jpg"},
		Val:   []string{"c.jpg"},
		Test:  []string{"d.jpg"},
	}
	if err := WriteLists(root, s); err != nil {
		t.Fatalf("WriteLists: %v", err)
	}

	got, err := ReadList(filepath.Join(root, "train_list.txt"))
	if err != nil {
		t.Fatalf("ReadList: %v", err)
	}
	if diff := cmp.Diff(s.Train, got); diff != "" {
		t.Errorf("train list mismatch (-want +got):\n%s", diff)
	}

	if _, err := os.Stat(filepath.Join(root, "val_list.txt")); err != nil {
		t.Errorf("val_list.txt: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "test_list.txt")); err != nil {
		t.Errorf("test_list.txt: %v", err)
	}
}
