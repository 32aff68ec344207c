// Package dataset arranges input images into the directory layout the COLMAP
// and training stages expect, and owns the train/val/test split.
package dataset

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"splatpipe/internal/logging"
)

// Layout of a prepared dataset:
//
//	<root>/
//	  input/                  images COLMAP runs against
//	  extracted_frames/       frames pulled from video (video input only)
//	  distorted/
//	    database.db
//	    sparse/0/             mapper output
//	  train_list.txt
//	  val_list.txt
//	  test_list.txt

// Scaffold creates the base directories under root.
func Scaffold(root string) error {
	for _, dir := range []string{
		root,
		filepath.Join(root, "input"),
		filepath.Join(root, "distorted"),
		filepath.Join(root, "distorted", "sparse"),
	} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("scaffold %s: %w", dir, err)
		}
	}
	return nil
}

// IsImage reports whether name has an image extension the pipeline accepts.
func IsImage(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg":
		return true
	}
	return false
}

// Ingest copies every image in srcDir into dstDir, in parallel, and returns
// the copied filenames sorted by name. Non-image files are skipped.
func Ingest(ctx context.Context, srcDir, dstDir string) ([]string, error) {
	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return nil, fmt.Errorf("read image dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !IsImage(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no images found in %s", srcDir)
	}
	sort.Strings(names)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for _, name := range names {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return copyFile(filepath.Join(srcDir, name), filepath.Join(dstDir, name))
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("copy images: %w", err)
	}

	logging.New("dataset").Info("images ingested", "count", len(names), "dst", dstDir)
	return names, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// Splits partitions image names into the three sets.
type Splits struct {
	Train []string
	Val   []string
	Test  []string
}

// Split shuffles names with the given seed and cuts them by ratio. The same
// seed always yields the same partition, so a re-run of prepare reproduces
// the original split.
func Split(names []string, trainRatio, valRatio float64, seed int64) Splits {
	shuffled := make([]string, len(names))
	copy(shuffled, names)
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	total := len(shuffled)
	trainEnd := int(float64(total) * trainRatio)
	valEnd := trainEnd + int(float64(total)*valRatio)

	// Out-of-range ratios clamp to empty tail sets rather than invalid cuts.
	if trainEnd < 0 {
		trainEnd = 0
	}
	if trainEnd > total {
		trainEnd = total
	}
	if valEnd < trainEnd {
		valEnd = trainEnd
	}
	if valEnd > total {
		valEnd = total
	}

	return Splits{
		Train: shuffled[:trainEnd],
		Val:   shuffled[trainEnd:valEnd],
		Test:  shuffled[valEnd:],
	}
}

// WriteLists writes {train,val,test}_list.txt under root, one filename per
// line.
func WriteLists(root string, s Splits) error {
	for name, list := range map[string][]string{
		"train_list.txt": s.Train,
		"val_list.txt":   s.Val,
		"test_list.txt":  s.Test,
	} {
		body := strings.Join(list, "\n")
		if err := os.WriteFile(filepath.Join(root, name), []byte(body), 0644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return nil
}

// ReadList reads one split list written by WriteLists.
func ReadList(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read list: %w", err)
	}
	var names []string
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			names = append(names, line)
		}
	}
	return names, nil
}
