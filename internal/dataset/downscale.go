package dataset

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"splatpipe/internal/execx"
	"splatpipe/internal/logging"
)

// DownscaleFactors are the resolutions the trainer's -r flag can select;
// images_2/4/8 siblings of the input directory at 1/2, 1/4 and 1/8 scale.
var DownscaleFactors = []int{2, 4, 8}

// resizePercent maps a downscale factor to the ImageMagick -resize argument.
var resizePercent = map[int]string{2: "50%", 4: "25%", 8: "12.5%"}

// Downscale produces <imageDir>_<factor> copies of every image in imageDir
// with ImageMagick mogrify, one invocation per factor.
func Downscale(ctx context.Context, r execx.Runner, magick, imageDir string, factors []int) error {
	entries, err := os.ReadDir(imageDir)
	if err != nil {
		return fmt.Errorf("read image dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && IsImage(e.Name()) {
			files = append(files, filepath.Join(imageDir, e.Name()))
		}
	}
	if len(files) == 0 {
		return fmt.Errorf("no images to downscale in %s", imageDir)
	}

	log := logging.New("dataset")
	for _, factor := range factors {
		percent, ok := resizePercent[factor]
		if !ok {
			return fmt.Errorf("unsupported downscale factor %d", factor)
		}
		outDir := fmt.Sprintf("%s_%d", imageDir, factor)
		if err := os.MkdirAll(outDir, 0755); err != nil {
			return fmt.Errorf("create %s: %w", outDir, err)
		}

		args := append([]string{"mogrify", "-path", outDir, "-resize", percent}, files...)
		log.Info("downscaling images", "factor", factor, "count", len(files))
		if err := r.Run(ctx, execx.Cmd{Name: magick, Args: args}); err != nil {
			return fmt.Errorf("downscale 1/%d: %w", factor, err)
		}
	}
	return nil
}
