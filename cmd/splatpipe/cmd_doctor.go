package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"splatpipe/internal/execx"
	"splatpipe/internal/trainer"
)

var doctorFlags struct {
	inputType string
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that the external tools and the optimizer checkout are available",
	RunE:  runDoctor,
}

func init() {
	doctorCmd.Flags().StringVarP(&doctorFlags.inputType, "type", "t", "", "Planned input type (photos or video); video makes ffmpeg required")
}

type toolCheck struct {
	name     string
	binary   string
	required bool
	hint     string
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Photo-only workflows never touch ffmpeg.
	ffmpegRequired := doctorFlags.inputType != "photos"

	checks := []toolCheck{
		{"ffmpeg", cfg.Tools.FFmpeg, ffmpegRequired,
			"Install ffmpeg:  apt install ffmpeg  (or brew install ffmpeg)"},
		{"ffprobe", cfg.Tools.FFprobe, false,
			"ffprobe ships with ffmpeg; video duration probing will be skipped without it"},
		{"colmap", cfg.Tools.Colmap, true,
			"Install COLMAP:  apt install colmap  (CUDA build recommended, see colmap.github.io)"},
		{"python", cfg.Tools.Python, true,
			"Install Python 3 with the optimizer's dependencies (torch, torchvision, plyfile)"},
		{"magick", cfg.Tools.Magick, false,
			"Install ImageMagick for --downscale:  apt install imagemagick"},
	}

	out := cmd.OutOrStdout()
	failed := 0
	for _, c := range checks {
		path, err := execx.LookPath(c.binary)
		if err != nil {
			mark := "MISSING"
			if !c.required {
				mark = "missing (optional)"
			} else {
				failed++
			}
			fmt.Fprintf(out, "  %-8s %s\n", c.name, mark)
			fmt.Fprintf(out, "           %s\n", c.hint)
			continue
		}
		fmt.Fprintf(out, "  %-8s ok  %s\n", c.name, path)
	}

	tr := trainer.New(cfg.Trainer.Repo, cfg.Tools.Python, nil)
	if err := tr.CheckScripts(); err != nil {
		failed++
		fmt.Fprintf(out, "  %-8s MISSING: %v\n", "trainer", err)
		fmt.Fprintf(out, "           Clone the optimizer:  git clone --recursive https://github.com/graphdeco-inria/gaussian-splatting %s\n", cfg.Trainer.Repo)
	} else {
		fmt.Fprintf(out, "  %-8s ok  %s\n", "trainer", cfg.Trainer.Repo)
	}

	if failed > 0 {
		return fmt.Errorf("%d required dependency check(s) failed", failed)
	}
	fmt.Fprintln(out, "All required dependencies are available.")
	return nil
}
