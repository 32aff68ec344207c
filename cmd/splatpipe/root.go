package main

import (
	"github.com/spf13/cobra"

	"splatpipe/internal/config"
	"splatpipe/internal/logging"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	logLevel  string
	logFormat string
	config    string
	dryRun    bool
}

var rootCmd = &cobra.Command{
	Use:   "splatpipe",
	Short: "Capture-to-evaluation pipeline for 3D Gaussian Splatting",
	Long: "Splatpipe drives the full Gaussian Splatting workflow: frame extraction\n" +
		"and COLMAP reconstruction for raw captures, then training, rendering and\n" +
		"evaluation through the external optimizer scripts.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		level, err := logging.ParseLevel(rootFlags.logLevel)
		if err != nil {
			return err
		}
		logging.Init(level, rootFlags.logFormat)
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	pf.StringVar(&rootFlags.logFormat, "log-format", "text", "Log format (text, json)")
	pf.StringVar(&rootFlags.config, "config", "", "Config file path (default: "+config.DefaultFile+" if present)")
	pf.BoolVar(&rootFlags.dryRun, "dry-run", false, "Log external commands instead of running them")

	rootCmd.AddCommand(prepareCmd)
	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(metricsCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.Version = version
}

func loadConfig() (*config.Config, error) {
	return config.Load(rootFlags.config)
}
