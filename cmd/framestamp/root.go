package main

import (
	"github.com/backmassage/framestamp/internal/config"
	"github.com/spf13/cobra"
)

// newRootCmd builds the command tree. args are the process arguments
// without the program name; each run subcommand peeks at them for --config
// so file values become flag defaults.
func newRootCmd(args []string) *cobra.Command {
	root := &cobra.Command{
		Use:   "framestamp",
		Short: "Stamp thumbnails and watermarks onto batches of videos",
		Long: `framestamp overlays an end-of-video thumbnail or a pair of watermarks
onto every video in a directory, running a bounded number of ffmpeg jobs
at once and reporting a per-run summary.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetArgs(args)

	path := config.PeekConfigPath(args)
	root.AddCommand(
		newOverlayCmd(config.ModeThumbnail, path),
		newOverlayCmd(config.ModeWatermark, path),
		newCheckCmd(path),
		newVersionCmd(),
	)
	return root
}

// loadConfig returns the defaults for mode overlaid by the config file, if
// any. Watermark runs default to one shared logo for every video.
func loadConfig(mode config.Mode, path string) (config.Config, error) {
	cfg := config.DefaultConfig()
	cfg.Mode = mode
	if mode == config.ModeWatermark {
		cfg.Strategy = config.StrategyShared
	}
	if path == "" {
		return cfg, nil
	}
	err := config.LoadFile(path, &cfg)
	return cfg, err
}
