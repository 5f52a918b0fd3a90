package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/backmassage/framestamp/internal/check"
	"github.com/backmassage/framestamp/internal/config"
	"github.com/backmassage/framestamp/internal/display"
	"github.com/backmassage/framestamp/internal/logging"
	"github.com/backmassage/framestamp/internal/pipeline"
	"github.com/spf13/cobra"
)

// newOverlayCmd builds the thumbnail or watermark subcommand. Both share the
// asset and execution flags and differ only in their overlay flags.
func newOverlayCmd(mode config.Mode, configPath string) *cobra.Command {
	cfg, loadErr := loadConfig(mode, configPath)
	var neg config.NegatedFlags

	cmd := &cobra.Command{
		Use:  string(mode) + " [INPUT OUTPUT_DIR]",
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if loadErr != nil {
				return loadErr
			}
			config.ApplyNegated(&cfg, &neg)
			if err := config.ApplyArgs(&cfg, args); err != nil {
				return err
			}
			return runOverlay(cmd.Context(), &cfg)
		},
	}

	switch mode {
	case config.ModeWatermark:
		cmd.Short = "Stamp a logo for the whole video and a closing image at the end"
		cmd.Example = "  framestamp watermark ./videos ./out --end-window 5"
	default:
		cmd.Short = "Overlay a full-frame thumbnail over the end of each video"
		cmd.Example = "  framestamp thumbnail ./videos ./out --strategy match --duration 0.5"
	}

	fs := cmd.Flags()
	config.DefineGlobalFlags(fs, &cfg, &neg)
	config.DefineRunFlags(fs, &cfg, &neg)
	if mode == config.ModeWatermark {
		config.DefineWatermarkFlags(fs, &cfg)
	} else {
		config.DefineThumbnailFlags(fs, &cfg, &neg)
	}
	return cmd
}

// runOverlay validates the configuration and paths, checks the ffmpeg
// installation, and runs the batch. A run with any failed task exits 1.
func runOverlay(parent context.Context, cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logging.NewLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Close()

	display.PrintBanner(os.Stdout, version)

	// 1. Validate paths before anything is created: input must exist and
	//    output must not be inside it. The output is created if needed.
	if err := cfg.CheckPaths(); err != nil {
		log.Error("%v", err)
		log.Error("Choose an output path outside: %s", cfg.InputPath)
		return exitError{1}
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		log.Error("Cannot create output directory: %s", cfg.OutputDir)
		return exitError{1}
	}

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Ensure ffmpeg/ffprobe, the encoders, and the overlay filters work.
	//    A dry run only previews commands, so a broken install is a warning.
	rep, err := (&check.Checker{}).CheckDeps(ctx)
	switch {
	case err != nil && !cfg.DryRun:
		log.Error("%v", err)
		log.Error("Run 'framestamp check' for details")
		return exitError{1}
	case err != nil:
		log.Warn("%v (continuing: dry run)", err)
		rep.FadeAvailable = true
	case !rep.FadeAvailable:
		log.Warn("ffmpeg has no fade filter; overlays will appear without fading")
	}

	// 3. Run the batch.
	stats, err := pipeline.Run(ctx, cfg, log, pipeline.WithFadeAvailable(rep.FadeAvailable))
	if err != nil {
		log.Error("%v", err)
		return exitError{1}
	}
	if code := stats.ExitCode(); code != 0 {
		return exitError{code}
	}
	return nil
}
