package config

// This file registers CLI flags on the cobra/pflag flag sets.
// Flags are grouped into global, asset resolution, overlay, and execution.
// Negated flags (e.g. --no-fade) are applied after parsing via ApplyNegated
// so Config defaults and config-file values hold unless the flag is passed.

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

// NegatedFlags holds boolean flags that are applied after parsing. Each one
// clears or overrides a value that may have come from the defaults or a file.
type NegatedFlags struct {
	noColor bool
	noFade  bool
	noRetry bool
}

// DefineGlobalFlags registers the flags shared by every subcommand.
func DefineGlobalFlags(fs *pflag.FlagSet, cfg *Config, n *NegatedFlags) {
	fs.String("config", cfg.ConfigFile, "TOML or YAML config file applied before flags")
	fs.BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Verbose output")
	fs.Var(&colorModeValue{&cfg.ColorMode}, "color", "Colored logs: auto | always | never")
	fs.BoolVar(&n.noColor, "no-color", false, "Disable colored logs")
	fs.StringVarP(&cfg.LogFile, "log-file", "l", cfg.LogFile, "Append JSON logs to file")
}

// DefineRunFlags registers the flags shared by the thumbnail and watermark
// subcommands.
func DefineRunFlags(fs *pflag.FlagSet, cfg *Config, n *NegatedFlags) {
	defineAssetFlags(fs, cfg)
	defineExecutionFlags(fs, cfg, n)
}

// DefineThumbnailFlags registers thumbnail timing flags.
func DefineThumbnailFlags(fs *pflag.FlagSet, cfg *Config, n *NegatedFlags) {
	fs.Float64Var(&cfg.ThumbDuration, "duration", cfg.ThumbDuration, "Seconds the thumbnail is shown")
	fs.Float64Var(&cfg.ThumbFade, "fade", cfg.ThumbFade, "Fade in/out seconds (applied only when < duration/2)")
	fs.BoolVar(&n.noFade, "no-fade", false, "Disable fading")
	fs.BoolVar(&cfg.ThumbAppend, "append", cfg.ThumbAppend, "Show the thumbnail after the video ends instead of over its last frames")
}

// DefineWatermarkFlags registers watermark asset and position flags.
func DefineWatermarkFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.WatermarkMain, "main-asset", cfg.WatermarkMain, "Watermark shown for the whole video (shared strategy default)")
	fs.StringVar(&cfg.WatermarkEnd, "end-asset", cfg.WatermarkEnd, "Watermark shown for the last --end-window seconds")
	fs.IntVar(&cfg.MainX, "main-x", cfg.MainX, "Main watermark x position")
	fs.IntVar(&cfg.MainY, "main-y", cfg.MainY, "Main watermark y position")
	fs.IntVar(&cfg.EndX, "end-x", cfg.EndX, "End watermark x position")
	fs.IntVar(&cfg.EndY, "end-y", cfg.EndY, "End watermark y position")
	fs.Float64Var(&cfg.EndWindow, "end-window", cfg.EndWindow, "Seconds at the end that show the end watermark")
}

// defineAssetFlags registers --strategy and the per-strategy inputs.
func defineAssetFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.VarP(&strategyValue{&cfg.Strategy}, "strategy", "s", "Asset strategy: shared | match | directory | manual")
	fs.StringVarP(&cfg.SharedAsset, "asset", "a", cfg.SharedAsset, "Asset used for every video (shared)")
	fs.StringVar(&cfg.AssetDir, "default-asset-dir", cfg.AssetDir, "Default asset directory, searched first (match)")
	fs.StringArrayVar(&cfg.ExtraAssetDirs, "asset-dir", cfg.ExtraAssetDirs, "Extra directory to search (match, repeatable)")
	fs.StringVar(&cfg.SearchDir, "search-dir", cfg.SearchDir, "Directory to search (directory)")
	fs.StringVar(&cfg.ManifestFile, "manifest", cfg.ManifestFile, "YAML list of video/asset pairs (manual)")
}

// defineExecutionFlags registers pool, retry, and output behavior flags.
func defineExecutionFlags(fs *pflag.FlagSet, cfg *Config, n *NegatedFlags) {
	fs.IntVarP(&cfg.Workers, "workers", "w", cfg.Workers, "Concurrent jobs (0 = auto, never more than 4)")
	fs.IntVar(&cfg.Retries, "retries", cfg.Retries, "Retries for transient failures")
	fs.DurationVar(&cfg.RetryBackoff, "retry-backoff", cfg.RetryBackoff, "Initial backoff between retries")
	fs.BoolVar(&n.noRetry, "no-retry", false, "Disable retries")
	fs.BoolVar(&cfg.SkipExisting, "skip-existing", cfg.SkipExisting, "Skip videos whose output already exists")
	fs.BoolVarP(&cfg.DryRun, "dry-run", "d", cfg.DryRun, "Preview only; do not encode")
	fs.StringVar(&cfg.MetricsFile, "metrics-file", cfg.MetricsFile, "Write Prometheus text metrics to file")
}

// ApplyNegated copies negated flag values into cfg (e.g. noFade -> ThumbFade=0).
func ApplyNegated(cfg *Config, n *NegatedFlags) {
	if n.noColor {
		cfg.ColorMode = ColorNever
	}
	if n.noFade {
		cfg.ThumbFade = 0
	}
	if n.noRetry {
		cfg.Retries = 0
	}
}

// ApplyArgs sets InputPath and OutputDir from the two positional args.
// Positional args override paths from a config file; with no args the file
// must supply both.
func ApplyArgs(cfg *Config, args []string) error {
	switch len(args) {
	case 0:
		// Paths may come from the config file; Validate reports if they don't.
	case 2:
		cfg.InputPath = NormalizeDirArg(args[0])
		cfg.OutputDir = NormalizeDirArg(args[1])
	default:
		return fmt.Errorf("need exactly input and output_dir (got %d args)", len(args))
	}
	return nil
}

// pflag.Value adapters so enum types (Strategy, ColorMode) can be used with fs.Var.

type strategyValue struct{ p *Strategy }

func (s *strategyValue) String() string { return string(*s.p) }
func (s *strategyValue) Type() string   { return "strategy" }
func (s *strategyValue) Set(v string) error {
	switch Strategy(strings.ToLower(v)) {
	case StrategyShared:
		*s.p = StrategyShared
	case StrategyMatch:
		*s.p = StrategyMatch
	case StrategyDirectory:
		*s.p = StrategyDirectory
	case StrategyManual:
		*s.p = StrategyManual
	default:
		return fmt.Errorf("invalid strategy %q (use 'shared', 'match', 'directory' or 'manual')", v)
	}
	return nil
}

type colorModeValue struct{ p *ColorMode }

func (c *colorModeValue) String() string { return string(*c.p) }
func (c *colorModeValue) Type() string   { return "mode" }
func (c *colorModeValue) Set(v string) error {
	switch ColorMode(strings.ToLower(v)) {
	case ColorAuto:
		*c.p = ColorAuto
	case ColorAlways:
		*c.p = ColorAlways
	case ColorNever:
		*c.p = ColorNever
	default:
		return fmt.Errorf("invalid color mode %q (use 'auto', 'always' or 'never')", v)
	}
	return nil
}
