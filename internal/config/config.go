// Package config holds runtime configuration: defaults, config-file loading,
// CLI flag registration, and validation. Defaults match the original
// thumbnail and watermark scripts so existing asset layouts keep working.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// --- Enum types for validated string fields ---

// Mode selects which overlay job a run performs.
type Mode string

const (
	ModeThumbnail Mode = "thumbnail" // Full-frame thumbnail at the end of each video.
	ModeWatermark Mode = "watermark" // Positioned logo plus a closing call-to-action.
)

// Strategy selects how each video is paired with its overlay asset.
// A run uses exactly one strategy for all of its tasks.
type Strategy string

const (
	StrategyShared    Strategy = "shared"    // One asset for every video.
	StrategyMatch     Strategy = "match"     // Name patterns across candidate directories.
	StrategyDirectory Strategy = "directory" // Name patterns in a single directory.
	StrategyManual    Strategy = "manual"    // Pre-resolved manifest of video -> asset.
)

// ColorMode controls ANSI color output.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"   // Enable colors when stdout is a TTY (default).
	ColorAlways ColorMode = "always" // Force colors on.
	ColorNever  ColorMode = "never"  // Disable colors entirely.
)

// Output suffixes inserted before the original extension.
const (
	SuffixThumbnail = "_with_thumbnail"
	SuffixWatermark = "_watermarked"
)

// Config holds all runtime settings. It is populated by [DefaultConfig],
// optionally overlaid by [LoadFile], then mutated by the CLI flags before
// being passed (by pointer) to the packages that need it. Nothing in the
// module reads configuration from package-level state.
type Config struct {
	// Run selection (set by the subcommand, never by a file).
	Mode       Mode   `toml:"-" yaml:"-"`
	ConfigFile string `toml:"-" yaml:"-"`

	// Paths (positional args or file). InputPath may be a directory or a
	// single video file.
	InputPath string `toml:"input" yaml:"input"`
	OutputDir string `toml:"output" yaml:"output"`

	// Asset resolution.
	Strategy       Strategy `toml:"strategy" yaml:"strategy"`
	SharedAsset    string   `toml:"asset" yaml:"asset"`                       // StrategyShared.
	AssetDir       string   `toml:"asset_dir" yaml:"asset_dir"`               // Default: "assets/thumbnails".
	ExtraAssetDirs []string `toml:"extra_asset_dirs" yaml:"extra_asset_dirs"` // Appended NameMatch candidates.
	SearchDir      string   `toml:"search_dir" yaml:"search_dir"`             // StrategyDirectory.
	ManifestFile   string   `toml:"manifest" yaml:"manifest"`                 // StrategyManual.

	// Thumbnail overlay.
	ThumbDuration float64 `toml:"thumbnail_duration" yaml:"thumbnail_duration"` // Default: 0.1 s.
	ThumbFade     float64 `toml:"thumbnail_fade" yaml:"thumbnail_fade"`         // Default: 0.1 s.
	ThumbAppend   bool    `toml:"thumbnail_append" yaml:"thumbnail_append"`     // Show after the source ends.

	// Watermark overlays.
	WatermarkMain string  `toml:"watermark_main" yaml:"watermark_main"` // Default: "assets/watermark/logo.png".
	WatermarkEnd  string  `toml:"watermark_end" yaml:"watermark_end"`   // Default: "assets/watermark/subscribe.png".
	MainX         int     `toml:"main_x" yaml:"main_x"`                 // Default: 515.
	MainY         int     `toml:"main_y" yaml:"main_y"`                 // Default: 330.
	EndX          int     `toml:"end_x" yaml:"end_x"`                   // Default: 235.
	EndY          int     `toml:"end_y" yaml:"end_y"`                   // Default: 960.
	EndWindow     float64 `toml:"end_window" yaml:"end_window"`         // Default: 5 s.

	// Execution.
	Workers      int           `toml:"workers" yaml:"workers"`             // 0 = automatic; always capped.
	Retries      int           `toml:"retries" yaml:"retries"`             // Default: 2 (transient errors only).
	RetryBackoff time.Duration `toml:"retry_backoff" yaml:"retry_backoff"` // Default: 2s.
	SkipExisting bool          `toml:"skip_existing" yaml:"skip_existing"`
	DryRun       bool          `toml:"dry_run" yaml:"dry_run"`

	// Display and logging.
	Verbose     bool      `toml:"verbose" yaml:"verbose"`
	ColorMode   ColorMode `toml:"color" yaml:"color"`               // Default: "auto".
	LogFile     string    `toml:"log_file" yaml:"log_file"`         // Optional JSON log sink.
	MetricsFile string    `toml:"metrics_file" yaml:"metrics_file"` // Optional Prometheus textfile.
}

// DefaultConfig returns a Config with the original scripts' defaults. Used as
// the base before [LoadFile] and the CLI flags apply overrides.
func DefaultConfig() Config {
	return Config{
		Mode:          ModeThumbnail,
		Strategy:      StrategyMatch,
		AssetDir:      filepath.Join("assets", "thumbnails"),
		ThumbDuration: 0.1,
		ThumbFade:     0.1,
		WatermarkMain: filepath.Join("assets", "watermark", "logo.png"),
		WatermarkEnd:  filepath.Join("assets", "watermark", "subscribe.png"),
		MainX:         515,
		MainY:         330,
		EndX:          235,
		EndY:          960,
		EndWindow:     5,
		Retries:       2,
		RetryBackoff:  2 * time.Second,
		ColorMode:     ColorAuto,
	}
}

// Suffix returns the output filename suffix for the configured mode.
func (c *Config) Suffix() string {
	if c.Mode == ModeWatermark {
		return SuffixWatermark
	}
	return SuffixThumbnail
}

// PrimarySharedAsset returns the asset used by [StrategyShared]. In watermark
// mode an unset --asset falls back to the main watermark image.
func (c *Config) PrimarySharedAsset() string {
	if c.SharedAsset != "" {
		return c.SharedAsset
	}
	if c.Mode == ModeWatermark {
		return c.WatermarkMain
	}
	return ""
}

// CandidateDirs returns the ordered NameMatch search list: the default asset
// directory, the input directory, then any extra directories. Duplicates and
// empty entries are removed while keeping first-seen order.
func (c *Config) CandidateDirs(inputDir string) []string {
	raw := append([]string{c.AssetDir, inputDir}, c.ExtraAssetDirs...)
	seen := make(map[string]bool, len(raw))
	dirs := make([]string, 0, len(raw))
	for _, d := range raw {
		if d == "" {
			continue
		}
		key := filepath.Clean(d)
		if seen[key] {
			continue
		}
		seen[key] = true
		dirs = append(dirs, d)
	}
	return dirs
}

// NormalizeDirArg strips trailing slashes from a directory path.
// The filesystem root "/" is returned unchanged so we don't produce an empty string.
func NormalizeDirArg(path string) string {
	if path == "/" {
		return "/"
	}
	return strings.TrimRight(path, "/")
}

// Validate checks enum fields, numeric ranges, and the fields each strategy
// requires. It does not touch the filesystem; existence checks happen when
// the resolver is built so they are reported as configuration errors before
// any task runs.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeThumbnail, ModeWatermark:
		// valid
	default:
		return fmt.Errorf("invalid mode %q (use 'thumbnail' or 'watermark')", c.Mode)
	}

	switch c.ColorMode {
	case ColorAuto, ColorAlways, ColorNever:
		// valid
	default:
		return errors.New("invalid color mode (use 'auto', 'always' or 'never')")
	}

	if err := c.validateStrategy(); err != nil {
		return err
	}

	if c.ThumbDuration <= 0 {
		return errors.New("thumbnail duration must be positive")
	}
	if c.ThumbFade < 0 {
		return errors.New("thumbnail fade must not be negative")
	}
	if c.EndWindow <= 0 {
		return errors.New("end window must be positive")
	}
	if c.MainX < 0 || c.MainY < 0 || c.EndX < 0 || c.EndY < 0 {
		return errors.New("overlay coordinates must not be negative")
	}
	if c.Mode == ModeWatermark && c.WatermarkEnd == "" {
		return errors.New("watermark mode needs an end watermark (--end-asset)")
	}
	if c.Workers < 0 {
		return errors.New("workers must not be negative")
	}
	if c.Retries < 0 || c.Retries > 10 {
		return errors.New("retries must be between 0 and 10")
	}
	if c.RetryBackoff < 0 {
		return errors.New("retry backoff must not be negative")
	}

	if c.InputPath == "" || c.OutputDir == "" {
		return errors.New("need exactly input and output_dir")
	}
	return nil
}

func (c *Config) validateStrategy() error {
	switch c.Strategy {
	case StrategyShared:
		if c.PrimarySharedAsset() == "" {
			return errors.New("strategy 'shared' needs --asset")
		}
	case StrategyMatch:
		// Candidate directories always include the input directory.
	case StrategyDirectory:
		if c.SearchDir == "" {
			return errors.New("strategy 'directory' needs --search-dir")
		}
	case StrategyManual:
		if c.ManifestFile == "" {
			return errors.New("strategy 'manual' needs --manifest")
		}
	default:
		return fmt.Errorf("invalid strategy %q (use 'shared', 'match', 'directory' or 'manual')", c.Strategy)
	}
	return nil
}

// ValidatePaths ensures the resolved output directory is not inside (or equal
// to) the resolved input location, so outputs are never picked up as inputs
// by a later run. A file input is judged by its directory. Both arguments
// must be absolute, symlink-resolved paths.
func (c *Config) ValidatePaths(inputAbs, outputAbs string) error {
	if fi, err := os.Stat(inputAbs); err == nil && !fi.IsDir() {
		inputAbs = filepath.Dir(inputAbs)
	}
	sep := string(filepath.Separator)
	if outputAbs == inputAbs || strings.HasPrefix(outputAbs+sep, inputAbs+sep) {
		return errors.New("output directory must not be inside input directory")
	}
	return nil
}

// CheckPaths resolves InputPath and OutputDir and applies [Config.ValidatePaths].
// The input must exist; the output need not exist yet.
func (c *Config) CheckPaths() error {
	inputAbs, err := ResolvePath(c.InputPath)
	if err != nil {
		return fmt.Errorf("input %s: %w", c.InputPath, err)
	}
	if _, err := os.Stat(inputAbs); err != nil {
		return fmt.Errorf("input not found: %s", c.InputPath)
	}
	outputAbs, err := ResolvePath(c.OutputDir)
	if err != nil {
		return fmt.Errorf("output %s: %w", c.OutputDir, err)
	}
	return c.ValidatePaths(inputAbs, outputAbs)
}

// ResolvePath returns path made absolute with symlinks resolved. Trailing
// components that do not exist yet are kept as written on top of the
// deepest existing ancestor.
func ResolvePath(path string) (string, error) {
	if path == "" {
		return "", errors.New("empty path")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	dir, rest := abs, ""
	for {
		resolved, err := filepath.EvalSymlinks(dir)
		if err == nil {
			return filepath.Join(resolved, rest), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return abs, nil
		}
		rest = filepath.Join(filepath.Base(dir), rest)
		dir = parent
	}
}
