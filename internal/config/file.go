package config

// This file loads optional TOML or YAML config files. A file is decoded on
// top of DefaultConfig before the CLI flags are registered, so the flags'
// defaults become the file values and anything passed on the command line
// still wins.

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// LoadFile decodes the config file at path into cfg. Keys missing from the
// file keep their current values; unknown keys are an error so typos do not
// silently fall back to defaults.
func LoadFile(path string, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		md, err := toml.DecodeFile(path, cfg)
		if err != nil {
			return fmt.Errorf("parse config %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return fmt.Errorf("config %s: unknown keys: %s", path, strings.Join(keys, ", "))
		}
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("parse config %s: %w", path, err)
		}
	default:
		return fmt.Errorf("config %s: unsupported extension (use .toml, .yaml or .yml)", path)
	}
	cfg.ConfigFile = path
	return nil
}

// PeekConfigPath scans args for --config without failing on any other flag.
// It runs before the real flag set exists so the file can seed flag defaults.
func PeekConfigPath(args []string) string {
	fs := pflag.NewFlagSet("peek", pflag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}

	var path string
	fs.StringVar(&path, "config", "", "")
	_ = fs.Parse(args)
	return path
}
