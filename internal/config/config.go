// Package config loads the settings of the ipchunk command.
//
// Values are layered: built-in defaults, then a config file named with
// -c/--config (JSON, or YAML when the file ends in .yaml or .yml), then
// command-line flags. Later layers override earlier ones, and keys missing
// from the file keep their default.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/dmitrijs2005/ipchunk/internal/cryptox"
	"github.com/dmitrijs2005/ipchunk/internal/digest"
	"github.com/dmitrijs2005/ipchunk/internal/flagx"
)

// Config holds runtime settings.
//
// MinChunks is the lower bound on the number of chunks per asset, usually
// the number of storage nodes. KDFSalt salts passphrase-derived keys; the
// same salt must be used to decrypt.
type Config struct {
	MinChunks       int
	DigestAlgorithm string
	NonceMode       string
	Workers         int
	OutputDir       string
	LogLevel        string
	LogFormat       string
	KDFSalt         string
}

// LoadDefaults populates c with defaults.
func (c *Config) LoadDefaults() {
	c.MinChunks = 1
	c.DigestAlgorithm = string(digest.DefaultAlgorithm)
	c.NonceMode = string(cryptox.NonceRandom)
	c.Workers = 4
	c.OutputDir = "out"
	c.LogLevel = "info"
	c.LogFormat = "text"
	c.KDFSalt = "ipchunk-kdf-v1"
}

// LoadConfig applies defaults and overlays the config file named in args,
// if any. Flags are applied afterwards by the command tree, using the
// returned values as their defaults (see BindFlags).
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if path := flagx.ConfigFileFlag(args); path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// BindFlags registers flags for every setting on fs, defaulting to the
// current values of c.
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	fs.IntVar(&c.MinChunks, "min-chunks", c.MinChunks, "minimum number of chunks per asset")
	fs.StringVar(&c.DigestAlgorithm, "digest", c.DigestAlgorithm, "chunk hash algorithm (sha256, blake3)")
	fs.StringVar(&c.NonceMode, "nonce-mode", c.NonceMode, "nonce mode (random, zero)")
	fs.IntVar(&c.Workers, "workers", c.Workers, "chunks sealed in parallel")
	fs.StringVar(&c.OutputDir, "out", c.OutputDir, "output directory")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level (debug, info, warn, error)")
	fs.StringVar(&c.LogFormat, "log-format", c.LogFormat, "log format (text, json)")
	fs.StringVar(&c.KDFSalt, "kdf-salt", c.KDFSalt, "salt for passphrase key derivation")
}

// Validate checks that enumerated settings hold known values.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if _, err := digest.ParseAlgorithm(c.DigestAlgorithm); err != nil {
		return err
	}
	if _, err := cryptox.ParseNonceMode(c.NonceMode); err != nil {
		return err
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	return nil
}

// fileConfig is the on-disk form. Pointer fields distinguish a missing key
// from a zero value.
type fileConfig struct {
	MinChunks       *int    `json:"min_chunks" yaml:"min_chunks"`
	DigestAlgorithm *string `json:"digest_algorithm" yaml:"digest_algorithm"`
	NonceMode       *string `json:"nonce_mode" yaml:"nonce_mode"`
	Workers         *int    `json:"workers" yaml:"workers"`
	OutputDir       *string `json:"output_dir" yaml:"output_dir"`
	LogLevel        *string `json:"log_level" yaml:"log_level"`
	LogFormat       *string `json:"log_format" yaml:"log_format"`
	KDFSalt         *string `json:"kdf_salt" yaml:"kdf_salt"`
}

// LoadFile overlays c with the settings in path.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}

	var fc fileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	default:
		err = json.Unmarshal(data, &fc)
	}
	if err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}

	fc.apply(c)
	return nil
}

func (fc fileConfig) apply(c *Config) {
	setInt := func(dst *int, v *int) {
		if v != nil {
			*dst = *v
		}
	}
	setString := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}

	setInt(&c.MinChunks, fc.MinChunks)
	setString(&c.DigestAlgorithm, fc.DigestAlgorithm)
	setString(&c.NonceMode, fc.NonceMode)
	setInt(&c.Workers, fc.Workers)
	setString(&c.OutputDir, fc.OutputDir)
	setString(&c.LogLevel, fc.LogLevel)
	setString(&c.LogFormat, fc.LogFormat)
	setString(&c.KDFSalt, fc.KDFSalt)
}
