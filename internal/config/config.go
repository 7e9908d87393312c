// Package config loads the optional .understory.yaml project file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/jward/understory/internal/filter"
)

// FileName is the project configuration file looked up by Find.
const FileName = ".understory.yaml"

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("config: invalid")

// Config is the project configuration. Zero values mean "use the default".
type Config struct {
	// Include lists doublestar globs, relative to the analyzed root, that
	// select source files.
	Include []string `yaml:"include"`
	// Exclude lists globs removed from the included set.
	Exclude []string `yaml:"exclude"`
	// Jobs bounds parallel unit processing; 0 means GOMAXPROCS.
	Jobs int `yaml:"jobs"`
	// Noise is the noise level name: raw, balanced or pure.
	Noise string `yaml:"noise"`
	// Rules are Risor rule files, relative to the config file.
	Rules []string `yaml:"rules"`
	// Where is an inline Risor rule applied after Rules.
	Where string `yaml:"where"`
	// ExternalTypes are additional fully qualified type names treated as
	// known library types.
	ExternalTypes []string `yaml:"external_types"`
	// DB is the SQLite database path; empty disables persistence.
	DB string `yaml:"db"`

	// dir is the directory of the file the config was loaded from.
	dir string
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Include: []string{"**/*.java"},
		Exclude: []string{"**/.git/**", "**/target/**", "**/build/**", "**/node_modules/**"},
		Noise:   string(filter.LevelRaw),
	}
}

// Load reads the file at path over Default.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	abs, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("config: resolving %s: %w", path, err)
	}
	cfg.dir = abs
	return cfg, nil
}

// Parse decodes YAML over Default. Unknown keys are an error.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing yaml: %w", err)
	}
	return cfg, nil
}

// Find looks for FileName in startDir and its parents. It returns "" when
// no file exists.
func Find(startDir string) string {
	dir := startDir
	for {
		p := filepath.Join(dir, FileName)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// LoadOrDefault loads the file found from startDir, or returns Default.
func LoadOrDefault(startDir string, logger *slog.Logger) (*Config, error) {
	if logger == nil {
		logger = slog.Default()
	}
	p := Find(startDir)
	if p == "" {
		logger.Debug("no project config found", slog.String("dir", startDir))
		return Default(), nil
	}
	cfg, err := Load(p)
	if err != nil {
		return nil, err
	}
	logger.Debug("loaded project config", slog.String("path", p))
	return cfg, nil
}

// Validate checks the level name, job count and glob syntax.
func (c *Config) Validate() error {
	if _, err := filter.ParseLevel(c.Noise); err != nil {
		return fmt.Errorf("%w: noise: %w", ErrInvalid, err)
	}
	if c.Jobs < 0 {
		return fmt.Errorf("%w: jobs must be >= 0, got %d", ErrInvalid, c.Jobs)
	}
	for _, group := range [][]string{c.Include, c.Exclude} {
		for _, pattern := range group {
			if !doublestar.ValidatePattern(pattern) {
				return fmt.Errorf("%w: bad glob %q", ErrInvalid, pattern)
			}
		}
	}
	if len(c.Include) == 0 {
		return fmt.Errorf("%w: include must not be empty", ErrInvalid)
	}
	return nil
}

// RulePaths returns Rules resolved against the config file's directory.
func (c *Config) RulePaths() []string {
	out := make([]string, len(c.Rules))
	for i, r := range c.Rules {
		out[i] = c.resolve(r)
	}
	return out
}

// DBPath returns DB resolved against the config file's directory.
func (c *Config) DBPath() string {
	if c.DB == "" {
		return ""
	}
	return c.resolve(c.DB)
}

func (c *Config) resolve(p string) string {
	if filepath.IsAbs(p) || c.dir == "" {
		return p
	}
	return filepath.Join(c.dir, p)
}
