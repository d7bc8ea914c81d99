// Package config handles loading and managing Cropscope configuration.
package config

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/cropscope/cropscope/pkg/scoring"
)

// Config is the top-level CLI configuration, read from
// .cropscope/config.yaml.
type Config struct {
	Scoring    scoring.Policy `yaml:"scoring"`
	Catalog    string         `yaml:"catalog"`     // catalog file; empty uses the built-in catalog
	Output     string         `yaml:"output"`      // text, json or markdown
	MaxResults int            `yaml:"max_results"` // 0 shows every eligible crop
	Lang       string         `yaml:"lang"`        // local-name language for terminal output
	Log        LogConfig      `yaml:"log"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // json or console
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Scoring: scoring.Defaults(),
		Output:  "text",
		Log: LogConfig{
			Level:  "warn",
			Format: "console",
		},
	}
}

// Load reads a config file from the given path and overlays it on the
// defaults. If the file does not exist, it returns the default config.
// A relative catalog path is resolved against the directory holding
// .cropscope/.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, eris.Wrap(err, "reading config")
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, eris.Wrap(err, "parsing config")
	}
	if err := cfg.Scoring.Validate(); err != nil {
		return nil, eris.Wrapf(err, "config %s", path)
	}

	if cfg.Catalog != "" && !filepath.IsAbs(cfg.Catalog) {
		root := filepath.Dir(filepath.Dir(path))
		cfg.Catalog = filepath.Join(root, cfg.Catalog)
	}
	return cfg, nil
}

// LoadPolicy reads a YAML scoring policy and overlays it on the defaults.
// An empty path returns the defaults.
func LoadPolicy(path string) (scoring.Policy, error) {
	p := scoring.Defaults()
	if path == "" {
		return p, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return p, eris.Wrapf(err, "reading policy %s", path)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, eris.Wrapf(err, "parsing policy %s", path)
	}
	if err := p.Validate(); err != nil {
		return p, eris.Wrapf(err, "policy %s", path)
	}
	return p, nil
}

// FindConfigFile looks for .cropscope/config.yaml in the given directory
// and its parents, returning the path if found, or "" if not.
func FindConfigFile(dir string) string {
	for {
		candidate := filepath.Join(dir, ".cropscope", "config.yaml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	levelName := cfg.Level
	if levelName == "" {
		levelName = "info"
	}
	level, err := zapcore.ParseLevel(levelName)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
