package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

/*
Configuration precedence, highest first:

1. Overrides passed by the CLI (--backend, --log-level, ...)
2. POCKET_FILL_* environment variables (POCKET_FILL_STORAGE_BACKEND, ...)
3. <library>/config.yaml
4. Defaults below

The library root itself is resolved before anything is read, from --dir,
then POCKET_FILL_DIR, then ~/.pocket-fill, since config.yaml lives inside it.
*/

const (
	EnvPrefix  = "POCKET_FILL"
	EnvDir     = "POCKET_FILL_DIR"
	FileName   = "config.yaml"
	MetaDir    = ".pocket-fill"
	defaultDir = ".pocket-fill"

	BackendMarkdown = "markdown"
	BackendSQLite   = "sqlite"
)

type Config struct {
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
	UI      UIConfig      `mapstructure:"ui" yaml:"ui"`
}

type StorageConfig struct {
	Backend  string `mapstructure:"backend" yaml:"backend" validate:"required,oneof=markdown sqlite"`
	Path     string `mapstructure:"path" yaml:"path" validate:"required"`
	Database string `mapstructure:"database" yaml:"database" validate:"required"`
}

type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	// File is a path, or "stderr". Empty means <library>/.pocket-fill/logs/pocket-fill.log.
	File string `mapstructure:"file" yaml:"file"`
}

type UIConfig struct {
	GlamourStyle string `mapstructure:"glamour_style" yaml:"glamour_style" validate:"omitempty,oneof=auto dark light notty ascii dracula pink tokyo-night"`
	WordWrap     int    `mapstructure:"word_wrap" yaml:"word_wrap" validate:"gte=0,lte=400"`
}

// Options are the inputs that sit above every other source.
type Options struct {
	Dir       string
	Overrides map[string]any
}

// Load resolves the library root, reads config.yaml if present, applies
// environment variables and overrides, and validates the result.
func Load(opts Options) (*Config, error) {
	root, err := resolveRoot(opts.Dir)
	if err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v, root)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path := filepath.Join(root, FileName)
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	for key, value := range opts.Overrides {
		v.Set(key, value)
	}
	if opts.Dir != "" {
		v.Set("storage.path", root)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	cfg.resolvePaths()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, root string) {
	v.SetDefault("storage.backend", BackendMarkdown)
	v.SetDefault("storage.path", root)
	v.SetDefault("storage.database", "pocket-fill.db")
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.file", "")
	v.SetDefault("ui.glamour_style", "auto")
	v.SetDefault("ui.word_wrap", 80)
}

func resolveRoot(dir string) (string, error) {
	if dir == "" {
		dir = os.Getenv(EnvDir)
	}
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(home, defaultDir)
	}
	return filepath.Abs(dir)
}

// resolvePaths anchors relative database and log paths at the library root.
func (c *Config) resolvePaths() {
	if c.Storage.Database != "" && !filepath.IsAbs(c.Storage.Database) {
		c.Storage.Database = filepath.Join(c.Storage.Path, c.Storage.Database)
	}
	switch {
	case c.Log.File == "":
		c.Log.File = filepath.Join(c.Storage.Path, MetaDir, "logs", "pocket-fill.log")
	case c.Log.File == "stderr":
	case !filepath.IsAbs(c.Log.File):
		c.Log.File = filepath.Join(c.Storage.Path, c.Log.File)
	}
}

// Validate checks the configuration against its struct tags.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation error: %w", err)
	}
	return nil
}

// Root returns the prompt library directory.
func (c *Config) Root() string {
	return c.Storage.Path
}

// WriteDefault writes a starter config.yaml into root unless one
// exists. It reports whether a file was written.
func WriteDefault(root string) (bool, error) {
	path := filepath.Join(root, FileName)
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}

	doc := map[string]any{
		"storage": map[string]any{
			"backend":  BackendMarkdown,
			"database": "pocket-fill.db",
		},
		"log": map[string]any{
			"level": "warn",
		},
		"ui": map[string]any{
			"glamour_style": "auto",
			"word_wrap":     80,
		},
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return false, err
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return false, err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return false, err
	}
	return true, nil
}
