// Package config loads compsync configuration from defaults, an optional
// config file and COMPSYNC_* environment variables.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// ValidationError reports a configuration value the synchronizer cannot
// honor. Commands map it to the config exit code.
type ValidationError struct {
	Setting string
	Reason  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Setting, e.Reason)
}

// Config holds all configuration for compsync
type Config struct {
	Sync       SyncConfig       `mapstructure:"sync"`
	Generators GeneratorsConfig `mapstructure:"generators"`
}

// SyncConfig holds synchronizer-level settings
type SyncConfig struct {
	// ManifestRoots are the directories scanned for component manifests.
	ManifestRoots []string `mapstructure:"manifest_roots"`
	// OutputDir is where generated component directories land.
	OutputDir string `mapstructure:"output_dir"`
	// AllowedRoots restricts artifact writes. Empty means {OutputDir}.
	AllowedRoots []string `mapstructure:"allowed_roots"`
	// MaxFileSize caps a single generated file, in bytes.
	MaxFileSize int64 `mapstructure:"max_file_size"`
	// Backup enables pre-overwrite backups.
	Backup bool `mapstructure:"backup"`
	// Workers caps concurrent bundle syncs in batch mode.
	Workers int `mapstructure:"workers"`
}

// GeneratorsConfig holds artifact generation settings
type GeneratorsConfig struct {
	// Enabled is the generator order for reverse sync.
	Enabled []string `mapstructure:"enabled"`
	// NamingStyle is one of minimal, bem, framework.
	NamingStyle string `mapstructure:"naming_style"`
	// Typed switches the interactive component to TypeScript.
	Typed bool `mapstructure:"typed"`
	// DebugComments adds provenance comments to generated files.
	DebugComments bool `mapstructure:"debug_comments"`
	// WithTests emits a smoke test beside the component.
	WithTests bool `mapstructure:"with_tests"`
	// WithStories emits a catalog story beside the component.
	WithStories bool `mapstructure:"with_stories"`
	// WithIndex emits an index re-export file.
	WithIndex bool `mapstructure:"with_index"`
}

var defaultConfig = Config{
	Sync: SyncConfig{
		ManifestRoots: []string{"components"},
		OutputDir:     "components",
		MaxFileSize:   1 << 20,
		Backup:        true,
		Workers:       4,
	},
	Generators: GeneratorsConfig{
		Enabled:     []string{"manifest", "template", "component", "stylesheet", "library"},
		NamingStyle: "bem",
		WithIndex:   true,
	},
}

// LoadConfig loads configuration from defaults, an optional .compsync
// config file and the environment.
func LoadConfig() (*Config, error) {
	v := viper.New()

	v.SetDefault("sync.manifest_roots", defaultConfig.Sync.ManifestRoots)
	v.SetDefault("sync.output_dir", defaultConfig.Sync.OutputDir)
	v.SetDefault("sync.allowed_roots", defaultConfig.Sync.AllowedRoots)
	v.SetDefault("sync.max_file_size", defaultConfig.Sync.MaxFileSize)
	v.SetDefault("sync.backup", defaultConfig.Sync.Backup)
	v.SetDefault("sync.workers", defaultConfig.Sync.Workers)

	v.SetDefault("generators.enabled", defaultConfig.Generators.Enabled)
	v.SetDefault("generators.naming_style", defaultConfig.Generators.NamingStyle)
	v.SetDefault("generators.typed", defaultConfig.Generators.Typed)
	v.SetDefault("generators.debug_comments", defaultConfig.Generators.DebugComments)
	v.SetDefault("generators.with_tests", defaultConfig.Generators.WithTests)
	v.SetDefault("generators.with_stories", defaultConfig.Generators.WithStories)
	v.SetDefault("generators.with_index", defaultConfig.Generators.WithIndex)

	v.SetConfigName(".compsync")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME")

	v.SetEnvPrefix("COMPSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file is optional; fall back to defaults when absent.
	_ = v.ReadInConfig()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, &ValidationError{Setting: "config file", Reason: fmt.Sprintf("unmarshal failed: %v", err)}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate rejects settings the orchestrator cannot honor.
func (c *Config) Validate() error {
	switch c.Generators.NamingStyle {
	case "minimal", "bem", "framework":
	default:
		return &ValidationError{Setting: "generators.naming_style", Reason: fmt.Sprintf("unknown naming style %q", c.Generators.NamingStyle)}
	}
	if c.Sync.MaxFileSize < 0 {
		return &ValidationError{Setting: "sync.max_file_size", Reason: "must not be negative"}
	}
	if c.Sync.OutputDir == "" {
		return &ValidationError{Setting: "sync.output_dir", Reason: "must be set"}
	}
	return nil
}
