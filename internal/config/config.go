package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the complete thanks configuration
type Config struct {
	User    UserConfig    `mapstructure:"user" yaml:"user"`
	Paths   PathsConfig   `mapstructure:"paths" yaml:"paths"`
	Match   MatchConfig   `mapstructure:"match" yaml:"match"`
	Compose ComposeConfig `mapstructure:"compose" yaml:"compose"`
	Output  OutputConfig  `mapstructure:"output" yaml:"output"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// UserConfig identifies the maintainer sending acknowledgments.
// Empty values fall back to git's user.name and user.email.
type UserConfig struct {
	Name  string `mapstructure:"name" yaml:"name"`
	Email string `mapstructure:"email" yaml:"email"`
}

// PathsConfig controls where thanks keeps its data
type PathsConfig struct {
	// DataDir holds the tracked records and the log file.
	// If empty, defaults to $XDG_DATA_HOME/thanks (or ~/.local/share/thanks).
	// Supports ~ for home directory expansion.
	DataDir string `mapstructure:"data_dir" yaml:"data_dir"`
	// OutputDir is where .thanks files are written (default: ".")
	OutputDir string `mapstructure:"output_dir" yaml:"output_dir"`
}

// MatchConfig controls how tracked items are located in history
type MatchConfig struct {
	// Branch is the branch to match against; empty means the current branch
	Branch string `mapstructure:"branch" yaml:"branch"`
	// Since is the git date window for series lookups (default: "1.week")
	Since string `mapstructure:"since" yaml:"since"`
	// PatchID selects the identity hasher: "git" (default) or "native"
	PatchID string `mapstructure:"patch_id" yaml:"patch_id"`
}

// ComposeConfig controls the generated acknowledgment messages
type ComposeConfig struct {
	// PullRequestTemplate is a path to a text/template file for merged pull requests
	PullRequestTemplate string `mapstructure:"pull_request_template" yaml:"pull_request_template"`
	// SeriesTemplate is a path to a text/template file for applied series
	SeriesTemplate string `mapstructure:"series_template" yaml:"series_template"`
	// LinkMask turns a Message-Id into a link shown by "thanks list"; must contain %s
	LinkMask string `mapstructure:"link_mask" yaml:"link_mask"`
}

// OutputConfig controls artifact handling
type OutputConfig struct {
	// StaleGlob matches leftover unsent artifacts in the output directory (default: "*.thanks")
	StaleGlob string `mapstructure:"stale_glob" yaml:"stale_glob"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Enabled controls whether logging to <data_dir>/thanks.log is enabled (default: true)
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// Level is the log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level" yaml:"level"`
	// MaxSizeMB is the maximum log file size in megabytes before rotation (default: 10)
	MaxSizeMB int `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	// MaxBackups is the number of backup log files to keep (default: 3)
	MaxBackups int `mapstructure:"max_backups" yaml:"max_backups"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			DataDir:   "", // Empty means use default: $XDG_DATA_HOME/thanks
			OutputDir: ".",
		},
		Match: MatchConfig{
			Branch:  "",
			Since:   "1.week",
			PatchID: PatchIDGit,
		},
		Compose: ComposeConfig{
			LinkMask: "https://lore.kernel.org/r/%s",
		},
		Output: OutputConfig{
			StaleGlob: "*.thanks",
		},
		Logging: LoggingConfig{
			Enabled:    true,
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// Patch identity hasher names
const (
	PatchIDGit    = "git"
	PatchIDNative = "native"
)

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("user.name", defaults.User.Name)
	viper.SetDefault("user.email", defaults.User.Email)

	viper.SetDefault("paths.data_dir", defaults.Paths.DataDir)
	viper.SetDefault("paths.output_dir", defaults.Paths.OutputDir)

	viper.SetDefault("match.branch", defaults.Match.Branch)
	viper.SetDefault("match.since", defaults.Match.Since)
	viper.SetDefault("match.patch_id", defaults.Match.PatchID)

	viper.SetDefault("compose.pull_request_template", defaults.Compose.PullRequestTemplate)
	viper.SetDefault("compose.series_template", defaults.Compose.SeriesTemplate)
	viper.SetDefault("compose.link_mask", defaults.Compose.LinkMask)

	viper.SetDefault("output.stale_glob", defaults.Output.StaleGlob)

	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	viper.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// ResolveDataDir returns the directory holding tracked records.
func (p *PathsConfig) ResolveDataDir() string {
	if p.DataDir == "" {
		return DataDir()
	}
	return expandHome(p.DataDir)
}

// ResolveOutputDir returns the output directory, relative paths resolved
// against baseDir.
func (p *PathsConfig) ResolveOutputDir(baseDir string) string {
	path := expandHome(p.OutputDir)
	if path == "" {
		path = "."
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}
	return path
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			return home
		}
	}
	return path
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "thanks")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".thanks"
	}
	return filepath.Join(home, ".config", "thanks")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// DataDir returns the default data directory
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "thanks")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".thanks"
	}
	return filepath.Join(home, ".local", "share", "thanks")
}

// ValidPatchIDs returns the accepted match.patch_id values
func ValidPatchIDs() []string {
	return []string{PatchIDGit, PatchIDNative}
}
