package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg == nil {
		t.Fatal("Default() returned nil")
	}

	if cfg.Paths.DataDir != "" {
		t.Errorf("Paths.DataDir = %q, want empty", cfg.Paths.DataDir)
	}
	if cfg.Paths.OutputDir != "." {
		t.Errorf("Paths.OutputDir = %q, want %q", cfg.Paths.OutputDir, ".")
	}
	if cfg.Match.Since != "1.week" {
		t.Errorf("Match.Since = %q, want %q", cfg.Match.Since, "1.week")
	}
	if cfg.Match.PatchID != PatchIDGit {
		t.Errorf("Match.PatchID = %q, want %q", cfg.Match.PatchID, PatchIDGit)
	}
	if cfg.Compose.LinkMask != "https://lore.kernel.org/r/%s" {
		t.Errorf("Compose.LinkMask = %q", cfg.Compose.LinkMask)
	}
	if cfg.Output.StaleGlob != "*.thanks" {
		t.Errorf("Output.StaleGlob = %q, want %q", cfg.Output.StaleGlob, "*.thanks")
	}
	if !cfg.Logging.Enabled {
		t.Error("Logging.Enabled should be true by default")
	}
	if cfg.Logging.MaxSizeMB != 10 || cfg.Logging.MaxBackups != 3 {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
}

func TestConfigDir(t *testing.T) {
	t.Run("with XDG_CONFIG_HOME", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "/custom/config")
		if got := ConfigDir(); got != "/custom/config/thanks" {
			t.Errorf("ConfigDir() = %q, want %q", got, "/custom/config/thanks")
		}
	})

	t.Run("without XDG_CONFIG_HOME", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "")
		home, _ := os.UserHomeDir()
		expected := filepath.Join(home, ".config", "thanks")
		if got := ConfigDir(); got != expected {
			t.Errorf("ConfigDir() = %q, want %q", got, expected)
		}
	})
}

func TestConfigFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	if got := ConfigFile(); got != "/custom/config/thanks/config.yaml" {
		t.Errorf("ConfigFile() = %q", got)
	}
}

func TestDataDir(t *testing.T) {
	t.Run("with XDG_DATA_HOME", func(t *testing.T) {
		t.Setenv("XDG_DATA_HOME", "/custom/data")
		if got := DataDir(); got != "/custom/data/thanks" {
			t.Errorf("DataDir() = %q", got)
		}
	})

	t.Run("without XDG_DATA_HOME", func(t *testing.T) {
		t.Setenv("XDG_DATA_HOME", "")
		home, _ := os.UserHomeDir()
		expected := filepath.Join(home, ".local", "share", "thanks")
		if got := DataDir(); got != expected {
			t.Errorf("DataDir() = %q, want %q", got, expected)
		}
	})
}

func TestPathsConfig_ResolveDataDir(t *testing.T) {
	home, _ := os.UserHomeDir()
	t.Setenv("XDG_DATA_HOME", "/xdg")

	tests := []struct {
		name    string
		dataDir string
		want    string
	}{
		{"empty uses default", "", "/xdg/thanks"},
		{"absolute", "/srv/thanks", "/srv/thanks"},
		{"tilde", "~/acks", filepath.Join(home, "acks")},
		{"bare tilde", "~", home},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := PathsConfig{DataDir: tt.dataDir}
			if got := p.ResolveDataDir(); got != tt.want {
				t.Errorf("ResolveDataDir() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPathsConfig_ResolveOutputDir(t *testing.T) {
	tests := []struct {
		name      string
		outputDir string
		base      string
		want      string
	}{
		{"default dot", ".", "/repo", "/repo"},
		{"empty", "", "/repo", "/repo"},
		{"relative", "out", "/repo", "/repo/out"},
		{"absolute", "/tmp/out", "/repo", "/tmp/out"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := PathsConfig{OutputDir: tt.outputDir}
			if got := p.ResolveOutputDir(tt.base); got != tt.want {
				t.Errorf("ResolveOutputDir(%q) = %q, want %q", tt.base, got, tt.want)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	t.Run("defaults only", func(t *testing.T) {
		viper.Reset()
		t.Cleanup(viper.Reset)
		SetDefaults()

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.Match.Since != "1.week" {
			t.Errorf("Match.Since = %q", cfg.Match.Since)
		}
	})

	t.Run("reads config file", func(t *testing.T) {
		viper.Reset()
		t.Cleanup(viper.Reset)
		SetDefaults()

		path := filepath.Join(t.TempDir(), "config.yaml")
		content := "user:\n  email: maint@example.org\nmatch:\n  branch: for-next\n  since: 2.weeks\n  patch_id: native\n"
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		viper.SetConfigFile(path)
		if err := viper.ReadInConfig(); err != nil {
			t.Fatalf("ReadInConfig() error = %v", err)
		}

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.User.Email != "maint@example.org" {
			t.Errorf("User.Email = %q", cfg.User.Email)
		}
		if cfg.Match.Branch != "for-next" || cfg.Match.Since != "2.weeks" || cfg.Match.PatchID != PatchIDNative {
			t.Errorf("Match = %+v", cfg.Match)
		}
		if cfg.Output.StaleGlob != "*.thanks" {
			t.Errorf("unset keys should keep defaults, StaleGlob = %q", cfg.Output.StaleGlob)
		}
	})

	t.Run("invalid values are rejected", func(t *testing.T) {
		viper.Reset()
		t.Cleanup(viper.Reset)
		SetDefaults()
		viper.Set("match.patch_id", "sha256")
		viper.Set("logging.max_size_mb", 0)

		_, err := Load()
		if err == nil {
			t.Fatal("Load() should fail on invalid config")
		}
		errs, ok := err.(ValidationErrors)
		if !ok {
			t.Fatalf("Load() error type = %T, want ValidationErrors", err)
		}
		if len(errs) != 2 {
			t.Errorf("got %d validation errors, want 2: %v", len(errs), errs)
		}
	})
}

func TestValidPatchIDs(t *testing.T) {
	ids := ValidPatchIDs()
	if len(ids) != 2 || ids[0] != PatchIDGit || ids[1] != PatchIDNative {
		t.Errorf("ValidPatchIDs() = %v", ids)
	}
}
