package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/crpt-tools/guilaunch/internal/python"
	"github.com/spf13/viper"
)

// Config is the root configuration for guilaunch.
type Config struct {
	// Dir is the launcher's base directory; empty means the executable's own directory.
	Dir       string        `mapstructure:"dir"`
	Python    PythonConfig  `mapstructure:"python"`
	Venv      VenvConfig    `mapstructure:"venv"`
	Toolkit   ToolkitConfig `mapstructure:"toolkit"`
	Manifests []string      `mapstructure:"manifests"`
	Pip       PipConfig     `mapstructure:"pip"`
	App       AppConfig     `mapstructure:"app"`
	UI        UIConfig      `mapstructure:"ui"`
	Log       LogConfig     `mapstructure:"log"`
}

type PythonConfig struct {
	Candidates []string `mapstructure:"candidates"`
	MinVersion string   `mapstructure:"min_version"`
}

type VenvConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Dir     string `mapstructure:"dir"`
}

// ToolkitConfig names the GUI toolkit by its pip package and its import name.
type ToolkitConfig struct {
	Package string `mapstructure:"package"`
	Module  string `mapstructure:"module"`
}

type PipConfig struct {
	ExtraArgs []string `mapstructure:"extra_args"`
}

type AppConfig struct {
	Entry    string `mapstructure:"entry"`
	Fallback string `mapstructure:"fallback"`
}

type UIConfig struct {
	Lang  string `mapstructure:"lang"`
	Pause bool   `mapstructure:"pause"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Dir        string `mapstructure:"dir"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// FileName is the config file looked up next to the executable when no
// explicit path is given.
const FileName = "guilaunch"

// Load reads config from the optional YAML file at path, then overlays
// environment variables with the GUILAUNCH_ prefix (e.g. GUILAUNCH_VENV_ENABLED).
// With an empty path, a guilaunch.yaml in searchDir is used if present.
func Load(path, searchDir string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("GUILAUNCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	} else if searchDir != "" {
		// Only the exact file name: an extension-less "guilaunch" next to it
		// is the launcher binary itself.
		candidate := filepath.Join(searchDir, FileName+".yaml")
		if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
			v.SetConfigFile(candidate)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("reading config file %s: %w", candidate, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("dir", "")

	v.SetDefault("python.candidates", []string{"python", "py", "python3"})
	v.SetDefault("python.min_version", "3.8")

	v.SetDefault("venv.enabled", true)
	v.SetDefault("venv.dir", filepath.Join("..", ".venv"))

	v.SetDefault("toolkit.package", "PyQt6")
	v.SetDefault("toolkit.module", "PyQt6")

	v.SetDefault("manifests", []string{
		"requirements.txt",
		filepath.Join("..", "scripts", "requirements.txt"),
	})
	v.SetDefault("pip.extra_args", []string{})

	v.SetDefault("app.entry", "launcher.py")
	v.SetDefault("app.fallback", "main_window.py")

	v.SetDefault("ui.lang", "en")
	v.SetDefault("ui.pause", true)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.dir", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 30)
}

// Validate rejects configurations the launcher cannot act on.
func (c *Config) Validate() error {
	if len(c.Python.Candidates) == 0 {
		return errors.New("python.candidates must not be empty")
	}
	if c.Python.MinVersion != "" {
		if _, err := python.ParseVersion(c.Python.MinVersion); err != nil {
			return fmt.Errorf("python.min_version: %w", err)
		}
	}
	if c.Venv.Enabled && c.Venv.Dir == "" {
		return errors.New("venv.dir must be set when venv.enabled is true")
	}
	if c.Toolkit.Package == "" || c.Toolkit.Module == "" {
		return errors.New("toolkit.package and toolkit.module must be set")
	}
	if c.App.Entry == "" {
		return errors.New("app.entry must be set")
	}
	return nil
}

// MinPythonVersion returns the parsed python.min_version, or the zero
// version when none is configured.
func (c *Config) MinPythonVersion() python.Version {
	v, err := python.ParseVersion(c.Python.MinVersion)
	if err != nil {
		return python.Version{}
	}
	return v
}

// ResolveDir returns the base directory: Dir when set, otherwise the
// directory containing the running executable.
func (c *Config) ResolveDir() (string, error) {
	if c.Dir != "" {
		return filepath.Abs(c.Dir)
	}
	return ExecutableDir()
}

// ExecutableDir returns the directory of the running executable with
// symlinks resolved.
func ExecutableDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locating executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe), nil
}
