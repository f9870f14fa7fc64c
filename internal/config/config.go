// Package config loads y2b configuration files and resolves paths and
// timeouts from them.
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

// EnvConfig names the environment variable holding a config file path.
const EnvConfig = "Y2B_CONFIG"

// DefaultFile is the config file looked up in the working directory.
const DefaultFile = "config.yaml"

// Network holds settings shared by every outbound request.
type Network struct {
	Proxy      string `yaml:"proxy" toml:"proxy" json:"proxy"`
	TimeoutSec int    `yaml:"timeout_sec" toml:"timeout_sec" json:"timeout_sec"`
}

// Biliupr configures the managed biliupR binary.
type Biliupr struct {
	Repo                 string `yaml:"repo" toml:"repo" json:"repo"`
	APIBaseURL           string `yaml:"api_base_url" toml:"api_base_url" json:"api_base_url"`
	InstallDir           string `yaml:"install_dir" toml:"install_dir" json:"install_dir"`
	MetadataFile         string `yaml:"metadata_file" toml:"metadata_file" json:"metadata_file"`
	Proxy                string `yaml:"proxy" toml:"proxy" json:"proxy"` // Overrides network.proxy when set
	CheckTimeoutSec      int    `yaml:"check_timeout_sec" toml:"check_timeout_sec" json:"check_timeout_sec"`
	UpdateCheckOnStart   bool   `yaml:"update_check_on_start" toml:"update_check_on_start" json:"update_check_on_start"`
	AutoUpdate           bool   `yaml:"auto_update" toml:"auto_update" json:"auto_update"`
	UserCookie           string `yaml:"user_cookie" toml:"user_cookie" json:"user_cookie"`
	LoginCheckTimeoutSec int    `yaml:"login_check_timeout_sec" toml:"login_check_timeout_sec" json:"login_check_timeout_sec"`
	LockTimeoutSec       int    `yaml:"lock_timeout_sec" toml:"lock_timeout_sec" json:"lock_timeout_sec"`
}

// Config is the parsed configuration with defaults applied.
type Config struct {
	Network Network `yaml:"network" toml:"network" json:"network"`
	Biliupr Biliupr `yaml:"biliupr" toml:"biliupr" json:"biliupr"`

	// Path is the file the config was read from; empty when defaults only.
	Path string `yaml:"-" toml:"-" json:"-"`
	// BaseDir anchors relative paths.
	BaseDir string `yaml:"-" toml:"-" json:"-"`
}

// Defaults returns the default settings as a fresh mapping.
func Defaults() map[string]any {
	return map[string]any{
		"network": map[string]any{
			"proxy":       "",
			"timeout_sec": 20,
		},
		"biliupr": map[string]any{
			"repo":                    "biliup/biliup",
			"api_base_url":            "https://api.github.com",
			"install_dir":             "deps/biliupR",
			"metadata_file":           "installed.json",
			"proxy":                   "",
			"check_timeout_sec":       20,
			"update_check_on_start":   true,
			"auto_update":             true,
			"user_cookie":             "cookies.json",
			"login_check_timeout_sec": 30,
			"lock_timeout_sec":        30,
		},
	}
}

// FindConfig returns the config file path to load. An explicit path must
// exist. Otherwise Y2B_CONFIG is used when it names an existing file, and
// config.yaml in the working directory is the fallback, existing or not.
func FindConfig(explicitPath string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("specified config not found: %s", explicitPath)
		}
		return explicitPath, nil
	}

	if envPath := os.Getenv(EnvConfig); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath, nil
		}
	}

	return DefaultFile, nil
}

// Load reads path and applies it over Defaults. A missing file yields the
// defaults anchored at the working directory.
func Load(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		wd, wdErr := os.Getwd()
		if wdErr != nil {
			return nil, fmt.Errorf("failed to determine working directory: %w", wdErr)
		}
		cfg, err := decode(Defaults())
		if err != nil {
			return nil, err
		}
		cfg.BaseDir = wd
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	format := detectFormat(path, content)
	if format == FormatUnknown {
		return nil, fmt.Errorf("unable to detect file format for %s", path)
	}

	raw, err := parse(content, format)
	if err != nil {
		return nil, err
	}

	cfg, err := decode(Merge(Defaults(), raw))
	if err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}
	cfg.Path = abs
	cfg.BaseDir = filepath.Dir(abs)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ResolvePath anchors a relative path at BaseDir.
func (c *Config) ResolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(c.BaseDir, p))
}

// InstallDir returns the absolute biliupR install directory.
func (c *Config) InstallDir() string {
	return c.ResolvePath(c.Biliupr.InstallDir)
}

// CookiePath returns the absolute path of the biliup session cookie.
func (c *Config) CookiePath() string {
	return c.ResolvePath(c.Biliupr.UserCookie)
}

// Proxy returns biliupr.proxy, falling back to network.proxy.
func (c *Config) Proxy() string {
	if p := strings.TrimSpace(c.Biliupr.Proxy); p != "" {
		return p
	}
	return strings.TrimSpace(c.Network.Proxy)
}

// CheckTimeout bounds release queries and downloads. It falls back to
// network.timeout_sec when biliupr.check_timeout_sec is zero.
func (c *Config) CheckTimeout() time.Duration {
	if c.Biliupr.CheckTimeoutSec > 0 {
		return seconds(c.Biliupr.CheckTimeoutSec)
	}
	return seconds(c.Network.TimeoutSec)
}

// LoginCheckTimeout bounds one biliup renew run.
func (c *Config) LoginCheckTimeout() time.Duration {
	return seconds(c.Biliupr.LoginCheckTimeoutSec)
}

// LockTimeout bounds waiting for the install-directory lock.
func (c *Config) LockTimeout() time.Duration {
	return seconds(c.Biliupr.LockTimeoutSec)
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
