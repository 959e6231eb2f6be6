package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix namespaces environment overrides (PYCORS_DOWNLOAD_RETRIES, ...).
const EnvPrefix = "PYCORS"

// Lock policies for concurrent installs of the same version.
const (
	LockWait = "wait"
	LockFail = "fail"
)

// Config captures the user-level settings stored in <root>/config.yaml.
type Config struct {
	DefaultVersion string         `mapstructure:"default_version" yaml:"default_version"`
	LogLevel       string         `mapstructure:"log_level" yaml:"log_level"`
	Install        InstallConfig  `mapstructure:"install" yaml:"install"`
	Download       DownloadConfig `mapstructure:"download" yaml:"download"`
}

// InstallConfig controls the build and publish pipeline.
type InstallConfig struct {
	LockPolicy        string   `mapstructure:"lock_policy" yaml:"lock_policy"`
	Jobs              int      `mapstructure:"jobs" yaml:"jobs"`
	ConfigureArgs     []string `mapstructure:"configure_args" yaml:"configure_args,omitempty"`
	ExtraPackagesFile string   `mapstructure:"extra_packages_file" yaml:"extra_packages_file,omitempty"`
}

// DownloadConfig controls where archives come from and how hard to try.
type DownloadConfig struct {
	Mirror  string        `mapstructure:"mirror" yaml:"mirror"`
	NuGet   string        `mapstructure:"nuget" yaml:"nuget"`
	Retries int           `mapstructure:"retries" yaml:"retries"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		DefaultVersion: "latest",
		LogLevel:       "warn",
		Install: InstallConfig{
			LockPolicy: LockWait,
			Jobs:       0,
		},
		Download: DownloadConfig{
			Mirror:  "https://www.python.org/ftp/python",
			NuGet:   "https://api.nuget.org/v3-flatcontainer",
			Retries: 3,
			Timeout: 10 * time.Minute,
		},
	}
}

// Load reads the YAML configuration at path, layering PYCORS_* environment
// overrides on top. A missing file yields the defaults.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	defaults := Default()
	v.SetDefault("default_version", defaults.DefaultVersion)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("install.lock_policy", defaults.Install.LockPolicy)
	v.SetDefault("install.jobs", defaults.Install.Jobs)
	v.SetDefault("install.configure_args", defaults.Install.ConfigureArgs)
	v.SetDefault("install.extra_packages_file", defaults.Install.ExtraPackagesFile)
	v.SetDefault("download.mirror", defaults.Download.Mirror)
	v.SetDefault("download.nuget", defaults.Download.NuGet)
	v.SetDefault("download.retries", defaults.Download.Retries)
	v.SetDefault("download.timeout", defaults.Download.Timeout)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		file, err := os.Open(path)
		switch {
		case err == nil:
			readErr := v.ReadConfig(file)
			file.Close()
			if readErr != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, readErr)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyDefaults fills fields the file or environment left blank.
func (c *Config) ApplyDefaults() {
	defaults := Default()

	if strings.TrimSpace(c.DefaultVersion) == "" {
		c.DefaultVersion = defaults.DefaultVersion
	}
	if c.LogLevel == "" {
		c.LogLevel = defaults.LogLevel
	}
	if c.Install.LockPolicy == "" {
		c.Install.LockPolicy = defaults.Install.LockPolicy
	}
	c.Install.LockPolicy = strings.ToLower(strings.TrimSpace(c.Install.LockPolicy))
	if c.Download.Mirror == "" {
		c.Download.Mirror = defaults.Download.Mirror
	}
	c.Download.Mirror = strings.TrimRight(c.Download.Mirror, "/")
	if c.Download.NuGet == "" {
		c.Download.NuGet = defaults.Download.NuGet
	}
	c.Download.NuGet = strings.TrimRight(c.Download.NuGet, "/")
	if c.Download.Timeout <= 0 {
		c.Download.Timeout = defaults.Download.Timeout
	}
}

// Marshal returns the YAML encoding of the configuration.
func (c Config) Marshal() ([]byte, error) {
	buf, err := yaml.Marshal(&c)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return buf, nil
}
