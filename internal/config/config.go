package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/stencil-labs/stencil/internal/branding"
)

const (
	fileName = "config"
	fileType = "yaml"

	// dotenvFile is read from the user's home directory, if present.
	dotenvFile = ".env"
	// cliHomeKey names the home-relative CLI directory in the dotenv file.
	cliHomeKey = "CLI_HOME"

	// DependenciesDir holds cached command packages under the CLI home.
	DependenciesDir = "dependencies"
	// TemplatesDir holds cached template packages under the CLI home.
	TemplatesDir = "template"
	// CatalogFileName is the default template catalog under the CLI home.
	CatalogFileName = "templates.yaml"

	// DefaultNodeMinVersion is the lowest Node.js accepted for package-backed commands.
	DefaultNodeMinVersion = "12.0.0"
)

// defaultCommandPackages maps commands to the package used when a local
// package is supplied with --target-path but no mapping is configured.
var defaultCommandPackages = map[string]string{
	"init": "@stencil-labs/init",
}

// Config is built once at startup and passed explicitly to every component
// that needs it. Nothing below the CLI layer reads the environment directly.
type Config struct {
	Home           string
	CLIHome        string
	TargetPath     string
	Debug          bool
	Registry       string
	Commands       map[string]string
	CatalogFile    string
	NodeMinVersion string
}

// Overrides carries values given on the command line. They win over the
// environment and the config file.
type Overrides struct {
	// HomeDir replaces os.UserHomeDir; used by tests.
	HomeDir    string
	TargetPath string
	Debug      bool
}

// Load resolves the configuration from flags, STENCIL_* environment
// variables, ~/.env, <cliHome>/config.yaml and defaults, in that order.
func Load(o Overrides) (*Config, error) {
	home, err := userHome(o.HomeDir)
	if err != nil {
		return nil, err
	}

	cliHome := filepath.Join(home, cliHomeName(home))

	v := viper.New()
	v.SetDefault("registry", branding.RegistryURL())
	v.SetDefault("catalog", filepath.Join(cliHome, CatalogFileName))
	v.SetDefault("node_min_version", DefaultNodeMinVersion)
	v.SetDefault("debug", false)
	v.SetDefault("target_path", "")

	v.SetEnvPrefix(branding.EnvPrefix())
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	path := filePath(cliHome)
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType(fileType)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	cfg := &Config{
		Home:           home,
		CLIHome:        cliHome,
		TargetPath:     v.GetString("target_path"),
		Debug:          v.GetBool("debug"),
		Registry:       v.GetString("registry"),
		Commands:       v.GetStringMapString("commands"),
		CatalogFile:    v.GetString("catalog"),
		NodeMinVersion: v.GetString("node_min_version"),
	}
	if o.TargetPath != "" {
		cfg.TargetPath = o.TargetPath
	}
	if o.Debug {
		cfg.Debug = true
	}
	if cfg.TargetPath != "" {
		abs, err := filepath.Abs(cfg.TargetPath)
		if err != nil {
			return nil, fmt.Errorf("resolving target path %s: %w", cfg.TargetPath, err)
		}
		cfg.TargetPath = abs
	}
	return cfg, nil
}

// userHome returns the home directory and fails when it does not exist.
func userHome(override string) (string, error) {
	home := override
	if home == "" {
		h, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		home = h
	}
	info, err := os.Stat(home)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("user home directory %s does not exist", home)
	}
	return home, nil
}

// cliHomeName picks the CLI directory name relative to home:
// STENCIL_CLI_HOME, then CLI_HOME from ~/.env, then the branded default.
func cliHomeName(home string) string {
	if v := os.Getenv(branding.EnvVar(cliHomeKey)); v != "" {
		return v
	}

	envPath := filepath.Join(home, dotenvFile)
	if _, err := os.Stat(envPath); err == nil {
		dv := viper.New()
		dv.SetConfigFile(envPath)
		dv.SetConfigType("env")
		if err := dv.ReadInConfig(); err == nil {
			if name := dv.GetString(cliHomeKey); name != "" {
				return name
			}
		}
	}
	return branding.HomeDir()
}

func filePath(cliHome string) string {
	return filepath.Join(cliHome, fileName+"."+fileType)
}

// FilePath returns the config file location (<cliHome>/config.yaml).
func (c *Config) FilePath() string {
	return filePath(c.CLIHome)
}

// EnsureDir creates the CLI home directory if it does not exist.
func (c *Config) EnsureDir() error {
	if err := os.MkdirAll(c.CLIHome, 0755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", c.CLIHome, err)
	}
	return nil
}

// DependenciesPath returns <cliHome>/dependencies, the target path for
// cached command packages.
func (c *Config) DependenciesPath() string {
	return filepath.Join(c.CLIHome, DependenciesDir)
}

// TemplatesPath returns <cliHome>/template, the target path for cached
// template packages.
func (c *Config) TemplatesPath() string {
	return filepath.Join(c.CLIHome, TemplatesDir)
}

// CommandPackage returns the package backing a command, or "" when the
// command runs built in. A configured mapping always wins; with a target
// path set the default mapping applies.
func (c *Config) CommandPackage(command string) string {
	if pkg := c.Commands[command]; pkg != "" {
		return pkg
	}
	if c.TargetPath != "" {
		return defaultCommandPackages[command]
	}
	return ""
}

// Get returns a value stored in the config file. Returns "" if unset.
func (c *Config) Get(key string) (string, error) {
	fv, err := c.fileViper()
	if err != nil {
		return "", err
	}
	return fv.GetString(key), nil
}

// Set writes a key-value pair to the config file, creating it if needed.
func (c *Config) Set(key, value string) error {
	if err := c.EnsureDir(); err != nil {
		return err
	}

	fv, err := c.fileViper()
	if err != nil {
		return err
	}
	fv.Set(key, value)

	if err := fv.WriteConfigAs(c.FilePath()); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// fileViper returns a viper instance backed only by the config file, so
// Set never persists defaults or environment values.
func (c *Config) fileViper() (*viper.Viper, error) {
	fv := viper.New()
	fv.SetConfigType(fileType)
	path := c.FilePath()
	if _, err := os.Stat(path); err != nil {
		return fv, nil
	}
	fv.SetConfigFile(path)
	if err := fv.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}
	return fv, nil
}
