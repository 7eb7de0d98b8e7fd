// Package branding provides compile-time identity values for the CLI.
//
// Values live in branding.yaml next to this file and are baked into the
// binary with //go:embed. Forks rename the tool by editing that file only.
package branding

import (
	_ "embed"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

//go:embed branding.yaml
var rawBranding []byte

var (
	once     sync.Once
	defaults brand
)

type brand struct {
	CLIName             string `yaml:"cli_name"`
	DisplayName         string `yaml:"display_name"`
	Description         string `yaml:"description"`
	HomeDir             string `yaml:"home_dir"`
	EnvPrefix           string `yaml:"env_prefix"`
	GoModule            string `yaml:"go_module"`
	CLIPackage          string `yaml:"cli_package"`
	RegistryURL         string `yaml:"registry_url"`
	OriginalRegistryURL string `yaml:"original_registry_url"`
}

func load() {
	once.Do(func() {
		// Hard defaults in case the embedded file is missing or empty.
		defaults = brand{
			CLIName:             "stencil",
			DisplayName:         "Stencil",
			Description:         "Scaffold projects and components from registry-hosted templates",
			HomeDir:             ".stencil",
			EnvPrefix:           "STENCIL",
			GoModule:            "github.com/stencil-labs/stencil",
			CLIPackage:          "@stencil-labs/cli",
			RegistryURL:         "https://registry.npmmirror.com/",
			OriginalRegistryURL: "https://registry.npmjs.org/",
		}
		_ = yaml.Unmarshal(rawBranding, &defaults)
	})
}

// CLIName returns the root command name (e.g., "stencil").
func CLIName() string { load(); return defaults.CLIName }

// DisplayName returns the human-readable product name.
func DisplayName() string { load(); return defaults.DisplayName }

// Description returns the short product description.
func Description() string { load(); return defaults.Description }

// HomeDir returns the dot-directory name under $HOME (e.g., ".stencil").
func HomeDir() string { load(); return defaults.HomeDir }

// EnvPrefix returns the environment variable prefix (e.g., "STENCIL").
func EnvPrefix() string { load(); return defaults.EnvPrefix }

// GoModule returns the Go module path. Not consumed at runtime.
func GoModule() string { load(); return defaults.GoModule }

// CLIPackage returns the registry name the CLI itself is published under.
// The startup update check compares the running version against it.
func CLIPackage() string { load(); return defaults.CLIPackage }

// RegistryURL returns the default (mirror) registry base URL.
func RegistryURL() string { load(); return defaults.RegistryURL }

// OriginalRegistryURL returns the upstream public registry base URL.
func OriginalRegistryURL() string { load(); return defaults.OriginalRegistryURL }

// EnvVar returns a fully qualified env var name, e.g., EnvVar("debug") → "STENCIL_DEBUG".
func EnvVar(suffix string) string {
	load()
	return defaults.EnvPrefix + "_" + strings.ToUpper(suffix)
}
