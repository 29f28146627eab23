// Package branding provides compile-time identity values for the CLI.
//
// Forks edit branding.yaml in this package; Go's //go:embed bakes it into
// the binary.
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
	CLIName      string `yaml:"cli_name"`
	DisplayName  string `yaml:"display_name"`
	Description  string `yaml:"description"`
	EnvPrefix    string `yaml:"env_prefix"`
	ConfigName   string `yaml:"config_name"`
	RegistryName string `yaml:"registry_name"`
}

func load() {
	once.Do(func() {
		// Set hard defaults in case the embedded file is missing/empty.
		defaults = brand{
			CLIName:      "blockreg",
			DisplayName:  "Blockreg",
			Description:  "Registry builder and previewer for UI block variants",
			EnvPrefix:    "BLOCKREG",
			ConfigName:   "blockreg",
			RegistryName: "blocks",
		}
		// Overlay with embedded YAML values.
		_ = yaml.Unmarshal(rawBranding, &defaults)
	})
}

// CLIName returns the root command name (e.g., "blockreg").
func CLIName() string { load(); return defaults.CLIName }

// DisplayName returns the human-readable product name.
func DisplayName() string { load(); return defaults.DisplayName }

// Description returns the short product description.
func Description() string { load(); return defaults.Description }

// EnvPrefix returns the environment variable prefix (e.g., "BLOCKREG").
func EnvPrefix() string { load(); return defaults.EnvPrefix }

// ConfigName returns the config file base name without extension.
func ConfigName() string { load(); return defaults.ConfigName }

// RegistryName returns the default registry name written into manifests.
func RegistryName() string { load(); return defaults.RegistryName }

// EnvVar returns a fully qualified env var name, e.g., EnvVar("ROOT") → "BLOCKREG_ROOT".
func EnvVar(suffix string) string {
	load()
	return defaults.EnvPrefix + "_" + strings.ToUpper(suffix)
}
