// Package config resolves the CLI's runtime configuration into a single
// Config value: the user and CLI home directories, the registry URL, the
// debug flag, the local target path override and command-to-package mappings.
// Settings persist in <cliHome>/config.yaml.
package config
