// Package cli defines the Cobra command tree for the stencil CLI. Each file
// registers one top-level command with the root command. The root pre-run
// hook loads the configuration and builds the logger and registry client
// that the commands share; business logic lives in the internal packages.
package cli
