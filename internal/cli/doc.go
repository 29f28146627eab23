// Package cli defines the Cobra command tree for the blockreg CLI. Each file
// in this package registers one top-level command (build, serve, list, etc.)
// with the root command. Commands delegate to internal packages for the work
// and only handle flags, configuration and output formatting.
package cli
