// Package config loads build, resolver, store and server settings from
// blockreg.yaml, BLOCKREG_* environment variables and command-line flags,
// in increasing order of precedence.
package config
