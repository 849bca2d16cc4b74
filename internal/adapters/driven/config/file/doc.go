// Package file provides file-based implementations of driven port interfaces.
// These adapters read from the local filesystem.
//
// Adapters:
//   - Loader: TOML-based runtime configuration with NOTEWATCH_* overrides
package file
