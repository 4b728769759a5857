// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as the file format.
//
// Configuration is loaded from ~/.config/modshim/config.cue (or XDG equivalent on Linux,
// ~/Library/Application Support/modshim/config.cue on macOS, %APPDATA%\modshim\config.cue
// on Windows), falling back to a config.cue in the current directory. It covers the
// module search roots, compat alias pairs, lint patterns, probe execution, and the
// migration database check.
//
// User files are validated against a CUE schema (config_schema.cue) so mistyped fields
// fail with a path into the offending value instead of silently parsing to zero values.
package config
