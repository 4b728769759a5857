// SPDX-License-Identifier: MPL-2.0

// Package cueutil provides shared CUE error-reporting utilities.
//
// The config loader validates user CUE files against an embedded schema;
// cueutil turns the resulting CUE errors into messages that carry the file
// path and a JSON-path to the offending field, e.g.
//
//	config.cue: aliases[0].canonical: expected string, got int
package cueutil
