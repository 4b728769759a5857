// SPDX-License-Identifier: MPL-2.0

package lint

import (
	"fmt"
	"os"
	"sort"

	"github.com/pelletier/go-toml/v2"
)

type (
	// Baseline holds accepted findings loaded from a TOML file. Accepted
	// findings are suppressed by Filter so only regressions are reported.
	//
	// Entries are keyed by relative path and matched line text, not line
	// number, so unrelated edits that shift lines do not invalidate the
	// baseline.
	Baseline struct {
		Accepted []BaselineEntry `toml:"accepted"`

		index map[baselineKey]bool
	}

	// BaselineEntry is one accepted finding.
	BaselineEntry struct {
		Path string `toml:"path"`
		Text string `toml:"text"`
	}

	baselineKey struct {
		path string
		text string
	}
)

// LoadBaseline reads a baseline TOML file. An empty path or a missing file
// yields an empty baseline that suppresses nothing, so trees without a
// baseline work unchanged.
func LoadBaseline(path string) (*Baseline, error) {
	if path == "" {
		return &Baseline{index: map[baselineKey]bool{}}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Baseline{index: map[baselineKey]bool{}}, nil
		}
		return nil, fmt.Errorf("read baseline: %w", err)
	}

	var b Baseline
	if err := toml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("parse baseline %s: %w", path, err)
	}

	b.index = make(map[baselineKey]bool, len(b.Accepted))
	for _, entry := range b.Accepted {
		b.index[baselineKey{path: entry.Path, text: entry.Text}] = true
	}
	return &b, nil
}

// Contains reports whether the finding is accepted by the baseline.
func (b *Baseline) Contains(f Finding) bool {
	return b.index[baselineKey{path: f.Path, text: f.Text}]
}

// Filter returns the findings not covered by the baseline, preserving order.
func (b *Baseline) Filter(findings []Finding) []Finding {
	if len(b.index) == 0 {
		return findings
	}

	kept := make([]Finding, 0, len(findings))
	for _, f := range findings {
		if !b.Contains(f) {
			kept = append(kept, f)
		}
	}
	return kept
}

// WriteBaseline writes the given findings as an accepted-findings TOML file,
// deduplicated and sorted for stable diffs.
func WriteBaseline(path string, findings []Finding) error {
	seen := make(map[baselineKey]bool, len(findings))
	entries := make([]BaselineEntry, 0, len(findings))
	for _, f := range findings {
		key := baselineKey{path: f.Path, text: f.Text}
		if seen[key] {
			continue
		}
		seen[key] = true
		entries = append(entries, BaselineEntry{Path: f.Path, Text: f.Text})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Path != entries[j].Path {
			return entries[i].Path < entries[j].Path
		}
		return entries[i].Text < entries[j].Text
	})

	data, err := toml.Marshal(Baseline{Accepted: entries})
	if err != nil {
		return fmt.Errorf("encode baseline: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write baseline: %w", err)
	}
	return nil
}
