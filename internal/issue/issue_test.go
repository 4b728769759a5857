// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"
	"testing"
)

func TestId_Constants(t *testing.T) {
	// Verify all IDs are unique and sequential
	ids := []Id{
		ConfigLoadFailedId,
		NoSearchRootsId,
		ModuleNotFoundId,
		AliasesInactiveId,
		LedgerNotFoundId,
		ProbeTimeoutId,
		LintFindingsId,
		DatabaseMissingId,
	}

	seen := make(map[Id]bool)
	for _, id := range ids {
		if seen[id] {
			t.Errorf("duplicate ID: %d", id)
		}
		seen[id] = true
	}

	// Verify IDs start at 1 (iota + 1)
	if ConfigLoadFailedId != 1 {
		t.Errorf("ConfigLoadFailedId = %d, want 1", ConfigLoadFailedId)
	}
}

func TestGet(t *testing.T) {
	tests := []struct {
		id       Id
		wantNil  bool
		contains string
	}{
		{ConfigLoadFailedId, false, "Failed to load configuration"},
		{NoSearchRootsId, false, "No search roots"},
		{ModuleNotFoundId, false, "Module not found"},
		{AliasesInactiveId, false, "MODSHIM_COMPAT_ALIASES"},
		{LedgerNotFoundId, false, "ledger"},
		{ProbeTimeoutId, false, "timed out"},
		{LintFindingsId, false, "legacy imports"},
		{DatabaseMissingId, false, "database"},
		{Id(9999), true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.contains, func(t *testing.T) {
			issue := Get(tt.id)

			if tt.wantNil {
				if issue != nil {
					t.Errorf("Get(%d) should return nil", tt.id)
				}
				return
			}

			if issue == nil {
				t.Fatalf("Get(%d) returned nil", tt.id)
			}
			if issue.Id() != tt.id {
				t.Errorf("issue.Id() = %d, want %d", issue.Id(), tt.id)
			}
			if tt.contains != "" && !strings.Contains(string(issue.MarkdownMsg()), tt.contains) {
				t.Errorf("Get(%d).MarkdownMsg() should contain %q", tt.id, tt.contains)
			}
		})
	}
}

func TestValues(t *testing.T) {
	issues := Values()

	expectedCount := 8 // Based on the number of predefined issues
	if len(issues) != expectedCount {
		t.Errorf("Values() returned %d issues, want %d", len(issues), expectedCount)
	}

	for _, issue := range issues {
		if issue.Id() == 0 {
			t.Error("found issue with ID 0")
		}
		if issue.MarkdownMsg() == "" {
			t.Errorf("Issue %d has empty MarkdownMsg", issue.Id())
		}
	}
}

func TestIssue_Render_WithLinks(t *testing.T) {
	// Mock the render function for testing
	originalRender := render
	defer func() { render = originalRender }()

	render = func(in string, stylePath string) (string, error) {
		return in, nil
	}

	testIssue := &Issue{
		id:       Id(9999),
		mdMsg:    "# Test Issue\n\nThis is a test.",
		docLinks: []HttpLink{"https://docs.example.com"},
		extLinks: []HttpLink{"https://external.example.com"},
	}

	rendered, err := testIssue.Render("")
	if err != nil {
		t.Fatalf("Render() returned error: %v", err)
	}

	if !strings.Contains(rendered, "See also") {
		t.Error("Render() with links should contain 'See also'")
	}
}

func TestIssue_Render_NoLinks(t *testing.T) {
	originalRender := render
	defer func() { render = originalRender }()

	render = func(in string, stylePath string) (string, error) {
		return in, nil
	}

	testIssue := &Issue{
		id:    Id(9998),
		mdMsg: "# Test Issue\n\nNo links here.",
	}

	rendered, err := testIssue.Render("")
	if err != nil {
		t.Fatalf("Render() returned error: %v", err)
	}

	if strings.Contains(rendered, "See also") {
		t.Error("Render() without links should not contain 'See also'")
	}
}

func TestAllIssuesAreRenderable(t *testing.T) {
	originalRender := render
	defer func() { render = originalRender }()

	render = func(in string, stylePath string) (string, error) {
		return in, nil
	}

	for _, issue := range Values() {
		rendered, err := issue.Render("")
		if err != nil {
			t.Errorf("Issue %d failed to render: %v", issue.Id(), err)
		}
		if rendered == "" {
			t.Errorf("Issue %d rendered to empty string", issue.Id())
		}
	}
}
