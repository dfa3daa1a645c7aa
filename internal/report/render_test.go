package report

import (
	"strings"
	"testing"
	"time"

	"github.com/wortmanb/obsidian-vault-maintenance/internal/models"
)

func sampleReport() *models.Report {
	return &models.Report{
		Timestamp: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		VaultPath: "/vaults/demo",
		Summary: models.Summary{
			TotalFiles: 3,
			TotalWords: 42,
			TotalLinks: 5,
			TotalTags:  2,
		},
		BrokenLinks: []models.BrokenLink{
			{
				Ref: models.LinkReference{Source: "Tasks", RawTarget: "Beets", Line: 1},
				Suggestions: []models.Candidate{
					{ID: "Beet", Name: "Beet", Score: 0.8},
				},
			},
		},
		Orphans: []models.Orphan{
			{ID: "Lonely", Name: "Lonely", WordCount: 3},
		},
		Tags: models.TagReport{
			TotalTags: 2,
			Usage: []models.TagUsage{
				{Tag: "project", Count: 2},
				{Tag: "rare", Count: 1},
			},
			SimilarTags: []models.SimilarityPair{
				{A: "project", B: "projects", Score: 0.875, Kind: "tag"},
			},
			RareTags: []string{"rare"},
		},
		Properties: models.PropertyReport{
			Inconsistencies: []models.PropertyInconsistency{
				{Key: "status", Variants: []string{"Draft", "draft"}, Reason: "inconsistent casing"},
			},
		},
		Organization: models.OrganizationReport{
			FlatWarning: &models.FlatWarning{RootNotes: 3, TotalNotes: 3, Fraction: 1},
		},
		Errors: []models.ScanIssue{
			{Path: "legacy.md", Kind: "encoding", Message: "not valid UTF-8"},
		},
	}
}

func TestTerminal(t *testing.T) {
	out := Terminal(sampleReport())
	for _, want := range []string{
		"Vault Health Report",
		"/vaults/demo",
		"Orphaned files: 1",
		"Broken links: 1",
		`"Beets" in Tasks`,
		"Beet",
		"#project: 2 files",
		"Merge 1 similar tag pairs",
		"Scan warnings: 1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("terminal output missing %q:\n%s", want, out)
		}
	}
}

func TestTerminal_NoIssues(t *testing.T) {
	r := &models.Report{Timestamp: time.Now(), VaultPath: "/v"}
	out := Terminal(r)
	if !strings.Contains(out, "No issues found") {
		t.Errorf("output:\n%s", out)
	}
}

func TestMarkdown(t *testing.T) {
	out := Markdown(sampleReport())
	for _, want := range []string{
		"# Vault Health Report",
		"## Summary",
		"| Files | 3 |",
		"### Broken links (1)",
		"`Beets` in **Tasks**",
		"Suggestions: Beet",
		"## Similar tags",
		"`#project` / `#projects` (88%)",
		"## Property inconsistencies",
		"**status**: Draft, draft (inconsistent casing)",
		"## Organization suggestions",
		"## Scan warnings (1)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown output missing %q:\n%s", want, out)
		}
	}
}

func TestTerminal_TruncatesLongLists(t *testing.T) {
	r := sampleReport()
	r.Orphans = nil
	for i := 0; i < 9; i++ {
		r.Orphans = append(r.Orphans, models.Orphan{Name: "o", WordCount: i})
	}
	out := Terminal(r)
	if !strings.Contains(out, "... and 4 more") {
		t.Errorf("expected truncation marker:\n%s", out)
	}
}
