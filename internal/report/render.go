// Package report renders a scan result as human-readable text. It is thin
// glue over the Report struct; JSON output comes straight from encoding/json.
package report

import (
	"fmt"
	"strings"

	"github.com/wortmanb/obsidian-vault-maintenance/internal/models"
)

const (
	maxListed  = 5
	maxTopTags = 10
)

// Terminal renders a compact health summary for interactive use.
func Terminal(r *models.Report) string {
	var b strings.Builder
	sum := r.Summary

	fmt.Fprintf(&b, "Vault Health Report\n")
	fmt.Fprintf(&b, "Vault:   %s\n", r.VaultPath)
	fmt.Fprintf(&b, "Scanned: %s\n\n", r.Timestamp.Format("2006-01-02 15:04:05"))

	fmt.Fprintf(&b, "Summary\n")
	fmt.Fprintf(&b, "  Files:                 %d\n", sum.TotalFiles)
	fmt.Fprintf(&b, "  Size:                  %.2f MB\n", float64(sum.TotalSizeBytes)/1024/1024)
	fmt.Fprintf(&b, "  Words:                 %d\n", sum.TotalWords)
	fmt.Fprintf(&b, "  Links:                 %d\n", sum.TotalLinks)
	fmt.Fprintf(&b, "  Tags:                  %d\n", sum.TotalTags)
	fmt.Fprintf(&b, "  Files with properties: %d\n", sum.FilesWithProperties)
	fmt.Fprintf(&b, "  Recent files (7d):     %d\n\n", sum.RecentFiles)

	issues := len(r.Orphans) + len(r.BrokenLinks)
	if issues > 0 {
		fmt.Fprintf(&b, "Issues found (%d)\n", issues)
		if len(r.Orphans) > 0 {
			fmt.Fprintf(&b, "  Orphaned files: %d\n", len(r.Orphans))
			for _, o := range truncOrphans(r.Orphans) {
				fmt.Fprintf(&b, "    - %s (%d words)\n", o.Name, o.WordCount)
			}
			more(&b, len(r.Orphans))
		}
		if len(r.BrokenLinks) > 0 {
			fmt.Fprintf(&b, "  Broken links: %d\n", len(r.BrokenLinks))
			for i, bl := range r.BrokenLinks {
				if i == maxListed {
					break
				}
				fmt.Fprintf(&b, "    - %q in %s (suggestions: %s)\n",
					bl.Ref.RawTarget, bl.Ref.Source, suggestionNames(bl.Suggestions))
			}
			more(&b, len(r.BrokenLinks))
		}
	} else {
		fmt.Fprintf(&b, "No issues found\n")
	}
	b.WriteByte('\n')

	if len(r.Tags.Usage) > 0 {
		fmt.Fprintf(&b, "Top tags\n")
		for i, u := range r.Tags.Usage {
			if i == maxTopTags {
				break
			}
			fmt.Fprintf(&b, "  #%s: %d files\n", u.Tag, u.Count)
		}
		b.WriteByte('\n')
	}

	fmt.Fprintf(&b, "Quick wins\n")
	if n := len(r.Duplicates.Groups); n > 0 {
		fmt.Fprintf(&b, "  Review %d potential duplicate groups\n", n)
	}
	if n := len(r.Tags.SimilarTags); n > 0 {
		fmt.Fprintf(&b, "  Merge %d similar tag pairs\n", n)
	}
	if n := len(r.Tags.RareTags); n > 0 {
		fmt.Fprintf(&b, "  Review %d single-use tags\n", n)
	}
	if len(r.Errors) > 0 {
		fmt.Fprintf(&b, "\nScan warnings: %d (see full report)\n", len(r.Errors))
	}
	return b.String()
}

// Markdown renders the full report as a Markdown document.
func Markdown(r *models.Report) string {
	var b strings.Builder
	sum := r.Summary

	fmt.Fprintf(&b, "# Vault Health Report\n\n")
	fmt.Fprintf(&b, "**Vault:** `%s`\n", r.VaultPath)
	fmt.Fprintf(&b, "**Generated:** %s\n\n", r.Timestamp.Format("2006-01-02 15:04:05"))

	fmt.Fprintf(&b, "## Summary\n\n")
	fmt.Fprintf(&b, "| Metric | Count |\n|--------|-------|\n")
	fmt.Fprintf(&b, "| Files | %d |\n", sum.TotalFiles)
	fmt.Fprintf(&b, "| Size | %.2f MB |\n", float64(sum.TotalSizeBytes)/1024/1024)
	fmt.Fprintf(&b, "| Words | %d |\n", sum.TotalWords)
	fmt.Fprintf(&b, "| Links | %d |\n", sum.TotalLinks)
	fmt.Fprintf(&b, "| Tags | %d |\n", sum.TotalTags)
	fmt.Fprintf(&b, "| Files with properties | %d |\n", sum.FilesWithProperties)
	fmt.Fprintf(&b, "| Recent files (7d) | %d |\n\n", sum.RecentFiles)

	issues := len(r.Orphans) + len(r.BrokenLinks)
	if issues > 0 {
		fmt.Fprintf(&b, "## Issues (%d)\n\n", issues)
		if len(r.Orphans) > 0 {
			fmt.Fprintf(&b, "### Orphaned files (%d)\n\nFiles with no incoming links:\n\n", len(r.Orphans))
			for _, o := range r.Orphans {
				fmt.Fprintf(&b, "- **%s** (%d words, modified %s)\n",
					o.Name, o.WordCount, o.ModTime.Format("2006-01-02"))
			}
			b.WriteByte('\n')
		}
		if len(r.BrokenLinks) > 0 {
			fmt.Fprintf(&b, "### Broken links (%d)\n\n", len(r.BrokenLinks))
			for _, bl := range r.BrokenLinks {
				fmt.Fprintf(&b, "- `%s` in **%s**\n", bl.Ref.RawTarget, bl.Ref.Source)
				if len(bl.Suggestions) > 0 {
					fmt.Fprintf(&b, "  - Suggestions: %s\n", suggestionNames(bl.Suggestions))
				}
			}
			b.WriteByte('\n')
		}
	} else {
		fmt.Fprintf(&b, "## No issues\n\nYour vault is in great shape!\n\n")
	}

	if len(r.AmbiguousLinks) > 0 {
		fmt.Fprintf(&b, "## Ambiguous links (%d)\n\n", len(r.AmbiguousLinks))
		for _, ref := range r.AmbiguousLinks {
			fmt.Fprintf(&b, "- `%s` in **%s** resolved to `%s`\n", ref.RawTarget, ref.Source, ref.Resolved)
		}
		b.WriteByte('\n')
	}

	if len(r.Tags.Usage) > 0 {
		fmt.Fprintf(&b, "## Tag usage\n\n| Tag | Files |\n|-----|-------|\n")
		for i, u := range r.Tags.Usage {
			if i == 15 {
				break
			}
			fmt.Fprintf(&b, "| #%s | %d |\n", u.Tag, u.Count)
		}
		b.WriteByte('\n')
	}
	if len(r.Tags.SimilarTags) > 0 {
		fmt.Fprintf(&b, "## Similar tags\n\n")
		for _, p := range r.Tags.SimilarTags {
			fmt.Fprintf(&b, "- `#%s` / `#%s` (%.0f%%)\n", p.A, p.B, p.Score*100)
		}
		b.WriteByte('\n')
	}

	if len(r.Properties.Inconsistencies) > 0 {
		fmt.Fprintf(&b, "## Property inconsistencies\n\n")
		for _, inc := range r.Properties.Inconsistencies {
			fmt.Fprintf(&b, "- **%s**: %s (%s)\n", inc.Key, strings.Join(inc.Variants, ", "), inc.Reason)
		}
		b.WriteByte('\n')
	}

	org := r.Organization
	if org.FlatWarning != nil || len(org.ByDate) > 0 || len(org.ByTopic) > 0 {
		fmt.Fprintf(&b, "## Organization suggestions\n\n")
		if w := org.FlatWarning; w != nil {
			fmt.Fprintf(&b, "**%d of %d files live at the vault root.** Consider organizing them into folders.\n\n",
				w.RootNotes, w.TotalNotes)
		}
		if len(org.ByDate) > 0 {
			fmt.Fprintf(&b, "### Date-based files\n\nThese could live in a `Journal/` folder:\n\n")
			for _, g := range org.ByDate {
				fmt.Fprintf(&b, "- **%04d-%02d**: %s\n", g.Year, g.Month, strings.Join(g.Notes, ", "))
			}
			b.WriteByte('\n')
		}
		if len(org.ByTopic) > 0 {
			fmt.Fprintf(&b, "### Topic folders by tag\n\n")
			for _, g := range org.ByTopic {
				fmt.Fprintf(&b, "- `#%s` (%d files)\n", g.Tag, len(g.Notes))
			}
			b.WriteByte('\n')
		}
	}

	if len(r.Errors) > 0 {
		fmt.Fprintf(&b, "## Scan warnings (%d)\n\n", len(r.Errors))
		for _, e := range r.Errors {
			fmt.Fprintf(&b, "- `%s`: %s (%s)\n", e.Path, e.Message, e.Kind)
		}
		b.WriteByte('\n')
	}

	return b.String()
}

func suggestionNames(cands []models.Candidate) string {
	if len(cands) == 0 {
		return "none"
	}
	names := make([]string, len(cands))
	for i, c := range cands {
		names[i] = c.Name
	}
	return strings.Join(names, ", ")
}

func truncOrphans(orphans []models.Orphan) []models.Orphan {
	if len(orphans) > maxListed {
		return orphans[:maxListed]
	}
	return orphans
}

func more(b *strings.Builder, total int) {
	if total > maxListed {
		fmt.Fprintf(b, "    ... and %d more\n", total-maxListed)
	}
}
