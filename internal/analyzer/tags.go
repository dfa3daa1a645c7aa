// Package analyzer builds the tag and property indices from per-note
// frontmatter and inline tags, and derives usage statistics, similarity
// clusters, and consistency findings from them.
package analyzer

import (
	"sort"
	"strings"

	"github.com/wortmanb/obsidian-vault-maintenance/internal/models"
	"github.com/wortmanb/obsidian-vault-maintenance/internal/similarity"
)

// TagIndex maps case-folded tags to the notes using them. Original casings
// are retained for reporting; indexing never mutates a tag.
type TagIndex struct {
	notes   map[string]map[string]struct{} // folded tag -> note ids
	casings map[string]map[string]struct{} // folded tag -> spellings seen
}

// BuildTagIndex indexes every tag of every note.
func BuildTagIndex(notes []*models.Note) *TagIndex {
	ti := &TagIndex{
		notes:   make(map[string]map[string]struct{}),
		casings: make(map[string]map[string]struct{}),
	}
	for _, n := range notes {
		for _, tag := range n.Tags {
			folded := strings.ToLower(tag)
			if ti.notes[folded] == nil {
				ti.notes[folded] = make(map[string]struct{})
				ti.casings[folded] = make(map[string]struct{})
			}
			ti.notes[folded][n.ID] = struct{}{}
			ti.casings[folded][tag] = struct{}{}
		}
	}
	return ti
}

// Len returns the number of distinct (case-folded) tags.
func (ti *TagIndex) Len() int { return len(ti.notes) }

// NotesByTag returns tag -> sorted note ids, for consumers like the
// organization advisor.
func (ti *TagIndex) NotesByTag() map[string][]string {
	out := make(map[string][]string, len(ti.notes))
	for tag, ids := range ti.notes {
		out[tag] = sortedKeys(ids)
	}
	return out
}

// Report derives tag statistics: usage ordered by count, merge candidates at
// or above mergeThreshold, single-use tags, and hierarchy rollups for
// parent/child tags.
func (ti *TagIndex) Report(mergeThreshold float64) models.TagReport {
	rep := models.TagReport{TotalTags: len(ti.notes)}

	tags := make([]string, 0, len(ti.notes))
	for tag := range ti.notes {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	for _, tag := range tags {
		usage := models.TagUsage{
			Tag:   tag,
			Count: len(ti.notes[tag]),
			Notes: sortedKeys(ti.notes[tag]),
		}
		if casings := sortedKeys(ti.casings[tag]); len(casings) > 1 {
			usage.Casings = casings
		}
		rep.Usage = append(rep.Usage, usage)
		if usage.Count == 1 {
			rep.RareTags = append(rep.RareTags, tag)
		}
	}
	sort.SliceStable(rep.Usage, func(i, j int) bool {
		if rep.Usage[i].Count != rep.Usage[j].Count {
			return rep.Usage[i].Count > rep.Usage[j].Count
		}
		return rep.Usage[i].Tag < rep.Usage[j].Tag
	})

	for _, p := range similarity.SimilarPairs(tags, mergeThreshold) {
		rep.SimilarTags = append(rep.SimilarTags, models.SimilarityPair{
			A: p.A, B: p.B, Score: p.Score, Kind: "tag",
		})
	}

	rep.Hierarchy = ti.rollups()
	return rep
}

// rollups aggregates parent/child tag hierarchies: each hierarchical tag
// counts toward its parent alongside direct uses of the parent itself.
func (ti *TagIndex) rollups() []models.TagRollup {
	children := make(map[string][]string)
	counted := make(map[string]map[string]struct{}) // parent -> note ids

	for tag, ids := range ti.notes {
		parent := tag
		if i := strings.Index(tag, "/"); i >= 0 {
			parent = tag[:i]
			children[parent] = append(children[parent], tag)
		}
		if counted[parent] == nil {
			counted[parent] = make(map[string]struct{})
		}
		for id := range ids {
			counted[parent][id] = struct{}{}
		}
	}

	var out []models.TagRollup
	for parent, kids := range children {
		sort.Strings(kids)
		out = append(out, models.TagRollup{
			Parent:    parent,
			Children:  kids,
			NoteCount: len(counted[parent]),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Parent < out[j].Parent })
	return out
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
