// Package graph resolves raw link targets against the scanned note set and
// builds the bidirectional link graph: forward references per note, plus the
// backlink sets derived by inverting every resolved edge. The graph is
// rebuilt whole on each scan; there is no incremental mutation.
package graph

import (
	"net/url"
	"path"
	"sort"
	"strings"

	"github.com/wortmanb/obsidian-vault-maintenance/internal/models"
	"github.com/wortmanb/obsidian-vault-maintenance/internal/parser"
	"github.com/wortmanb/obsidian-vault-maintenance/internal/similarity"
)

// Graph holds the resolved link structure of one vault snapshot.
type Graph struct {
	// Forward maps note id to its outgoing references in document order.
	// Every extracted link appears here, resolved or not.
	Forward map[string][]models.LinkReference
	// Backlinks maps note id to the set of source ids with at least one
	// resolved link to it. Duplicate edges collapse; the raw references in
	// Forward are retained for counting.
	Backlinks map[string]map[string]struct{}
	// Ambiguous lists references whose basename matched several notes.
	Ambiguous []models.LinkReference

	notes map[string]*models.Note
	ids   []string // sorted
}

// resolver maps normalized targets onto note ids.
type resolver struct {
	byPath     map[string]string   // folded id -> id
	byBasename map[string][]string // folded basename -> sorted ids
}

func newResolver(notes []*models.Note) *resolver {
	r := &resolver{
		byPath:     make(map[string]string, len(notes)),
		byBasename: make(map[string][]string),
	}
	for _, n := range notes {
		r.byPath[strings.ToLower(n.ID)] = n.ID
		base := strings.ToLower(n.Name)
		r.byBasename[base] = append(r.byBasename[base], n.ID)
	}
	for _, ids := range r.byBasename {
		sort.Strings(ids)
	}
	return r
}

// resolve returns the note id for a raw target, or "" when broken. The
// second result flags ambiguous basename matches; the lexicographically
// smallest path is picked deterministically.
func (r *resolver) resolve(raw string) (string, bool) {
	target := NormalizeTarget(raw)
	if target == "" {
		return "", false
	}
	folded := strings.ToLower(target)

	if id, ok := r.byPath[folded]; ok {
		return id, false
	}
	base := folded
	if i := strings.LastIndex(folded, "/"); i >= 0 {
		base = folded[i+1:]
	}
	ids := r.byBasename[base]
	switch len(ids) {
	case 0:
		return "", false
	case 1:
		return ids[0], false
	default:
		return ids[0], true
	}
}

// NormalizeTarget strips a leading ./, percent-escapes, and a trailing
// .md/.txt extension. Case is preserved; folding happens only at lookup.
func NormalizeTarget(raw string) string {
	t := strings.TrimSpace(raw)
	for strings.HasPrefix(t, "./") {
		t = t[2:]
	}
	if dec, err := url.PathUnescape(t); err == nil {
		t = dec
	}
	t = path.Clean(strings.ReplaceAll(t, "\\", "/"))
	if t == "." {
		return ""
	}
	lower := strings.ToLower(t)
	for _, ext := range []string{".md", ".txt"} {
		if strings.HasSuffix(lower, ext) {
			t = t[:len(t)-len(ext)]
			break
		}
	}
	return t
}

// Build resolves every extracted link and inverts the resolved edges into
// backlink sets. Resolution never fails: unresolvable targets become broken
// references, ambiguous ones are recorded for visibility.
func Build(notes []*models.Note, links map[string][]parser.Link) *Graph {
	r := newResolver(notes)

	g := &Graph{
		Forward:   make(map[string][]models.LinkReference, len(notes)),
		Backlinks: make(map[string]map[string]struct{}, len(notes)),
		notes:     make(map[string]*models.Note, len(notes)),
	}
	for _, n := range notes {
		g.notes[n.ID] = n
		g.ids = append(g.ids, n.ID)
		g.Backlinks[n.ID] = make(map[string]struct{})
	}
	sort.Strings(g.ids)

	for _, id := range g.ids {
		for _, l := range links[id] {
			ref := models.LinkReference{
				Source:    id,
				RawTarget: l.Raw,
				Fragment:  l.Fragment,
				Kind:      l.Kind,
				Line:      l.Line,
			}
			target, ambiguous := r.resolve(l.Target)
			ref.Resolved = target
			ref.Ambiguous = ambiguous

			g.Forward[id] = append(g.Forward[id], ref)
			if ambiguous {
				g.Ambiguous = append(g.Ambiguous, ref)
			}
			if target != "" {
				g.Backlinks[target][id] = struct{}{}
			}
		}
	}
	return g
}

// BrokenRefs returns every unresolved reference, ordered by source id then
// document position.
func (g *Graph) BrokenRefs() []models.LinkReference {
	var out []models.LinkReference
	for _, id := range g.ids {
		for _, ref := range g.Forward[id] {
			if ref.Broken() {
				out = append(out, ref)
			}
		}
	}
	return out
}

// TotalLinks counts raw extracted references across the vault.
func (g *Graph) TotalLinks() int {
	n := 0
	for _, refs := range g.Forward {
		n += len(refs)
	}
	return n
}

// Orphans returns notes with an empty backlink set whose basename is not in
// the system-file list (case-insensitive membership). Results are ordered
// newest-modified first, matching how they are triaged.
func (g *Graph) Orphans(systemFiles []string) []models.Orphan {
	system := make(map[string]struct{}, len(systemFiles))
	for _, s := range systemFiles {
		system[strings.ToLower(s)] = struct{}{}
	}

	var out []models.Orphan
	for _, id := range g.ids {
		n := g.notes[id]
		if len(g.Backlinks[id]) > 0 {
			continue
		}
		if _, skip := system[strings.ToLower(n.Name)]; skip {
			continue
		}
		out = append(out, models.Orphan{
			ID:        n.ID,
			Path:      n.Path,
			Name:      n.Name,
			Size:      n.Size,
			ModTime:   n.ModTime,
			WordCount: n.WordCount,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].ModTime.Equal(out[j].ModTime) {
			return out[i].ModTime.After(out[j].ModTime)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Suggest pairs every broken reference with repair candidates drawn from the
// known note basenames, ranked by similarity score descending. Candidates
// below threshold are dropped and at most k are kept per reference.
func (g *Graph) Suggest(threshold float64, k int) []models.BrokenLink {
	// Candidate pool: one entry per basename; collisions resolve to the
	// lexicographically smallest id for determinism.
	nameToID := make(map[string]string)
	var names []string
	for _, id := range g.ids {
		n := g.notes[id]
		if prev, ok := nameToID[n.Name]; !ok || id < prev {
			if !ok {
				names = append(names, n.Name)
			}
			nameToID[n.Name] = id
		}
	}
	sort.Strings(names)

	var out []models.BrokenLink
	for _, ref := range g.BrokenRefs() {
		raw := ref.RawTarget
		if i := strings.Index(raw, "#"); i >= 0 {
			raw = raw[:i]
		}
		target := NormalizeTarget(raw)
		matches := similarity.TopMatches(target, names, threshold, k)
		bl := models.BrokenLink{Ref: ref}
		for _, m := range matches {
			bl.Suggestions = append(bl.Suggestions, models.Candidate{
				ID:    nameToID[m.Value],
				Name:  m.Value,
				Score: m.Score,
			})
		}
		out = append(out, bl)
	}
	return out
}
