// Package fix applies targeted rewrites to vault files: link repair, tag
// merging, and property standardization.
//
// Fixes run strictly sequentially and never concurrently with analysis of
// the same snapshot. Every operation supports dry-run, reporting the exact
// textual diff without writing; applied writes are atomic per file, so a
// failure leaves the file in its last-known-good state.
package fix

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/wortmanb/obsidian-vault-maintenance/internal/vault"
)

// Change describes the outcome of one per-file rewrite.
type Change struct {
	Path    string
	Diff    string // patch text, always populated
	Applied bool   // false in dry-run or when the file was already clean
}

// Op runs fix operations against one vault.
type Op struct {
	store  vault.Provider
	dryRun bool
}

// New creates a fix operator. With dryRun set, no file is ever written.
func New(store vault.Provider, dryRun bool) *Op {
	return &Op{store: store, dryRun: dryRun}
}

// RepairLink rewrites every reference to oldTarget inside the note at
// sourcePath so it points at newTarget, leaving all other content
// byte-identical. Wiki links ([[old]], [[old|alias]], [[old#frag]]) and
// markdown links ((old), (old.md)) are covered.
func (o *Op) RepairLink(sourcePath, oldTarget, newTarget string) (*Change, error) {
	data, err := o.store.Read(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("fix: read source: %w", err)
	}
	before := string(data)

	after := before
	for _, r := range []struct{ old, new string }{
		{"[[" + oldTarget + "]]", "[[" + newTarget + "]]"},
		{"[[" + oldTarget + "|", "[[" + newTarget + "|"},
		{"[[" + oldTarget + "#", "[[" + newTarget + "#"},
		{"](" + oldTarget + ")", "](" + newTarget + ")"},
		{"](" + oldTarget + ".md)", "](" + newTarget + ".md)"},
	} {
		after = strings.ReplaceAll(after, r.old, r.new)
	}

	if after == before {
		return nil, fmt.Errorf("fix: %q is not referenced in %s", oldTarget, sourcePath)
	}
	return o.commit(sourcePath, before, after)
}

// MergeTags rewrites every occurrence of the source tags into target across
// the given note paths: inline #tags in bodies and entries of the
// frontmatter tags list. Write failures abort only the failing file; other
// files keep their results, and the errors are joined.
func (o *Op) MergeTags(paths []string, sources []string, target string) ([]Change, error) {
	patterns := make([]*regexp.Regexp, len(sources))
	for i, src := range sources {
		// A trailing tag character would make this a different tag, so the
		// match requires a non-tag rune (or end of input) after the name.
		patterns[i] = regexp.MustCompile(`#` + regexp.QuoteMeta(src) + `($|[^A-Za-z0-9_/-])`)
	}

	var changes []Change
	var errs []error
	for _, p := range paths {
		data, err := o.store.Read(p)
		if err != nil {
			errs = append(errs, fmt.Errorf("fix: read %s: %w", p, err))
			continue
		}
		before := string(data)
		after := before
		for i, re := range patterns {
			after = re.ReplaceAllString(after, "#"+target+"$1")
			after = rewriteFrontmatterTag(after, sources[i], target)
		}
		if after == before {
			continue
		}
		ch, err := o.commit(p, before, after)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		changes = append(changes, *ch)
	}
	return changes, errors.Join(errs...)
}

// StandardizeProperty applies a key rename and/or value rewrite rule to the
// frontmatter block of each note. Keys match case-insensitively; scalar
// values equal to a rule key (after trimming) are replaced.
func (o *Op) StandardizeProperty(paths []string, key, newKey string, valueMap map[string]string) ([]Change, error) {
	var changes []Change
	var errs []error
	for _, p := range paths {
		data, err := o.store.Read(p)
		if err != nil {
			errs = append(errs, fmt.Errorf("fix: read %s: %w", p, err))
			continue
		}
		before := string(data)
		after := rewriteFrontmatterProperty(before, key, newKey, valueMap)
		if after == before {
			continue
		}
		ch, err := o.commit(p, before, after)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		changes = append(changes, *ch)
	}
	return changes, errors.Join(errs...)
}

// commit produces the diff and, outside dry-run, writes atomically.
func (o *Op) commit(path, before, after string) (*Change, error) {
	ch := &Change{Path: path, Diff: patchText(before, after)}
	if o.dryRun {
		return ch, nil
	}
	if err := o.store.Write(path, []byte(after)); err != nil {
		return nil, fmt.Errorf("fix: write %s: %w", path, err)
	}
	ch.Applied = true
	return ch, nil
}

// patchText renders a unified-style patch between two versions.
func patchText(before, after string) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(before, after, true)
	dmp.DiffCleanupSemantic(diffs)
	return dmp.PatchToText(dmp.PatchMake(before, diffs))
}

// frontmatterBounds returns the byte range of the frontmatter block content
// (between the --- delimiters), or ok=false when there is none. Leading
// blank lines before the opening delimiter are tolerated, matching the
// parser.
func frontmatterBounds(content string) (start, end int, ok bool) {
	const delim = "---"
	lead := len(content) - len(strings.TrimLeft(content, "\n\r"))
	if !strings.HasPrefix(content[lead:], delim) {
		return 0, 0, false
	}
	open := lead + len(delim)
	idx := strings.Index(content[open:], "\n"+delim)
	if idx < 0 {
		return 0, 0, false
	}
	return open, open + idx + 1, true
}

// rewriteFrontmatterTag replaces src with target inside the frontmatter tags
// list: block-style "- src" items and flow-style [a, src, b] entries.
func rewriteFrontmatterTag(content, src, target string) string {
	start, end, ok := frontmatterBounds(content)
	if !ok {
		return content
	}
	block := content[start:end]

	lines := strings.Split(block, "\n")
	inTags := false
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(strings.ToLower(trimmed), "tags:"):
			inTags = true
			rest := strings.TrimSpace(trimmed[len("tags:"):])
			if rest != "" {
				// Flow style: tags: [a, b] or a comma list.
				lines[i] = strings.Replace(line, rest, rewriteTagList(rest, src, target), 1)
				inTags = false
			}
		case inTags && strings.HasPrefix(trimmed, "- "):
			if strings.TrimSpace(trimmed[2:]) == src {
				lines[i] = strings.Replace(line, "- "+src, "- "+target, 1)
			}
		case inTags && trimmed != "" && !strings.HasPrefix(trimmed, "- "):
			inTags = false
		}
	}
	return content[:start] + strings.Join(lines, "\n") + content[end:]
}

// rewriteTagList replaces src within a flow-style tag list rendering.
func rewriteTagList(list, src, target string) string {
	trimmedBrackets := strings.HasPrefix(list, "[") && strings.HasSuffix(list, "]")
	inner := list
	if trimmedBrackets {
		inner = list[1 : len(list)-1]
	}
	items := strings.Split(inner, ",")
	for i, item := range items {
		if strings.TrimSpace(item) == src {
			items[i] = strings.Replace(item, src, target, 1)
		}
	}
	out := strings.Join(items, ",")
	if trimmedBrackets {
		out = "[" + out + "]"
	}
	return out
}

// rewriteFrontmatterProperty renames key to newKey and rewrites scalar
// values per valueMap, touching only the frontmatter block.
func rewriteFrontmatterProperty(content, key, newKey string, valueMap map[string]string) string {
	start, end, ok := frontmatterBounds(content)
	if !ok {
		return content
	}
	block := content[start:end]

	lines := strings.Split(block, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		colon := strings.Index(trimmed, ":")
		if colon < 0 {
			continue
		}
		k := strings.TrimSpace(trimmed[:colon])
		if !strings.EqualFold(k, key) {
			continue
		}
		v := strings.TrimSpace(trimmed[colon+1:])

		outKey := k
		if newKey != "" {
			outKey = newKey
		}
		outVal := v
		if rewritten, ok := valueMap[v]; ok {
			outVal = rewritten
		}
		indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		if outVal == "" {
			lines[i] = indent + outKey + ":"
		} else {
			lines[i] = indent + outKey + ": " + outVal
		}
	}
	return content[:start] + strings.Join(lines, "\n") + content[end:]
}
