// Package parser extracts frontmatter, links, and tags from Markdown content.
//
// Extraction is stateless per note: parsing one note never depends on
// another, which is what allows the scan phase to fan out across a worker
// pool. Malformed link syntax is skipped, never fatal.
package parser

import (
	"bytes"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wortmanb/obsidian-vault-maintenance/internal/models"
)

var (
	wikilinkRe = regexp.MustCompile(`\[\[([^\[\]]+)\]\]`)
	// Targets may contain spaces ("My Note.md"), so only parens end them.
	mdLinkRe = regexp.MustCompile(`\[[^\]]*\]\(([^()]+)\)`)
	tagRe    = regexp.MustCompile(`(?:^|\s)#([A-Za-z][A-Za-z0-9_/-]*)`)
)

// Link is one raw link occurrence, before resolution.
type Link struct {
	Kind models.LinkKind `json:"kind"`
	// Target is what resolution should look up: alias and fragment stripped.
	Target string `json:"target"`
	// Raw is the target text exactly as written, fragment included.
	Raw      string `json:"raw"`
	Fragment string `json:"fragment,omitempty"`
	Line     int    `json:"line"`
}

// Result holds the output of parsing one note.
type Result struct {
	Properties []models.Property `json:"properties,omitempty"`
	Body       string            `json:"body"`
	Links      []Link            `json:"links,omitempty"`
	Tags       []string          `json:"tags,omitempty"`
	Title      string            `json:"title,omitempty"`
	WordCount  int               `json:"word_count"`
}

// Parse extracts frontmatter, body, link occurrences, and tags from raw
// note bytes. It never fails on malformed content; invalid frontmatter is
// treated as body.
func Parse(data []byte) (*Result, error) {
	props, body := splitFrontmatter(data)

	return &Result{
		Properties: props,
		Body:       body,
		Links:      ExtractLinks(body),
		Tags:       extractTags(body, props),
		Title:      deriveTitle(props, body),
		WordCount:  len(strings.Fields(body)),
	}, nil
}

// splitFrontmatter separates YAML frontmatter (between leading ---
// delimiters) from the Markdown body, preserving key order. If no valid
// frontmatter is found the entire content is body.
func splitFrontmatter(data []byte) ([]models.Property, string) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data)
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		// No closing delimiter. Treat everything as body.
		return nil, string(data)
	}

	yamlBlock := rest[:idx]
	afterDelim := rest[idx+1+len(delim):]
	body := strings.TrimLeft(string(afterDelim), "\n\r")

	props, ok := decodeProperties(yamlBlock)
	if !ok {
		// Invalid YAML. Fall back to body-only.
		return nil, string(data)
	}
	return props, body
}

// decodeProperties parses a YAML mapping into an ordered property list.
func decodeProperties(block []byte) ([]models.Property, bool) {
	var doc yaml.Node
	if err := yaml.Unmarshal(block, &doc); err != nil {
		return nil, false
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, true // empty frontmatter
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, false
	}

	var props []models.Property
	for i := 0; i+1 < len(root.Content); i += 2 {
		key := root.Content[i]
		if key.Kind != yaml.ScalarNode {
			continue
		}
		props = append(props, models.Property{
			Key:   key.Value,
			Value: valueFromNode(root.Content[i+1]),
		})
	}
	return props, true
}

// valueFromNode maps a YAML node onto the closed frontmatter value variant.
// Shapes outside the variant degrade to the scalar's string form.
func valueFromNode(n *yaml.Node) models.Value {
	switch n.Kind {
	case yaml.SequenceNode:
		items := make([]string, 0, len(n.Content))
		for _, item := range n.Content {
			items = append(items, item.Value)
		}
		return models.ListValue(items)
	case yaml.ScalarNode:
		switch n.Tag {
		case "!!null":
			return models.NullValue()
		case "!!bool":
			b, err := strconv.ParseBool(strings.ToLower(n.Value))
			if err == nil {
				return models.BoolValue(b)
			}
		case "!!int", "!!float":
			if f, err := strconv.ParseFloat(n.Value, 64); err == nil {
				return models.NumberValue(f)
			}
		}
		return models.StringValue(n.Value)
	default:
		return models.StringValue("")
	}
}

// ExtractLinks returns every link occurrence in body, in document order.
// Wiki links keep the text before an optional |alias; markdown links are
// kept only when the target is a local reference (no URL scheme). A
// #fragment is stripped from Target and preserved in Raw.
func ExtractLinks(body string) []Link {
	lines := newLineIndex(body)
	var out []Link

	for _, m := range wikilinkRe.FindAllStringSubmatchIndex(body, -1) {
		raw := body[m[2]:m[3]]
		target := raw
		if i := strings.Index(raw, "|"); i >= 0 {
			target = raw[:i]
			raw = raw[:i]
		}
		target = strings.TrimSpace(target)
		target, frag := splitFragment(target)
		if target == "" {
			continue
		}
		out = append(out, Link{
			Kind:     models.LinkKindWiki,
			Target:   target,
			Raw:      strings.TrimSpace(raw),
			Fragment: frag,
			Line:     lines.at(m[0]),
		})
	}

	for _, m := range mdLinkRe.FindAllStringSubmatchIndex(body, -1) {
		raw := strings.TrimSpace(body[m[2]:m[3]])
		if hasScheme(raw) {
			continue
		}
		target, frag := splitFragment(raw)
		if target == "" {
			continue
		}
		out = append(out, Link{
			Kind:     models.LinkKindMarkdown,
			Target:   target,
			Raw:      raw,
			Fragment: frag,
			Line:     lines.at(m[0]),
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Line < out[j].Line })
	return out
}

// splitFragment cuts target at the first #, returning the path part and the
// fragment without its #.
func splitFragment(target string) (string, string) {
	if i := strings.Index(target, "#"); i >= 0 {
		return strings.TrimSpace(target[:i]), target[i+1:]
	}
	return target, ""
}

// hasScheme reports whether target is an external URL rather than a vault
// file reference.
func hasScheme(target string) bool {
	if strings.Contains(target, "://") {
		return true
	}
	lower := strings.ToLower(target)
	return strings.HasPrefix(lower, "mailto:") || strings.HasPrefix(lower, "obsidian:")
}

// lineIndex maps byte offsets to 1-based line numbers.
type lineIndex []int

func newLineIndex(s string) lineIndex {
	var nl lineIndex
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			nl = append(nl, i)
		}
	}
	return nl
}

func (li lineIndex) at(off int) int {
	return sort.SearchInts(li, off) + 1
}

// extractTags collects tags from the frontmatter "tags" property and inline
// #tags in the body, preserving original casing and first-seen order.
func extractTags(body string, props []models.Property) []string {
	seen := make(map[string]struct{})
	var out []string

	add := func(t string) {
		t = strings.TrimSpace(strings.TrimPrefix(t, "#"))
		if t == "" {
			return
		}
		if _, dup := seen[t]; dup {
			return
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}

	for _, p := range props {
		if !strings.EqualFold(p.Key, "tags") {
			continue
		}
		switch p.Value.Kind {
		case models.ValueStringList:
			for _, item := range p.Value.List {
				add(item)
			}
		case models.ValueString:
			for _, item := range strings.Split(p.Value.Str, ",") {
				add(item)
			}
		}
	}

	for _, m := range tagRe.FindAllStringSubmatch(body, -1) {
		add(m[1])
	}

	return out
}

// deriveTitle returns the frontmatter "title" if present, otherwise the
// first H1 heading, otherwise empty string (callers fall back to the
// basename).
func deriveTitle(props []models.Property, body string) string {
	for _, p := range props {
		if strings.EqualFold(p.Key, "title") && p.Value.Kind == models.ValueString && p.Value.Str != "" {
			return p.Value.Str
		}
	}
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}
