// Package models defines the domain types shared across vault analysis.
package models

import "time"

// LinkKind distinguishes the two internal link syntaxes.
type LinkKind string

// Link kinds.
const (
	LinkKindWiki     LinkKind = "wiki"
	LinkKindMarkdown LinkKind = "markdown"
)

// Note represents one parsed note file in the vault. A Note is created once
// per scan and never mutated during analysis.
type Note struct {
	// ID is the normalized relative path without extension, slash-separated.
	ID string `json:"id"`
	// Path is the relative path as found on disk, including extension.
	Path string `json:"path"`
	// Name is the basename without extension.
	Name string `json:"name"`
	Ext  string `json:"extension"`

	// Content is the Markdown body with frontmatter stripped.
	Content    string     `json:"-"`
	Properties []Property `json:"properties,omitempty"`
	Tags       []string   `json:"tags,omitempty"`
	Title      string     `json:"title,omitempty"`

	WordCount int       `json:"word_count"`
	Size      int64     `json:"size"`
	ModTime   time.Time `json:"modified"`
}

// Property is a single frontmatter key/value pair. Document order is
// preserved so property fixes can round-trip the header.
type Property struct {
	Key   string `json:"key"`
	Value Value  `json:"value"`
}

// Property returns the value for key and whether it is present.
func (n *Note) Property(key string) (Value, bool) {
	for _, p := range n.Properties {
		if p.Key == key {
			return p.Value, true
		}
	}
	return Value{}, false
}

// LinkReference is one extracted link occurrence. Every link found in a note
// produces exactly one LinkReference, resolved or not.
type LinkReference struct {
	// Source is the id of the note containing the link.
	Source string `json:"source"`
	// RawTarget is the target text exactly as written, fragment included.
	RawTarget string `json:"raw_target"`
	// Fragment is the #heading part, if any, without the leading #.
	Fragment string   `json:"fragment,omitempty"`
	Kind     LinkKind `json:"kind"`
	// Resolved is the target note id, or empty when the link is broken.
	Resolved string `json:"resolved,omitempty"`
	// Ambiguous marks links whose basename matched several notes; the
	// lexicographically smallest path was chosen.
	Ambiguous bool `json:"ambiguous,omitempty"`
	Line      int  `json:"line,omitempty"`
}

// Broken reports whether the reference failed to resolve.
func (r LinkReference) Broken() bool { return r.Resolved == "" }
