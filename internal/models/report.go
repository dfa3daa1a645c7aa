package models

import "time"

// Report is the full result of one vault scan. It is plain data: nested
// structs, slices, and scalars only, so any renderer can serialize it
// without re-deriving analysis.
type Report struct {
	Timestamp time.Time `json:"timestamp"`
	VaultPath string    `json:"vault_path"`

	Summary        Summary            `json:"summary"`
	BrokenLinks    []BrokenLink       `json:"broken_links"`
	AmbiguousLinks []LinkReference    `json:"ambiguous_links,omitempty"`
	Orphans        []Orphan           `json:"orphans"`
	Tags           TagReport          `json:"tag_analysis"`
	Properties     PropertyReport     `json:"property_analysis"`
	Duplicates     DuplicateReport    `json:"duplicates"`
	Organization   OrganizationReport `json:"organization_suggestions"`

	// Errors lists per-file problems encountered during the scan. A scan
	// with errors still produces partial results.
	Errors []ScanIssue `json:"errors,omitempty"`
}

// Summary holds vault-wide statistics.
type Summary struct {
	TotalFiles          int            `json:"total_files"`
	TotalSizeBytes      int64          `json:"total_size_bytes"`
	TotalWords          int            `json:"total_words"`
	FileTypes           map[string]int `json:"file_types"`
	TotalLinks          int            `json:"total_links"`
	TotalTags           int            `json:"total_tags"`
	FilesWithProperties int            `json:"files_with_properties"`
	RecentFiles         int            `json:"recent_files_7d"`
}

// BrokenLink pairs an unresolved reference with ranked repair candidates.
type BrokenLink struct {
	Ref         LinkReference `json:"ref"`
	Suggestions []Candidate   `json:"suggestions,omitempty"`
}

// Candidate is one ranked repair target.
type Candidate struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// Orphan describes a note with no resolved incoming links.
type Orphan struct {
	ID        string    `json:"id"`
	Path      string    `json:"path"`
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	ModTime   time.Time `json:"modified"`
	WordCount int       `json:"word_count"`
}

// SimilarityPair is a scored pair of strings of a given kind.
type SimilarityPair struct {
	A     string  `json:"a"`
	B     string  `json:"b"`
	Score float64 `json:"score"`
	Kind  string  `json:"kind"` // tag | property | link-target | title
}

// TagReport aggregates tag usage across the vault.
type TagReport struct {
	TotalTags   int              `json:"total_tags"`
	Usage       []TagUsage       `json:"tag_usage"`
	SimilarTags []SimilarityPair `json:"similar_tags,omitempty"`
	RareTags    []string         `json:"rare_tags,omitempty"`
	Hierarchy   []TagRollup      `json:"tag_hierarchy,omitempty"`
}

// TagUsage is the usage record for a single (case-folded) tag.
type TagUsage struct {
	Tag     string   `json:"tag"`
	Count   int      `json:"count"`
	Notes   []string `json:"notes"`
	Casings []string `json:"casings,omitempty"` // original spellings, when more than one
}

// TagRollup aggregates a parent tag with its hierarchical children.
type TagRollup struct {
	Parent    string   `json:"parent"`
	Children  []string `json:"children"`
	NoteCount int      `json:"note_count"`
}

// PropertyReport aggregates frontmatter property usage.
type PropertyReport struct {
	FilesWithProperties int                     `json:"total_files_with_properties"`
	Usage               []PropertyUsage         `json:"property_usage"`
	SimilarKeys         []SimilarityPair        `json:"similar_properties,omitempty"`
	Inconsistencies     []PropertyInconsistency `json:"inconsistencies,omitempty"`
	MissingExpected     []MissingProperties     `json:"files_missing_expected,omitempty"`
}

// PropertyUsage is the usage record for one property key.
type PropertyUsage struct {
	Key    string   `json:"key"`
	Count  int      `json:"count"`
	Values []string `json:"values,omitempty"` // distinct renderings
}

// PropertyInconsistency flags a key whose values come from a small closed set
// but appear with inconsistent casing or format.
type PropertyInconsistency struct {
	Key      string   `json:"key"`
	Variants []string `json:"variants"`
	Reason   string   `json:"reason"`
}

// MissingProperties lists expected property keys absent from one note.
type MissingProperties struct {
	NoteID  string   `json:"note"`
	Missing []string `json:"missing"`
}

// DuplicateReport covers both exact normalized-title collisions and
// near-duplicate title pairs.
type DuplicateReport struct {
	Groups        []DuplicateGroup `json:"groups,omitempty"`
	SimilarTitles []SimilarityPair `json:"similar_titles,omitempty"`
}

// DuplicateGroup is a set of notes sharing one normalized title.
type DuplicateGroup struct {
	NormalizedTitle string   `json:"normalized_title"`
	Notes           []string `json:"notes"`
	Count           int      `json:"count"`
}

// OrganizationReport holds non-mutating grouping suggestions.
type OrganizationReport struct {
	ByDate      []DateGroup  `json:"by_date,omitempty"`
	ByTopic     []TopicGroup `json:"by_topic,omitempty"`
	FlatWarning *FlatWarning `json:"flat_structure_warning,omitempty"`
}

// DateGroup groups date-named notes by year and month.
type DateGroup struct {
	Year  int      `json:"year"`
	Month int      `json:"month"`
	Notes []string `json:"notes"`
}

// TopicGroup suggests a tag as a folder for the notes using it.
type TopicGroup struct {
	Tag   string   `json:"tag"`
	Notes []string `json:"notes"`
}

// FlatWarning reports too many notes living at the vault root.
type FlatWarning struct {
	RootNotes  int     `json:"files_in_root"`
	TotalNotes int     `json:"total_files"`
	Fraction   float64 `json:"fraction"`
}

// ScanIssue records a non-fatal per-file problem.
type ScanIssue struct {
	Path    string `json:"path"`
	Kind    string `json:"kind"` // file-access | encoding | ambiguity | oversize
	Message string `json:"message"`
}
