package parser

import (
	"testing"

	"github.com/wortmanb/obsidian-vault-maintenance/internal/models"
)

func TestParse_FrontmatterAndBody(t *testing.T) {
	input := []byte("---\ntitle: Hello\ntags:\n  - go\n  - vault\n---\n# Hello\nBody text.\n")
	r, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Title != "Hello" {
		t.Errorf("title = %q, want %q", r.Title, "Hello")
	}
	if len(r.Tags) != 2 || r.Tags[0] != "go" || r.Tags[1] != "vault" {
		t.Errorf("tags = %v, want [go vault]", r.Tags)
	}
	if r.Body != "# Hello\nBody text.\n" {
		t.Errorf("body = %q", r.Body)
	}
	if r.WordCount != 4 {
		t.Errorf("word count = %d, want 4", r.WordCount)
	}
}

func TestParse_PreservesPropertyOrder(t *testing.T) {
	input := []byte("---\nzeta: 1\nalpha: two\nmid: true\n---\nBody\n")
	r, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"zeta", "alpha", "mid"}
	if len(r.Properties) != len(want) {
		t.Fatalf("len(properties) = %d, want %d", len(r.Properties), len(want))
	}
	for i, k := range want {
		if r.Properties[i].Key != k {
			t.Errorf("properties[%d].Key = %q, want %q", i, r.Properties[i].Key, k)
		}
	}
	if v := r.Properties[0].Value; v.Kind != models.ValueNumber || v.Num != 1 {
		t.Errorf("zeta = %+v, want number 1", v)
	}
	if v := r.Properties[2].Value; v.Kind != models.ValueBool || !v.Bool {
		t.Errorf("mid = %+v, want bool true", v)
	}
}

func TestParse_InvalidYAMLFallback(t *testing.T) {
	input := []byte("---\n: invalid: yaml: {{{\n---\nBody\n")
	r, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Properties != nil {
		t.Errorf("expected nil properties on invalid YAML, got %v", r.Properties)
	}
	if r.Body != string(input) {
		t.Errorf("body should be the whole input, got %q", r.Body)
	}
}

func TestParse_UnclosedFrontmatter(t *testing.T) {
	input := []byte("---\ntitle: Hello\nno closing delimiter\n")
	r, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Properties != nil {
		t.Errorf("expected nil properties, got %v", r.Properties)
	}
}

func TestExtractLinks_WikiAndMarkdown(t *testing.T) {
	body := "See [[Note A]] and [[Note B|alias]].\nAlso [a doc](docs/guide.md) here."
	links := ExtractLinks(body)
	if len(links) != 3 {
		t.Fatalf("len(links) = %d, want 3: %v", len(links), links)
	}
	if links[0].Target != "Note A" || links[0].Kind != models.LinkKindWiki || links[0].Line != 1 {
		t.Errorf("links[0] = %+v", links[0])
	}
	if links[1].Target != "Note B" {
		t.Errorf("alias not stripped: %+v", links[1])
	}
	if links[2].Target != "docs/guide.md" || links[2].Kind != models.LinkKindMarkdown || links[2].Line != 2 {
		t.Errorf("links[2] = %+v", links[2])
	}
}

func TestExtractLinks_MarkdownTargetWithSpaces(t *testing.T) {
	body := "See [doc](My Note.md) here.\nAnd [enc](My%20Note.md) too."
	links := ExtractLinks(body)
	if len(links) != 2 {
		t.Fatalf("len(links) = %d, want 2: %v", len(links), links)
	}
	if links[0].Target != "My Note.md" || links[0].Kind != models.LinkKindMarkdown {
		t.Errorf("links[0] = %+v, want target My Note.md", links[0])
	}
	if links[1].Target != "My%20Note.md" {
		t.Errorf("links[1] = %+v", links[1])
	}
}

func TestExtractLinks_KeepsEveryOccurrence(t *testing.T) {
	links := ExtractLinks("[[A]] then [[A]] again")
	if len(links) != 2 {
		t.Fatalf("len(links) = %d, want 2", len(links))
	}
}

func TestExtractLinks_Fragment(t *testing.T) {
	links := ExtractLinks("see [[Note A#Section]]")
	if len(links) != 1 {
		t.Fatalf("len(links) = %d, want 1", len(links))
	}
	if links[0].Target != "Note A" || links[0].Fragment != "Section" {
		t.Errorf("link = %+v, want target Note A fragment Section", links[0])
	}
	if links[0].Raw != "Note A#Section" {
		t.Errorf("raw = %q", links[0].Raw)
	}
}

func TestExtractLinks_SkipsExternalURLs(t *testing.T) {
	body := "[site](https://example.com) [mail](mailto:a@b.c) [app](obsidian://open) [[Real]]"
	links := ExtractLinks(body)
	if len(links) != 1 || links[0].Target != "Real" {
		t.Errorf("links = %v, want only Real", links)
	}
}

func TestExtractLinks_EmptyTarget(t *testing.T) {
	links := ExtractLinks("see [[ ]] and [[#only-fragment]]")
	if len(links) != 0 {
		t.Errorf("expected no links, got %v", links)
	}
}

func TestExtractTags_InlineAndFrontmatter(t *testing.T) {
	props := []models.Property{
		{Key: "tags", Value: models.ListValue([]string{"alpha"})},
	}
	body := "Some text #beta and #alpha again, plus #parent/child."
	tags := extractTags(body, props)
	want := []string{"alpha", "beta", "parent/child"}
	if len(tags) != len(want) {
		t.Fatalf("tags = %v, want %v", tags, want)
	}
	for i := range want {
		if tags[i] != want[i] {
			t.Errorf("tags[%d] = %q, want %q", i, tags[i], want[i])
		}
	}
}

func TestExtractTags_CommaString(t *testing.T) {
	props := []models.Property{
		{Key: "tags", Value: models.StringValue("one, two")},
	}
	tags := extractTags("", props)
	if len(tags) != 2 || tags[0] != "one" || tags[1] != "two" {
		t.Errorf("tags = %v, want [one two]", tags)
	}
}

func TestExtractTags_KeepsCasing(t *testing.T) {
	tags := extractTags("#ProjectX and more", nil)
	if len(tags) != 1 || tags[0] != "ProjectX" {
		t.Errorf("tags = %v, want [ProjectX]", tags)
	}
}

func TestDeriveTitle_FrontmatterOverH1(t *testing.T) {
	props := []models.Property{
		{Key: "title", Value: models.StringValue("From FM")},
	}
	if got := deriveTitle(props, "# From Heading\n"); got != "From FM" {
		t.Errorf("title = %q, want From FM", got)
	}
	if got := deriveTitle(nil, "intro\n# From Heading\n"); got != "From Heading" {
		t.Errorf("title = %q, want From Heading", got)
	}
	if got := deriveTitle(nil, "no headings here"); got != "" {
		t.Errorf("title = %q, want empty", got)
	}
}
