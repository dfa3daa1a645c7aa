package cache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/wortmanb/obsidian-vault-maintenance/internal/parser"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestCache_PutGet(t *testing.T) {
	c := openTestCache(t)
	mt := time.Now().Truncate(time.Second)

	res := &parser.Result{
		Body:      "# Hello\nWorld",
		Title:     "Hello",
		Tags:      []string{"go"},
		WordCount: 3,
		Links:     []parser.Link{{Target: "Other", Raw: "Other", Line: 2}},
	}
	if err := c.Put("a.md", mt, 14, []byte("# Hello\nWorld"), res); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, ok := c.Get("a.md", mt, 14)
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got.Title != "Hello" || got.WordCount != 3 {
		t.Errorf("result = %+v", got)
	}
	if len(got.Links) != 1 || got.Links[0].Target != "Other" {
		t.Errorf("links = %v", got.Links)
	}
	if len(got.Tags) != 1 || got.Tags[0] != "go" {
		t.Errorf("tags = %v", got.Tags)
	}
}

func TestCache_MissOnChangedMetadata(t *testing.T) {
	c := openTestCache(t)
	mt := time.Now().Truncate(time.Second)

	if err := c.Put("a.md", mt, 10, []byte("body"), &parser.Result{Body: "body"}); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Get("a.md", mt.Add(time.Second), 10); ok {
		t.Error("changed mtime must miss")
	}
	if _, ok := c.Get("a.md", mt, 11); ok {
		t.Error("changed size must miss")
	}
	if _, ok := c.Get("b.md", mt, 10); ok {
		t.Error("unknown path must miss")
	}
}

func TestCache_PutSupersedesOldEntry(t *testing.T) {
	c := openTestCache(t)
	mt := time.Now().Truncate(time.Second)

	if err := c.Put("a.md", mt, 10, []byte("v1"), &parser.Result{Body: "v1"}); err != nil {
		t.Fatal(err)
	}
	mt2 := mt.Add(time.Minute)
	if err := c.Put("a.md", mt2, 12, []byte("v2"), &parser.Result{Body: "v2"}); err != nil {
		t.Fatal(err)
	}

	if _, ok := c.Get("a.md", mt, 10); ok {
		t.Error("old entry should be evicted")
	}
	got, ok := c.Get("a.md", mt2, 12)
	if !ok || got.Body != "v2" {
		t.Errorf("got = %+v, ok = %v", got, ok)
	}
}

func TestCache_Prune(t *testing.T) {
	c := openTestCache(t)
	mt := time.Now().Truncate(time.Second)

	for _, p := range []string{"keep.md", "gone.md"} {
		if err := c.Put(p, mt, 5, []byte("body"), &parser.Result{Body: "body"}); err != nil {
			t.Fatal(err)
		}
	}
	if err := c.Prune(map[string]struct{}{"keep.md": {}}); err != nil {
		t.Fatalf("prune: %v", err)
	}
	if _, ok := c.Get("gone.md", mt, 5); ok {
		t.Error("pruned path should miss")
	}
	if _, ok := c.Get("keep.md", mt, 5); !ok {
		t.Error("live path should still hit")
	}
}
