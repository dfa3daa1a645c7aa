package similarity

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestNormalize(t *testing.T) {
	cases := []struct{ in, want string }{
		{"My-Note", "my note"},
		{"  Hello,   World! ", "hello world"},
		{"CamelCase", "camelcase"},
		{"a_b/c", "a b c"},
		{"", ""},
	}
	for _, c := range cases {
		if got := Normalize(c.in); got != c.want {
			t.Errorf("Normalize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestRatio_Identity(t *testing.T) {
	for _, s := range []string{"", "note", "My Note", "日本語"} {
		if got := Ratio(s, s); got != 1.0 {
			t.Errorf("Ratio(%q, %q) = %v, want 1", s, s, got)
		}
	}
}

func TestRatio_Symmetric(t *testing.T) {
	pairs := [][2]string{
		{"project", "projects"},
		{"Beet", "Beets"},
		{"alpha", "omega"},
	}
	for _, p := range pairs {
		if ab, ba := Ratio(p[0], p[1]), Ratio(p[1], p[0]); !almostEqual(ab, ba) {
			t.Errorf("Ratio(%q, %q) = %v but reversed = %v", p[0], p[1], ab, ba)
		}
	}
}

func TestRatio_KnownValues(t *testing.T) {
	cases := []struct {
		a, b string
		want float64
	}{
		{"Beets", "Beet", 0.8},          // distance 1 over max length 5
		{"project", "projects", 0.875},  // distance 1 over max length 8
		{"B", "Bee", 1.0 / 3.0},         // distance 2 over max length 3
		{"My-Note", "my note", 1.0},     // equal after normalization
		{"abc", "xyz", 0.0},             // nothing shared
	}
	for _, c := range cases {
		if got := Ratio(c.a, c.b); !almostEqual(got, c.want) {
			t.Errorf("Ratio(%q, %q) = %v, want %v", c.a, c.b, got, c.want)
		}
	}
}

func TestRatio_Bounds(t *testing.T) {
	for _, p := range [][2]string{{"a", "zzzzzz"}, {"", "x"}, {"same", "same"}} {
		got := Ratio(p[0], p[1])
		if got < 0 || got > 1 {
			t.Errorf("Ratio(%q, %q) = %v, out of [0, 1]", p[0], p[1], got)
		}
	}
}

func TestSimilarPairs(t *testing.T) {
	pairs := SimilarPairs([]string{"project", "projects", "recipe", "recipes", "zebra"}, 0.8)
	if len(pairs) != 2 {
		t.Fatalf("pairs = %v, want 2 entries", pairs)
	}
	for _, p := range pairs {
		if p.A > p.B {
			t.Errorf("pair %v not in canonical order", p)
		}
		if p.Score < 0.8 {
			t.Errorf("pair %v below threshold", p)
		}
	}
	// Ordered by score descending; same distance over shorter strings scores
	// lower, so project/projects (0.875) beats recipe/recipes (6/7).
	if pairs[0].A != "project" || pairs[0].B != "projects" {
		t.Errorf("pairs[0] = %v, want project/projects first", pairs[0])
	}
}

func TestSimilarPairs_DedupesInput(t *testing.T) {
	pairs := SimilarPairs([]string{"note", "note", "note"}, 0.8)
	if len(pairs) != 0 {
		t.Errorf("duplicate inputs should produce no pairs, got %v", pairs)
	}
}

func TestTopMatches_RankingAndTieBreaks(t *testing.T) {
	got := TopMatches("Beets", []string{"Beet", "Beeps", "Zebra", "Beets2"}, 0.6, 5)
	if len(got) == 0 {
		t.Fatal("expected matches")
	}
	for i := 1; i < len(got); i++ {
		prev, cur := got[i-1], got[i]
		if cur.Score > prev.Score {
			t.Fatalf("not sorted by score: %v", got)
		}
		if cur.Score == prev.Score {
			if len(cur.Value) < len(prev.Value) {
				t.Fatalf("tie not broken by length: %v", got)
			}
			if len(cur.Value) == len(prev.Value) && cur.Value < prev.Value {
				t.Fatalf("tie not broken lexicographically: %v", got)
			}
		}
	}
	for _, c := range got {
		if c.Value == "Zebra" {
			t.Errorf("Zebra should not match Beets at 0.6: %v", got)
		}
	}
}

func TestTopMatches_Threshold(t *testing.T) {
	// B vs Bee scores 1/3, well below 0.6.
	if got := TopMatches("B", []string{"Bee"}, 0.6, 5); len(got) != 0 {
		t.Errorf("expected no matches, got %v", got)
	}
}

func TestTopMatches_Limit(t *testing.T) {
	cands := []string{"note1", "note2", "note3", "note4", "note5", "note6", "note7"}
	got := TopMatches("note0", cands, 0.6, 5)
	if len(got) != 5 {
		t.Errorf("len = %d, want 5", len(got))
	}
}

func TestTopMatches_Deterministic(t *testing.T) {
	cands := []string{"beta", "betas", "bet", "beat"}
	first := TopMatches("beta", cands, 0.5, 4)
	for i := 0; i < 10; i++ {
		again := TopMatches("beta", cands, 0.5, 4)
		if len(again) != len(first) {
			t.Fatalf("run %d: len %d != %d", i, len(again), len(first))
		}
		for j := range again {
			if again[j] != first[j] {
				t.Fatalf("run %d: order changed: %v vs %v", i, again, first)
			}
		}
	}
}
