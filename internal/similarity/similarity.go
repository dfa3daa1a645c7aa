// Package similarity scores string closeness for link repair, tag merging,
// and duplicate-title detection.
//
// Scores are Levenshtein ratios: 1 − distance/max(len(a), len(b)), computed
// over case-folded, whitespace/punctuation-normalized strings. The ratio is
// symmetric and lands in [0, 1], with sim(a, a) == 1.
package similarity

import (
	"sort"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
)

// Normalize case-folds s and collapses runs of whitespace and punctuation
// into single spaces. Both inputs of a comparison go through this, so
// "My-Note" and "my note" compare equal.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	pendingSpace := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
		} else {
			pendingSpace = true
		}
	}
	return b.String()
}

// Ratio returns the similarity of a and b after normalization.
func Ratio(a, b string) float64 {
	return ratioNormalized(Normalize(a), Normalize(b))
}

func ratioNormalized(na, nb string) float64 {
	if na == nb {
		return 1.0
	}
	la, lb := len([]rune(na)), len([]rune(nb))
	m := la
	if lb > m {
		m = lb
	}
	if m == 0 {
		return 1.0
	}
	d := levenshtein.ComputeDistance(na, nb)
	return 1.0 - float64(d)/float64(m)
}

// lengthsCanReach reports whether strings of rune lengths la and lb can still
// score at or above threshold. The distance is at least the length
// difference, so the ratio is bounded by min(la,lb)/max(la,lb). Skipping
// pairs on this bound keeps pairwise comparison tractable on large vaults.
func lengthsCanReach(la, lb int, threshold float64) bool {
	lo, hi := la, lb
	if lo > hi {
		lo, hi = hi, lo
	}
	if hi == 0 {
		return true
	}
	return float64(lo)/float64(hi) >= threshold
}

// Pair is a scored unordered pair of input strings.
type Pair struct {
	A, B  string
	Score float64
}

// SimilarPairs returns every unordered pair from items scoring at or above
// threshold, ordered by score descending, then lexicographically. Items are
// sorted into length buckets first so pairs whose length difference already
// caps the score below the threshold never reach the distance computation.
func SimilarPairs(items []string, threshold float64) []Pair {
	type entry struct {
		orig, norm string
		n          int
	}
	entries := make([]entry, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		if _, dup := seen[it]; dup {
			continue
		}
		seen[it] = struct{}{}
		norm := Normalize(it)
		entries = append(entries, entry{it, norm, len([]rune(norm))})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].n != entries[j].n {
			return entries[i].n < entries[j].n
		}
		return entries[i].orig < entries[j].orig
	})

	var out []Pair
	for i := range entries {
		for j := i + 1; j < len(entries); j++ {
			// Entries are length-sorted: once the bound fails it fails
			// for every later j as well.
			if !lengthsCanReach(entries[i].n, entries[j].n, threshold) {
				break
			}
			if s := ratioNormalized(entries[i].norm, entries[j].norm); s >= threshold {
				a, b := entries[i].orig, entries[j].orig
				if b < a {
					a, b = b, a
				}
				out = append(out, Pair{A: a, B: b, Score: s})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].A != out[j].A {
			return out[i].A < out[j].A
		}
		return out[i].B < out[j].B
	})
	return out
}

// Candidate is one scored match for a target string.
type Candidate struct {
	Value string
	Score float64
}

// TopMatches ranks candidates by similarity to target, keeping at most k
// with score >= threshold. Ordering is score descending, ties broken by
// shorter candidate first, then lexicographically, so repeated runs on
// identical input yield identical output.
func TopMatches(target string, candidates []string, threshold float64, k int) []Candidate {
	nt := Normalize(target)
	lt := len([]rune(nt))

	var out []Candidate
	seen := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		nc := Normalize(c)
		if !lengthsCanReach(lt, len([]rune(nc)), threshold) {
			continue
		}
		if s := ratioNormalized(nt, nc); s >= threshold {
			out = append(out, Candidate{Value: c, Score: s})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if len(out[i].Value) != len(out[j].Value) {
			return len(out[i].Value) < len(out[j].Value)
		}
		return out[i].Value < out[j].Value
	})
	if k > 0 && len(out) > k {
		out = out[:k]
	}
	return out
}
