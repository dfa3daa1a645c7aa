package analyzer

import (
	"sort"
	"strings"

	"github.com/wortmanb/obsidian-vault-maintenance/internal/models"
	"github.com/wortmanb/obsidian-vault-maintenance/internal/similarity"
)

// closedSetLimit bounds how many distinct values a property may have and
// still be treated as a closed set for consistency checking.
const closedSetLimit = 5

var booleanWords = map[string]struct{}{
	"true": {}, "false": {}, "yes": {}, "no": {}, "on": {}, "off": {},
}

// occurrence is one property use on one note.
type occurrence struct {
	noteID string
	value  models.Value
}

// PropertyIndex maps frontmatter keys to every (note, value) occurrence.
type PropertyIndex struct {
	usage     map[string][]occurrence
	withProps int // notes carrying at least one property
}

// BuildPropertyIndex indexes every property of every note.
func BuildPropertyIndex(notes []*models.Note) *PropertyIndex {
	pi := &PropertyIndex{usage: make(map[string][]occurrence)}
	for _, n := range notes {
		if len(n.Properties) > 0 {
			pi.withProps++
		}
		for _, p := range n.Properties {
			pi.usage[p.Key] = append(pi.usage[p.Key], occurrence{noteID: n.ID, value: p.Value})
		}
	}
	return pi
}

// FilesWithProperties returns how many notes carry at least one property.
func (pi *PropertyIndex) FilesWithProperties() int { return pi.withProps }

// Report derives property statistics: usage counts with distinct value
// renderings, similar key pairs, value inconsistencies on closed sets, and
// per-note missing expected properties.
func (pi *PropertyIndex) Report(simThreshold float64, expected []string, notes []*models.Note) models.PropertyReport {
	rep := models.PropertyReport{FilesWithProperties: pi.withProps}

	keys := make([]string, 0, len(pi.usage))
	for k := range pi.usage {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		occs := pi.usage[key]
		values := distinctRenderings(occs)
		rep.Usage = append(rep.Usage, models.PropertyUsage{
			Key:    key,
			Count:  len(occs),
			Values: values,
		})
		if inc := detectInconsistency(key, values); inc != nil {
			rep.Inconsistencies = append(rep.Inconsistencies, *inc)
		}
	}
	sort.SliceStable(rep.Usage, func(i, j int) bool {
		if rep.Usage[i].Count != rep.Usage[j].Count {
			return rep.Usage[i].Count > rep.Usage[j].Count
		}
		return rep.Usage[i].Key < rep.Usage[j].Key
	})

	for _, p := range similarity.SimilarPairs(keys, simThreshold) {
		rep.SimilarKeys = append(rep.SimilarKeys, models.SimilarityPair{
			A: p.A, B: p.B, Score: p.Score, Kind: "property",
		})
	}

	rep.MissingExpected = missingExpected(expected, notes)
	return rep
}

// distinctRenderings returns the sorted distinct display forms of the scalar
// values seen for one key. Lists and nulls do not participate in closed-set
// consistency checks.
func distinctRenderings(occs []occurrence) []string {
	set := make(map[string]struct{})
	for _, o := range occs {
		if !o.value.Scalar() {
			continue
		}
		set[o.value.String()] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// detectInconsistency flags keys whose values form a small closed set but
// appear with inconsistent casing, or mix boolean spellings (true/yes/on).
func detectInconsistency(key string, values []string) *models.PropertyInconsistency {
	if len(values) < 2 || len(values) > closedSetLimit {
		return nil
	}

	// Casing variants: multiple renderings collapsing to one folded form.
	folded := make(map[string][]string)
	for _, v := range values {
		f := strings.ToLower(strings.TrimSpace(v))
		folded[f] = append(folded[f], v)
	}
	for _, variants := range folded {
		if len(variants) > 1 {
			return &models.PropertyInconsistency{
				Key:      key,
				Variants: values,
				Reason:   "inconsistent casing",
			}
		}
	}

	// Mixed boolean spellings: all values boolean-like but not one family.
	allBool := true
	families := make(map[string]struct{})
	for f := range folded {
		if _, ok := booleanWords[f]; !ok {
			allBool = false
			break
		}
		switch f {
		case "true", "false":
			families["true/false"] = struct{}{}
		case "yes", "no":
			families["yes/no"] = struct{}{}
		case "on", "off":
			families["on/off"] = struct{}{}
		}
	}
	if allBool && len(families) > 1 {
		return &models.PropertyInconsistency{
			Key:      key,
			Variants: values,
			Reason:   "mixed boolean formats",
		}
	}
	return nil
}

// missingExpected reports, per note, which of the expected keys are absent.
// Key comparison is case-insensitive.
func missingExpected(expected []string, notes []*models.Note) []models.MissingProperties {
	if len(expected) == 0 {
		return nil
	}
	var out []models.MissingProperties
	for _, n := range notes {
		present := make(map[string]struct{}, len(n.Properties))
		for _, p := range n.Properties {
			present[strings.ToLower(p.Key)] = struct{}{}
		}
		var missing []string
		for _, key := range expected {
			if _, ok := present[strings.ToLower(key)]; !ok {
				missing = append(missing, key)
			}
		}
		if len(missing) > 0 {
			out = append(out, models.MissingProperties{NoteID: n.ID, Missing: missing})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NoteID < out[j].NoteID })
	return out
}
