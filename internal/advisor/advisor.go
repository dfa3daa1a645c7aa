// Package advisor proposes file groupings from note names, tags, and the
// vault layout. It only reads scan data and produces suggestion records;
// moving files is a collaborator's job.
package advisor

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/wortmanb/obsidian-vault-maintenance/internal/models"
)

var dateRe = regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})`)

// Options tunes the advisor.
type Options struct {
	// MinTopicNotes is the minimum notes a tag needs to become a topic
	// suggestion.
	MinTopicNotes int
	// FlatThreshold is the root-level note fraction that triggers the
	// flat-structure warning.
	FlatThreshold float64
}

// Advise derives date groups, topic groups, and the flat-structure warning.
// notesByTag comes from the tag index; a note may appear in several topics.
func Advise(notes []*models.Note, notesByTag map[string][]string, opts Options) models.OrganizationReport {
	var rep models.OrganizationReport

	rep.ByDate = dateGroups(notes)
	rep.ByTopic = topicGroups(notesByTag, opts.MinTopicNotes)

	if len(notes) > 0 {
		root := 0
		for _, n := range notes {
			if !strings.Contains(n.ID, "/") {
				root++
			}
		}
		fraction := float64(root) / float64(len(notes))
		if fraction >= opts.FlatThreshold {
			rep.FlatWarning = &models.FlatWarning{
				RootNotes:  root,
				TotalNotes: len(notes),
				Fraction:   fraction,
			}
		}
	}
	return rep
}

// dateGroups buckets notes whose basename contains a YYYY-MM-DD pattern by
// year and month.
func dateGroups(notes []*models.Note) []models.DateGroup {
	type ym struct{ year, month int }
	buckets := make(map[ym][]string)

	for _, n := range notes {
		m := dateRe.FindStringSubmatch(n.Name)
		if m == nil {
			continue
		}
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		if month < 1 || month > 12 {
			continue
		}
		key := ym{year, month}
		buckets[key] = append(buckets[key], n.ID)
	}

	out := make([]models.DateGroup, 0, len(buckets))
	for key, ids := range buckets {
		sort.Strings(ids)
		out = append(out, models.DateGroup{Year: key.year, Month: key.month, Notes: ids})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	return out
}

// topicGroups suggests tags with enough notes as folder candidates, most
// used first.
func topicGroups(notesByTag map[string][]string, minNotes int) []models.TopicGroup {
	if minNotes <= 0 {
		minNotes = 3
	}
	var out []models.TopicGroup
	for tag, ids := range notesByTag {
		if len(ids) < minNotes {
			continue
		}
		notes := append([]string(nil), ids...)
		sort.Strings(notes)
		out = append(out, models.TopicGroup{Tag: tag, Notes: notes})
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i].Notes) != len(out[j].Notes) {
			return len(out[i].Notes) > len(out[j].Notes)
		}
		return out[i].Tag < out[j].Tag
	})
	return out
}
