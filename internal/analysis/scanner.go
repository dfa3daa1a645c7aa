// Package analysis orchestrates a full vault scan: parallel per-note
// extraction behind a synchronization barrier, followed by the global graph,
// similarity, and index phases that need the complete note set.
package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wortmanb/obsidian-vault-maintenance/internal/advisor"
	"github.com/wortmanb/obsidian-vault-maintenance/internal/analyzer"
	"github.com/wortmanb/obsidian-vault-maintenance/internal/apperr"
	"github.com/wortmanb/obsidian-vault-maintenance/internal/cache"
	"github.com/wortmanb/obsidian-vault-maintenance/internal/graph"
	"github.com/wortmanb/obsidian-vault-maintenance/internal/models"
	"github.com/wortmanb/obsidian-vault-maintenance/internal/parser"
	"github.com/wortmanb/obsidian-vault-maintenance/internal/similarity"
	"github.com/wortmanb/obsidian-vault-maintenance/internal/vault"
)

// Options carries every knob a scan needs. Defaults are applied by
// the configuration layer; zero values here mean "use the fallback".
type Options struct {
	Workers            int
	Extensions         []string
	Exclude            []string
	SystemFiles        []string
	ExpectedProperties []string
	MaxFileSize        int64

	LinkRepairThreshold     float64
	TagMergeThreshold       float64
	DuplicateTitleThreshold float64
	SuggestionLimit         int

	MinTopicNotes int
	FlatThreshold float64

	RecentWindow time.Duration
}

// Scanner runs scans against one vault. The parse cache is optional and
// passed in explicitly; the Scanner holds no ambient state between scans.
type Scanner struct {
	store  vault.Provider
	cache  *cache.Cache
	opts   Options
	logger *slog.Logger
}

// NewScanner creates a Scanner. pc may be nil to disable caching.
func NewScanner(store vault.Provider, opts Options, logger *slog.Logger, pc *cache.Cache) *Scanner {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.RecentWindow <= 0 {
		opts.RecentWindow = 7 * 24 * time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{store: store, cache: pc, opts: opts, logger: logger}
}

// noteResult is the immutable per-note product of the parallel phase.
type noteResult struct {
	note   *models.Note
	links  []parser.Link
	issues []models.ScanIssue
}

// collect runs the parallel extraction phase: the walk, then per-note
// load+parse on a bounded worker pool. Each worker writes only its own
// slot; nothing shared is mutated until the single-threaded merge after
// the barrier.
func (s *Scanner) collect(ctx context.Context) ([]*models.Note, map[string][]parser.Link, []models.ScanIssue, error) {
	files, walkIssues, err := s.store.Walk(vault.WalkOptions{
		Extensions:  s.opts.Extensions,
		Exclude:     s.opts.Exclude,
		MaxFileSize: s.opts.MaxFileSize,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("analysis: %w", err)
	}

	results := make([]noteResult, len(files))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	for i, fi := range files {
		g.Go(func() error {
			select {
			case <-gCtx.Done():
				return gCtx.Err()
			default:
			}
			results[i] = s.loadNote(fi)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, nil, fmt.Errorf("analysis: extraction: %w", err)
	}

	issues := append([]models.ScanIssue(nil), walkIssues...)
	var notes []*models.Note
	links := make(map[string][]parser.Link, len(results))
	for _, r := range results {
		issues = append(issues, r.issues...)
		if r.note == nil {
			continue
		}
		notes = append(notes, r.note)
		links[r.note.ID] = r.links
	}

	if s.cache != nil {
		live := make(map[string]struct{}, len(files))
		for _, fi := range files {
			live[fi.Path] = struct{}{}
		}
		if err := s.cache.Prune(live); err != nil {
			s.logger.Warn("cache prune failed", slog.String("error", err.Error()))
		}
	}
	return notes, links, issues, nil
}

// Scan performs one full analysis pass. Per-file problems accumulate into
// the report's error list; only a failed walk of the root aborts the scan.
func (s *Scanner) Scan(ctx context.Context) (*models.Report, error) {
	start := time.Now()

	notes, links, issues, err := s.collect(ctx)
	if err != nil {
		return nil, err
	}

	// Phase 2: global analysis over the complete note set.
	lg := graph.Build(notes, links)
	tagIndex := analyzer.BuildTagIndex(notes)
	propIndex := analyzer.BuildPropertyIndex(notes)

	rep := &models.Report{
		Timestamp:      start,
		VaultPath:      s.store.Root(),
		BrokenLinks:    lg.Suggest(s.opts.LinkRepairThreshold, s.opts.SuggestionLimit),
		AmbiguousLinks: lg.Ambiguous,
		Orphans:        lg.Orphans(s.opts.SystemFiles),
		Tags:           tagIndex.Report(s.opts.TagMergeThreshold),
		Properties:     propIndex.Report(s.opts.TagMergeThreshold, s.opts.ExpectedProperties, notes),
		Duplicates:     s.duplicates(notes),
		Organization: advisor.Advise(notes, tagIndex.NotesByTag(), advisor.Options{
			MinTopicNotes: s.opts.MinTopicNotes,
			FlatThreshold: s.opts.FlatThreshold,
		}),
		Errors: issues,
	}
	rep.Summary = s.summary(notes, lg, tagIndex, propIndex)

	s.logger.Info("scan complete",
		slog.Int("files", len(notes)),
		slog.Int("broken_links", len(rep.BrokenLinks)),
		slog.Int("orphans", len(rep.Orphans)),
		slog.Duration("elapsed", time.Since(start)))
	return rep, nil
}

// Backlinks rebuilds the link graph and returns the sorted ids of notes
// with a resolved link to noteID.
func (s *Scanner) Backlinks(ctx context.Context, noteID string) ([]string, error) {
	notes, links, _, err := s.collect(ctx)
	if err != nil {
		return nil, err
	}
	lg := graph.Build(notes, links)
	set, ok := lg.Backlinks[noteID]
	if !ok {
		return nil, fmt.Errorf("analysis: note %q: %w", noteID, apperr.ErrNotFound)
	}
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

// loadNote reads and parses one file, consulting the cache first. Failures
// surface as scan issues on the result, never as errors.
func (s *Scanner) loadNote(fi vault.FileInfo) noteResult {
	var res noteResult

	parsed, cached := (*parser.Result)(nil), false
	if s.cache != nil {
		parsed, cached = s.cache.Get(fi.Path, fi.ModTime, fi.Size)
	}

	if !cached {
		data, err := s.store.Read(fi.Path)
		if err != nil {
			res.issues = append(res.issues, models.ScanIssue{
				Path: fi.Path, Kind: "file-access", Message: err.Error(),
			})
			return res
		}
		text, utf8OK := vault.DecodeText(data)
		if !utf8OK {
			res.issues = append(res.issues, models.ScanIssue{
				Path: fi.Path, Kind: "encoding", Message: "not valid UTF-8, decoded as Latin-1",
			})
		}
		parsed, _ = parser.Parse([]byte(text))
		if s.cache != nil {
			if err := s.cache.Put(fi.Path, fi.ModTime, fi.Size, data, parsed); err != nil {
				s.logger.Warn("cache put failed",
					slog.String("path", fi.Path), slog.String("error", err.Error()))
			}
		}
	}

	id := fi.Path[:len(fi.Path)-len(fi.Ext)]
	title := parsed.Title
	if title == "" {
		title = fi.Name
	}
	res.note = &models.Note{
		ID:         id,
		Path:       fi.Path,
		Name:       fi.Name,
		Ext:        fi.Ext,
		Content:    parsed.Body,
		Properties: parsed.Properties,
		Tags:       parsed.Tags,
		Title:      title,
		WordCount:  parsed.WordCount,
		Size:       fi.Size,
		ModTime:    fi.ModTime,
	}
	res.links = parsed.Links
	return res
}

// duplicates groups notes by normalized title and collects near-duplicate
// title pairs above the configured threshold.
func (s *Scanner) duplicates(notes []*models.Note) models.DuplicateReport {
	var rep models.DuplicateReport

	groups := make(map[string][]string)
	var titles []string
	for _, n := range notes {
		key := similarity.Normalize(n.Name)
		if key == "" {
			continue
		}
		groups[key] = append(groups[key], n.ID)
		titles = append(titles, n.Name)
	}
	for key, ids := range groups {
		if len(ids) < 2 {
			continue
		}
		sort.Strings(ids)
		rep.Groups = append(rep.Groups, models.DuplicateGroup{
			NormalizedTitle: key,
			Notes:           ids,
			Count:           len(ids),
		})
	}
	sort.Slice(rep.Groups, func(i, j int) bool {
		if rep.Groups[i].Count != rep.Groups[j].Count {
			return rep.Groups[i].Count > rep.Groups[j].Count
		}
		return rep.Groups[i].NormalizedTitle < rep.Groups[j].NormalizedTitle
	})

	for _, p := range similarity.SimilarPairs(titles, s.opts.DuplicateTitleThreshold) {
		if p.Score == 1.0 {
			continue // exact-normalized collisions are already grouped
		}
		rep.SimilarTitles = append(rep.SimilarTitles, models.SimilarityPair{
			A: p.A, B: p.B, Score: p.Score, Kind: "title",
		})
	}
	return rep
}

// summary aggregates vault-wide statistics.
func (s *Scanner) summary(notes []*models.Note, lg *graph.Graph, ti *analyzer.TagIndex, pi *analyzer.PropertyIndex) models.Summary {
	sum := models.Summary{
		TotalFiles: len(notes),
		FileTypes:  make(map[string]int),
		TotalLinks: lg.TotalLinks(),
		TotalTags:  ti.Len(),
	}
	cutoff := time.Now().Add(-s.opts.RecentWindow)
	for _, n := range notes {
		sum.TotalSizeBytes += n.Size
		sum.TotalWords += n.WordCount
		sum.FileTypes[n.Ext]++
		if n.ModTime.After(cutoff) {
			sum.RecentFiles++
		}
	}
	sum.FilesWithProperties = pi.FilesWithProperties()
	return sum
}
