package vault

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/wortmanb/obsidian-vault-maintenance/internal/models"
)

// Folders never worth scanning, regardless of configuration.
var skipDirs = map[string]struct{}{
	".obsidian":    {},
	".trash":       {},
	".git":         {},
	"node_modules": {},
	"__pycache__":  {},
}

// FileInfo describes one candidate note file found by Walk.
type FileInfo struct {
	Path    string // relative to root, slash-separated
	Name    string // basename without extension
	Ext     string // extension including the dot
	Size    int64
	ModTime time.Time
}

// WalkOptions bounds a vault walk.
type WalkOptions struct {
	// Extensions whitelists file extensions (with dot). Empty means ".md" only.
	Extensions []string
	// Exclude holds gitignore-style patterns matched against relative paths.
	Exclude []string
	// MaxFileSize caps file size in bytes; larger files become scan issues.
	// Zero means no cap.
	MaxFileSize int64
}

// Walk traverses the vault and returns every supported file, plus non-fatal
// per-file issues (oversized or unreadable entries). Symlinked directories
// are followed at most once: a visited set of resolved paths is threaded
// through the traversal so loops terminate without relying on recursion
// depth limits.
func (f *FS) Walk(opts WalkOptions) ([]FileInfo, []models.ScanIssue, error) {
	exts := make(map[string]struct{}, len(opts.Extensions))
	for _, e := range opts.Extensions {
		exts[strings.ToLower(e)] = struct{}{}
	}
	if len(exts) == 0 {
		exts[".md"] = struct{}{}
	}

	matcher := ignore.CompileIgnoreLines(opts.Exclude...)

	visited := make(map[string]struct{})
	if resolved, err := filepath.EvalSymlinks(f.root); err == nil {
		visited[resolved] = struct{}{}
	}

	var files []FileInfo
	var issues []models.ScanIssue
	err := f.walkDir(f.root, exts, matcher, opts.MaxFileSize, visited, &files, &issues)
	if err != nil {
		return nil, nil, fmt.Errorf("vault: walk: %w", err)
	}
	return files, issues, nil
}

func (f *FS) walkDir(dir string, exts map[string]struct{}, matcher *ignore.GitIgnore, maxSize int64, visited map[string]struct{}, files *[]FileInfo, issues *[]models.ScanIssue) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		rel, _ := filepath.Rel(f.root, dir)
		*issues = append(*issues, models.ScanIssue{
			Path:    filepath.ToSlash(rel),
			Kind:    "file-access",
			Message: err.Error(),
		})
		return nil
	}

	for _, entry := range entries {
		name := entry.Name()
		abs := filepath.Join(dir, name)
		rel, relErr := filepath.Rel(f.root, abs)
		if relErr != nil {
			continue
		}
		rel = filepath.ToSlash(rel)

		if entry.IsDir() || isSymlinkDir(abs, entry) {
			if _, skip := skipDirs[name]; skip || strings.HasPrefix(name, ".") {
				continue
			}
			if matcher != nil && matcher.MatchesPath(rel+"/") {
				continue
			}
			resolved, rerr := filepath.EvalSymlinks(abs)
			if rerr != nil {
				continue
			}
			if _, loop := visited[resolved]; loop {
				continue
			}
			visited[resolved] = struct{}{}
			if err := f.walkDir(abs, exts, matcher, maxSize, visited, files, issues); err != nil {
				return err
			}
			continue
		}

		ext := strings.ToLower(filepath.Ext(name))
		if _, ok := exts[ext]; !ok {
			continue
		}
		if matcher != nil && matcher.MatchesPath(rel) {
			continue
		}

		info, infoErr := entry.Info()
		if infoErr != nil {
			*issues = append(*issues, models.ScanIssue{Path: rel, Kind: "file-access", Message: infoErr.Error()})
			continue
		}
		if maxSize > 0 && info.Size() > maxSize {
			*issues = append(*issues, models.ScanIssue{
				Path:    rel,
				Kind:    "oversize",
				Message: fmt.Sprintf("%d bytes exceeds cap of %d", info.Size(), maxSize),
			})
			continue
		}

		*files = append(*files, FileInfo{
			Path:    rel,
			Name:    strings.TrimSuffix(name, filepath.Ext(name)),
			Ext:     ext,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	return nil
}

// isSymlinkDir reports whether entry is a symlink pointing at a directory.
func isSymlinkDir(abs string, entry os.DirEntry) bool {
	if entry.Type()&os.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(abs)
	if err != nil {
		return false
	}
	return info.IsDir()
}
