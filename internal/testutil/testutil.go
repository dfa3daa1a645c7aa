// Package testutil provides shared test helpers for setting up vaults.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/wortmanb/obsidian-vault-maintenance/internal/vault"
)

// TestVault creates a temporary vault directory with an FS provider.
func TestVault(t *testing.T) (string, *vault.FS) {
	t.Helper()
	dir := t.TempDir()
	store, err := vault.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}

// WriteNote writes a note file under dir, creating parent folders as needed.
func WriteNote(t *testing.T, dir, rel, content string) {
	t.Helper()
	abs := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
