package analyzer

import (
	"testing"

	"github.com/wortmanb/obsidian-vault-maintenance/internal/models"
)

func taggedNote(id string, tags ...string) *models.Note {
	return &models.Note{ID: id, Name: id, Tags: tags}
}

func TestTagIndex_FoldsCase(t *testing.T) {
	ti := BuildTagIndex([]*models.Note{
		taggedNote("a", "Project"),
		taggedNote("b", "project"),
		taggedNote("c", "PROJECT"),
	})
	if ti.Len() != 1 {
		t.Fatalf("Len = %d, want 1", ti.Len())
	}
	rep := ti.Report(0.8)
	if len(rep.Usage) != 1 {
		t.Fatalf("usage = %v", rep.Usage)
	}
	u := rep.Usage[0]
	if u.Tag != "project" || u.Count != 3 {
		t.Errorf("usage = %+v", u)
	}
	if len(u.Casings) != 3 {
		t.Errorf("casings = %v, want all three spellings", u.Casings)
	}
}

func TestTagReport_UsageOrderAndRareTags(t *testing.T) {
	ti := BuildTagIndex([]*models.Note{
		taggedNote("a", "common", "once"),
		taggedNote("b", "common"),
		taggedNote("c", "common", "twice"),
		taggedNote("d", "twice"),
	})
	rep := ti.Report(0.8)

	if rep.TotalTags != 3 {
		t.Errorf("TotalTags = %d, want 3", rep.TotalTags)
	}
	if rep.Usage[0].Tag != "common" || rep.Usage[0].Count != 3 {
		t.Errorf("usage[0] = %+v, want common x3", rep.Usage[0])
	}
	if len(rep.RareTags) != 1 || rep.RareTags[0] != "once" {
		t.Errorf("rare = %v, want [once]", rep.RareTags)
	}
}

func TestTagReport_SimilarTags(t *testing.T) {
	ti := BuildTagIndex([]*models.Note{
		taggedNote("a", "project"),
		taggedNote("b", "projects"),
		taggedNote("c", "zebra"),
	})
	rep := ti.Report(0.8)
	if len(rep.SimilarTags) != 1 {
		t.Fatalf("similar = %v, want one pair", rep.SimilarTags)
	}
	p := rep.SimilarTags[0]
	if p.A != "project" || p.B != "projects" || p.Kind != "tag" {
		t.Errorf("pair = %+v", p)
	}
}

func TestTagReport_Hierarchy(t *testing.T) {
	ti := BuildTagIndex([]*models.Note{
		taggedNote("a", "work/meetings"),
		taggedNote("b", "work/planning"),
		taggedNote("c", "work"),
		taggedNote("d", "work/meetings"),
	})
	rep := ti.Report(0.8)
	if len(rep.Hierarchy) != 1 {
		t.Fatalf("hierarchy = %v", rep.Hierarchy)
	}
	r := rep.Hierarchy[0]
	if r.Parent != "work" {
		t.Errorf("parent = %q", r.Parent)
	}
	if len(r.Children) != 2 || r.Children[0] != "work/meetings" || r.Children[1] != "work/planning" {
		t.Errorf("children = %v", r.Children)
	}
	// a, b, c, d all count toward work exactly once.
	if r.NoteCount != 4 {
		t.Errorf("NoteCount = %d, want 4", r.NoteCount)
	}
}

func TestNotesByTag(t *testing.T) {
	ti := BuildTagIndex([]*models.Note{
		taggedNote("b", "go"),
		taggedNote("a", "go"),
	})
	byTag := ti.NotesByTag()
	ids := byTag["go"]
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Errorf("notes = %v, want sorted [a b]", ids)
	}
}
