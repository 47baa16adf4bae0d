package refs

import (
	"path/filepath"
	"testing"

	"github.com/javanhut/mog/internal/hash"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := New(filepath.Join(t.TempDir(), ".mog"))
	if err := s.EnsureLayout(); err != nil {
		t.Fatalf("EnsureLayout: %v", err)
	}
	return s
}

func TestHEADSymbolicAndDetached(t *testing.T) {
	s := newTestStore(t)

	if err := s.SetHEADSymbolic("main"); err != nil {
		t.Fatalf("SetHEADSymbolic: %v", err)
	}
	head, err := s.ReadHEAD()
	if err != nil {
		t.Fatalf("ReadHEAD: %v", err)
	}
	if !head.Symbolic || head.Branch != "main" {
		t.Fatalf("ReadHEAD = %+v, want symbolic main", head)
	}

	h := hash.Sum([]byte("detached"))
	if err := s.SetHEADDetached(h); err != nil {
		t.Fatalf("SetHEADDetached: %v", err)
	}
	head, err = s.ReadHEAD()
	if err != nil {
		t.Fatalf("ReadHEAD: %v", err)
	}
	if head.Symbolic || head.Commit != h {
		t.Fatalf("ReadHEAD after detach = %+v, want detached at %s", head, h)
	}
}

func TestBranchCreateResolveRenameDelete(t *testing.T) {
	s := newTestStore(t)
	h := hash.Sum([]byte("commit"))

	if err := s.SetBranch("main", h); err != nil {
		t.Fatalf("SetBranch: %v", err)
	}
	if !s.BranchExists("main") {
		t.Fatal("BranchExists false for a just-created branch")
	}
	got, err := s.ResolveBranch("main")
	if err != nil {
		t.Fatalf("ResolveBranch: %v", err)
	}
	if got != h {
		t.Fatalf("ResolveBranch = %s, want %s", got, h)
	}

	if err := s.RenameBranch("main", "trunk"); err != nil {
		t.Fatalf("RenameBranch: %v", err)
	}
	if s.BranchExists("main") {
		t.Fatal("old branch name still exists after rename")
	}
	if !s.BranchExists("trunk") {
		t.Fatal("new branch name missing after rename")
	}

	if err := s.DeleteBranch("trunk"); err != nil {
		t.Fatalf("DeleteBranch: %v", err)
	}
	if s.BranchExists("trunk") {
		t.Fatal("branch still exists after DeleteBranch")
	}
}

func TestStashShiftUpAndDropAt(t *testing.T) {
	s := newTestStore(t)
	h0 := hash.Sum([]byte("stash0"))
	h1 := hash.Sum([]byte("stash1"))
	h2 := hash.Sum([]byte("stash2"))

	// Simulate three successive saves: each shifts existing slots up first.
	if err := s.StashSet(0, h0); err != nil {
		t.Fatalf("StashSet 0: %v", err)
	}
	if err := s.StashShiftUp(); err != nil {
		t.Fatalf("StashShiftUp 1: %v", err)
	}
	if err := s.StashSet(0, h1); err != nil {
		t.Fatalf("StashSet 1: %v", err)
	}
	if err := s.StashShiftUp(); err != nil {
		t.Fatalf("StashShiftUp 2: %v", err)
	}
	if err := s.StashSet(0, h2); err != nil {
		t.Fatalf("StashSet 2: %v", err)
	}

	count, err := s.StashCount()
	if err != nil {
		t.Fatalf("StashCount: %v", err)
	}
	if count != 3 {
		t.Fatalf("StashCount = %d, want 3", count)
	}

	got0, _ := s.StashGet(0)
	got1, _ := s.StashGet(1)
	got2, _ := s.StashGet(2)
	if got0 != h2 || got1 != h1 || got2 != h0 {
		t.Fatalf("slot order after shifts = [%s %s %s], want [%s %s %s]", got0, got1, got2, h2, h1, h0)
	}

	if err := s.StashDropAt(1); err != nil {
		t.Fatalf("StashDropAt(1): %v", err)
	}
	count, err = s.StashCount()
	if err != nil {
		t.Fatalf("StashCount after drop: %v", err)
	}
	if count != 2 {
		t.Fatalf("StashCount after drop = %d, want 2", count)
	}
	got0, _ = s.StashGet(0)
	got1, _ = s.StashGet(1)
	if got0 != h2 || got1 != h0 {
		t.Fatalf("slots after dropping middle entry = [%s %s], want [%s %s]", got0, got1, h2, h0)
	}
}

func TestValidateBranchNameRejectsSlashAndWhitespace(t *testing.T) {
	if err := ValidateBranchName(""); err == nil {
		t.Fatal("expected error for empty branch name")
	}
	if err := ValidateBranchName("feature/x"); err == nil {
		t.Fatal("expected error for branch name containing a slash")
	}
	if err := ValidateBranchName("has space"); err == nil {
		t.Fatal("expected error for branch name containing whitespace")
	}
	if err := ValidateBranchName("fine-name"); err != nil {
		t.Fatalf("unexpected error for a valid branch name: %v", err)
	}
}
