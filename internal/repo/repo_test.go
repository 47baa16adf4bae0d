package repo

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/javanhut/mog/internal/config"
	"github.com/javanhut/mog/internal/stage"
)

// newTestRepo initializes a repository in a fresh temp directory.
func newTestRepo(t *testing.T) (*Repository, string) {
	t.Helper()
	root := t.TempDir()
	r, err := Init(root)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r, root
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	abs := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func stageAll(t *testing.T, r *Repository) {
	t.Helper()
	if _, err := stage.Run(context.Background(), r.Root, nil, r.Index, r.DB, r.Ignore); err != nil {
		t.Fatalf("stage.Run: %v", err)
	}
	if err := r.SaveIndex(); err != nil {
		t.Fatalf("SaveIndex: %v", err)
	}
}

// TestScenarioInitStageCommitLog covers S1: init, stage, commit, and
// walking the resulting history via first-parent commit chain.
func TestScenarioInitStageCommitLog(t *testing.T) {
	r, root := newTestRepo(t)
	writeFile(t, root, "hello.txt", "hello, world")
	stageAll(t, r)

	h1, err := r.Commit("Ada <ada@example.com>", "first commit", 1000)
	if err != nil {
		t.Fatalf("Commit 1: %v", err)
	}

	writeFile(t, root, "second.txt", "another file")
	stageAll(t, r)
	h2, err := r.Commit("Ada <ada@example.com>", "second commit", 2000)
	if err != nil {
		t.Fatalf("Commit 2: %v", err)
	}

	head, err := r.HeadCommit()
	if err != nil {
		t.Fatalf("HeadCommit: %v", err)
	}
	if head != h2 {
		t.Fatalf("HEAD = %s, want %s", head, h2)
	}

	c2, err := r.ReadCommit(h2)
	if err != nil {
		t.Fatalf("ReadCommit h2: %v", err)
	}
	if len(c2.Parents) != 1 || c2.Parents[0] != h1 {
		t.Fatalf("second commit's parent = %v, want [%s]", c2.Parents, h1)
	}
	if c2.Message != "second commit" {
		t.Fatalf("Message = %q", c2.Message)
	}
}

// TestScenarioDedupIdenticalContent covers S2: staging two files with
// identical content should produce one blob record, addressed by one hash.
func TestScenarioDedupIdenticalContent(t *testing.T) {
	r, root := newTestRepo(t)
	writeFile(t, root, "a.txt", "identical payload")
	writeFile(t, root, "b.txt", "identical payload")
	stageAll(t, r)

	ia, ok := r.Index.Find("a.txt")
	if !ok {
		t.Fatal("a.txt not staged")
	}
	ib, ok := r.Index.Find("b.txt")
	if !ok {
		t.Fatal("b.txt not staged")
	}
	if r.Index.Get(ia).Hash != r.Index.Get(ib).Hash {
		t.Fatal("identical content staged under two different hashes")
	}

	before := r.DB.Count()
	writeFile(t, root, "c.txt", "identical payload")
	stageAll(t, r)
	if r.DB.Count() != before {
		t.Fatalf("staging a third file with already-seen content grew the object count: %d -> %d", before, r.DB.Count())
	}
}

// TestScenarioRenamePreservesBlob covers S3: renaming a tracked file (unstage
// old path, stage new path with the same content) keeps the same blob hash.
func TestScenarioRenamePreservesBlob(t *testing.T) {
	r, root := newTestRepo(t)
	writeFile(t, root, "old.txt", "rename me")
	stageAll(t, r)
	oldIdx, _ := r.Index.Find("old.txt")
	oldHash := r.Index.Get(oldIdx).Hash

	if _, err := r.Commit("Ada <ada@example.com>", "before rename", 1000); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	if err := os.Rename(filepath.Join(root, "old.txt"), filepath.Join(root, "new.txt")); err != nil {
		t.Fatalf("os.Rename: %v", err)
	}
	r.Unstage([]string{"old.txt"})
	stageAll(t, r)

	newIdx, ok := r.Index.Find("new.txt")
	if !ok {
		t.Fatal("new.txt not staged after rename")
	}
	if r.Index.Get(newIdx).Hash != oldHash {
		t.Fatal("rename produced a different blob hash for identical content")
	}
	if _, ok := r.Index.Find("old.txt"); ok {
		t.Fatal("old.txt still present in index after rename")
	}
}

// TestScenarioCheckoutRestoresDeletedFile covers S4: deleting a tracked file
// on disk and checking out HEAD again restores it.
func TestScenarioCheckoutRestoresDeletedFile(t *testing.T) {
	r, root := newTestRepo(t)
	writeFile(t, root, "keep.txt", "do not lose me")
	stageAll(t, r)
	if _, err := r.Commit("Ada <ada@example.com>", "add keep.txt", 1000); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	if err := os.Remove(filepath.Join(root, "keep.txt")); err != nil {
		t.Fatalf("os.Remove: %v", err)
	}

	if err := r.Checkout("main", false); err != nil {
		t.Fatalf("Checkout: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(root, "keep.txt"))
	if err != nil {
		t.Fatalf("file not restored by checkout: %v", err)
	}
	if string(data) != "do not lose me" {
		t.Fatalf("restored content = %q", data)
	}
}

// TestScenarioStashRoundTrip covers S5: modify and stage a tracked file,
// stash (the working tree returns to HEAD's content), pop, and observe the
// working tree holds the modified content again with no stash entries left.
func TestScenarioStashRoundTrip(t *testing.T) {
	r, root := newTestRepo(t)
	writeFile(t, root, "f.txt", "v1")
	stageAll(t, r)
	if _, err := r.Commit("Ada <ada@example.com>", "v1", 1000); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	writeFile(t, root, "f.txt", "v2")
	stageAll(t, r)

	if err := r.StashSave("wip", 2000); err != nil {
		t.Fatalf("StashSave: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(root, "f.txt"))
	if err != nil {
		t.Fatalf("ReadFile after stash: %v", err)
	}
	if string(data) != "v1" {
		t.Fatalf("working tree after stash save = %q, want v1 (HEAD's content)", data)
	}

	if err := r.StashPop(); err != nil {
		t.Fatalf("StashPop: %v", err)
	}

	data, err = os.ReadFile(filepath.Join(root, "f.txt"))
	if err != nil {
		t.Fatalf("ReadFile after pop: %v", err)
	}
	if string(data) != "v2" {
		t.Fatalf("working tree after stash pop = %q, want v2", data)
	}

	stashes, err := r.StashList()
	if err != nil {
		t.Fatalf("StashList: %v", err)
	}
	if len(stashes) != 0 {
		t.Fatalf("stash list after pop = %v, want empty", stashes)
	}
}

// TestScenarioDiscardReturnsStagedContent covers a variant of S6: discard
// reverts an unstaged on-disk edit back to what the index has recorded.
func TestScenarioDiscardReturnsStagedContent(t *testing.T) {
	r, root := newTestRepo(t)
	writeFile(t, root, "f.txt", "staged content")
	stageAll(t, r)

	writeFile(t, root, "f.txt", "dirtied on disk")

	n, err := r.Discard([]string{"f.txt"})
	if err != nil {
		t.Fatalf("Discard: %v", err)
	}
	if n != 1 {
		t.Fatalf("Discard restored %d files, want 1", n)
	}

	data, err := os.ReadFile(filepath.Join(root, "f.txt"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "staged content" {
		t.Fatalf("content after discard = %q, want %q", data, "staged content")
	}
}

// TestResolveAuthorCachesAcrossConfigReload covers the metadata store: once
// resolved, the author string is served from the bbolt cache even after the
// backing config file changes, until InvalidateAuthorCache is called.
func TestResolveAuthorCachesAcrossConfigReload(t *testing.T) {
	r, root := newTestRepo(t)

	cfg, err := config.Load(root)
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	cfg.User.Name = "Ada"
	cfg.User.Email = "ada@example.com"
	if err := config.SaveRepo(root, cfg); err != nil {
		t.Fatalf("config.SaveRepo: %v", err)
	}

	author, err := r.ResolveAuthor()
	if err != nil {
		t.Fatalf("ResolveAuthor: %v", err)
	}
	if author != "Ada <ada@example.com>" {
		t.Fatalf("ResolveAuthor = %q", author)
	}

	cfg.User.Name = "Grace"
	cfg.User.Email = "grace@example.com"
	if err := config.SaveRepo(root, cfg); err != nil {
		t.Fatalf("config.SaveRepo: %v", err)
	}

	author, err = r.ResolveAuthor()
	if err != nil {
		t.Fatalf("ResolveAuthor (cached): %v", err)
	}
	if author != "Ada <ada@example.com>" {
		t.Fatalf("ResolveAuthor returned %q, want the cached value to survive a config change", author)
	}

	if err := r.InvalidateAuthorCache(); err != nil {
		t.Fatalf("InvalidateAuthorCache: %v", err)
	}
	author, err = r.ResolveAuthor()
	if err != nil {
		t.Fatalf("ResolveAuthor after invalidate: %v", err)
	}
	if author != "Grace <grace@example.com>" {
		t.Fatalf("ResolveAuthor after invalidate = %q, want the refreshed value", author)
	}
}

func TestBranchCreateListDelete(t *testing.T) {
	r, _ := newTestRepo(t)
	root := r.Root
	writeFile(t, root, "f.txt", "content")
	stageAll(t, r)
	if _, err := r.Commit("Ada <ada@example.com>", "init", 1000); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	if err := r.CreateBranch("feature", ""); err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}
	branches, err := r.ListBranches()
	if err != nil {
		t.Fatalf("ListBranches: %v", err)
	}
	found := false
	for _, b := range branches {
		if b.Name == "feature" {
			found = true
		}
	}
	if !found {
		t.Fatal("created branch not present in ListBranches")
	}

	if err := r.DeleteBranch("feature", false); err != nil {
		t.Fatalf("DeleteBranch: %v", err)
	}
	branches, err = r.ListBranches()
	if err != nil {
		t.Fatalf("ListBranches after delete: %v", err)
	}
	for _, b := range branches {
		if b.Name == "feature" {
			t.Fatal("deleted branch still present")
		}
	}
}

func TestDeleteBranchRefusesUnmergedWithoutForce(t *testing.T) {
	r, root := newTestRepo(t)
	writeFile(t, root, "f.txt", "v1")
	stageAll(t, r)
	if _, err := r.Commit("Ada <ada@example.com>", "v1", 1000); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	if err := r.CreateBranch("feature", ""); err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}
	if err := r.Checkout("feature", false); err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	writeFile(t, root, "feature-only.txt", "unique to feature")
	stageAll(t, r)
	if _, err := r.Commit("Ada <ada@example.com>", "feature work", 2000); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if err := r.Checkout("main", false); err != nil {
		t.Fatalf("Checkout back to main: %v", err)
	}

	if err := r.DeleteBranch("feature", false); err == nil {
		t.Fatal("expected DeleteBranch to refuse deleting an unmerged branch without force")
	}
	if err := r.DeleteBranch("feature", true); err != nil {
		t.Fatalf("force DeleteBranch: %v", err)
	}
}
