package walkstatus

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/javanhut/mog/internal/flattree"
	"github.com/javanhut/mog/internal/hash"
	"github.com/javanhut/mog/internal/index"
	"github.com/javanhut/mog/internal/objcodec"
	"github.com/javanhut/mog/internal/odb"
)

func writeAndStat(t *testing.T, root, rel, content string) (hash.Hash, os.FileInfo) {
	t.Helper()
	abs := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	return hash.Sum([]byte(content)), info
}

func TestRunUnchangedFileNotModified(t *testing.T) {
	root := t.TempDir()
	h, info := writeAndStat(t, root, "f.txt", "content")

	idx := index.New()
	idx.Add("f.txt", h, objcodec.ModeFile, info.ModTime().Unix(), uint64(info.Size()))

	head := flattree.Empty()
	_ = head // no HEAD entry for f.txt means it shows as staged-new regardless

	res, err := Run(context.Background(), root, idx, head, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Modified) != 0 {
		t.Fatalf("Modified = %v, want empty for an untouched file matching its recorded (mtime,size)", res.Modified)
	}
	if len(res.StagedNew) != 1 || res.StagedNew[0] != "f.txt" {
		t.Fatalf("StagedNew = %v, want [f.txt] (absent from HEAD)", res.StagedNew)
	}
}

func TestRunDetectsDiskModification(t *testing.T) {
	root := t.TempDir()
	h, info := writeAndStat(t, root, "f.txt", "original")

	idx := index.New()
	idx.Add("f.txt", h, objcodec.ModeFile, info.ModTime().Unix(), uint64(info.Size()))
	head := flattree.Empty()

	// Mutate the file's content without updating the index's recorded
	// (mtime, size) — simulate an edit the dirty-gate must catch. The new
	// content has a different size, so the edit is caught even when it lands
	// in the same mtime second as the original write.
	if err := os.WriteFile(filepath.Join(root, "f.txt"), []byte("edited"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	res, err := Run(context.Background(), root, idx, head, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Modified) != 1 || res.Modified[0] != "f.txt" {
		t.Fatalf("Modified = %v, want [f.txt]", res.Modified)
	}
}

func TestRunDetectsDiskDeletion(t *testing.T) {
	root := t.TempDir()
	h, info := writeAndStat(t, root, "f.txt", "content")

	idx := index.New()
	idx.Add("f.txt", h, objcodec.ModeFile, info.ModTime().Unix(), uint64(info.Size()))
	head := flattree.Empty()

	if err := os.Remove(filepath.Join(root, "f.txt")); err != nil {
		t.Fatalf("os.Remove: %v", err)
	}

	res, err := Run(context.Background(), root, idx, head, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Modified) != 1 || res.Modified[0] != "f.txt" {
		t.Fatalf("a disk-deleted tracked file should land in Modified, got %v", res.Modified)
	}
}

func TestRunUntrackedAndStagedDeleted(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "untracked.txt"), []byte("new"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	idx := index.New()

	// HEAD holds gone.txt, which the (empty) index no longer stages.
	db, err := odb.Open(filepath.Join(t.TempDir(), "objects.bin"))
	if err != nil {
		t.Fatalf("odb.Open: %v", err)
	}
	defer db.Close()
	headIdx := index.New()
	headIdx.Add("gone.txt", hash.Sum([]byte("gone")), objcodec.ModeFile, 0, 0)
	headRoot, err := headIdx.WriteTree(db)
	if err != nil {
		t.Fatalf("WriteTree: %v", err)
	}
	if err := db.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	head, err := flattree.Build(db, headRoot)
	if err != nil {
		t.Fatalf("flattree.Build: %v", err)
	}

	res, err := Run(context.Background(), root, idx, head, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Untracked) != 1 || res.Untracked[0] != "untracked.txt" {
		t.Fatalf("Untracked = %v, want [untracked.txt]", res.Untracked)
	}
	if len(res.StagedDeleted) != 1 || res.StagedDeleted[0] != "gone.txt" {
		t.Fatalf("StagedDeleted = %v, want [gone.txt]", res.StagedDeleted)
	}
}
