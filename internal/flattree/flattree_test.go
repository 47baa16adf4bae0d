package flattree

import (
	"path/filepath"
	"testing"

	"github.com/javanhut/mog/internal/hash"
	"github.com/javanhut/mog/internal/index"
	"github.com/javanhut/mog/internal/objcodec"
	"github.com/javanhut/mog/internal/odb"
)

func openTempDB(t *testing.T) *odb.DB {
	t.Helper()
	db, err := odb.Open(filepath.Join(t.TempDir(), "objects.bin"))
	if err != nil {
		t.Fatalf("odb.Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestBuildCompletenessAndSortOrder(t *testing.T) {
	db := openTempDB(t)
	idx := index.New()
	idx.Add("b/two.txt", hash.Sum([]byte("two")), objcodec.ModeFile, 0, 0)
	idx.Add("a/one.txt", hash.Sum([]byte("one")), objcodec.ModeFile, 0, 0)
	idx.Add("a/sub/three.txt", hash.Sum([]byte("three")), objcodec.ModeExec, 0, 0)
	idx.Add("top.md", hash.Sum([]byte("top")), objcodec.ModeFile, 0, 0)

	root, err := idx.WriteTree(db)
	if err != nil {
		t.Fatalf("WriteTree: %v", err)
	}
	if err := db.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	ft, err := Build(db, root)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	want := []string{"a/one.txt", "a/sub/three.txt", "b/two.txt", "top.md"}
	if ft.Len() != len(want) {
		t.Fatalf("Len = %d, want %d", ft.Len(), len(want))
	}
	for i, p := range want {
		if ft.Entries()[i].Path != p {
			t.Fatalf("entries[%d].Path = %q, want %q (not sorted or incomplete)", i, ft.Entries()[i].Path, p)
		}
	}

	for _, e := range idx.Entries() {
		h, ok := ft.Lookup(e.Path)
		if !ok {
			t.Fatalf("Lookup(%q) missing from flat tree", e.Path)
		}
		if h != e.Hash {
			t.Fatalf("Lookup(%q) hash mismatch", e.Path)
		}
	}
}

func TestLookupMissingPath(t *testing.T) {
	ft := Empty()
	if _, ok := ft.Lookup("nope"); ok {
		t.Fatal("Lookup on empty tree unexpectedly found a path")
	}
}

func TestBuildCarriesMode(t *testing.T) {
	db := openTempDB(t)
	idx := index.New()
	idx.Add("run.sh", hash.Sum([]byte("#!/bin/sh")), objcodec.ModeExec, 0, 0)

	root, err := idx.WriteTree(db)
	if err != nil {
		t.Fatalf("WriteTree: %v", err)
	}
	if err := db.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	ft, err := Build(db, root)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if ft.Len() != 1 || ft.Entries()[0].Mode != objcodec.ModeExec {
		t.Fatalf("executable mode not preserved through Build: %+v", ft.Entries())
	}
}

func TestDiffEntriesAddedRemovedChanged(t *testing.T) {
	from := []Entry{
		{Path: "a", Hash: hash.Sum([]byte("a1")), Mode: objcodec.ModeFile},
		{Path: "b", Hash: hash.Sum([]byte("b1")), Mode: objcodec.ModeFile},
		{Path: "c", Hash: hash.Sum([]byte("c1")), Mode: objcodec.ModeFile},
	}
	to := []Entry{
		{Path: "a", Hash: hash.Sum([]byte("a1")), Mode: objcodec.ModeFile}, // unchanged
		{Path: "b", Hash: hash.Sum([]byte("b2")), Mode: objcodec.ModeFile}, // changed
		{Path: "d", Hash: hash.Sum([]byte("d1")), Mode: objcodec.ModeFile}, // added
		// "c" removed
	}

	d := DiffEntries(from, to)
	if len(d.Added) != 1 || d.Added[0] != "d" {
		t.Fatalf("Added = %v, want [d]", d.Added)
	}
	if len(d.Removed) != 1 || d.Removed[0] != "c" {
		t.Fatalf("Removed = %v, want [c]", d.Removed)
	}
	if len(d.Changed) != 1 || d.Changed[0] != "b" {
		t.Fatalf("Changed = %v, want [b]", d.Changed)
	}
}

func TestDiffEntriesModeOnlyChangeCounts(t *testing.T) {
	h := hash.Sum([]byte("same content"))
	from := []Entry{{Path: "x", Hash: h, Mode: objcodec.ModeFile}}
	to := []Entry{{Path: "x", Hash: h, Mode: objcodec.ModeExec}}

	d := DiffEntries(from, to)
	if len(d.Changed) != 1 || d.Changed[0] != "x" {
		t.Fatalf("a mode-only difference should count as Changed, got %+v", d)
	}
}
