package odb

import (
	"path/filepath"
	"testing"

	"github.com/javanhut/mog/internal/hash"
)

func openTemp(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "objects.bin")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestStageWriteFlushRead(t *testing.T) {
	db := openTemp(t)

	content := []byte("first record")
	h := hash.Sum(content)
	if err := db.StageWrite(h, content); err != nil {
		t.Fatalf("StageWrite: %v", err)
	}
	if err := db.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	got, err := db.Read(h)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Fatalf("Read = %q, want %q", got, content)
	}
}

func TestExistsBeforeAndAfterFlush(t *testing.T) {
	db := openTemp(t)
	content := []byte("exists check")
	h := hash.Sum(content)

	if ok, err := db.Exists(h); err != nil || ok {
		t.Fatalf("Exists before write = %v, %v; want false, nil", ok, err)
	}
	if err := db.StageWrite(h, content); err != nil {
		t.Fatalf("StageWrite: %v", err)
	}
	if err := db.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if ok, err := db.Exists(h); err != nil || !ok {
		t.Fatalf("Exists after flush = %v, %v; want true, nil", ok, err)
	}
}

func TestDedupSameHashWrittenOnce(t *testing.T) {
	db := openTemp(t)
	content := []byte("duplicate content")
	h := hash.Sum(content)

	if err := db.StageWrite(h, content); err != nil {
		t.Fatalf("StageWrite 1: %v", err)
	}
	if err := db.StageWrite(h, content); err != nil {
		t.Fatalf("StageWrite 2: %v", err)
	}
	if err := db.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	before := db.Count()

	if err := db.StageWrite(h, content); err != nil {
		t.Fatalf("StageWrite 3: %v", err)
	}
	if err := db.Flush(); err != nil {
		t.Fatalf("Flush 2: %v", err)
	}
	if db.Count() != before {
		t.Fatalf("Count changed after re-staging an existing hash: %d -> %d", before, db.Count())
	}
}

func TestReadMissingIsNotFound(t *testing.T) {
	db := openTemp(t)
	var h hash.Hash
	h[0] = 0xab
	if _, err := db.Read(h); err == nil {
		t.Fatal("expected error reading a hash that was never written")
	}
}

func TestReopenPersistsRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "objects.bin")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	content := []byte("persisted across reopen")
	h := hash.Sum(content)
	if err := db.StageWrite(h, content); err != nil {
		t.Fatalf("StageWrite: %v", err)
	}
	if err := db.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	db2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db2.Close()

	got, err := db2.Read(h)
	if err != nil {
		t.Fatalf("Read after reopen: %v", err)
	}
	if string(got) != string(content) {
		t.Fatalf("Read after reopen = %q, want %q", got, content)
	}
}
