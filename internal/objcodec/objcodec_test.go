package objcodec

import (
	"testing"

	"github.com/javanhut/mog/internal/hash"
	"github.com/javanhut/mog/internal/objstore"
)

func TestBlobRoundTrip(t *testing.T) {
	content := []byte("hello, mog")
	record := EncodeBlob(content)

	tag, payload, err := SplitRecord(record)
	if err != nil {
		t.Fatalf("SplitRecord: %v", err)
	}
	if tag != TagBlob {
		t.Fatalf("tag = %v, want TagBlob", tag)
	}
	got, err := DecodeBlobPayload(payload)
	if err != nil {
		t.Fatalf("DecodeBlobPayload: %v", err)
	}
	if string(got) != string(content) {
		t.Fatalf("blob round trip mismatch: got %q, want %q", got, content)
	}

	stores := objstore.New()
	obj, err := Decode(record, stores)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if obj.Kind != objstore.KindBlob {
		t.Fatalf("Decode kind = %v, want KindBlob", obj.Kind)
	}
	if string(stores.Blobs.Get(obj.ID)) != string(content) {
		t.Fatalf("stores.Blobs content mismatch")
	}
}

func TestTreeRoundTrip(t *testing.T) {
	entries := []objstore.TreeEntry{
		{Mode: ModeFile, Hash: hash.Sum([]byte("a")), Name: "a.txt"},
		{Mode: ModeExec, Hash: hash.Sum([]byte("b")), Name: "run.sh"},
		{Mode: ModeDir, Hash: hash.Sum([]byte("c")), Name: "subdir"},
	}
	record := EncodeTree(entries)

	tag, payload, err := SplitRecord(record)
	if err != nil {
		t.Fatalf("SplitRecord: %v", err)
	}
	if tag != TagTree {
		t.Fatalf("tag = %v, want TagTree", tag)
	}
	got, err := DecodeTreePayload(payload)
	if err != nil {
		t.Fatalf("DecodeTreePayload: %v", err)
	}
	if len(got) != len(entries) {
		t.Fatalf("decoded %d entries, want %d", len(got), len(entries))
	}
	for i, e := range entries {
		if got[i] != e {
			t.Fatalf("entry %d = %+v, want %+v", i, got[i], e)
		}
	}
}

func TestCommitRoundTrip(t *testing.T) {
	c := objstore.Commit{
		Tree:      hash.Sum([]byte("tree")),
		Parents:   []hash.Hash{hash.Sum([]byte("p1")), hash.Sum([]byte("p2"))},
		Timestamp: 1700000000,
		Author:    "Ada Lovelace <ada@example.com>",
		Message:   "initial commit",
	}
	record := EncodeCommit(c)

	tag, payload, err := SplitRecord(record)
	if err != nil {
		t.Fatalf("SplitRecord: %v", err)
	}
	if tag != TagCommit {
		t.Fatalf("tag = %v, want TagCommit", tag)
	}
	got, err := DecodeCommitPayload(payload)
	if err != nil {
		t.Fatalf("DecodeCommitPayload: %v", err)
	}
	if got.Tree != c.Tree || got.Author != c.Author || got.Message != c.Message || got.Timestamp != c.Timestamp {
		t.Fatalf("commit round trip mismatch: got %+v, want %+v", got, c)
	}
	if len(got.Parents) != len(c.Parents) || got.Parents[0] != c.Parents[0] || got.Parents[1] != c.Parents[1] {
		t.Fatalf("commit parents mismatch: got %v, want %v", got.Parents, c.Parents)
	}
}

func TestHashOfIsContentAddressed(t *testing.T) {
	r1 := EncodeBlob([]byte("same"))
	r2 := EncodeBlob([]byte("same"))
	if HashOf(r1) != HashOf(r2) {
		t.Fatal("identical blob content produced different hashes")
	}
	r3 := EncodeBlob([]byte("different"))
	if HashOf(r1) == HashOf(r3) {
		t.Fatal("different blob content produced the same hash")
	}
}

func TestSplitRecordRejectsBadMagic(t *testing.T) {
	bad := []byte("XXXX\x01restofrecord")
	if _, _, err := SplitRecord(bad); err == nil {
		t.Fatal("expected error for bad magic")
	}
}

func TestSplitRecordRejectsShortRecord(t *testing.T) {
	if _, _, err := SplitRecord([]byte("MO")); err == nil {
		t.Fatal("expected error for too-short record")
	}
}

func TestDecodeTreePayloadRejectsWrongTag(t *testing.T) {
	record := EncodeBlob([]byte("not a tree"))
	tag, payload, err := SplitRecord(record)
	if err != nil {
		t.Fatalf("SplitRecord: %v", err)
	}
	if tag == TagTree {
		t.Fatal("expected blob tag, not tree")
	}
	if _, err := DecodeTreePayload(payload); err == nil {
		t.Fatal("expected DecodeTreePayload to fail on blob payload")
	}
}
