// Package objcodec implements mog's object record encoding: a fixed
// magic+tag+payload layout for blobs, trees, and commits, and the decoders
// that push a record's payload into the in-memory structure-of-arrays
// stores. The codec and the hasher must agree byte-for-byte, since an
// object's hash is defined as the hash of its encoded record.
package objcodec

import (
	"fmt"

	"github.com/javanhut/mog/internal/hash"
	"github.com/javanhut/mog/internal/objstore"
	"github.com/javanhut/mog/internal/wire"
)

// Magic is the 4-byte literal that opens every encoded record.
var Magic = [4]byte{'M', 'O', 'G', '1'}

// Tag identifies which object variant a record holds.
type Tag byte

const (
	TagBlob   Tag = 0x01
	TagTree   Tag = 0x02
	TagCommit Tag = 0x04
)

// Mode constants for tree entries (§3).
const (
	ModeFile   uint32 = 0o100644
	ModeExec   uint32 = 0o100755
	ModeDir    uint32 = 0o040000
	ModeSymlnk uint32 = 0o120000 // reserved; symlinks are a spec Non-goal
)

// EncodeBlob returns the encoded record for a blob's content.
func EncodeBlob(content []byte) []byte {
	w := wire.NewWriter(5 + 8 + len(content))
	w.Raw(Magic[:])
	w.Raw([]byte{byte(TagBlob)})
	w.U64(uint64(len(content)))
	w.Raw(content)
	return w.Bytes()
}

// EncodeTree returns the encoded record for a tree's entry list, in the
// order supplied by the caller.
func EncodeTree(entries []objstore.TreeEntry) []byte {
	w := wire.NewWriter(256)
	w.Raw(Magic[:])
	w.Raw([]byte{byte(TagTree)})
	w.U32(uint32(len(entries)))
	for _, e := range entries {
		w.U32(e.Mode)
	}
	for _, e := range entries {
		w.Hash(e.Hash)
	}
	var namesBlob []byte
	offsets := make([]uint32, len(entries))
	for i, e := range entries {
		offsets[i] = uint32(len(namesBlob))
		namesBlob = append(namesBlob, e.Name...)
	}
	for _, off := range offsets {
		w.U32(off)
	}
	w.U32(uint32(len(namesBlob)))
	w.Raw(namesBlob)
	return w.Bytes()
}

// EncodeCommit returns the encoded record for a commit.
func EncodeCommit(c objstore.Commit) []byte {
	w := wire.NewWriter(256)
	w.Raw(Magic[:])
	w.Raw([]byte{byte(TagCommit)})
	w.Hash(c.Tree)
	w.U32(uint32(len(c.Parents)))
	for _, p := range c.Parents {
		w.Hash(p)
	}
	w.I64(c.Timestamp)
	w.String(c.Author)
	w.String(c.Message)
	return w.Bytes()
}

// HashOf returns the content hash of an already-encoded record.
func HashOf(record []byte) hash.Hash {
	return hash.Sum(record)
}

// ErrNotATree is returned by DecodeTreePayload-consuming callers when a
// record's tag doesn't match the expected variant (spec §7 TypeMismatch).
var ErrNotATree = fmt.Errorf("objcodec: not a tree record")

// SplitRecord validates a record's magic and returns its tag and payload
// (the bytes after the 5-byte magic+tag header), without pushing into any
// store. Used by callers (e.g. flattree) that only need to read a single
// record's shape, not maintain a decoded arena.
func SplitRecord(record []byte) (Tag, []byte, error) {
	if len(record) < 5 {
		return 0, nil, fmt.Errorf("objcodec: record too short")
	}
	if string(record[0:4]) != string(Magic[:]) {
		return 0, nil, fmt.Errorf("objcodec: bad magic %q", record[0:4])
	}
	return Tag(record[4]), record[5:], nil
}

// DecodeTreePayload decodes a tree record's payload (as split out by
// SplitRecord) directly into a TreeEntry slice, without a TreeStore.
func DecodeTreePayload(payload []byte) ([]objstore.TreeEntry, error) {
	r := wire.NewReader(payload)
	n, err := r.U32()
	if err != nil {
		return nil, fmt.Errorf("objcodec: tree count: %w", err)
	}
	modes := make([]uint32, n)
	for i := range modes {
		if modes[i], err = r.U32(); err != nil {
			return nil, fmt.Errorf("objcodec: tree mode %d: %w", i, err)
		}
	}
	hashes := make([]hash.Hash, n)
	for i := range hashes {
		if hashes[i], err = r.Hash(); err != nil {
			return nil, fmt.Errorf("objcodec: tree hash %d: %w", i, err)
		}
	}
	offsets := make([]uint32, n)
	for i := range offsets {
		if offsets[i], err = r.U32(); err != nil {
			return nil, fmt.Errorf("objcodec: tree name offset %d: %w", i, err)
		}
	}
	namesLen, err := r.U32()
	if err != nil {
		return nil, fmt.Errorf("objcodec: tree names_len: %w", err)
	}
	names, err := r.Bytes(int(namesLen))
	if err != nil {
		return nil, fmt.Errorf("objcodec: tree names blob: %w", err)
	}
	entries := make([]objstore.TreeEntry, n)
	for i := uint32(0); i < n; i++ {
		start := offsets[i]
		var end uint32
		if i+1 < n {
			end = offsets[i+1]
		} else {
			end = namesLen
		}
		entries[i] = objstore.TreeEntry{Mode: modes[i], Hash: hashes[i], Name: string(names[start:end])}
	}
	return entries, nil
}

// ErrNotACommit is returned when a record's tag isn't a commit.
var ErrNotACommit = fmt.Errorf("objcodec: not a commit record")

// DecodeCommitPayload decodes a commit record's payload (as split out by
// SplitRecord) directly into an objstore.Commit, without a CommitStore.
func DecodeCommitPayload(payload []byte) (objstore.Commit, error) {
	r := wire.NewReader(payload)
	tree, err := r.Hash()
	if err != nil {
		return objstore.Commit{}, fmt.Errorf("objcodec: commit tree: %w", err)
	}
	pc, err := r.U32()
	if err != nil {
		return objstore.Commit{}, fmt.Errorf("objcodec: commit parent count: %w", err)
	}
	parents := make([]hash.Hash, pc)
	for i := range parents {
		if parents[i], err = r.Hash(); err != nil {
			return objstore.Commit{}, fmt.Errorf("objcodec: commit parent %d: %w", i, err)
		}
	}
	ts, err := r.I64()
	if err != nil {
		return objstore.Commit{}, fmt.Errorf("objcodec: commit timestamp: %w", err)
	}
	author, err := r.String()
	if err != nil {
		return objstore.Commit{}, fmt.Errorf("objcodec: commit author: %w", err)
	}
	message, err := r.String()
	if err != nil {
		return objstore.Commit{}, fmt.Errorf("objcodec: commit message: %w", err)
	}
	return objstore.Commit{Tree: tree, Parents: parents, Timestamp: ts, Author: author, Message: message}, nil
}

// DecodeBlobPayload decodes a blob record's payload (as split out by
// SplitRecord) into its raw content bytes.
func DecodeBlobPayload(payload []byte) ([]byte, error) {
	r := wire.NewReader(payload)
	length, err := r.U64()
	if err != nil {
		return nil, fmt.Errorf("objcodec: blob length: %w", err)
	}
	content, err := r.Bytes(int(length))
	if err != nil {
		return nil, fmt.Errorf("objcodec: blob content: %w", err)
	}
	out := make([]byte, len(content))
	copy(out, content)
	return out, nil
}

// Decode validates a record's magic and tag, dispatches to the matching
// payload decoder, pushes the decoded entity into stores, and returns the
// resulting Object handle.
func Decode(record []byte, stores *objstore.Stores) (objstore.Object, error) {
	r := wire.NewReader(record)
	magic, err := r.Bytes(4)
	if err != nil {
		return objstore.Object{}, fmt.Errorf("objcodec: read magic: %w", err)
	}
	if string(magic) != string(Magic[:]) {
		return objstore.Object{}, fmt.Errorf("objcodec: bad magic %q", magic)
	}
	tagB, err := r.Bytes(1)
	if err != nil {
		return objstore.Object{}, fmt.Errorf("objcodec: read tag: %w", err)
	}
	switch Tag(tagB[0]) {
	case TagBlob:
		id, err := decodeBlob(r, stores.Blobs)
		if err != nil {
			return objstore.Object{}, err
		}
		return objstore.Object{Kind: objstore.KindBlob, ID: id}, nil
	case TagTree:
		id, err := decodeTree(r, stores.Trees)
		if err != nil {
			return objstore.Object{}, err
		}
		return objstore.Object{Kind: objstore.KindTree, ID: id}, nil
	case TagCommit:
		id, err := decodeCommit(r, stores.Commits)
		if err != nil {
			return objstore.Object{}, err
		}
		return objstore.Object{Kind: objstore.KindCommit, ID: id}, nil
	default:
		return objstore.Object{}, fmt.Errorf("objcodec: unknown tag 0x%02x", tagB[0])
	}
}

func decodeBlob(r *wire.Reader, store *objstore.BlobStore) (uint32, error) {
	length, err := r.U64()
	if err != nil {
		return 0, fmt.Errorf("objcodec: blob length: %w", err)
	}
	content, err := r.Bytes(int(length))
	if err != nil {
		return 0, fmt.Errorf("objcodec: blob content: %w", err)
	}
	return store.Push(content), nil
}

func decodeTree(r *wire.Reader, store *objstore.TreeStore) (uint32, error) {
	n, err := r.U32()
	if err != nil {
		return 0, fmt.Errorf("objcodec: tree count: %w", err)
	}
	modes := make([]uint32, n)
	for i := range modes {
		modes[i], err = r.U32()
		if err != nil {
			return 0, fmt.Errorf("objcodec: tree mode %d: %w", i, err)
		}
	}
	hashes := make([]hash.Hash, n)
	for i := range hashes {
		hashes[i], err = r.Hash()
		if err != nil {
			return 0, fmt.Errorf("objcodec: tree hash %d: %w", i, err)
		}
	}
	offsets := make([]uint32, n)
	for i := range offsets {
		offsets[i], err = r.U32()
		if err != nil {
			return 0, fmt.Errorf("objcodec: tree name offset %d: %w", i, err)
		}
	}
	namesLen, err := r.U32()
	if err != nil {
		return 0, fmt.Errorf("objcodec: tree names_len: %w", err)
	}
	names, err := r.Bytes(int(namesLen))
	if err != nil {
		return 0, fmt.Errorf("objcodec: tree names blob: %w", err)
	}

	entries := make([]objstore.TreeEntry, n)
	for i := uint32(0); i < n; i++ {
		start := offsets[i]
		var end uint32
		if i+1 < n {
			end = offsets[i+1]
		} else {
			end = namesLen
		}
		entries[i] = objstore.TreeEntry{
			Mode: modes[i],
			Hash: hashes[i],
			Name: string(names[start:end]),
		}
	}
	return store.Push(entries), nil
}

func decodeCommit(r *wire.Reader, store *objstore.CommitStore) (uint32, error) {
	tree, err := r.Hash()
	if err != nil {
		return 0, fmt.Errorf("objcodec: commit tree: %w", err)
	}
	pc, err := r.U32()
	if err != nil {
		return 0, fmt.Errorf("objcodec: commit parent count: %w", err)
	}
	parents := make([]hash.Hash, pc)
	for i := range parents {
		parents[i], err = r.Hash()
		if err != nil {
			return 0, fmt.Errorf("objcodec: commit parent %d: %w", i, err)
		}
	}
	ts, err := r.I64()
	if err != nil {
		return 0, fmt.Errorf("objcodec: commit timestamp: %w", err)
	}
	author, err := r.String()
	if err != nil {
		return 0, fmt.Errorf("objcodec: commit author: %w", err)
	}
	message, err := r.String()
	if err != nil {
		return 0, fmt.Errorf("objcodec: commit message: %w", err)
	}
	return store.Push(objstore.Commit{
		Tree:      tree,
		Parents:   parents,
		Timestamp: ts,
		Author:    author,
		Message:   message,
	}), nil
}
