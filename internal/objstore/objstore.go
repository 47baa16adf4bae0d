// Package objstore implements the structure-of-arrays in-memory arenas that
// hold decoded blob/tree/commit objects for the lifetime of a process. Each
// store owns parallel flat arrays keyed by a dense uint32 id; ids are
// assigned by Push and never recycled.
package objstore

import "github.com/javanhut/mog/internal/hash"

// Kind tags which store an Object's id refers to.
type Kind uint8

const (
	KindBlob Kind = iota
	KindTree
	KindCommit
)

// Object is a small tagged handle: a Kind plus a dense id into the matching
// store. Cheap to copy, carries no pointer.
type Object struct {
	Kind Kind
	ID   uint32
}

// BlobStore holds blob byte contents packed into a single arena.
type BlobStore struct {
	starts  []uint64
	lengths []uint64
	data    []byte
}

// NewBlobStore returns an empty BlobStore.
func NewBlobStore() *BlobStore {
	return &BlobStore{}
}

// Push appends content and returns its dense id.
func (s *BlobStore) Push(content []byte) uint32 {
	id := uint32(len(s.starts))
	s.starts = append(s.starts, uint64(len(s.data)))
	s.lengths = append(s.lengths, uint64(len(content)))
	s.data = append(s.data, content...)
	return id
}

// Get returns the content for id. The returned slice aliases the arena.
func (s *BlobStore) Get(id uint32) []byte {
	start := s.starts[id]
	length := s.lengths[id]
	return s.data[start : start+length]
}

// Len returns the number of blobs pushed.
func (s *BlobStore) Len() int { return len(s.starts) }

// TreeEntry is one named entry of a tree, as returned by TreeStore.Entries.
type TreeEntry struct {
	Mode uint32
	Hash hash.Hash
	Name string
}

// TreeStore holds tree entry lists packed into parallel arenas.
type TreeStore struct {
	entryStart []uint32
	entryLen   []uint32

	modes      []uint32
	hashes     []hash.Hash
	nameStart  []uint32
	nameLen    []uint32
	namesBlob  []byte
}

// NewTreeStore returns an empty TreeStore.
func NewTreeStore() *TreeStore {
	return &TreeStore{}
}

// Push appends a tree's entry list (in the caller-supplied order) and
// returns its dense id.
func (s *TreeStore) Push(entries []TreeEntry) uint32 {
	id := uint32(len(s.entryStart))
	s.entryStart = append(s.entryStart, uint32(len(s.modes)))
	s.entryLen = append(s.entryLen, uint32(len(entries)))
	for _, e := range entries {
		s.modes = append(s.modes, e.Mode)
		s.hashes = append(s.hashes, e.Hash)
		s.nameStart = append(s.nameStart, uint32(len(s.namesBlob)))
		s.nameLen = append(s.nameLen, uint32(len(e.Name)))
		s.namesBlob = append(s.namesBlob, e.Name...)
	}
	return id
}

// Entries returns the entry list for id, in original construction order.
func (s *TreeStore) Entries(id uint32) []TreeEntry {
	start := s.entryStart[id]
	n := s.entryLen[id]
	out := make([]TreeEntry, n)
	for i := uint32(0); i < n; i++ {
		idx := start + i
		ns := s.nameStart[idx]
		nl := s.nameLen[idx]
		out[i] = TreeEntry{
			Mode: s.modes[idx],
			Hash: s.hashes[idx],
			Name: string(s.namesBlob[ns : ns+nl]),
		}
	}
	return out
}

// Len returns the number of trees pushed.
func (s *TreeStore) Len() int { return len(s.entryStart) }

// Commit mirrors the fields of a decoded commit object.
type Commit struct {
	Tree      hash.Hash
	Parents   []hash.Hash
	Timestamp int64
	Author    string
	Message   string
}

// CommitStore holds commit metadata packed into parallel arenas.
type CommitStore struct {
	tree        []hash.Hash
	parentStart []uint32
	parentCount []uint32
	parents     []hash.Hash
	timestamp   []int64

	authorStart  []uint32
	authorLen    []uint32
	messageStart []uint32
	messageLen   []uint32
	strings      []byte
}

// NewCommitStore returns an empty CommitStore.
func NewCommitStore() *CommitStore {
	return &CommitStore{}
}

// Push appends a commit and returns its dense id.
func (s *CommitStore) Push(c Commit) uint32 {
	id := uint32(len(s.tree))
	s.tree = append(s.tree, c.Tree)
	s.parentStart = append(s.parentStart, uint32(len(s.parents)))
	s.parentCount = append(s.parentCount, uint32(len(c.Parents)))
	s.parents = append(s.parents, c.Parents...)
	s.timestamp = append(s.timestamp, c.Timestamp)

	s.authorStart = append(s.authorStart, uint32(len(s.strings)))
	s.authorLen = append(s.authorLen, uint32(len(c.Author)))
	s.strings = append(s.strings, c.Author...)

	s.messageStart = append(s.messageStart, uint32(len(s.strings)))
	s.messageLen = append(s.messageLen, uint32(len(c.Message)))
	s.strings = append(s.strings, c.Message...)

	return id
}

// Get reconstructs the Commit value for id.
func (s *CommitStore) Get(id uint32) Commit {
	ps := s.parentStart[id]
	pc := s.parentCount[id]
	parents := make([]hash.Hash, pc)
	copy(parents, s.parents[ps:ps+pc])

	as, al := s.authorStart[id], s.authorLen[id]
	ms, ml := s.messageStart[id], s.messageLen[id]

	return Commit{
		Tree:      s.tree[id],
		Parents:   parents,
		Timestamp: s.timestamp[id],
		Author:    string(s.strings[as : as+al]),
		Message:   string(s.strings[ms : ms+ml]),
	}
}

// Len returns the number of commits pushed.
func (s *CommitStore) Len() int { return len(s.tree) }

// Stores bundles the three arenas a Repository keeps open for its lifetime.
type Stores struct {
	Blobs   *BlobStore
	Trees   *TreeStore
	Commits *CommitStore
}

// New returns a fresh, empty set of stores.
func New() *Stores {
	return &Stores{
		Blobs:   NewBlobStore(),
		Trees:   NewTreeStore(),
		Commits: NewCommitStore(),
	}
}
