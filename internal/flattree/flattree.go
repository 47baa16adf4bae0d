// Package flattree materialises a commit's tree as a sorted (path, hash)
// list of every blob reachable from its root, for O(log n) lookup during
// status and diff (spec §4.5).
package flattree

import (
	"sort"

	"github.com/javanhut/mog/internal/hash"
	"github.com/javanhut/mog/internal/objcodec"
	"github.com/javanhut/mog/internal/objstore"
	"github.com/javanhut/mog/internal/odb"
)

// Entry is one blob reachable from a tree root. Mode is carried alongside
// path+hash (a superset of spec §4.5's minimal description) so checkout can
// restore the executable bit without a second tree walk.
type Entry struct {
	Path string
	Hash hash.Hash
	Mode uint32
}

// FlatTree is a sorted-by-path view supporting binary-search lookup.
type FlatTree struct {
	entries []Entry
}

// Empty returns a FlatTree with no entries, used when there is no HEAD yet.
func Empty() *FlatTree { return &FlatTree{} }

// Len returns the number of blob entries.
func (f *FlatTree) Len() int { return len(f.entries) }

// Entries returns the sorted entry list.
func (f *FlatTree) Entries() []Entry { return f.entries }

// Lookup binary-searches for path, returning its hash if present.
func (f *FlatTree) Lookup(path string) (hash.Hash, bool) {
	i := sort.Search(len(f.entries), func(i int) bool { return f.entries[i].Path >= path })
	if i < len(f.entries) && f.entries[i].Path == path {
		return f.entries[i].Hash, true
	}
	return hash.Hash{}, false
}

type stackFrame struct {
	treeHash hash.Hash
	prefix   string
}

// Build walks the tree rooted at root (an iterative DFS over an explicit
// stack, per spec §4.5), decoding tree records from db on demand, and
// returns the sorted flat view.
func Build(db *odb.DB, root hash.Hash) (*FlatTree, error) {
	var out []Entry
	stack := []stackFrame{{treeHash: root, prefix: ""}}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		record, err := db.Read(top.treeHash)
		if err != nil {
			return nil, err
		}
		entries, err := decodeTreeEntries(record)
		if err != nil {
			return nil, err
		}

		for _, e := range entries {
			path := e.Name
			if top.prefix != "" {
				path = top.prefix + "/" + e.Name
			}
			if e.Mode == objcodec.ModeDir {
				stack = append(stack, stackFrame{treeHash: e.Hash, prefix: path})
			} else {
				out = append(out, Entry{Path: path, Hash: e.Hash, Mode: e.Mode})
			}
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return &FlatTree{entries: out}, nil
}

// Diff compares two flat views by path, per spec §6's "core provides the
// three flat views" (index, HEAD flat tree, disk): Added holds paths only in
// to, Removed holds paths only in from, Changed holds paths in both whose
// hash or mode differs.
type Diff struct {
	Added   []string
	Removed []string
	Changed []string
}

// DiffEntries compares two sorted-by-path entry slices (any of the three
// flat views reduces to this shape) and returns the Added/Removed/Changed
// path buckets.
func DiffEntries(from, to []Entry) Diff {
	var d Diff
	i, j := 0, 0
	for i < len(from) && j < len(to) {
		switch {
		case from[i].Path < to[j].Path:
			d.Removed = append(d.Removed, from[i].Path)
			i++
		case from[i].Path > to[j].Path:
			d.Added = append(d.Added, to[j].Path)
			j++
		default:
			if from[i].Hash != to[j].Hash || from[i].Mode != to[j].Mode {
				d.Changed = append(d.Changed, from[i].Path)
			}
			i++
			j++
		}
	}
	for ; i < len(from); i++ {
		d.Removed = append(d.Removed, from[i].Path)
	}
	for ; j < len(to); j++ {
		d.Added = append(d.Added, to[j].Path)
	}
	return d
}

func decodeTreeEntries(record []byte) ([]objstore.TreeEntry, error) {
	tag, payload, err := objcodec.SplitRecord(record)
	if err != nil {
		return nil, err
	}
	if tag != objcodec.TagTree {
		return nil, objcodec.ErrNotATree
	}
	return objcodec.DecodeTreePayload(payload)
}
