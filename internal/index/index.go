// Package index implements mog's staging index: a binary-serialised
// snapshot of what is currently staged (parallel per-field arrays on disk,
// a single slice of Entry values in memory) with an auxiliary path-hash
// lookup table, and the algorithm that folds a
// sorted flat path list into a hierarchical tree in one pass (spec §4.4).
package index

import (
	"encoding/binary"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/javanhut/mog/internal/hash"
	"github.com/javanhut/mog/internal/mogerr"
	"github.com/javanhut/mog/internal/objcodec"
	"github.com/javanhut/mog/internal/odb"
	"github.com/javanhut/mog/internal/objstore"
)

// Magic and Version identify the on-disk format (spec §4.4, §6).
var Magic = [4]byte{'M', 'O', 'G', 'I'}

const Version uint32 = 1

// Entry is one staged path (spec §3's Index entry).
type Entry struct {
	Mode  uint32
	Hash  hash.Hash
	Mtime int64
	Size  uint64
	Path  string
}

// Index holds the staged set as one slice of Entry structs (not as separate
// per-field arrays) plus an auxiliary path-hash bucket lookup supporting
// O(1) amortised Find.
type Index struct {
	entries []Entry
	buckets map[uint64][]int
}

// New returns an empty index.
func New() *Index {
	return &Index{buckets: make(map[uint64][]int)}
}

func pathHash(path string) uint64 {
	return xxhash.Sum64String(path)
}

// Find locates path, returning its entry index. Implements the
// "xxhash(path) → bucket list, linear-scan bucket with string compare"
// contract of spec §4.4.
func (idx *Index) Find(path string) (int, bool) {
	h := pathHash(path)
	for _, i := range idx.buckets[h] {
		if idx.entries[i].Path == path {
			return i, true
		}
	}
	return -1, false
}

// Get returns a copy of the entry at i.
func (idx *Index) Get(i int) Entry { return idx.entries[i] }

// Len returns the number of staged entries.
func (idx *Index) Len() int { return len(idx.entries) }

// Entries returns a copy of all entries, in current array order (not
// sorted).
func (idx *Index) Entries() []Entry {
	out := make([]Entry, len(idx.entries))
	copy(out, idx.entries)
	return out
}

// Add updates the entry for path in place if present, else appends it and
// indexes it by path hash.
func (idx *Index) Add(path string, h hash.Hash, mode uint32, mtime int64, size uint64) {
	if i, ok := idx.Find(path); ok {
		idx.entries[i] = Entry{Mode: mode, Hash: h, Mtime: mtime, Size: size, Path: path}
		return
	}
	i := len(idx.entries)
	idx.entries = append(idx.entries, Entry{Mode: mode, Hash: h, Mtime: mtime, Size: size, Path: path})
	hv := pathHash(path)
	idx.buckets[hv] = append(idx.buckets[hv], i)
}

// Remove deletes the entry for path, compacting the underlying arrays and
// fixing up the path-hash index (indices greater than the removed one shift
// down by one). Returns false if path was not staged.
func (idx *Index) Remove(path string) bool {
	i, ok := idx.Find(path)
	if !ok {
		return false
	}
	idx.entries = append(idx.entries[:i], idx.entries[i+1:]...)
	idx.rebuildBuckets()
	return true
}

func (idx *Index) rebuildBuckets() {
	idx.buckets = make(map[uint64][]int, len(idx.entries))
	for i, e := range idx.entries {
		hv := pathHash(e.Path)
		idx.buckets[hv] = append(idx.buckets[hv], i)
	}
}

// IsDirty reports whether the on-disk metadata (mtime, size) for entry i
// differs from what the index last recorded.
func (idx *Index) IsDirty(i int, mtime int64, size uint64) bool {
	e := idx.entries[i]
	return e.Mtime != mtime || e.Size != size
}

// Save serialises the index to path in the layout of spec §4.4.
func (idx *Index) Save(path string) error {
	n := uint32(len(idx.entries))

	var header [12]byte
	copy(header[0:4], Magic[:])
	binary.LittleEndian.PutUint32(header[4:8], Version)
	binary.LittleEndian.PutUint32(header[8:12], n)

	buf := make([]byte, 0, 12+int(n)*(4+hash.Size+8+8+4)+16)
	buf = append(buf, header[:]...)

	for _, e := range idx.entries {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], e.Mode)
		buf = append(buf, b[:]...)
	}
	for _, e := range idx.entries {
		buf = append(buf, e.Hash[:]...)
	}
	for _, e := range idx.entries {
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], uint64(e.Mtime))
		buf = append(buf, b[:]...)
	}
	for _, e := range idx.entries {
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], e.Size)
		buf = append(buf, b[:]...)
	}

	var pathsBlob []byte
	offsets := make([]uint32, n)
	for i, e := range idx.entries {
		offsets[i] = uint32(len(pathsBlob))
		pathsBlob = append(pathsBlob, e.Path...)
	}
	for _, off := range offsets {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], off)
		buf = append(buf, b[:]...)
	}
	var lenB [4]byte
	binary.LittleEndian.PutUint32(lenB[:], uint32(len(pathsBlob)))
	buf = append(buf, lenB[:]...)
	buf = append(buf, pathsBlob...)

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf, 0o644); err != nil {
		return mogerr.New(mogerr.KindIoError, "index.Save", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return mogerr.New(mogerr.KindIoError, "index.Save", err)
	}
	return nil
}

// Load reads the index at path. A missing file is not an error: it yields
// an empty index (the state of a freshly-initialised repository).
func Load(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(), nil
		}
		return nil, mogerr.New(mogerr.KindIoError, "index.Load", err)
	}
	return Decode(data)
}

// Decode parses a serialised index from data.
func Decode(data []byte) (*Index, error) {
	if len(data) < 12 {
		return nil, mogerr.New(mogerr.KindCorruptIndex, "index.Decode", fmt.Errorf("too short"))
	}
	if string(data[0:4]) != string(Magic[:]) {
		return nil, mogerr.New(mogerr.KindCorruptIndex, "index.Decode", fmt.Errorf("bad magic %q", data[0:4]))
	}
	version := binary.LittleEndian.Uint32(data[4:8])
	if version != Version {
		return nil, mogerr.New(mogerr.KindCorruptIndex, "index.Decode", fmt.Errorf("unsupported version %d", version))
	}
	n := binary.LittleEndian.Uint32(data[8:12])
	off := 12

	need := func(nbytes int) error {
		if off+nbytes > len(data) {
			return mogerr.New(mogerr.KindCorruptIndex, "index.Decode", fmt.Errorf("truncated at offset %d", off))
		}
		return nil
	}

	modes := make([]uint32, n)
	for i := range modes {
		if err := need(4); err != nil {
			return nil, err
		}
		modes[i] = binary.LittleEndian.Uint32(data[off : off+4])
		off += 4
	}
	hashes := make([]hash.Hash, n)
	for i := range hashes {
		if err := need(hash.Size); err != nil {
			return nil, err
		}
		copy(hashes[i][:], data[off:off+hash.Size])
		off += hash.Size
	}
	mtimes := make([]int64, n)
	for i := range mtimes {
		if err := need(8); err != nil {
			return nil, err
		}
		mtimes[i] = int64(binary.LittleEndian.Uint64(data[off : off+8]))
		off += 8
	}
	sizes := make([]uint64, n)
	for i := range sizes {
		if err := need(8); err != nil {
			return nil, err
		}
		sizes[i] = binary.LittleEndian.Uint64(data[off : off+8])
		off += 8
	}
	offsets := make([]uint32, n)
	for i := range offsets {
		if err := need(4); err != nil {
			return nil, err
		}
		offsets[i] = binary.LittleEndian.Uint32(data[off : off+4])
		off += 4
	}
	if err := need(4); err != nil {
		return nil, err
	}
	pathsLen := binary.LittleEndian.Uint32(data[off : off+4])
	off += 4
	if err := need(int(pathsLen)); err != nil {
		return nil, err
	}
	pathsBlob := data[off : off+int(pathsLen)]
	off += int(pathsLen)

	idx := New()
	idx.entries = make([]Entry, n)
	for i := uint32(0); i < n; i++ {
		start := offsets[i]
		var end uint32
		if i+1 < n {
			end = offsets[i+1]
		} else {
			end = pathsLen
		}
		if start > end || end > pathsLen {
			return nil, mogerr.New(mogerr.KindCorruptIndex, "index.Decode", fmt.Errorf("bad path offsets for entry %d", i))
		}
		idx.entries[i] = Entry{
			Mode:  modes[i],
			Hash:  hashes[i],
			Mtime: mtimes[i],
			Size:  sizes[i],
			Path:  string(pathsBlob[start:end]),
		}
	}
	idx.rebuildBuckets()
	return idx, nil
}

// frame is one level of the explicit stack used by WriteTree.
type frame struct {
	dirPrefix    string
	entriesBuilt []objstore.TreeEntry
}

func basename(p string) string {
	if i := strings.LastIndexByte(p, '/'); i >= 0 {
		return p[i+1:]
	}
	return p
}

// WriteTree runs the tree-from-index algorithm of spec §4.4: a single
// iterative pass over the sorted staged paths, using an explicit stack of
// frames, producing a root tree hash whose content reflects the current
// staged set. The resulting tree records are written into db.
func (idx *Index) WriteTree(db *odb.DB) (hash.Hash, error) {
	n := len(idx.entries)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return idx.entries[order[a]].Path < idx.entries[order[b]].Path
	})

	build := func(entries []objstore.TreeEntry) (hash.Hash, error) {
		record := objcodec.EncodeTree(entries)
		h := objcodec.HashOf(record)
		if err := db.StageWrite(h, record); err != nil {
			return hash.Hash{}, err
		}
		return h, nil
	}

	stack := []frame{{dirPrefix: ""}}
	i := 0

	for {
		if i >= n {
			if len(stack) == 1 {
				break
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			h, err := build(top.entriesBuilt)
			if err != nil {
				return hash.Hash{}, err
			}
			parent := &stack[len(stack)-1]
			parent.entriesBuilt = append(parent.entriesBuilt, objstore.TreeEntry{
				Mode: objcodec.ModeDir, Hash: h, Name: basename(top.dirPrefix),
			})
			continue
		}

		path := idx.entries[order[i]].Path
		top := &stack[len(stack)-1]

		if top.dirPrefix != "" && !strings.HasPrefix(path, top.dirPrefix+"/") {
			finished := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			h, err := build(finished.entriesBuilt)
			if err != nil {
				return hash.Hash{}, err
			}
			parent := &stack[len(stack)-1]
			parent.entriesBuilt = append(parent.entriesBuilt, objstore.TreeEntry{
				Mode: objcodec.ModeDir, Hash: h, Name: basename(finished.dirPrefix),
			})
			continue
		}

		rel := path
		if top.dirPrefix != "" {
			rel = path[len(top.dirPrefix)+1:]
		}

		if slash := strings.IndexByte(rel, '/'); slash < 0 {
			e := idx.entries[order[i]]
			top.entriesBuilt = append(top.entriesBuilt, objstore.TreeEntry{
				Mode: e.Mode, Hash: e.Hash, Name: rel,
			})
			i++
		} else {
			component := rel[:slash]
			newPrefix := component
			if top.dirPrefix != "" {
				newPrefix = top.dirPrefix + "/" + component
			}
			stack = append(stack, frame{dirPrefix: newPrefix})
		}
	}

	root := stack[0]
	return build(root.entriesBuilt)
}
