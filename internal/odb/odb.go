// Package odb implements mog's single-file object database: an append-only
// store of variable-size encoded records addressed by 256-bit content hash,
// backed by an in-file open-addressed hash table and read through mmap with
// explicit page-cache eviction of cold data (spec §4.1).
package odb

import (
	"encoding/binary"
	"fmt"
	"os"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/javanhut/mog/internal/hash"
	"github.com/javanhut/mog/internal/mogerr"
)

const (
	headerLen   = 128
	numBuckets  = 1 << 21 // 2^21 buckets
	bucketBytes = 8
	tableBytes  = numBuckets * bucketBytes
	// DataStart is the byte offset where the first record may live.
	DataStart = headerLen + tableBytes

	recordHeaderLen = hash.Size + 4 // 32B hash + u32 LE size
)

// Magic and Version identify the on-disk format (§4.1, §6).
var Magic = [4]byte{'M', 'O', 'G', 'D'}

const Version uint32 = 1

// DB is an open object database. All mutation of shared state (mmap,
// pending queue, header, hash table) happens on whichever goroutine calls
// into DB; callers are expected to serialize access to a single DB the way
// spec §5 mandates a single coordinator thread.
type DB struct {
	path string
	f    *os.File
	data []byte // mmap of the whole file

	mu         sync.Mutex
	count      uint64
	pending    []pendingRecord
	pendingSet map[hash.Hash]struct{}
}

type pendingRecord struct {
	Hash    hash.Hash
	Encoded []byte
}

// Open opens (creating if necessary) the object database file at path.
func Open(path string) (*DB, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, mogerr.New(mogerr.KindIoError, "odb.Open", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, mogerr.New(mogerr.KindIoError, "odb.Open", err)
	}

	db := &DB{path: path, f: f, pendingSet: make(map[hash.Hash]struct{})}

	if info.Size() == 0 {
		if err := db.initEmpty(); err != nil {
			f.Close()
			return nil, err
		}
	}

	if err := db.mmapAll(); err != nil {
		f.Close()
		return nil, err
	}

	if err := db.readHeader(); err != nil {
		db.munmap()
		f.Close()
		return nil, err
	}

	return db, nil
}

func (db *DB) initEmpty() error {
	if err := db.f.Truncate(int64(DataStart)); err != nil {
		return mogerr.New(mogerr.KindIoError, "odb.initEmpty", err)
	}
	var header [headerLen]byte
	copy(header[0:4], Magic[:])
	binary.LittleEndian.PutUint32(header[4:8], Version)
	binary.LittleEndian.PutUint64(header[8:16], 0)
	binary.LittleEndian.PutUint64(header[16:24], uint64(DataStart))
	if _, err := db.f.WriteAt(header[:], 0); err != nil {
		return mogerr.New(mogerr.KindIoError, "odb.initEmpty", err)
	}
	if err := db.f.Sync(); err != nil {
		return mogerr.New(mogerr.KindIoError, "odb.initEmpty", err)
	}
	return nil
}

func (db *DB) mmapAll() error {
	info, err := db.f.Stat()
	if err != nil {
		return mogerr.New(mogerr.KindIoError, "odb.mmapAll", err)
	}
	size := info.Size()
	if size < int64(DataStart) {
		return mogerr.New(mogerr.KindCorruptObjectDatabase, "odb.mmapAll", fmt.Errorf("file shorter than header+table: %d", size))
	}
	data, err := unix.Mmap(int(db.f.Fd()), 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return mogerr.New(mogerr.KindIoError, "odb.mmapAll", err)
	}
	db.data = data
	return nil
}

func (db *DB) munmap() {
	if db.data != nil {
		_ = unix.Munmap(db.data)
		db.data = nil
	}
}

func (db *DB) readHeader() error {
	if len(db.data) < headerLen {
		return mogerr.New(mogerr.KindCorruptObjectDatabase, "odb.readHeader", fmt.Errorf("file too short"))
	}
	if string(db.data[0:4]) != string(Magic[:]) {
		return mogerr.New(mogerr.KindCorruptObjectDatabase, "odb.readHeader", fmt.Errorf("bad magic %q", db.data[0:4]))
	}
	version := binary.LittleEndian.Uint32(db.data[4:8])
	if version != Version {
		return mogerr.New(mogerr.KindCorruptObjectDatabase, "odb.readHeader", fmt.Errorf("unsupported version %d", version))
	}
	dataStart := binary.LittleEndian.Uint64(db.data[16:24])
	if dataStart != uint64(DataStart) {
		return mogerr.New(mogerr.KindCorruptObjectDatabase, "odb.readHeader", fmt.Errorf("unexpected data_start %d", dataStart))
	}
	db.count = binary.LittleEndian.Uint64(db.data[8:16])
	return nil
}

// Close flushes pending writes, unmaps, and closes the underlying file.
func (db *DB) Close() error {
	if err := db.Flush(); err != nil {
		return err
	}
	db.munmap()
	return db.f.Close()
}

// Count returns the number of durably-published records.
func (db *DB) Count() uint64 {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.count
}

func bucketOf(h hash.Hash) uint64 {
	v := binary.LittleEndian.Uint64(h[hash.Size-8:])
	return v % numBuckets
}

func (db *DB) bucketOffset(b uint64) int {
	return headerLen + int(b)*bucketBytes
}

func (db *DB) bucketValue(b uint64) uint64 {
	off := db.bucketOffset(b)
	return binary.LittleEndian.Uint64(db.data[off : off+8])
}

func (db *DB) setBucketValue(b uint64, v uint64) {
	off := db.bucketOffset(b)
	binary.LittleEndian.PutUint64(db.data[off:off+8], v)
}

// probe returns the record offset for h, or ok=false if not present.
func (db *DB) probe(h hash.Hash) (offset uint64, ok bool, err error) {
	start := bucketOf(h)
	for i := uint64(0); i < numBuckets; i++ {
		b := (start + i) % numBuckets
		v := db.bucketValue(b)
		if v == 0 {
			return 0, false, nil
		}
		if v+hash.Size > uint64(len(db.data)) {
			return 0, false, mogerr.New(mogerr.KindCorruptObjectDatabase, "odb.probe", fmt.Errorf("bucket points outside file"))
		}
		var candidate hash.Hash
		copy(candidate[:], db.data[v:v+hash.Size])
		if candidate == h {
			return v, true, nil
		}
	}
	return 0, false, mogerr.New(mogerr.KindHashTableFull, "odb.probe", nil)
}

// insert publishes a new bucket entry for h at record offset off.
func (db *DB) insert(h hash.Hash, off uint64) error {
	start := bucketOf(h)
	for i := uint64(0); i < numBuckets; i++ {
		b := (start + i) % numBuckets
		if db.bucketValue(b) == 0 {
			db.setBucketValue(b, off)
			return nil
		}
	}
	return mogerr.New(mogerr.KindHashTableFull, "odb.insert", nil)
}

// Exists reports whether h is durably present. Pending (unflushed) writes
// are not visible here (spec §4.1's ordering guarantee).
func (db *DB) Exists(h hash.Hash) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	_, ok, err := db.probe(h)
	return ok, err
}

// Read returns the encoded payload (not including the hash/size prefix) for
// h. Returns mogerr.KindNotFound if h is not durably present.
func (db *DB) Read(h hash.Hash) ([]byte, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	off, ok, err := db.probe(h)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, mogerr.New(mogerr.KindNotFound, "odb.Read", nil)
	}
	sizeOff := off + hash.Size
	if sizeOff+4 > uint64(len(db.data)) {
		return nil, mogerr.New(mogerr.KindCorruptObjectDatabase, "odb.Read", fmt.Errorf("truncated record"))
	}
	size := binary.LittleEndian.Uint32(db.data[sizeOff : sizeOff+4])
	payloadOff := sizeOff + 4
	end := payloadOff + uint64(size)
	if end > uint64(len(db.data)) {
		return nil, mogerr.New(mogerr.KindCorruptObjectDatabase, "odb.Read", fmt.Errorf("truncated record payload"))
	}
	return db.data[payloadOff:end], nil
}

// StageWrite enqueues (h, encoded) for the next Flush, unless h is already
// durable or already pending — duplicates are dropped at queue time (§4.1
// point 1, and spec's property-law 3, dedup).
func (db *DB) StageWrite(h hash.Hash, encoded []byte) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if _, pending := db.pendingSet[h]; pending {
		return nil
	}
	_, durable, err := db.probe(h)
	if err != nil {
		return err
	}
	if durable {
		return nil
	}
	db.pendingSet[h] = struct{}{}
	db.pending = append(db.pending, pendingRecord{Hash: h, Encoded: encoded})
	return nil
}

// Flush serializes all pending writes into one contiguous append, performs
// one positional write at the current file length, grows the mmap, inserts
// the new hash-table buckets, updates the header count, and syncs.
func (db *DB) Flush() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if len(db.pending) == 0 {
		return nil
	}

	info, err := db.f.Stat()
	if err != nil {
		return mogerr.New(mogerr.KindIoError, "odb.Flush", err)
	}
	writeOffset := info.Size()

	var buf []byte
	type placed struct {
		Hash   hash.Hash
		Offset uint64
	}
	placements := make([]placed, 0, len(db.pending))
	cursor := uint64(writeOffset)
	for _, p := range db.pending {
		var rec [recordHeaderLen]byte
		copy(rec[0:hash.Size], p.Hash[:])
		binary.LittleEndian.PutUint32(rec[hash.Size:hash.Size+4], uint32(len(p.Encoded)))
		buf = append(buf, rec[:]...)
		buf = append(buf, p.Encoded...)
		placements = append(placements, placed{Hash: p.Hash, Offset: cursor})
		cursor += uint64(len(rec)) + uint64(len(p.Encoded))
	}

	if _, err := db.f.WriteAt(buf, writeOffset); err != nil {
		return mogerr.New(mogerr.KindIoError, "odb.Flush", err)
	}

	newSize := writeOffset + int64(len(buf))
	db.munmap()
	if err := db.mmapAll(); err != nil {
		return err
	}
	if int64(len(db.data)) != newSize {
		return mogerr.New(mogerr.KindCorruptObjectDatabase, "odb.Flush", fmt.Errorf("unexpected post-grow size %d want %d", len(db.data), newSize))
	}

	for _, p := range placements {
		if err := db.insert(p.Hash, p.Offset); err != nil {
			return err
		}
	}

	db.count += uint64(len(db.pending))
	binary.LittleEndian.PutUint64(db.data[8:16], db.count)

	if err := db.msync(); err != nil {
		return err
	}
	if err := db.f.Sync(); err != nil {
		return mogerr.New(mogerr.KindIoError, "odb.Flush", err)
	}

	db.pending = db.pending[:0]
	db.pendingSet = make(map[hash.Hash]struct{})
	return nil
}

func (db *DB) msync() error {
	if err := unix.Msync(db.data, unix.MS_SYNC); err != nil {
		return mogerr.New(mogerr.KindIoError, "odb.msync", err)
	}
	return nil
}

// EvictPages advises the OS to drop page-cache pages covering slice, which
// must alias bytes previously returned by Read. The bytes remain readable;
// this is a hint, not an invalidation, and a no-op on platforms where the
// underlying madvise call is unsupported for the given range.
func (db *DB) EvictPages(slice []byte) {
	if len(slice) == 0 {
		return
	}
	_ = unix.Madvise(slice, unix.MADV_DONTNEED)
}
