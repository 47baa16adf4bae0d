// Package repo bundles the open object database, in-memory stores, cache,
// staging index, ref store, and config that every mog command operates on,
// and implements the operations that span more than one of those pieces:
// commit, checkout, branch management, stash, and discard (spec §4.8-§4.10,
// grounded on original_source's repository.rs/commit.rs/checkout.rs/
// branch.rs/stash.rs for algorithm shape, reimplemented as idiomatic Go
// methods on *Repository).
package repo

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/javanhut/mog/internal/cache"
	"github.com/javanhut/mog/internal/config"
	"github.com/javanhut/mog/internal/flattree"
	"github.com/javanhut/mog/internal/hash"
	"github.com/javanhut/mog/internal/ignore"
	"github.com/javanhut/mog/internal/index"
	"github.com/javanhut/mog/internal/mogerr"
	"github.com/javanhut/mog/internal/objcodec"
	"github.com/javanhut/mog/internal/objstore"
	"github.com/javanhut/mog/internal/odb"
	"github.com/javanhut/mog/internal/refs"
	"github.com/javanhut/mog/internal/store"
)

// metaAuthorKey is the bbolt key under which the resolved "Name <email>"
// author string is cached, to avoid re-merging the global and repo JSON
// config on every commit (spec §A.3).
const metaAuthorKey = "resolved_author"

// CacheSize is the default bound for a Repository's object cache.
const CacheSize = 1 << 20 // 1 MiB

// Repository is a command's handle onto one mog repository. Open at command
// start, Close on return (spec §9): Close flushes the object database; the
// staging index is persisted separately through SaveIndex.
type Repository struct {
	Root   string
	MogDir string

	DB     *odb.DB
	Stores *objstore.Stores
	Cache  *cache.Cache
	Index  *index.Index
	Refs   *refs.Store
	Config *config.Config
	Ignore ignore.Predicate
	Meta   *store.DB
}

func mogDir(root string) string      { return filepath.Join(root, ".mog") }
func objectsPath(root string) string { return filepath.Join(mogDir(root), "objects.bin") }
func indexPath(root string) string   { return filepath.Join(mogDir(root), "index") }
func metaPath(root string) string    { return filepath.Join(mogDir(root), "meta.db") }

// Init creates a brand-new repository at root: the .mog layout, an empty
// object database, an empty index, and HEAD pointing (symbolically) at an
// as-yet-commitless "main" branch.
func Init(root string) (*Repository, error) {
	dir := mogDir(root)
	if _, err := os.Stat(dir); err == nil {
		return nil, mogerr.New(mogerr.KindInvalidInput, "repo.Init", fmt.Errorf("%s already exists", dir))
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, mogerr.New(mogerr.KindIoError, "repo.Init", err)
	}

	refStore := refs.New(dir)
	if err := refStore.EnsureLayout(); err != nil {
		return nil, err
	}
	if err := refStore.SetHEADSymbolic("main"); err != nil {
		return nil, err
	}

	db, err := odb.Open(objectsPath(root))
	if err != nil {
		return nil, err
	}
	idx := index.New()
	if err := idx.Save(indexPath(root)); err != nil {
		_ = db.Close()
		return nil, err
	}

	cfg, err := config.Load(root)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	isIgnored, err := ignore.Load(root)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	meta, err := store.Open(metaPath(root))
	if err != nil {
		_ = db.Close()
		return nil, mogerr.New(mogerr.KindIoError, "repo.Init", err)
	}

	return &Repository{
		Root:   root,
		MogDir: dir,
		DB:     db,
		Stores: objstore.New(),
		Cache:  cache.New(CacheSize),
		Index:  idx,
		Refs:   refStore,
		Config: cfg,
		Ignore: isIgnored,
		Meta:   meta,
	}, nil
}

// Open opens an existing repository rooted at root (the .mog directory must
// already exist).
func Open(root string) (*Repository, error) {
	dir := mogDir(root)
	if _, err := os.Stat(dir); err != nil {
		return nil, mogerr.New(mogerr.KindNotARepository, "repo.Open", fmt.Errorf("%s is not a mog repository", root))
	}

	db, err := odb.Open(objectsPath(root))
	if err != nil {
		return nil, err
	}
	idx, err := index.Load(indexPath(root))
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	cfg, err := config.Load(root)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	isIgnored, err := ignore.Load(root)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	meta, err := store.Open(metaPath(root))
	if err != nil {
		_ = db.Close()
		return nil, mogerr.New(mogerr.KindIoError, "repo.Open", err)
	}

	return &Repository{
		Root:   root,
		MogDir: dir,
		DB:     db,
		Stores: objstore.New(),
		Cache:  cache.New(CacheSize),
		Index:  idx,
		Refs:   refs.New(dir),
		Config: cfg,
		Ignore: isIgnored,
		Meta:   meta,
	}, nil
}

// Discover walks upward from start looking for a .mog directory, the way a
// shell-invoked command resolves its working repository from any subdir.
func Discover(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", mogerr.New(mogerr.KindIoError, "repo.Discover", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, ".mog")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", mogerr.New(mogerr.KindNotARepository, "repo.Discover", fmt.Errorf("no .mog directory found above %s", start))
		}
		dir = parent
	}
}

// Close flushes and closes the object database and the metadata store. It
// does not persist the index; callers that mutated r.Index must call
// SaveIndex themselves.
func (r *Repository) Close() error {
	_ = r.Meta.Close()
	return r.DB.Close()
}

// ResolveAuthor returns the "Name <email>" author string used on new
// commits, consulting the bbolt-backed metadata cache before falling back
// to a full config.Author load, and refreshing the cache on a miss.
func (r *Repository) ResolveAuthor() (string, error) {
	if cached, err := r.Meta.GetConfig(metaAuthorKey); err == nil && cached != "" {
		return cached, nil
	}
	author, err := config.Author(r.Root)
	if err != nil {
		return "", err
	}
	_ = r.Meta.PutConfig(metaAuthorKey, author)
	return author, nil
}

// InvalidateAuthorCache drops the cached resolved author string, forcing
// the next ResolveAuthor call to recompute it from config.
func (r *Repository) InvalidateAuthorCache() error {
	return r.Meta.RemoveConfig(metaAuthorKey)
}

// SaveIndex persists the in-memory staging index to disk.
func (r *Repository) SaveIndex() error {
	return r.Index.Save(indexPath(r.Root))
}

// IndexPath returns the path to the repository's on-disk staging index.
func (r *Repository) IndexPath() string { return indexPath(r.Root) }

// readCommit reads and decodes the commit object at h without routing
// through the long-lived Stores arena (a repository opens many short-lived
// commits over its lifetime; keeping them out of Stores avoids an
// unbounded-growth arena for a CLI process that only reads a handful).
func (r *Repository) readCommit(h hash.Hash) (objstore.Commit, error) {
	record, err := r.DB.Read(h)
	if err != nil {
		return objstore.Commit{}, err
	}
	tag, payload, err := objcodec.SplitRecord(record)
	if err != nil {
		return objstore.Commit{}, err
	}
	if tag != objcodec.TagCommit {
		return objstore.Commit{}, objcodec.ErrNotACommit
	}
	return objcodec.DecodeCommitPayload(payload)
}

func (r *Repository) readBlob(h hash.Hash) ([]byte, error) {
	if cached, ok := r.Cache.Get(h); ok {
		tag, payload, err := objcodec.SplitRecord(cached)
		if err == nil && tag == objcodec.TagBlob {
			return objcodec.DecodeBlobPayload(payload)
		}
	}
	record, err := r.DB.Read(h)
	if err != nil {
		return nil, err
	}
	// record aliases the mmap directly; copy before caching it or evicting its
	// pages, since both would otherwise leave the cache holding a dangling or
	// re-fault-prone slice into memory the odb no longer guarantees is resident.
	owned := make([]byte, len(record))
	copy(owned, record)
	r.Cache.Insert(h, owned)
	tag, payload, err := objcodec.SplitRecord(owned)
	if err != nil {
		return nil, err
	}
	if tag != objcodec.TagBlob {
		return nil, fmt.Errorf("repo: object %s is not a blob", h)
	}
	data, err := objcodec.DecodeBlobPayload(payload)
	r.DB.EvictPages(record)
	return data, err
}

// ReadCommit reads and decodes the commit object at h.
func (r *Repository) ReadCommit(h hash.Hash) (objstore.Commit, error) {
	return r.readCommit(h)
}

// ReadBlob reads and decodes the blob object at h.
func (r *Repository) ReadBlob(h hash.Hash) ([]byte, error) {
	return r.readBlob(h)
}

// headCommit resolves HEAD to a commit hash, returning mogerr.KindNotFound
// if nothing has been committed yet.
func (r *Repository) headCommit() (hash.Hash, error) {
	return r.Refs.ResolveHEAD()
}

// HeadCommit resolves HEAD to a commit hash, returning mogerr.KindNotFound
// if nothing has been committed yet.
func (r *Repository) HeadCommit() (hash.Hash, error) {
	return r.headCommit()
}

// HeadFlatTree returns the sorted flat view of HEAD's tree, or an empty one
// if there is no HEAD commit yet.
func (r *Repository) HeadFlatTree() (*flattree.FlatTree, error) {
	h, err := r.headCommit()
	if err != nil {
		if isNotFound(err) {
			return flattree.Empty(), nil
		}
		return nil, err
	}
	c, err := r.readCommit(h)
	if err != nil {
		return nil, err
	}
	return flattree.Build(r.DB, c.Tree)
}

func isNotFound(err error) bool {
	me, ok := err.(*mogerr.Error)
	return ok && me.Kind == mogerr.KindNotFound
}

// ResolveCommit resolves a branch name or hex commit hash to a commit hash,
// verifying that the target actually decodes as a commit object.
func (r *Repository) ResolveCommit(target string) (hash.Hash, error) {
	var h hash.Hash
	var err error
	if r.Refs.BranchExists(target) {
		h, err = r.Refs.ResolveBranch(target)
	} else {
		h, err = hash.Parse(target)
	}
	if err != nil {
		return hash.Hash{}, mogerr.New(mogerr.KindInvalidInput, "repo.ResolveCommit", fmt.Errorf("cannot resolve %q: %w", target, err))
	}
	if _, cerr := r.readCommit(h); cerr != nil {
		return hash.Hash{}, mogerr.New(mogerr.KindTypeMismatch, "repo.ResolveCommit", fmt.Errorf("%q does not resolve to a commit", target))
	}
	return h, nil
}

// CurrentBranch returns the branch name HEAD points to, or "" if HEAD is
// detached.
func (r *Repository) CurrentBranch() (string, error) {
	h, err := r.Refs.ReadHEAD()
	if err != nil {
		return "", err
	}
	if !h.Symbolic {
		return "", nil
	}
	return h.Branch, nil
}

// ReachableCommits walks the first-parent... no, walks *all* parents
// reachable from start (a full ancestor closure), used by safe branch
// deletion to check whether a branch's tip is an ancestor of some other
// branch.
func (r *Repository) ReachableCommits(start hash.Hash) (map[hash.Hash]struct{}, error) {
	seen := make(map[hash.Hash]struct{})
	stack := []hash.Hash{start}
	for len(stack) > 0 {
		h := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		c, err := r.readCommit(h)
		if err != nil {
			return nil, err
		}
		stack = append(stack, c.Parents...)
	}
	return seen, nil
}
