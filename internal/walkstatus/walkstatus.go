// Package walkstatus implements the status pipeline of spec §4.6: it walks
// the working tree, classifies each staged path against the index and
// HEAD's flat tree, and produces five stable, sorted buckets.
package walkstatus

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/javanhut/mog/internal/flattree"
	"github.com/javanhut/mog/internal/ignore"
	"github.com/javanhut/mog/internal/index"
)

// Result holds the five sorted buckets status produces.
type Result struct {
	StagedModified []string
	StagedNew      []string
	StagedDeleted  []string
	Modified       []string
	Untracked      []string
}

type diskState int

const (
	diskClean diskState = iota
	diskModified
	diskDeleted
)

type classification struct {
	path    string
	staged  bool // hash differs from (or absent from) head
	isNew   bool // path absent from head entirely
	disk    diskState
}

// Run executes the status pipeline against root (the working tree root),
// idx (the staging index), and head (HEAD's flat tree view — pass
// flattree.Empty() if there is no HEAD yet).
func Run(ctx context.Context, root string, idx *index.Index, head *flattree.FlatTree, isIgnored ignore.Predicate) (*Result, error) {
	entries := idx.Entries()
	classified := make([]classification, len(entries))

	g, _ := errgroup.WithContext(ctx)
	for i, e := range entries {
		i, e := i, e
		g.Go(func() error {
			classified[i] = classifyEntry(root, e, head)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &Result{}
	indexPaths := make(map[string]struct{}, len(entries))
	for i, e := range entries {
		indexPaths[e.Path] = struct{}{}
		c := classified[i]
		if c.staged {
			if c.isNew {
				res.StagedNew = append(res.StagedNew, e.Path)
			} else {
				res.StagedModified = append(res.StagedModified, e.Path)
			}
		}
		if c.disk != diskClean {
			res.Modified = append(res.Modified, e.Path)
		}
	}

	for _, he := range head.Entries() {
		if _, ok := indexPaths[he.Path]; !ok {
			res.StagedDeleted = append(res.StagedDeleted, he.Path)
		}
	}

	untracked, err := walkUntracked(root, indexPaths, isIgnored)
	if err != nil {
		return nil, err
	}
	res.Untracked = untracked

	sort.Strings(res.StagedModified)
	sort.Strings(res.StagedNew)
	sort.Strings(res.StagedDeleted)
	sort.Strings(res.Modified)
	sort.Strings(res.Untracked)
	return res, nil
}

func classifyEntry(root string, e index.Entry, head *flattree.FlatTree) classification {
	c := classification{path: e.Path}

	headHash, inHead := head.Lookup(e.Path)
	if !inHead {
		c.staged = true
		c.isNew = true
	} else if headHash != e.Hash {
		c.staged = true
	}

	info, err := os.Stat(filepath.Join(root, e.Path))
	switch {
	case err != nil:
		c.disk = diskDeleted
	case info.ModTime().Unix() != e.Mtime || uint64(info.Size()) != e.Size:
		c.disk = diskModified
	default:
		c.disk = diskClean
	}
	return c
}

func walkUntracked(root string, indexPaths map[string]struct{}, isIgnored ignore.Predicate) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		rel, rerr := filepath.Rel(root, path)
		if rerr != nil {
			return nil
		}
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if rel == ".mog" || rel == ".mogignore" {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if isIgnored != nil && isIgnored(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if _, tracked := indexPaths[rel]; tracked {
			return nil
		}
		out = append(out, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
