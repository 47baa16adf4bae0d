package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/javanhut/mog/internal/flattree"
	"github.com/javanhut/mog/internal/hash"
	"github.com/javanhut/mog/internal/index"
	"github.com/javanhut/mog/internal/mogerr"
	"github.com/javanhut/mog/internal/objcodec"
	"github.com/javanhut/mog/internal/objstore"
)

// dirtyMarker prefixes the stash commit message line that records the
// second tree's hash (spec's supplemented stash design: one commit whose
// tree is the staged snapshot, carrying a reference to a second tree of
// unstaged disk changes in its message, grounded on stash.rs).
const dirtyMarker = "dirty="

// StashInfo is one entry of StashList's result.
type StashInfo struct {
	Index   int
	Message string
}

// StashSave records the current staged tree and any unstaged-but-tracked
// disk changes as a new stash entry at slot 0, then restores the working
// tree and index to HEAD (or, with no HEAD yet, clears them).
func (r *Repository) StashSave(message string, timestamp int64) error {
	stagedTree, err := r.Index.WriteTree(r.DB)
	if err != nil {
		return err
	}

	dirty := index.New()
	anyDirty := false
	for _, e := range r.Index.Entries() {
		abs := filepath.Join(r.Root, e.Path)
		info, statErr := os.Stat(abs)
		if statErr != nil {
			dirty.Add(e.Path, e.Hash, e.Mode, e.Mtime, e.Size)
			continue
		}
		if info.ModTime().Unix() == e.Mtime && uint64(info.Size()) == e.Size {
			dirty.Add(e.Path, e.Hash, e.Mode, e.Mtime, e.Size)
			continue
		}
		data, rerr := os.ReadFile(abs)
		if rerr != nil {
			return mogerr.New(mogerr.KindIoError, "repo.StashSave", rerr)
		}
		record := objcodec.EncodeBlob(data)
		h := objcodec.HashOf(record)
		if err := r.DB.StageWrite(h, record); err != nil {
			return err
		}
		dirty.Add(e.Path, h, e.Mode, info.ModTime().Unix(), uint64(info.Size()))
		anyDirty = true
	}

	if r.Index.Len() == 0 && !anyDirty {
		return mogerr.New(mogerr.KindInvalidInput, "repo.StashSave", fmt.Errorf("no local changes to stash"))
	}

	dirtyTree, err := dirty.WriteTree(r.DB)
	if err != nil {
		return err
	}

	var parents []hash.Hash
	if parent, err := r.headCommit(); err == nil {
		parents = []hash.Hash{parent}
	} else if !isNotFound(err) {
		return err
	}

	fullMessage := message
	if fullMessage == "" {
		fullMessage = "WIP"
	}
	fullMessage = fullMessage + "\n" + dirtyMarker + dirtyTree.String()

	record := objcodec.EncodeCommit(objstore.Commit{
		Tree:      stagedTree,
		Parents:   parents,
		Timestamp: timestamp,
		Author:    "stash",
		Message:   fullMessage,
	})
	stashHash := objcodec.HashOf(record)
	if err := r.DB.StageWrite(stashHash, record); err != nil {
		return err
	}
	if err := r.DB.Flush(); err != nil {
		return err
	}

	if err := r.Refs.EnsureLayout(); err != nil {
		return err
	}
	if err := r.Refs.StashShiftUp(); err != nil {
		return err
	}
	if err := r.Refs.StashSet(0, stashHash); err != nil {
		return err
	}

	headHash, err := r.headCommit()
	if err != nil {
		if !isNotFound(err) {
			return err
		}
		for _, e := range r.Index.Entries() {
			_ = os.Remove(filepath.Join(r.Root, e.Path))
		}
		if err := removeEmptyDirs(r.Root); err != nil {
			return err
		}
		r.Index = index.New()
		return r.SaveIndex()
	}

	c, err := r.readCommit(headHash)
	if err != nil {
		return err
	}
	if err := r.materializeTree(c.Tree); err != nil {
		return err
	}
	return r.SaveIndex()
}

// StashApply restores stash slot n's staged snapshot plus dirty overlay
// into the working tree and index, leaving the stash entry in place.
func (r *Repository) StashApply(n int) error {
	stashHash, err := r.Refs.StashGet(n)
	if err != nil {
		return err
	}
	return r.applyStash(stashHash)
}

// StashPop applies stash slot 0 and then drops it.
func (r *Repository) StashPop() error {
	stashHash, err := r.Refs.StashGet(0)
	if err != nil {
		return err
	}
	if err := r.applyStash(stashHash); err != nil {
		return err
	}
	return r.Refs.StashDropAt(0)
}

// StashDrop discards stash slot n without applying it.
func (r *Repository) StashDrop(n int) error {
	return r.Refs.StashDropAt(n)
}

// StashList returns every stash entry, newest (slot 0) first, with its
// commit message (the dirty=<hex> marker stripped).
func (r *Repository) StashList() ([]StashInfo, error) {
	count, err := r.Refs.StashCount()
	if err != nil {
		return nil, err
	}
	out := make([]StashInfo, 0, count)
	for n := 0; n < count; n++ {
		h, err := r.Refs.StashGet(n)
		if err != nil {
			return nil, err
		}
		c, err := r.readCommit(h)
		if err != nil {
			return nil, err
		}
		message := c.Message
		if i := strings.IndexByte(message, '\n'); i >= 0 {
			message = message[:i]
		}
		out = append(out, StashInfo{Index: n, Message: message})
	}
	return out, nil
}

func (r *Repository) applyStash(stashHash hash.Hash) error {
	c, err := r.readCommit(stashHash)
	if err != nil {
		return err
	}

	var dirtyTreeHash hash.Hash
	hasDirty := false
	for _, line := range strings.Split(c.Message, "\n") {
		if rest, ok := strings.CutPrefix(line, dirtyMarker); ok {
			h, perr := hash.Parse(rest)
			if perr != nil {
				continue
			}
			dirtyTreeHash = h
			hasDirty = true
		}
	}

	if err := r.materializeTree(c.Tree); err != nil {
		return err
	}

	if hasDirty {
		dirtyFlat, err := flattree.Build(r.DB, dirtyTreeHash)
		if err != nil {
			return err
		}
		for _, e := range dirtyFlat.Entries() {
			abs := filepath.Join(r.Root, e.Path)
			if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
				return mogerr.New(mogerr.KindIoError, "repo.applyStash", err)
			}
			data, err := r.readBlob(e.Hash)
			if err != nil {
				return err
			}
			if err := os.WriteFile(abs, data, 0o644); err != nil {
				return mogerr.New(mogerr.KindIoError, "repo.applyStash", err)
			}
			// Deliberately not updating the index: dirty overlay files
			// should show as modified against the restored staged state.
		}
	}

	return r.SaveIndex()
}
