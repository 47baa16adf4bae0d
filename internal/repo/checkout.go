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
	"github.com/javanhut/mog/internal/refs"
)

// materializeTree reconciles the working tree and the staging index against
// targetTree (spec §4.8): tracked files absent from the target are deleted
// (and any directories they leave empty are pruned), then every blob in the
// target is written to disk via an iterative DFS and the index is rebuilt
// from scratch to match.
func (r *Repository) materializeTree(targetTree hash.Hash) error {
	target, err := flattree.Build(r.DB, targetTree)
	if err != nil {
		return err
	}

	wanted := make(map[string]struct{}, target.Len())
	for _, e := range target.Entries() {
		wanted[e.Path] = struct{}{}
	}

	for _, e := range r.Index.Entries() {
		if _, ok := wanted[e.Path]; ok {
			continue
		}
		abs := filepath.Join(r.Root, e.Path)
		if err := os.Remove(abs); err != nil && !os.IsNotExist(err) {
			return mogerr.New(mogerr.KindIoError, "repo.materializeTree", err)
		}
	}
	if err := removeEmptyDirs(r.Root); err != nil {
		return err
	}

	newIndex := index.New()
	for _, e := range target.Entries() {
		abs := filepath.Join(r.Root, e.Path)
		if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
			return mogerr.New(mogerr.KindIoError, "repo.materializeTree", err)
		}
		data, err := r.readBlob(e.Hash)
		if err != nil {
			return err
		}
		mode := os.FileMode(0o644)
		if e.Mode == 0o100755 {
			mode = 0o755
		}
		if err := os.WriteFile(abs, data, mode); err != nil {
			return mogerr.New(mogerr.KindIoError, "repo.materializeTree", err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return mogerr.New(mogerr.KindIoError, "repo.materializeTree", err)
		}
		newIndex.Add(e.Path, e.Hash, e.Mode, info.ModTime().Unix(), uint64(info.Size()))
	}
	r.Index = newIndex
	return nil
}

// Checkout switches the working tree, index, and HEAD to target (a branch
// name or a hex commit hash). If createBranch is set, target is first
// created as a new branch pointing at HEAD's current commit.
func (r *Repository) Checkout(target string, createBranch bool) error {
	if createBranch {
		if r.Refs.BranchExists(target) {
			return mogerr.New(mogerr.KindInvalidInput, "repo.Checkout", fmt.Errorf("branch %q already exists", target))
		}
		if err := refs.ValidateBranchName(target); err != nil {
			return err
		}
		headHash, err := r.headCommit()
		if err != nil {
			return mogerr.New(mogerr.KindInvalidInput, "repo.Checkout", fmt.Errorf("cannot create a branch with no commits yet"))
		}
		if err := r.Refs.SetBranch(target, headHash); err != nil {
			return err
		}
	}

	isBranch := r.Refs.BranchExists(target)
	commitHash, err := r.ResolveCommit(target)
	if err != nil {
		return err
	}
	c, err := r.readCommit(commitHash)
	if err != nil {
		return err
	}

	if err := r.materializeTree(c.Tree); err != nil {
		return err
	}
	if err := r.SaveIndex(); err != nil {
		return err
	}

	if isBranch {
		return r.Refs.SetHEADSymbolic(target)
	}
	return r.Refs.SetHEADDetached(commitHash)
}

// CheckoutPath restores a single path (a file or a directory subtree) from
// target's tree into the working directory and index, leaving the rest of
// the index untouched.
func (r *Repository) CheckoutPath(target, path string) error {
	commitHash, err := r.ResolveCommit(target)
	if err != nil {
		return err
	}
	c, err := r.readCommit(commitHash)
	if err != nil {
		return err
	}
	flat, err := flattree.Build(r.DB, c.Tree)
	if err != nil {
		return err
	}

	var matches []int
	for i, e := range flat.Entries() {
		if e.Path == path || strings.HasPrefix(e.Path, path+"/") {
			matches = append(matches, i)
		}
	}
	if len(matches) == 0 {
		return mogerr.New(mogerr.KindNotFound, "repo.CheckoutPath", fmt.Errorf("path %q not found in %s", path, target))
	}

	entries := flat.Entries()
	for _, i := range matches {
		e := entries[i]
		abs := filepath.Join(r.Root, e.Path)
		if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
			return mogerr.New(mogerr.KindIoError, "repo.CheckoutPath", err)
		}
		data, err := r.readBlob(e.Hash)
		if err != nil {
			return err
		}
		mode := os.FileMode(0o644)
		if e.Mode == 0o100755 {
			mode = 0o755
		}
		if err := os.WriteFile(abs, data, mode); err != nil {
			return mogerr.New(mogerr.KindIoError, "repo.CheckoutPath", err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return mogerr.New(mogerr.KindIoError, "repo.CheckoutPath", err)
		}
		r.Index.Add(e.Path, e.Hash, e.Mode, info.ModTime().Unix(), uint64(info.Size()))
	}

	return r.SaveIndex()
}

// removeEmptyDirs prunes directories left empty after file deletion,
// skipping the repository's own .mog metadata directory.
func removeEmptyDirs(root string) error {
	entries, err := os.ReadDir(root)
	if err != nil {
		return mogerr.New(mogerr.KindIoError, "repo.removeEmptyDirs", err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		path := filepath.Join(root, e.Name())
		if e.Name() == ".mog" {
			continue
		}
		if err := removeEmptyDirs(path); err != nil {
			return err
		}
		_ = os.Remove(path) // fails silently if not empty
	}
	return nil
}
