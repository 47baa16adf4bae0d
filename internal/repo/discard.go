package repo

import (
	"os"
	"path/filepath"

	"github.com/javanhut/mog/internal/hash"
	"github.com/javanhut/mog/internal/mogerr"
)

// Discard restores paths (repo-relative) from the index back onto disk,
// discarding any unstaged edits. An empty patterns list discards every
// tracked file and additionally deletes untracked files, mirroring
// discard.rs's discard_all.
func (r *Repository) Discard(patterns []string) (int, error) {
	if len(patterns) == 0 {
		return r.discardAll()
	}

	set := make(map[string]struct{}, len(patterns))
	for _, p := range patterns {
		set[filepath.ToSlash(p)] = struct{}{}
	}

	restored := 0
	for _, e := range r.Index.Entries() {
		if _, ok := set[e.Path]; !ok {
			matchesDir := false
			for p := range set {
				if len(e.Path) > len(p) && e.Path[:len(p)+1] == p+"/" {
					matchesDir = true
					break
				}
			}
			if !matchesDir {
				continue
			}
		}
		if err := r.restoreIndexEntry(e.Path, e.Hash); err != nil {
			return restored, err
		}
		restored++
	}
	return restored, nil
}

func (r *Repository) restoreIndexEntry(path string, h hash.Hash) error {
	abs := filepath.Join(r.Root, path)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return mogerr.New(mogerr.KindIoError, "repo.Discard", err)
	}
	data, err := r.readBlob(h)
	if err != nil {
		return err
	}
	if err := os.WriteFile(abs, data, 0o644); err != nil {
		return mogerr.New(mogerr.KindIoError, "repo.Discard", err)
	}
	return nil
}

func (r *Repository) discardAll() (int, error) {
	tracked := make(map[string]struct{}, r.Index.Len())
	for _, e := range r.Index.Entries() {
		tracked[e.Path] = struct{}{}
	}

	var toDelete []string
	err := filepath.WalkDir(r.Root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		rel, rerr := filepath.Rel(r.Root, path)
		if rerr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if rel == ".mog" || rel == ".mogignore" {
			return nil
		}
		if r.Ignore != nil && r.Ignore(rel) {
			return nil
		}
		if _, ok := tracked[rel]; !ok {
			toDelete = append(toDelete, path)
		}
		return nil
	})
	if err != nil {
		return 0, mogerr.New(mogerr.KindIoError, "repo.Discard", err)
	}
	for _, p := range toDelete {
		_ = os.Remove(p)
	}
	if err := removeEmptyDirs(r.Root); err != nil {
		return 0, err
	}

	for _, e := range r.Index.Entries() {
		if err := r.restoreIndexEntry(e.Path, e.Hash); err != nil {
			return 0, err
		}
	}
	return r.Index.Len(), nil
}

// Unstage removes paths from the index without touching the working tree
// (the opposite of stage.Run). The unstage command expands an empty pattern
// list to every index path before reaching here; Unstage itself just
// removes whatever paths it is given.
func (r *Repository) Unstage(paths []string) int {
	count := 0
	for _, p := range paths {
		if r.Index.Remove(filepath.ToSlash(p)) {
			count++
		}
	}
	return count
}
