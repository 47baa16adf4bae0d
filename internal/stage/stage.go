// Package stage implements the add/stage pipeline of spec §4.7: pattern
// classification, a filtered walk of the working tree, size-bounded
// parallel batches of read+encode+hash, and a single sequential flush per
// batch into the object database and index.
package stage

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/javanhut/mog/internal/hash"
	"github.com/javanhut/mog/internal/ignore"
	"github.com/javanhut/mog/internal/index"
	"github.com/javanhut/mog/internal/mlog"
	"github.com/javanhut/mog/internal/objcodec"
	"github.com/javanhut/mog/internal/odb"
)

// MaxFileSize is the hard per-file size limit for staging (spec §4.7, a
// stated policy default).
const MaxFileSize = 1 << 20 // 1 MiB

// MaxBatchSize bounds the sum of file sizes staged together in one batch.
const MaxBatchSize = 1 << 20 // 1 MiB

// Stats summarizes one Run's work, for CLI reporting.
type Stats struct {
	FilesStaged  int
	BytesStaged  int64
	FilesSkipped int
	FilesRemoved int // stale index entries removed because the file vanished
}

type candidate struct {
	absPath string
	relPath string
	size    int64
	mtime   int64
	mode    uint32
}

// Run stages every working-tree path matching patterns (literal paths or
// regular expressions over repo-relative paths; an empty list means
// everything). idx is mutated in place; callers are responsible for
// persisting it (index.Save) once Run returns.
func Run(ctx context.Context, root string, patterns []string, idx *index.Index, db *odb.DB, isIgnored ignore.Predicate) (Stats, error) {
	var stats Stats

	removed, err := removeVanishedEntries(root, idx)
	if err != nil {
		return stats, err
	}
	stats.FilesRemoved = removed

	literalRoots, combined, err := classifyPatterns(root, patterns)
	if err != nil {
		return stats, err
	}

	candidates, err := walkMatching(root, literalRoots, combined, isIgnored)
	if err != nil {
		return stats, err
	}

	var surviving []candidate
	for _, c := range candidates {
		if c.size > MaxFileSize {
			mlog.Warn("skipping file over size limit", "path", c.relPath, "size", c.size)
			stats.FilesSkipped++
			continue
		}
		if i, ok := idx.Find(c.relPath); ok && !idx.IsDirty(i, c.mtime, uint64(c.size)) {
			continue
		}
		surviving = append(surviving, c)
	}

	for _, batch := range batchBySize(surviving, MaxBatchSize) {
		if err := processBatch(ctx, batch, idx, db, &stats); err != nil {
			return stats, err
		}
	}

	return stats, nil
}

// removeVanishedEntries removes any index entry whose path no longer exists
// on disk, before the batched writes (spec §4.7's "staged delete" pass).
func removeVanishedEntries(root string, idx *index.Index) (int, error) {
	removed := 0
	for _, e := range idx.Entries() {
		if _, err := os.Stat(filepath.Join(root, e.Path)); err != nil {
			if os.IsNotExist(err) {
				idx.Remove(e.Path)
				removed++
				continue
			}
			return removed, fmt.Errorf("stage: stat %s: %w", e.Path, err)
		}
	}
	return removed, nil
}

func classifyPatterns(root string, patterns []string) (literalRoots []string, combined *regexp.Regexp, err error) {
	if len(patterns) == 0 {
		return []string{""}, nil, nil
	}
	var regexParts []string
	for _, p := range patterns {
		abs := p
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(root, p)
		}
		if _, statErr := os.Stat(abs); statErr == nil {
			rel, relErr := filepath.Rel(root, abs)
			if relErr != nil {
				return nil, nil, fmt.Errorf("stage: resolve literal pattern %q: %w", p, relErr)
			}
			literalRoots = append(literalRoots, filepath.ToSlash(rel))
			continue
		}
		regexParts = append(regexParts, "(?:"+p+")")
	}
	if len(regexParts) > 0 {
		combined, err = regexp.Compile(strings.Join(regexParts, "|"))
		if err != nil {
			return nil, nil, fmt.Errorf("stage: invalid pattern: %w", err)
		}
	}
	return literalRoots, combined, nil
}

func underLiteralRoot(relPath string, roots []string) bool {
	for _, r := range roots {
		if r == "" || relPath == r || strings.HasPrefix(relPath, r+"/") {
			return true
		}
	}
	return false
}

func walkMatching(root string, literalRoots []string, combined *regexp.Regexp, isIgnored ignore.Predicate) ([]candidate, error) {
	var out []candidate
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			mlog.Warn("walk error", "path", path, "err", err)
			return nil
		}
		rel, rerr := filepath.Rel(root, path)
		if rerr != nil || rel == "." {
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
		matches := underLiteralRoot(rel, literalRoots) || (combined != nil && combined.MatchString(rel))
		if !matches {
			return nil
		}
		info, ierr := d.Info()
		if ierr != nil {
			mlog.Warn("stat error", "path", path, "err", ierr)
			return nil
		}
		mode := objcodec.ModeFile
		if info.Mode()&0o111 != 0 {
			mode = objcodec.ModeExec
		}
		out = append(out, candidate{
			absPath: path,
			relPath: rel,
			size:    info.Size(),
			mtime:   info.ModTime().Unix(),
			mode:    mode,
		})
		return nil
	})
	return out, err
}

func batchBySize(cands []candidate, maxBytes int64) [][]candidate {
	var batches [][]candidate
	var current []candidate
	var currentSize int64
	for _, c := range cands {
		if len(current) > 0 && currentSize+c.size > maxBytes {
			batches = append(batches, current)
			current = nil
			currentSize = 0
		}
		current = append(current, c)
		currentSize += c.size
	}
	if len(current) > 0 {
		batches = append(batches, current)
	}
	return batches
}

type batchResult struct {
	cand   candidate
	record []byte
	hash   hash.Hash
}

func processBatch(ctx context.Context, batch []candidate, idx *index.Index, db *odb.DB, stats *Stats) error {
	results := make([]batchResult, len(batch))

	g, _ := errgroup.WithContext(ctx)
	for i, c := range batch {
		i, c := i, c
		g.Go(func() error {
			content, err := os.ReadFile(c.absPath)
			if err != nil {
				mlog.Warn("read error, skipping", "path", c.relPath, "err", err)
				return nil
			}
			record := objcodec.EncodeBlob(content)
			results[i] = batchResult{cand: c, record: record, hash: objcodec.HashOf(record)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, r := range results {
		if r.record == nil {
			stats.FilesSkipped++
			continue
		}
		if err := db.StageWrite(r.hash, r.record); err != nil {
			return err
		}
		idx.Add(r.cand.relPath, r.hash, r.cand.mode, r.cand.mtime, uint64(r.cand.size))
		stats.FilesStaged++
		stats.BytesStaged += r.cand.size
	}

	return db.Flush()
}
