// Package ignore supplies a default `.mogignore` predicate implementation.
// The core packages never depend on this package directly — they accept a
// plain `func(path string) bool` (spec §1: "ignore-file glob matching
// (treated as a predicate is_ignored(path) -> bool)"); this package exists
// only to produce one such predicate from a `.mogignore` file, the way
// original_source's ignore.rs produced one from `.mogged`.
package ignore

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// Predicate reports whether path (repo-root-relative, '/'-separated)
// should be skipped by walks.
type Predicate func(path string) bool

// None is a predicate that never ignores anything.
func None() Predicate {
	return func(string) bool { return false }
}

// Load reads patterns from <root>/.mogignore, one per line. Blank lines and
// lines starting with '#' are skipped. Each remaining line is a
// filepath.Match-style glob matched independently against the path and
// against each of the path's components (so "build" matches both a
// top-level file named build and any directory named build anywhere in the
// tree, mirroring the original's directory-name shorthand).
func Load(root string) (Predicate, error) {
	f, err := os.Open(filepath.Join(root, ".mogignore"))
	if err != nil {
		if os.IsNotExist(err) {
			return None(), nil
		}
		return nil, err
	}
	defer f.Close()

	var patterns []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, strings.TrimSuffix(line, "/"))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	return func(path string) bool {
		for _, pat := range patterns {
			if ok, _ := filepath.Match(pat, path); ok {
				return true
			}
			for _, comp := range strings.Split(path, "/") {
				if ok, _ := filepath.Match(pat, comp); ok {
					return true
				}
			}
		}
		return false
	}, nil
}
