package clicmd

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"github.com/javanhut/mog/internal/colors"
	"github.com/javanhut/mog/internal/index"
)

var unstageCmd = &cobra.Command{
	Use:     "unstage [paths...]",
	Aliases: []string{"remove"},
	Short:   "Remove paths from the index without touching the working tree",
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := openRepo()
		if err != nil {
			return err
		}
		defer r.Close()

		matched := matchIndexPaths(r.Root, r.Index.Entries(), args)
		count := r.Unstage(matched)
		if count == 0 {
			fmt.Println("No matching paths in index")
			return nil
		}
		if err := r.SaveIndex(); err != nil {
			return err
		}
		fmt.Printf("%s %d path(s)\n", colors.SuccessText("Unstaged:"), count)
		return nil
	},
}

func matchIndexPaths(root string, entries []index.Entry, patterns []string) []string {
	if len(patterns) == 0 {
		patterns = []string{"."}
	}

	var out []string
	seen := make(map[string]struct{})
	add := func(p string) {
		if _, ok := seen[p]; !ok {
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}

	var regexes []*regexp.Regexp
	for _, p := range patterns {
		abs := p
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(root, p)
		}
		if _, err := os.Stat(abs); err == nil {
			rel, rerr := filepath.Rel(root, abs)
			if rerr != nil {
				continue
			}
			rel = filepath.ToSlash(rel)
			for _, e := range entries {
				if rel == "." || e.Path == rel || strings.HasPrefix(e.Path, rel+"/") {
					add(e.Path)
				}
			}
			continue
		}
		if re, rerr := regexp.Compile(p); rerr == nil {
			regexes = append(regexes, re)
		}
	}
	for _, e := range entries {
		for _, re := range regexes {
			if re.MatchString(e.Path) {
				add(e.Path)
				break
			}
		}
	}
	return out
}
