package clicmd

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/javanhut/mog/internal/colors"
	"github.com/javanhut/mog/internal/flattree"
	"github.com/javanhut/mog/internal/walkstatus"
)

var diffStaged bool

// diffCmd exposes the three flat views named by the core ("index, HEAD flat
// tree, disk") as path-bucket comparisons. Text-hunk rendering is out of
// scope: this prints only which paths were added, removed, or changed.
var diffCmd = &cobra.Command{
	Use:   "diff [REF]",
	Short: "List added/removed/changed paths between the index, HEAD, and the working tree",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := openRepo()
		if err != nil {
			return err
		}
		defer r.Close()

		var base *flattree.FlatTree
		if len(args) == 1 {
			h, err := r.ResolveCommit(args[0])
			if err != nil {
				return err
			}
			c, err := r.ReadCommit(h)
			if err != nil {
				return err
			}
			base, err = flattree.Build(r.DB, c.Tree)
			if err != nil {
				return err
			}
		} else {
			base, err = r.HeadFlatTree()
			if err != nil {
				return err
			}
		}

		if diffStaged {
			indexEntries := make([]flattree.Entry, 0, r.Index.Len())
			for _, e := range r.Index.Entries() {
				indexEntries = append(indexEntries, flattree.Entry{Path: e.Path, Hash: e.Hash, Mode: e.Mode})
			}
			sort.Slice(indexEntries, func(i, j int) bool { return indexEntries[i].Path < indexEntries[j].Path })
			d := flattree.DiffEntries(base.Entries(), indexEntries)
			printDiff(d)
			return nil
		}

		res, err := walkstatus.Run(context.Background(), r.Root, r.Index, base, r.Ignore)
		if err != nil {
			return err
		}
		printDiff(flattree.Diff{Added: res.Untracked, Removed: nil, Changed: res.Modified})
		return nil
	},
}

func printDiff(d flattree.Diff) {
	for _, p := range d.Added {
		fmt.Printf("%s %s\n", colors.Green("added:"), p)
	}
	for _, p := range d.Removed {
		fmt.Printf("%s %s\n", colors.Yellow("removed:"), p)
	}
	for _, p := range d.Changed {
		fmt.Printf("%s %s\n", colors.Blue("changed:"), p)
	}
}

func init() {
	diffCmd.Flags().BoolVar(&diffStaged, "staged", false, "compare the index against HEAD instead of the working tree")
}
