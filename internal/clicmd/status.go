package clicmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/javanhut/mog/internal/colors"
	"github.com/javanhut/mog/internal/walkstatus"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the working directory status",
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := openRepo()
		if err != nil {
			return err
		}
		defer r.Close()

		head, err := r.HeadFlatTree()
		if err != nil {
			return err
		}
		res, err := walkstatus.Run(context.Background(), r.Root, r.Index, head, r.Ignore)
		if err != nil {
			return err
		}

		branch, err := r.CurrentBranch()
		if err != nil {
			return err
		}
		if branch != "" {
			fmt.Printf("On branch %s\n", colors.Bold(branch))
		} else {
			fmt.Println(colors.Bold("HEAD detached"))
		}

		clean := true
		printBucket := func(label string, paths []string, colorize func(string) string) {
			if len(paths) == 0 {
				return
			}
			clean = false
			fmt.Printf("\n%s\n", colors.SectionHeader(label))
			for _, p := range paths {
				fmt.Printf("  %s\n", colorize(p))
			}
		}

		printBucket("Staged (new):", res.StagedNew, colors.Green)
		printBucket("Staged (modified):", res.StagedModified, colors.Green)
		printBucket("Staged (deleted):", res.StagedDeleted, colors.Green)
		printBucket("Not staged:", res.Modified, colors.Blue)
		printBucket("Untracked:", res.Untracked, colors.Yellow)

		if clean {
			fmt.Println(colors.SuccessText("Working directory clean"))
		}
		return nil
	},
}
