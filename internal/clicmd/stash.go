package clicmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/javanhut/mog/internal/colors"
)

var stashMessage string

var stashCmd = &cobra.Command{
	Use:   "stash",
	Short: "Set aside the index and dirty working-tree content",
	// Bare `mog stash` behaves like `mog stash save`.
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStashSave(cmd, args)
	},
}

var stashSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save the current index and dirty content to a new stash, then reset to HEAD",
	RunE:  runStashSave,
}

func runStashSave(cmd *cobra.Command, args []string) error {
	r, err := openRepo()
	if err != nil {
		return err
	}
	defer r.Close()

	if err := r.StashSave(stashMessage, time.Now().Unix()); err != nil {
		return err
	}
	fmt.Println(colors.SuccessText("Saved working directory state"))
	return nil
}

var stashPopCmd = &cobra.Command{
	Use:   "pop",
	Short: "Apply the most recent stash and drop it",
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := openRepo()
		if err != nil {
			return err
		}
		defer r.Close()

		if err := r.StashPop(); err != nil {
			return err
		}
		fmt.Println(colors.SuccessText("Popped stash"))
		return nil
	},
}

var stashApplyCmd = &cobra.Command{
	Use:   "apply [n]",
	Short: "Apply a stash without dropping it",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := parseStashIndex(args)
		if err != nil {
			return err
		}
		r, err := openRepo()
		if err != nil {
			return err
		}
		defer r.Close()

		if err := r.StashApply(n); err != nil {
			return err
		}
		fmt.Printf("%s stash@{%d}\n", colors.SuccessText("Applied"), n)
		return nil
	},
}

var stashDropCmd = &cobra.Command{
	Use:   "drop [n]",
	Short: "Drop a stash without applying it",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := parseStashIndex(args)
		if err != nil {
			return err
		}
		r, err := openRepo()
		if err != nil {
			return err
		}
		defer r.Close()

		if err := r.StashDrop(n); err != nil {
			return err
		}
		fmt.Printf("%s stash@{%d}\n", colors.SuccessText("Dropped"), n)
		return nil
	},
}

var stashListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stashes",
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := openRepo()
		if err != nil {
			return err
		}
		defer r.Close()

		stashes, err := r.StashList()
		if err != nil {
			return err
		}
		for _, s := range stashes {
			fmt.Printf("stash@{%d}: %s\n", s.Index, s.Message)
		}
		return nil
	},
}

func parseStashIndex(args []string) (int, error) {
	if len(args) == 0 {
		return 0, nil
	}
	return strconv.Atoi(args[0])
}

func init() {
	stashCmd.Flags().StringVarP(&stashMessage, "message", "m", "", "stash message")
	stashSaveCmd.Flags().StringVarP(&stashMessage, "message", "m", "", "stash message")
}
