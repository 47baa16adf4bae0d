package clicmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/javanhut/mog/internal/colors"
)

var checkoutCreateBranch bool
var checkoutPath string

var checkoutCmd = &cobra.Command{
	Use:   "checkout <branch|commit>",
	Short: "Switch the working tree, index, and HEAD to a branch or commit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := openRepo()
		if err != nil {
			return err
		}
		defer r.Close()

		target := args[0]
		if checkoutPath != "" {
			if err := r.CheckoutPath(target, checkoutPath); err != nil {
				return err
			}
			fmt.Printf("%s %s\n", colors.SuccessText("Restored"), colors.Blue(checkoutPath))
			return nil
		}

		if err := r.Checkout(target, checkoutCreateBranch); err != nil {
			return err
		}
		fmt.Printf("%s %s\n", colors.SuccessText("Switched to"), colors.Bold(target))
		return nil
	},
}

func init() {
	checkoutCmd.Flags().BoolVarP(&checkoutCreateBranch, "branch", "b", false, "create the branch before switching to it")
	checkoutCmd.Flags().StringVarP(&checkoutPath, "path", "p", "", "restore only this path, leaving the rest of the index untouched")
}
