package clicmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/javanhut/mog/internal/colors"
)

var discardCmd = &cobra.Command{
	Use:   "discard [paths...]",
	Short: "Revert unstaged working-tree changes back to the index's recorded content",
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := openRepo()
		if err != nil {
			return err
		}
		defer r.Close()

		n, err := r.Discard(args)
		if err != nil {
			return err
		}
		fmt.Printf("%s %d file(s)\n", colors.SuccessText("Discarded"), n)
		return nil
	},
}
