package clicmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/javanhut/mog/internal/colors"
)

var branchDelete bool
var branchForceDelete bool
var branchRenameTo string

var branchCmd = &cobra.Command{
	Use:   "branch [name] [target]",
	Short: "List, create, delete, or rename branches",
	Args:  cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := openRepo()
		if err != nil {
			return err
		}
		defer r.Close()

		switch {
		case branchRenameTo != "":
			if len(args) != 1 {
				return fmt.Errorf("branch -m requires the old branch name")
			}
			if err := r.RenameBranch(args[0], branchRenameTo); err != nil {
				return err
			}
			fmt.Printf("%s %s -> %s\n", colors.SuccessText("Renamed"), args[0], branchRenameTo)
			return nil

		case branchDelete || branchForceDelete:
			if len(args) != 1 {
				return fmt.Errorf("branch -d/-D requires a branch name")
			}
			if err := r.DeleteBranch(args[0], branchForceDelete); err != nil {
				return err
			}
			fmt.Printf("%s %s\n", colors.SuccessText("Deleted branch"), args[0])
			return nil

		case len(args) == 0:
			branches, err := r.ListBranches()
			if err != nil {
				return err
			}
			for _, b := range branches {
				marker := "  "
				if b.Current {
					marker = "* "
				}
				fmt.Printf("%s%s\n", marker, b.Name)
			}
			return nil

		default:
			target := ""
			if len(args) == 2 {
				target = args[1]
			}
			if err := r.CreateBranch(args[0], target); err != nil {
				return err
			}
			fmt.Printf("%s %s\n", colors.SuccessText("Created branch"), args[0])
			return nil
		}
	},
}

func init() {
	branchCmd.Flags().BoolVarP(&branchDelete, "delete", "d", false, "delete a branch (refuses if unmerged)")
	branchCmd.Flags().BoolVarP(&branchForceDelete, "force-delete", "D", false, "force-delete a branch")
	branchCmd.Flags().StringVarP(&branchRenameTo, "move", "m", "", "rename a branch")
}
