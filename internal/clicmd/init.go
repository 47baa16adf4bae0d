package clicmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/javanhut/mog/internal/colors"
	"github.com/javanhut/mog/internal/repo"
)

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Initialize a new mog repository",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target := "."
		if len(args) == 1 {
			target = args[0]
		}
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		root := filepath.Join(wd, target)
		if err := os.MkdirAll(root, 0o755); err != nil {
			return err
		}
		r, err := repo.Init(root)
		if err != nil {
			return err
		}
		defer r.Close()
		fmt.Println(colors.SuccessText("Initialized empty mog repository in " + r.MogDir))
		return nil
	},
}
