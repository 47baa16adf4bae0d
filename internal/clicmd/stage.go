package clicmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/javanhut/mog/internal/colors"
	"github.com/javanhut/mog/internal/stage"
)

var stageCmd = &cobra.Command{
	Use:   "stage [paths...]",
	Short: "Stage files for the next commit",
	Long:  `Stages files matching the given literal paths or regular expressions (relative to the repository root). With no arguments, stages everything.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := openRepo()
		if err != nil {
			return err
		}
		defer r.Close()

		stats, err := stage.Run(context.Background(), r.Root, args, r.Index, r.DB, r.Ignore)
		if err != nil {
			return err
		}
		if err := r.SaveIndex(); err != nil {
			return err
		}

		fmt.Printf("%s %d file(s) staged (%d bytes), %d skipped, %d removed\n",
			colors.SuccessText("Staged:"), stats.FilesStaged, stats.BytesStaged, stats.FilesSkipped, stats.FilesRemoved)
		return nil
	},
}
