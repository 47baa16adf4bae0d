package clicmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/javanhut/mog/internal/colors"
)

var commitMessage string
var commitAuthor string

var commitCmd = &cobra.Command{
	Use:   "commit",
	Short: "Record the staged tree as a new commit",
	RunE: func(cmd *cobra.Command, args []string) error {
		if commitMessage == "" {
			return fmt.Errorf("commit message required (-m)")
		}
		r, err := openRepo()
		if err != nil {
			return err
		}
		defer r.Close()

		author := commitAuthor
		if author == "" {
			author = rootAuthor
		}
		if author == "" {
			author, err = r.ResolveAuthor()
			if err != nil {
				return err
			}
		}

		h, err := r.Commit(author, commitMessage, time.Now().Unix())
		if err != nil {
			return err
		}
		fmt.Printf("%s %s\n", colors.SuccessText("Created commit"), colors.Cyan(h.String()))
		return nil
	},
}

func init() {
	commitCmd.Flags().StringVarP(&commitMessage, "message", "m", "", "commit message")
	commitCmd.Flags().StringVar(&commitAuthor, "author", "", `override author ("Name <email>")`)
}
