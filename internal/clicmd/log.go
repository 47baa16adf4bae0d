package clicmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/javanhut/mog/internal/colors"
)

var logLimit int

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Show commit history along HEAD's first-parent chain",
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := openRepo()
		if err != nil {
			return err
		}
		defer r.Close()

		current, err := r.HeadCommit()
		if err != nil {
			return err
		}

		for i := 0; logLimit <= 0 || i < logLimit; i++ {
			c, err := r.ReadCommit(current)
			if err != nil {
				return err
			}

			fmt.Printf("%s %s\n", colors.Yellow("commit"), colors.Bold(current.String()))
			fmt.Printf("Author: %s\n", c.Author)
			fmt.Printf("Date:   %s\n", time.Unix(c.Timestamp, 0).Format(time.RFC1123Z))
			fmt.Printf("\n    %s\n\n", c.Message)

			if len(c.Parents) == 0 {
				break
			}
			current = c.Parents[0]
		}
		return nil
	},
}

func init() {
	logCmd.Flags().IntVarP(&logLimit, "max-count", "n", 0, "limit the number of commits shown (0 = unlimited)")
}
