package clicmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/javanhut/mog/internal/colors"
	"github.com/javanhut/mog/internal/config"
	"github.com/javanhut/mog/internal/repo"
)

var configGlobal bool

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Get or set configuration options",
	Long: `Get and set mog configuration options.

Configuration is merged from two levels:
- Global (~/.mogconfig) - applies to all repositories
- Repository (.mog/config.json) - applies to the current repository only

Examples:
  mog config user.name "Your Name"
  mog config user.email "you@example.com"
  mog config --global user.name "Your Name"
  mog config user.name`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := configRoot()
		if err != nil {
			return err
		}

		switch len(args) {
		case 1:
			value, err := config.GetValue(root, args[0])
			if err != nil {
				return err
			}
			if value == "" {
				fmt.Printf("%s is %s\n", args[0], colors.Gray("(not set)"))
			} else {
				fmt.Println(value)
			}
			return nil
		case 2:
			if err := config.SetValue(root, args[0], args[1], configGlobal); err != nil {
				return err
			}
			if args[0] == "user.name" || args[0] == "user.email" {
				if r, err := repo.Open(root); err == nil {
					_ = r.InvalidateAuthorCache()
					_ = r.Close()
				}
			}
			scope := "repository"
			if configGlobal {
				scope = "global"
			}
			fmt.Printf("%s %s config: %s = %s\n", colors.SuccessText("Set"), scope, colors.Bold(args[0]), colors.InfoText(args[1]))
			return nil
		default:
			return fmt.Errorf("usage: mog config <key> [value]")
		}
	},
}

// configRoot resolves a repository root for repo-scoped lookups, falling
// back to the current directory (e.g. "mog config --global ..." outside any
// repository still works, since it never touches .mog/config.json).
func configRoot() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	if root, err := repo.Discover(wd); err == nil {
		return root, nil
	}
	return wd, nil
}

func init() {
	configCmd.Flags().BoolVar(&configGlobal, "global", false, "use the global config file")
}
