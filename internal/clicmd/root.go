// Package clicmd wires mog's cobra command tree: one file per command
// group, mirroring the teacher's cli package's root-command-plus-grouped-
// registration pattern (cli/cli.go).
package clicmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/javanhut/mog/internal/mogerr"
	"github.com/javanhut/mog/internal/repo"
)

const Version = "0.1.0"

// verbose and rootAuthor are persistent root flags registered directly
// against the command's pflag.FlagSet rather than through cobra's
// StringVarP/BoolVarP helpers, mirroring the teacher's root command setup.
var verbose bool
var rootAuthor string

var rootCmd = &cobra.Command{
	Use:   "mog",
	Short: "mog is a content-addressed version control system",
	Long:  `mog tracks a working tree's history using a single-file, content-addressed object database.`,
}

func registerPersistentFlags(fs *pflag.FlagSet) {
	fs.BoolVarP(&verbose, "verbose", "v", false, "print extra diagnostic output")
	fs.StringVar(&rootAuthor, "author", "", `override author ("Name <email>") for this invocation`)
}

// Execute runs the root command and maps the returned error to a process
// exit code via exitCode (spec §9: "no interactive prompts, exit codes
// mapped from the error taxonomy").
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(exitCode(err))
	}
}

func init() {
	registerPersistentFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(stageCmd)
	rootCmd.AddCommand(unstageCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(commitCmd)
	rootCmd.AddCommand(checkoutCmd)
	rootCmd.AddCommand(branchCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(discardCmd)
	rootCmd.AddCommand(stashCmd)
	stashCmd.AddCommand(stashSaveCmd, stashPopCmd, stashApplyCmd, stashDropCmd, stashListCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(hashObjectCmd)
	rootCmd.AddCommand(catFileCmd)
	rootCmd.AddCommand(writeTreeCmd)
}

// exitCode maps mog's error taxonomy (spec §7) onto process exit codes.
func exitCode(err error) int {
	var me *mogerr.Error
	if !errors.As(err, &me) {
		return 1
	}
	switch me.Kind {
	case mogerr.KindNotFound:
		return 2
	case mogerr.KindNotARepository:
		return 3
	case mogerr.KindInvalidInput:
		return 4
	case mogerr.KindConflict:
		return 5
	case mogerr.KindCorruptIndex, mogerr.KindCorruptObjectDatabase:
		return 6
	case mogerr.KindHashTableFull, mogerr.KindIoError:
		return 7
	default:
		return 1
	}
}

// openRepo discovers and opens the repository containing the current
// working directory.
func openRepo() (*repo.Repository, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, mogerr.New(mogerr.KindIoError, "clicmd.openRepo", err)
	}
	root, err := repo.Discover(wd)
	if err != nil {
		return nil, err
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "mog: opening repository at %s\n", root)
	}
	return repo.Open(root)
}
