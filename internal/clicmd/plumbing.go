package clicmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/javanhut/mog/internal/colors"
	"github.com/javanhut/mog/internal/hash"
	"github.com/javanhut/mog/internal/objcodec"
)

var hashObjectWrite bool

var hashObjectCmd = &cobra.Command{
	Use:   "hash-object <file>",
	Short: "Compute a file's blob hash, optionally writing it into the object database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		record := objcodec.EncodeBlob(content)
		h := objcodec.HashOf(record)

		if hashObjectWrite {
			r, err := openRepo()
			if err != nil {
				return err
			}
			defer r.Close()
			if err := r.DB.StageWrite(h, record); err != nil {
				return err
			}
			if err := r.DB.Flush(); err != nil {
				return err
			}
		}
		fmt.Println(h.String())
		return nil
	},
}

var catFileCmd = &cobra.Command{
	Use:   "cat-file <hash>",
	Short: "Print the decoded contents of an object",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := hash.Parse(args[0])
		if err != nil {
			return err
		}
		r, err := openRepo()
		if err != nil {
			return err
		}
		defer r.Close()

		record, err := r.DB.Read(h)
		if err != nil {
			return err
		}
		tag, payload, err := objcodec.SplitRecord(record)
		if err != nil {
			return err
		}
		switch tag {
		case objcodec.TagBlob:
			content, err := objcodec.DecodeBlobPayload(payload)
			if err != nil {
				return err
			}
			os.Stdout.Write(content)
		case objcodec.TagTree:
			entries, err := objcodec.DecodeTreePayload(payload)
			if err != nil {
				return err
			}
			for _, e := range entries {
				fmt.Printf("%06o %s %s\n", e.Mode, e.Hash, e.Name)
			}
		case objcodec.TagCommit:
			c, err := objcodec.DecodeCommitPayload(payload)
			if err != nil {
				return err
			}
			fmt.Printf("tree %s\n", c.Tree)
			for _, p := range c.Parents {
				fmt.Printf("parent %s\n", p)
			}
			fmt.Printf("author %s\n", c.Author)
			fmt.Printf("timestamp %d\n", c.Timestamp)
			fmt.Printf("\n%s\n", c.Message)
		default:
			return fmt.Errorf("cat-file: unknown object tag %v", tag)
		}
		return nil
	},
}

var writeTreeCmd = &cobra.Command{
	Use:   "write-tree",
	Short: "Write the current index as a tree object and print its hash",
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := openRepo()
		if err != nil {
			return err
		}
		defer r.Close()

		h, err := r.Index.WriteTree(r.DB)
		if err != nil {
			return err
		}
		if err := r.DB.Flush(); err != nil {
			return err
		}
		fmt.Println(colors.Cyan(h.String()))
		return nil
	},
}
