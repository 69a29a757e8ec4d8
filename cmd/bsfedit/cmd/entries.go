package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ssargent/bsfedit/pkg/codec"
)

func newDumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump <file>",
		Short: "List every entry in a file",
		Long: `List every entry of a BSF, JSON, YAML or MessagePack file in order.

Examples:
  bsfedit dump strings.bsf
  bsfedit dump strings.bsf -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := openDocument(args[0])
			if err != nil {
				return err
			}
			return outputEntries(cmd, doc.Search(""))
		},
	}
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <file> <key>",
		Short: "Print the value for a key",
		Long: `Print the value of the first entry with the given key.

Example:
  bsfedit get strings.bsf menu.start`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := openDocument(args[0])
			if err != nil {
				return err
			}
			m, err := findEntry(doc, args[1])
			if err != nil {
				return err
			}
			return outputEntry(cmd, m)
		},
	}
}

func newSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <file> <key> <value>",
		Short: "Set the value for a key",
		Long: `Update the first entry with the given key, or append a new entry.
The file is created when it does not exist.

Examples:
  bsfedit set strings.bsf menu.start "Start Race"
  bsfedit set new.bsf greeting hello`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[1], args[2]
			if err := codec.CheckEntry(codec.NewEntry(key, value)); err != nil {
				return err
			}

			doc, err := openOrCreateDocument(args[0])
			if err != nil {
				return err
			}
			if doc.Set(key, value) {
				fmt.Fprintf(cmd.ErrOrStderr(), "Added %s\n", key)
			}
			return saveDocument(cmd, doc, "")
		},
	}
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <file> <key>",
		Short: "Delete the entry for a key",
		Long: `Remove the first entry with the given key.

Example:
  bsfedit delete strings.bsf menu.unused`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := openDocument(args[0])
			if err != nil {
				return err
			}
			if !doc.Delete(args[1]) {
				return fmt.Errorf("key not found: %s", args[1])
			}
			return saveDocument(cmd, doc, "")
		},
	}
}

func newMoveCmd() *cobra.Command {
	moveCmd := &cobra.Command{
		Use:   "move <file> <key>",
		Short: "Move an entry up or down",
		Long: `Move the first entry with the given key by a number of rows.
Negative values move the entry towards the top of the file.

Examples:
  bsfedit move strings.bsf menu.quit --by 1
  bsfedit move strings.bsf menu.quit --by=-2`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			by, _ := cmd.Flags().GetInt("by")

			doc, err := openDocument(args[0])
			if err != nil {
				return err
			}
			m, err := findEntry(doc, args[1])
			if err != nil {
				return err
			}
			newIndex, err := doc.Move(m.Row-1, by)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Moved %s from row %d to row %d\n", args[1], m.Row, newIndex+1)
			return saveDocument(cmd, doc, "")
		},
	}
	moveCmd.Flags().Int("by", 0, "Rows to move, negative moves up")
	_ = moveCmd.MarkFlagRequired("by")
	return moveCmd
}

func newSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <file> <text>",
		Short: "Find entries by key or value",
		Long: `List the entries whose key or value contains the text, ignoring case.

Example:
  bsfedit search strings.bsf race`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := openDocument(args[0])
			if err != nil {
				return err
			}
			return outputEntries(cmd, doc.Search(args[1]))
		},
	}
}
