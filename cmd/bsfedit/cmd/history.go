package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/segmentio/ksuid"
	"github.com/spf13/cobra"

	"github.com/ssargent/bsfedit/pkg/document"
	"github.com/ssargent/bsfedit/pkg/format"
	"github.com/ssargent/bsfedit/pkg/history"
)

func newHistoryCmd() *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect and restore saved versions of files",
		Long: `When history is enabled in the config file, bsfedit records a snapshot
of a file before and after every save. Snapshots are kept compressed in
the history directory and identified by ID.`,
	}

	historyCmd.AddCommand(newHistoryListCmd(), newHistoryShowCmd(), newHistoryRestoreCmd())
	return historyCmd
}

// withHistory opens the history store for the duration of fn
func withHistory(fn func(*history.Store) error) error {
	store, err := container.OpenHistory()
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func parseSnapshotID(s string) (ksuid.KSUID, error) {
	id, err := ksuid.Parse(s)
	if err != nil {
		return ksuid.Nil, fmt.Errorf("invalid snapshot id %q: %w", s, err)
	}
	return id, nil
}

func newHistoryListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <file>",
		Short: "List the snapshots of a file, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			return withHistory(func(store *history.Store) error {
				snaps, err := store.List(name)
				if err != nil {
					return err
				}
				return outputSnapshots(cmd, snaps)
			})
		},
	}
}

func newHistoryShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "List the entries of a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseSnapshotID(args[0])
			if err != nil {
				return err
			}
			return withHistory(func(store *history.Store) error {
				doc, err := snapshotDocument(store, id)
				if err != nil {
					return err
				}
				return outputEntries(cmd, doc.Search(""))
			})
		},
	}
}

func newHistoryRestoreCmd() *cobra.Command {
	restoreCmd := &cobra.Command{
		Use:   "restore <id>",
		Short: "Write a snapshot back to disk",
		Long: `Write the exact bytes of a snapshot back to the file it was taken from,
or to --to. The current contents of the target are recorded first.

Examples:
  bsfedit history restore 2mGqA2bVxVbXyO6C3QzGjG0Xv3S
  bsfedit history restore 2mGqA2bVxVbXyO6C3QzGjG0Xv3S --to old.bsf`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			to, _ := cmd.Flags().GetString("to")
			id, err := parseSnapshotID(args[0])
			if err != nil {
				return err
			}
			return withHistory(func(store *history.Store) error {
				snap, data, err := store.Get(id)
				if err != nil {
					return err
				}
				target := snap.Name
				if to != "" {
					target = to
				}

				if _, err := os.Stat(target); err == nil {
					if _, err := store.PutFile(target); err != nil {
						return err
					}
				}
				if err := os.WriteFile(target, data, 0644); err != nil {
					return fmt.Errorf("failed to restore %s: %w", target, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Restored %s from snapshot %s (%s)\n", target, id, snap.Time.Format("2006-01-02 15:04:05"))
				return nil
			})
		},
	}
	restoreCmd.Flags().String("to", "", "Restore to this path instead of the original file")
	return restoreCmd
}

// snapshotDocument decodes a snapshot using the format of its file name
func snapshotDocument(store *history.Store, id ksuid.KSUID) (*document.Document, error) {
	snap, data, err := store.Get(id)
	if err != nil {
		return nil, err
	}
	f, err := format.Detect(snap.Name)
	if err != nil {
		return nil, err
	}
	entries, err := format.Read(bytes.NewReader(data), f, container.Codec())
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %s: %w", id, err)
	}
	doc := container.NewDocument()
	doc.Entries = entries
	return doc, nil
}
