package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ssargent/bsfedit/pkg/document"
)

// openDocument loads an existing file
func openDocument(path string) (*document.Document, error) {
	return container.LoadDocument(path)
}

// openOrCreateDocument loads path, or starts an empty document that will be
// saved to path when the file does not exist yet
func openOrCreateDocument(path string) (*document.Document, error) {
	d, err := container.LoadDocument(path)
	if errors.Is(err, os.ErrNotExist) {
		d = container.NewDocument()
		d.Path = path
		return d, nil
	}
	return d, err
}

// saveDocument writes doc to path (or its own path), reports skipped entries
// and records history snapshots of the file before and after the write
func saveDocument(cmd *cobra.Command, doc *document.Document, path string) error {
	if path == "" {
		path = doc.Path
	}
	snapshot(path)

	report, err := doc.Save(path)
	if err != nil {
		return err
	}
	outputReport(cmd, doc.Path, report)

	snapshot(doc.Path)
	return nil
}

// snapshot records the file at path in the history store when history is
// enabled. Failures are logged and otherwise ignored.
func snapshot(path string) {
	if !container.Config().History.Enabled || path == "" {
		return
	}
	if _, err := os.Stat(path); err != nil {
		return
	}

	logger := container.Logger()
	store, err := container.OpenHistory()
	if err != nil {
		logger.Warn("Failed to open history", zap.Error(err))
		return
	}
	defer store.Close()

	snap, err := store.PutFile(path)
	if err != nil {
		logger.Warn("Failed to record snapshot", zap.String("path", path), zap.Error(err))
		return
	}
	logger.Debug("Recorded snapshot", zap.String("path", path), zap.Stringer("id", snap.ID))
}

// findEntry returns the entry with key and its 1-based row
func findEntry(doc *document.Document, key string) (document.Match, error) {
	i := doc.IndexOf(key)
	if i < 0 {
		return document.Match{}, fmt.Errorf("key not found: %s", key)
	}
	return document.Match{Row: i + 1, Entry: doc.Entries[i]}, nil
}
