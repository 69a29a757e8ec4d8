package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ssargent/bsfedit/pkg/codec"
	"github.com/ssargent/bsfedit/pkg/document"
	"github.com/ssargent/bsfedit/pkg/history"
)

// entryJSON is the JSON shape of one listed entry
type entryJSON struct {
	Row   int    `json:"row"`
	Key   string `json:"key"`
	Value string `json:"value"`
}

// snapshotJSON is the JSON shape of one history snapshot
type snapshotJSON struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Time        time.Time `json:"time"`
	Size        int64     `json:"size"`
	Fingerprint string    `json:"fingerprint"`
}

var displayEscaper = strings.NewReplacer("\\", "\\\\", "\n", "\\n", "\r", "\\r", "\t", "\\t")

// display makes text safe for a single table cell
func display(t codec.Text) string {
	return displayEscaper.Replace(t.String())
}

func writeJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// outputEntries displays a list of entries
func outputEntries(cmd *cobra.Command, matches []document.Match) error {
	w := cmd.OutOrStdout()
	if jsonOutput(cmd) {
		out := make([]entryJSON, len(matches))
		for i, m := range matches {
			out[i] = entryJSON{Row: m.Row, Key: m.Entry.Key.String(), Value: m.Entry.Value.String()}
		}
		return writeJSON(w, out)
	}

	if len(matches) == 0 {
		fmt.Fprintln(w, "No entries found")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "ROW\tKEY\tVALUE")
	for _, m := range matches {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", m.Row, display(m.Entry.Key), display(m.Entry.Value))
	}
	return nil
}

// outputEntry displays one entry. Table output is the bare value.
func outputEntry(cmd *cobra.Command, m document.Match) error {
	w := cmd.OutOrStdout()
	if jsonOutput(cmd) {
		return writeJSON(w, entryJSON{Row: m.Row, Key: m.Entry.Key.String(), Value: m.Entry.Value.String()})
	}
	_, err := fmt.Fprintln(w, m.Entry.Value.String())
	return err
}

// outputSnapshots displays history snapshots
func outputSnapshots(cmd *cobra.Command, snaps []history.Snapshot) error {
	w := cmd.OutOrStdout()
	if jsonOutput(cmd) {
		out := make([]snapshotJSON, len(snaps))
		for i, s := range snaps {
			out[i] = snapshotJSON{
				ID:          s.ID.String(),
				Name:        s.Name,
				Time:        s.Time,
				Size:        s.Size,
				Fingerprint: fmt.Sprintf("%016x", s.Fingerprint),
			}
		}
		return writeJSON(w, out)
	}

	if len(snaps) == 0 {
		fmt.Fprintln(w, "No snapshots found")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "ID\tTIME\tSIZE\tFINGERPRINT")
	for _, s := range snaps {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%016x\n", s.ID, s.Time.Format(time.RFC3339), s.Size, s.Fingerprint)
	}
	return nil
}

// outputReport prints skipped entries to stderr and a summary to stdout
func outputReport(cmd *cobra.Command, path string, report *codec.EncodeReport) {
	for _, s := range report.Skipped {
		fmt.Fprintf(cmd.ErrOrStderr(), "Skipped row %d (%s): %v\n", s.Index+1, display(s.Key), s.Reason)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d entries to %s\n", report.Written, path)
}
