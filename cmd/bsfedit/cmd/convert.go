package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ssargent/bsfedit/pkg/codec"
	"github.com/ssargent/bsfedit/pkg/format"
)

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file> <source>...",
		Short: "Append the entries of other files",
		Long: `Append every entry of each source file to the end of file and save it.
The file is created when it does not exist.

Example:
  bsfedit import strings.bsf extra.json more.yaml`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := openOrCreateDocument(args[0])
			if err != nil {
				return err
			}
			for _, src := range args[1:] {
				n, err := doc.Import(src)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Imported %d entries from %s\n", n, src)
			}
			return saveDocument(cmd, doc, "")
		},
	}
}

func newConvertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "convert <source> <destination>",
		Short: "Convert between BSF, JSON, YAML and MessagePack",
		Long: `Read source and write its entries to destination. Both formats follow
the file extensions: .bsf, .json, .yaml/.yml and .msgpack/.mpk.

Entries whose key is longer than 255 or value longer than 32767 UTF-16
code units cannot be stored in BSF and are skipped.

Examples:
  bsfedit convert strings.bsf strings.json
  bsfedit convert strings.yaml strings.bsf`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := openDocument(args[0])
			if err != nil {
				return err
			}
			return saveDocument(cmd, doc, args[1])
		},
	}
}

// validation is the result of checking one file
type validation struct {
	Path       string        `json:"path"`
	Format     string        `json:"format"`
	Header     *codec.Header `json:"header,omitempty"`
	Entries    int           `json:"entries"`
	Duplicates []string      `json:"duplicates"`
	Oversized  []string      `json:"oversized"`
	Valid      bool          `json:"valid"`
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a file for problems",
		Long: `Decode a file and report duplicate keys and entries too long to store
in BSF. BSF files are decoded strictly unless --lenient is given.
Exits with an error when the file has problems.

Example:
  bsfedit validate strings.bsf`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := validateFile(args[0])
			if err != nil {
				return err
			}

			if jsonOutput(cmd) {
				if err := writeJSON(cmd.OutOrStdout(), v); err != nil {
					return err
				}
			} else {
				printValidation(cmd, v)
			}

			if !v.Valid {
				return errors.New("validation failed")
			}
			return nil
		},
	}
}

func validateFile(path string) (*validation, error) {
	f, err := format.Detect(path)
	if err != nil {
		return nil, err
	}

	doc := container.NewDocument()
	v := &validation{Path: path, Format: string(f), Duplicates: []string{}, Oversized: []string{}}

	if f == format.BSF {
		file, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer file.Close()

		decoded, err := container.Codec().DecodeFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		v.Header = &decoded.Header
		doc.Entries = decoded.Entries
	} else if err := doc.Open(path); err != nil {
		return nil, err
	}

	v.Entries = doc.Len()
	if dups := doc.DuplicateKeys(); len(dups) > 0 {
		v.Duplicates = dups
	}
	for _, e := range doc.Entries {
		if codec.CheckEntry(e) != nil {
			v.Oversized = append(v.Oversized, e.Key.String())
		}
	}
	v.Valid = len(v.Duplicates) == 0 && len(v.Oversized) == 0
	return v, nil
}

func printValidation(cmd *cobra.Command, v *validation) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "File:     %s (%s)\n", v.Path, v.Format)
	if v.Header != nil {
		fmt.Fprintf(w, "Header:   %d %d %d %d\n", v.Header.A, v.Header.B, v.Header.C, v.Header.D)
	}
	fmt.Fprintf(w, "Entries:  %d\n", v.Entries)
	for _, k := range v.Duplicates {
		fmt.Fprintf(w, "Duplicate key: %s\n", k)
	}
	for _, k := range v.Oversized {
		fmt.Fprintf(w, "Oversized entry: %s\n", k)
	}
	if v.Valid {
		fmt.Fprintln(w, "OK")
	}
}
