package format

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/ssargent/bsfedit/pkg/codec"
)

// readJSON reads a single JSON object keeping its member order. Repeated
// member names become separate entries.
func readJSON(r io.Reader) ([]codec.Entry, error) {
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to read JSON: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("failed to read JSON: expected object, got %v", tok)
	}

	entries := []codec.Entry{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("failed to read JSON key: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("failed to read JSON key: unexpected %v", tok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("failed to read JSON value for %q: %w", key, err)
		}
		// Unmarshal leaves a string untouched on null
		if bytes.Equal(raw, []byte("null")) {
			return nil, fmt.Errorf("failed to read JSON value for %q: null is not a string", key)
		}
		var value string
		if err := json.Unmarshal(raw, &value); err != nil {
			return nil, fmt.Errorf("failed to read JSON value for %q: %w", key, err)
		}
		entries = append(entries, codec.NewEntry(key, value))
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("failed to read JSON: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read JSON: trailing data after object")
	}

	return entries, nil
}

// writeJSON writes entries as one indented JSON object in sequence order
func writeJSON(w io.Writer, entries []codec.Entry) error {
	bw := bufio.NewWriter(w)

	if len(entries) == 0 {
		bw.WriteString("{}\n")
		return bw.Flush()
	}

	bw.WriteString("{\n")
	for i, e := range entries {
		key, err := quoteJSON(e.Key.String())
		if err != nil {
			return err
		}
		value, err := quoteJSON(e.Value.String())
		if err != nil {
			return err
		}

		bw.WriteString("  ")
		bw.Write(key)
		bw.WriteString(": ")
		bw.Write(value)
		if i < len(entries)-1 {
			bw.WriteByte(',')
		}
		bw.WriteByte('\n')
	}
	bw.WriteString("}\n")

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write JSON: %w", err)
	}
	return nil
}

func quoteJSON(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, fmt.Errorf("failed to encode JSON string: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
