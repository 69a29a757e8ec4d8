package format

import (
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/ssargent/bsfedit/pkg/codec"
)

// readMsgpack reads one MessagePack map of strings, keeping encoded order
func readMsgpack(r io.Reader) ([]codec.Entry, error) {
	dec := msgpack.NewDecoder(r)

	n, err := dec.DecodeMapLen()
	if err != nil {
		return nil, fmt.Errorf("failed to read MessagePack map: %w", err)
	}

	// n comes from the file; entries grow as they are actually read
	entries := []codec.Entry{}
	for i := 0; i < n; i++ {
		key, err := dec.DecodeString()
		if err != nil {
			return nil, fmt.Errorf("failed to read MessagePack key %d: %w", i, err)
		}
		value, err := dec.DecodeString()
		if err != nil {
			return nil, fmt.Errorf("failed to read MessagePack value for %q: %w", key, err)
		}
		entries = append(entries, codec.NewEntry(key, value))
	}

	return entries, nil
}

// writeMsgpack writes entries as one MessagePack map in sequence order
func writeMsgpack(w io.Writer, entries []codec.Entry) error {
	enc := msgpack.NewEncoder(w)

	if err := enc.EncodeMapLen(len(entries)); err != nil {
		return fmt.Errorf("failed to write MessagePack map: %w", err)
	}
	for _, e := range entries {
		if err := enc.EncodeString(e.Key.String()); err != nil {
			return fmt.Errorf("failed to write MessagePack key: %w", err)
		}
		if err := enc.EncodeString(e.Value.String()); err != nil {
			return fmt.Errorf("failed to write MessagePack value: %w", err)
		}
	}
	return nil
}
