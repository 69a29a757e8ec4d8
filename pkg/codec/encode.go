package codec

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

// SkippedEntry describes an entry Encode left out
type SkippedEntry struct {
	Index  int   // Position in the input sequence
	Key    Text  // Key of the skipped entry
	Reason error // Wraps ErrKeyTooLong or ErrValueTooLong
}

// EncodeReport lists what Encode wrote and what it skipped
type EncodeReport struct {
	Written int   // Number of entry records written
	Bytes   int64 // Total bytes written, preamble included
	Skipped []SkippedEntry
}

// Encode writes magic, the default header and every entry that fits the
// length limits. Oversized entries are skipped and listed in the report.
// Encode fails only when w does.
func (c *Codec) Encode(w io.Writer, entries []Entry) (*EncodeReport, error) {
	return c.encode(w, DefaultHeader(), entries)
}

// EncodeFile writes a file using its own header words
func (c *Codec) EncodeFile(w io.Writer, f *File) (*EncodeReport, error) {
	return c.encode(w, f.Header, f.Entries)
}

func (c *Codec) encode(w io.Writer, h Header, entries []Entry) (*EncodeReport, error) {
	bw := bufio.NewWriter(w)
	report := &EncodeReport{}

	var preamble [PreambleSize]byte
	copy(preamble[:], Magic[:])
	h.put(preamble[magicSize:])
	if _, err := bw.Write(preamble[:]); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	report.Bytes = PreambleSize

	var rec []byte
	for i, e := range entries {
		if err := CheckEntry(e); err != nil {
			report.Skipped = append(report.Skipped, SkippedEntry{
				Index:  i,
				Key:    e.Key.Clone(),
				Reason: err,
			})
			continue
		}

		rec = appendRecord(rec[:0], e)
		if _, err := bw.Write(rec); err != nil {
			return nil, fmt.Errorf("failed to write entry %d: %w", i, err)
		}
		report.Written++
		report.Bytes += int64(len(rec))
	}

	if err := bw.Flush(); err != nil {
		return nil, fmt.Errorf("failed to flush: %w", err)
	}
	return report, nil
}

// appendRecord encodes one entry. The caller has checked the length limits.
func appendRecord(buf []byte, e Entry) []byte {
	buf = append(buf, reservedByte, uint8(len(e.Key)))
	buf = binary.LittleEndian.AppendUint16(buf, uint16(int16(len(e.Value))))
	for _, u := range e.Key {
		buf = binary.LittleEndian.AppendUint16(buf, u)
	}
	for _, u := range e.Value {
		buf = binary.LittleEndian.AppendUint16(buf, u)
	}
	return buf
}
