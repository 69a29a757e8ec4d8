package codec

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Decode reads a complete BSF file and returns its entries in file order
func (c *Codec) Decode(r io.Reader) ([]Entry, error) {
	f, err := c.DecodeFile(r)
	if err != nil {
		return nil, err
	}
	return f.Entries, nil
}

// DecodeFile reads a complete BSF file. The stream must end exactly at a
// record boundary.
func (c *Codec) DecodeFile(r io.Reader) (*File, error) {
	// The magic is read straight from r so that a non-BSF stream loses
	// nothing past its first four bytes.
	var magic [magicSize]byte
	if n, err := io.ReadFull(r, magic[:]); err != nil {
		if !bytes.HasPrefix(Magic[:], magic[:n]) {
			return nil, &DecodeError{Offset: 0, Err: ErrBadMagic}
		}
		return nil, readError(int64(n), err)
	}
	if magic != Magic {
		return nil, &DecodeError{Offset: 0, Err: ErrBadMagic}
	}

	br := bufio.NewReader(r)

	var hb [headerSize]byte
	if n, err := io.ReadFull(br, hb[:]); err != nil {
		return nil, readError(int64(magicSize+n), err)
	}
	h := parseHeader(hb[:])
	if c.strict {
		if err := h.Validate(); err != nil {
			return nil, &DecodeError{Offset: magicSize, Err: err}
		}
	}

	f := &File{Header: h, Entries: []Entry{}}
	off := int64(PreambleSize)
	var rh [recordHeaderSize]byte
	for {
		n, err := io.ReadFull(br, rh[:])
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, readError(off+int64(n), err)
		}

		if c.strict && rh[0] != reservedByte {
			return nil, &DecodeError{Offset: off, Err: fmt.Errorf("%w: 0x%02x", ErrReservedByte, rh[0])}
		}
		keyLen := int(rh[1])
		valueLen := int16(binary.LittleEndian.Uint16(rh[2:4]))
		if valueLen < 0 {
			return nil, &DecodeError{Offset: off + 2, Err: fmt.Errorf("%w: %d", ErrNegativeLength, valueLen)}
		}
		off += recordHeaderSize

		key, err := readText(br, keyLen)
		if err != nil {
			return nil, readError(off, err)
		}
		off += int64(2 * keyLen)

		value, err := readText(br, int(valueLen))
		if err != nil {
			return nil, readError(off, err)
		}
		off += int64(2 * int(valueLen))

		f.Entries = append(f.Entries, Entry{Key: key, Value: value})
	}

	return f, nil
}

func readText(r io.Reader, units int) (Text, error) {
	buf := make([]byte, 2*units)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	t := make(Text, units)
	for i := range t {
		t[i] = binary.LittleEndian.Uint16(buf[2*i:])
	}
	return t, nil
}

// readError maps a short read to ErrTruncated and keeps other I/O errors as they are
func readError(off int64, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return &DecodeError{Offset: off, Err: ErrTruncated}
	}
	return &DecodeError{Offset: off, Err: err}
}
