package codec

import (
	"encoding/binary"
	"fmt"
)

// Magic is the four byte signature every BSF file starts with
var Magic = [4]byte{0x42, 0x5A, 0x42, 0x54} // "BZBT"

// Expected header words. Their meaning is unknown, only their values are.
const (
	HeaderWordA uint16 = 1
	HeaderWordB uint16 = 2
	HeaderWordC uint32 = 16
	HeaderWordD uint32 = 0
)

const (
	magicSize        = 4
	headerSize       = 12 // A(2) + B(2) + C(4) + D(4)
	recordHeaderSize = 4  // Reserved(1) + KeyLen(1) + ValueLen(2)
	reservedByte     = 0x00

	// PreambleSize is the size of magic plus header, the size of an empty file
	PreambleSize = magicSize + headerSize
)

// Header holds the four opaque words following the magic
type Header struct {
	A uint16
	B uint16
	C uint32
	D uint32
}

// DefaultHeader returns the header every conforming writer produces
func DefaultHeader() Header {
	return Header{A: HeaderWordA, B: HeaderWordB, C: HeaderWordC, D: HeaderWordD}
}

// Validate checks the header words against the expected constants
func (h Header) Validate() error {
	if h != DefaultHeader() {
		return fmt.Errorf("%w: got %d/%d/%d/%d, want %d/%d/%d/%d", ErrUnsupportedHeader,
			h.A, h.B, h.C, h.D, HeaderWordA, HeaderWordB, HeaderWordC, HeaderWordD)
	}
	return nil
}

func (h Header) put(buf []byte) {
	binary.LittleEndian.PutUint16(buf[0:], h.A)
	binary.LittleEndian.PutUint16(buf[2:], h.B)
	binary.LittleEndian.PutUint32(buf[4:], h.C)
	binary.LittleEndian.PutUint32(buf[8:], h.D)
}

func parseHeader(buf []byte) Header {
	return Header{
		A: binary.LittleEndian.Uint16(buf[0:2]),
		B: binary.LittleEndian.Uint16(buf[2:4]),
		C: binary.LittleEndian.Uint32(buf[4:8]),
		D: binary.LittleEndian.Uint32(buf[8:12]),
	}
}

// File is a decoded BSF file together with the header it was read with
type File struct {
	Header  Header
	Entries []Entry
}
