// Package codec reads and writes BSF (Binary String Format) files.
//
// A BSF file is an ordered list of key/value string pairs. The codec converts
// between an in-memory entry sequence and the exact byte layout on disk.
//
// # File Format
//
// Every multi-byte field is little-endian:
//
//	[Magic(4)="BZBT"][A(2)=1][B(2)=2][C(4)=16][D(4)=0][Entry]...
//
// The four header words have no known meaning. They are written verbatim and
// validated on read (see Header).
//
// Each entry record is:
//
//	[Reserved(1)=0][KeyLen(1)][ValueLen(2, signed)][Key][Value]
//
// Fields:
//   - Reserved: always 0x00
//   - KeyLen: unsigned key length in UTF-16 code units (0-255)
//   - ValueLen: signed value length in UTF-16 code units (0-32767)
//   - Key, Value: UTF-16 code units, two bytes each
//
// There is no footer. The file ends after the last record.
//
// # Text
//
// Keys and values are Text values: slices of UTF-16 code units. Keeping the
// units as they appear on disk means a decoded file can be written back
// unchanged even when it contains unpaired surrogates. Use NewText and
// Text.String to convert from and to Go strings.
//
// # Usage
//
//	c := codec.NewCodec()
//
//	var buf bytes.Buffer
//	report, err := c.Encode(&buf, []codec.Entry{
//	    codec.NewEntry("greeting", "hello"),
//	})
//	if err != nil {
//	    return err
//	}
//	for _, s := range report.Skipped {
//	    log.Printf("skipped %s: %v", s.Key, s.Reason)
//	}
//
//	entries, err := c.Decode(&buf)
//
// # Error Handling
//
// Encode never fails because of a single entry. Entries whose key or value
// exceed the length limits are left out and listed in the EncodeReport.
// Encode fails only when the writer does.
//
// Decode fails the whole call on a structural problem. The returned error is a
// *DecodeError carrying the byte offset, and it wraps one of ErrBadMagic,
// ErrUnsupportedHeader, ErrReservedByte, ErrNegativeLength or ErrTruncated so
// that errors.Is works.
//
// # Thread Safety
//
// A Codec holds only its options and is safe for concurrent use. A stream must
// not be shared between concurrent Encode or Decode calls.
package codec
