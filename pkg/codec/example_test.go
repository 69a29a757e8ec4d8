package codec_test

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/ssargent/bsfedit/pkg/codec"
)

// ExampleCodec_Encode demonstrates writing and reading back a BSF file
func ExampleCodec_Encode() {
	c := codec.NewCodec()

	var buf bytes.Buffer
	report, err := c.Encode(&buf, []codec.Entry{
		codec.NewEntry("a", "1"),
		codec.NewEntry("bb", "22"),
	})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Wrote %d entries in %d bytes\n", report.Written, report.Bytes)
	fmt.Printf("% x\n", buf.Bytes()[:4])

	entries, err := c.Decode(&buf)
	if err != nil {
		log.Fatal(err)
	}
	for _, e := range entries {
		fmt.Println(e)
	}

	// Output:
	// Wrote 2 entries in 36 bytes
	// 42 5a 42 54
	// a=1
	// bb=22
}

// ExampleEncodeReport demonstrates the skip policy for oversized entries
func ExampleEncodeReport() {
	c := codec.NewCodec()

	_, report, err := c.Marshal([]codec.Entry{
		codec.NewEntry("title", "ok"),
		codec.NewEntry(strings.Repeat("k", 300), "too long"),
	})
	if err != nil {
		log.Fatal(err)
	}

	for _, s := range report.Skipped {
		fmt.Printf("skipped entry %d: %v\n", s.Index, errors.Is(s.Reason, codec.ErrKeyTooLong))
	}

	// Output:
	// skipped entry 1: true
}

// ExampleDecodeError demonstrates inspecting a decode failure
func ExampleDecodeError() {
	_, err := codec.NewCodec().Unmarshal([]byte("PK\x03\x04"))

	var decErr *codec.DecodeError
	if errors.As(err, &decErr) {
		fmt.Println(decErr.Offset, errors.Is(err, codec.ErrBadMagic))
	}

	// Output:
	// 0 true
}
