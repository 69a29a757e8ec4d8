package codec

import (
	"bytes"
)

// Codec encodes and decodes BSF files
type Codec struct {
	strict bool
}

// Option configures a Codec
type Option func(*Codec)

// WithStrict sets whether Decode rejects unexpected header words and non-zero
// reserved bytes. Strict is the default.
func WithStrict(strict bool) Option {
	return func(c *Codec) {
		c.strict = strict
	}
}

// WithLenient makes Decode accept any header words and reserved bytes. The
// header read is kept on File.Header so EncodeFile can reproduce it.
func WithLenient() Option {
	return WithStrict(false)
}

// NewCodec creates a new codec instance
func NewCodec(opts ...Option) *Codec {
	c := &Codec{strict: true}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Strict reports whether the codec rejects header deviations
func (c *Codec) Strict() bool {
	return c.strict
}

// Marshal encodes entries into a new byte slice
func (c *Codec) Marshal(entries []Entry) ([]byte, *EncodeReport, error) {
	var buf bytes.Buffer
	buf.Grow(encodedSize(entries))
	report, err := c.Encode(&buf, entries)
	if err != nil {
		return nil, nil, err
	}
	return buf.Bytes(), report, nil
}

// Unmarshal decodes a complete BSF file held in memory
func (c *Codec) Unmarshal(data []byte) ([]Entry, error) {
	return c.Decode(bytes.NewReader(data))
}

func encodedSize(entries []Entry) int {
	size := PreambleSize
	for _, e := range entries {
		if CheckEntry(e) == nil {
			size += e.Size()
		}
	}
	return size
}
