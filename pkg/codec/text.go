package codec

import (
	"slices"
	"unicode/utf16"
)

// Text is a string held as UTF-16 code units, the way BSF stores it.
type Text []uint16

// NewText converts a Go string to UTF-16 code units
func NewText(s string) Text {
	return Text(utf16.Encode([]rune(s)))
}

// String converts the code units back to a Go string. Unpaired surrogates
// become U+FFFD.
func (t Text) String() string {
	return string(utf16.Decode(t))
}

// Len returns the length in code units
func (t Text) Len() int {
	return len(t)
}

// Equal reports whether both texts hold the same code units
func (t Text) Equal(other Text) bool {
	return slices.Equal(t, other)
}

// Clone returns a copy that does not share storage with t
func (t Text) Clone() Text {
	if t == nil {
		return nil
	}
	return slices.Clone(t)
}

// MarshalText implements encoding.TextMarshaler
func (t Text) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (t *Text) UnmarshalText(b []byte) error {
	*t = NewText(string(b))
	return nil
}
