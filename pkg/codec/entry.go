package codec

import (
	"fmt"
	"math"
)

const (
	// MaxKeyLen is the longest key, in code units, that fits the key length field
	MaxKeyLen = math.MaxUint8
	// MaxValueLen is the longest value, in code units, that fits the signed value length field
	MaxValueLen = math.MaxInt16
)

// Entry is one key/value pair of a BSF file
type Entry struct {
	Key   Text
	Value Text
}

// NewEntry creates an entry from Go strings
func NewEntry(key, value string) Entry {
	return Entry{Key: NewText(key), Value: NewText(value)}
}

// Equal reports whether both entries hold the same key and value
func (e Entry) Equal(other Entry) bool {
	return e.Key.Equal(other.Key) && e.Value.Equal(other.Value)
}

// Size returns the encoded size of the entry record in bytes
func (e Entry) Size() int {
	return recordHeaderSize + 2*len(e.Key) + 2*len(e.Value)
}

func (e Entry) String() string {
	return fmt.Sprintf("%s=%s", e.Key, e.Value)
}

// CheckEntry applies the length limits Encode uses. It returns an error
// wrapping ErrKeyTooLong or ErrValueTooLong for entries Encode would skip.
func CheckEntry(e Entry) error {
	if len(e.Key) > MaxKeyLen {
		return fmt.Errorf("%w: %d > %d", ErrKeyTooLong, len(e.Key), MaxKeyLen)
	}
	if len(e.Value) > MaxValueLen {
		return fmt.Errorf("%w: %d > %d", ErrValueTooLong, len(e.Value), MaxValueLen)
	}
	return nil
}

// EntriesEqual reports whether two sequences hold equal entries in the same order
func EntriesEqual(a, b []Entry) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}
