package document

import (
	"fmt"
	"strings"

	"github.com/ssargent/bsfedit/pkg/codec"
)

// Match is a search hit. Row is 1-based, the way rows are numbered in listings.
type Match struct {
	Row   int
	Entry codec.Entry
}

// IndexOf returns the index of the first entry with key, or -1
func (d *Document) IndexOf(key string) int {
	k := codec.NewText(key)
	for i, e := range d.Entries {
		if e.Key.Equal(k) {
			return i
		}
	}
	return -1
}

// Get returns the first entry with key
func (d *Document) Get(key string) (codec.Entry, bool) {
	i := d.IndexOf(key)
	if i < 0 {
		return codec.Entry{}, false
	}
	return d.Entries[i], true
}

// Set updates the value of the first entry with key, or appends a new entry.
// It reports whether an entry was added.
func (d *Document) Set(key, value string) bool {
	if i := d.IndexOf(key); i >= 0 {
		d.Entries[i].Value = codec.NewText(value)
		return false
	}
	d.Entries = append(d.Entries, codec.NewEntry(key, value))
	return true
}

// Insert places e at index i, shifting later entries down
func (d *Document) Insert(i int, e codec.Entry) error {
	if i < 0 || i > len(d.Entries) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
	}
	d.Entries = append(d.Entries, codec.Entry{})
	copy(d.Entries[i+1:], d.Entries[i:])
	d.Entries[i] = e
	return nil
}

// Delete removes the first entry with key and reports whether one was found
func (d *Document) Delete(key string) bool {
	i := d.IndexOf(key)
	if i < 0 {
		return false
	}
	d.Entries = append(d.Entries[:i], d.Entries[i+1:]...)
	return true
}

// CanMove reports whether the entry at index can move by delta positions
func (d *Document) CanMove(index, delta int) bool {
	return index > -1 &&
		index < len(d.Entries) &&
		index+delta >= 0 &&
		index+delta < len(d.Entries)
}

// Move shifts the entry at index by delta positions and returns its new index
func (d *Document) Move(index, delta int) (int, error) {
	if !d.CanMove(index, delta) {
		return index, fmt.Errorf("%w: index %d by %d with %d entries", ErrMoveOutOfRange, index, delta, len(d.Entries))
	}

	e := d.Entries[index]
	newIndex := index + delta
	d.Entries = append(d.Entries[:index], d.Entries[index+1:]...)
	d.Entries = append(d.Entries, codec.Entry{})
	copy(d.Entries[newIndex+1:], d.Entries[newIndex:])
	d.Entries[newIndex] = e
	return newIndex, nil
}

// Search returns the entries whose key or value contains query, ignoring
// case. An empty query matches everything.
func (d *Document) Search(query string) []Match {
	q := strings.ToLower(query)
	matches := []Match{}
	for i, e := range d.Entries {
		if q == "" ||
			strings.Contains(strings.ToLower(e.Key.String()), q) ||
			strings.Contains(strings.ToLower(e.Value.String()), q) {
			matches = append(matches, Match{Row: i + 1, Entry: e})
		}
	}
	return matches
}

// DuplicateKeys returns every key that appears more than once, in order of first appearance
func (d *Document) DuplicateKeys() []string {
	counts := make(map[string]int, len(d.Entries))
	var order []codec.Text
	for _, e := range d.Entries {
		k := unitKey(e.Key)
		if counts[k] == 0 {
			order = append(order, e.Key)
		}
		counts[k]++
	}

	var dups []string
	for _, key := range order {
		if counts[unitKey(key)] > 1 {
			dups = append(dups, key.String())
		}
	}
	return dups
}

// unitKey gives an exact map key for a Text, unpaired surrogates included
func unitKey(t codec.Text) string {
	var b strings.Builder
	b.Grow(2 * len(t))
	for _, u := range t {
		b.WriteByte(byte(u))
		b.WriteByte(byte(u >> 8))
	}
	return b.String()
}
