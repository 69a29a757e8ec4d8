// Package history keeps snapshots of saved files in a pebble database.
//
// Each snapshot is stored zstd-compressed under
//
//	s\x00<name>\x00<unix nanos, big-endian 8 bytes><ksuid 20 bytes>
//
// with a secondary key i\x00<ksuid> pointing back at it, so snapshots of a
// name iterate in save order and a single snapshot can be fetched by ID.
package history

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/pebble"
	"github.com/klauspost/compress/zstd"
	"github.com/segmentio/ksuid"
)

// ErrNotFound is returned when no snapshot has the requested ID
var ErrNotFound = errors.New("snapshot not found")

const (
	snapPrefix  = 's'
	indexPrefix = 'i'
	sep         = 0x00

	valueHeaderSize = 16 // Fingerprint(8) + Size(8)
	idSize          = 20 // ksuid binary length
)

// Snapshot describes one stored copy of a file
type Snapshot struct {
	ID          ksuid.KSUID
	Name        string
	Time        time.Time
	Size        int64  // Uncompressed size in bytes
	Fingerprint uint64 // xxhash64 of the uncompressed data
}

// Store is a snapshot history backed by pebble
type Store struct {
	db  *pebble.DB
	enc *zstd.Encoder
	dec *zstd.Decoder
	now func() time.Time
}

// Open opens or creates a history store in dir
func Open(dir string) (*Store, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		db.Close()
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		db.Close()
		return nil, err
	}

	return &Store{db: db, enc: enc, dec: dec, now: time.Now}, nil
}

// Close releases the database
func (s *Store) Close() error {
	s.dec.Close()
	if err := s.enc.Close(); err != nil {
		s.db.Close()
		return err
	}
	return s.db.Close()
}

// Put stores data as the newest snapshot of name. When data is identical to
// the latest snapshot of name nothing is written and that snapshot is returned.
func (s *Store) Put(name string, data []byte) (Snapshot, error) {
	fp := xxhash.Sum64(data)

	latest, ok, err := s.Latest(name)
	if err != nil {
		return Snapshot{}, err
	}
	if ok && latest.Fingerprint == fp && latest.Size == int64(len(data)) {
		return latest, nil
	}

	ts := s.now().UnixNano()
	if ok && ts <= latest.Time.UnixNano() {
		ts = latest.Time.UnixNano() + 1
	}

	snap := Snapshot{
		ID:          ksuid.New(),
		Name:        name,
		Time:        time.Unix(0, ts),
		Size:        int64(len(data)),
		Fingerprint: fp,
	}

	key := snapKey(name, ts, snap.ID)
	value := make([]byte, valueHeaderSize, valueHeaderSize+len(data)/2)
	binary.BigEndian.PutUint64(value[0:], fp)
	binary.BigEndian.PutUint64(value[8:], uint64(len(data)))
	value = s.enc.EncodeAll(data, value)

	b := s.db.NewBatch()
	defer b.Close()
	if err := b.Set(key, value, nil); err != nil {
		return Snapshot{}, err
	}
	if err := b.Set(indexKey(snap.ID), key, nil); err != nil {
		return Snapshot{}, err
	}
	if err := b.Commit(pebble.Sync); err != nil {
		return Snapshot{}, fmt.Errorf("failed to store snapshot: %w", err)
	}

	return snap, nil
}

// PutFile snapshots the file at path under its absolute path
func (s *Store) PutFile(path string) (Snapshot, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Snapshot{}, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return s.Put(abs, data)
}

// Latest returns the newest snapshot of name
func (s *Store) Latest(name string) (Snapshot, bool, error) {
	lower, upper := nameBounds(name)
	iter, err := s.db.NewIter(&pebble.IterOptions{LowerBound: lower, UpperBound: upper})
	if err != nil {
		return Snapshot{}, false, err
	}
	defer iter.Close()

	if !iter.Last() {
		return Snapshot{}, false, iter.Error()
	}
	snap, err := parseSnapshot(iter.Key(), iter.Value())
	if err != nil {
		return Snapshot{}, false, err
	}
	return snap, true, nil
}

// List returns every snapshot of name, newest first
func (s *Store) List(name string) ([]Snapshot, error) {
	lower, upper := nameBounds(name)
	iter, err := s.db.NewIter(&pebble.IterOptions{LowerBound: lower, UpperBound: upper})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	snaps := []Snapshot{}
	for iter.Last(); iter.Valid(); iter.Prev() {
		snap, err := parseSnapshot(iter.Key(), iter.Value())
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}
	return snaps, iter.Error()
}

// Get returns a snapshot and its data
func (s *Store) Get(id ksuid.KSUID) (Snapshot, []byte, error) {
	key, closer, err := s.db.Get(indexKey(id))
	if errors.Is(err, pebble.ErrNotFound) {
		return Snapshot{}, nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Snapshot{}, nil, err
	}
	key = bytes.Clone(key)
	closer.Close()

	value, closer, err := s.db.Get(key)
	if err != nil {
		return Snapshot{}, nil, fmt.Errorf("failed to read snapshot %s: %w", id, err)
	}
	defer closer.Close()

	snap, err := parseSnapshot(key, value)
	if err != nil {
		return Snapshot{}, nil, err
	}

	data, err := s.dec.DecodeAll(value[valueHeaderSize:], make([]byte, 0, snap.Size))
	if err != nil {
		return Snapshot{}, nil, fmt.Errorf("failed to decompress snapshot %s: %w", id, err)
	}
	if xxhash.Sum64(data) != snap.Fingerprint {
		return Snapshot{}, nil, fmt.Errorf("snapshot %s is corrupt: fingerprint mismatch", id)
	}
	return snap, data, nil
}

func namePrefix(name string) []byte {
	p := make([]byte, 0, len(name)+3)
	p = append(p, snapPrefix, sep)
	p = append(p, name...)
	return append(p, sep)
}

func nameBounds(name string) (lower, upper []byte) {
	lower = namePrefix(name)
	upper = bytes.Clone(lower)
	upper[len(upper)-1] = sep + 1
	return lower, upper
}

func snapKey(name string, ts int64, id ksuid.KSUID) []byte {
	key := namePrefix(name)
	key = binary.BigEndian.AppendUint64(key, uint64(ts))
	return append(key, id.Bytes()...)
}

func indexKey(id ksuid.KSUID) []byte {
	return append([]byte{indexPrefix, sep}, id.Bytes()...)
}

func parseSnapshot(key, value []byte) (Snapshot, error) {
	if len(key) < 2+1+8+idSize || len(value) < valueHeaderSize {
		return Snapshot{}, fmt.Errorf("malformed snapshot record")
	}

	idStart := len(key) - idSize
	tsStart := idStart - 8
	id, err := ksuid.FromBytes(key[idStart:])
	if err != nil {
		return Snapshot{}, fmt.Errorf("malformed snapshot id: %w", err)
	}

	return Snapshot{
		ID:          id,
		Name:        string(key[2 : tsStart-1]),
		Time:        time.Unix(0, int64(binary.BigEndian.Uint64(key[tsStart:idStart]))),
		Size:        int64(binary.BigEndian.Uint64(value[8:16])),
		Fingerprint: binary.BigEndian.Uint64(value[0:8]),
	}, nil
}
