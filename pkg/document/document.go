// Package document is the editing model for one BSF file: open, import,
// edit, reorder, search and save.
package document

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/ssargent/bsfedit/pkg/codec"
	"github.com/ssargent/bsfedit/pkg/format"
	"github.com/ssargent/bsfedit/pkg/logging"
)

var (
	// ErrEmpty is returned when saving a document without entries
	ErrEmpty = errors.New("document has no entries")

	// ErrNoPath is returned when saving without a path on a document never opened or saved
	ErrNoPath = errors.New("no file path")

	// ErrMoveOutOfRange is returned when a move would leave the entry list
	ErrMoveOutOfRange = errors.New("move out of range")

	// ErrIndexOutOfRange is returned for entry indexes outside the document
	ErrIndexOutOfRange = errors.New("index out of range")
)

// DuplicateKeysError is returned by Save when keys repeat
type DuplicateKeysError struct {
	Keys []string
}

func (e *DuplicateKeysError) Error() string {
	return fmt.Sprintf("duplicate keys: %s", strings.Join(e.Keys, ", "))
}

// Document holds the entries of one file in editing order. A Document is not
// safe for concurrent use.
type Document struct {
	Path    string
	Entries []codec.Entry

	codec  *codec.Codec
	logger *zap.Logger
}

// Option configures a Document
type Option func(*Document)

// WithCodec sets the codec used for BSF files
func WithCodec(c *codec.Codec) Option {
	return func(d *Document) {
		d.codec = c
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(d *Document) {
		d.logger = l
	}
}

// New creates an empty document
func New(opts ...Option) *Document {
	d := &Document{Entries: []codec.Entry{}}
	for _, opt := range opts {
		opt(d)
	}
	if d.codec == nil {
		d.codec = codec.NewCodec()
	}
	d.logger = logging.OrNop(d.logger)
	return d
}

// Load creates a document from the file at path
func Load(path string, opts ...Option) (*Document, error) {
	d := New(opts...)
	if err := d.Open(path); err != nil {
		return nil, err
	}
	return d, nil
}

// Len returns the number of entries
func (d *Document) Len() int {
	return len(d.Entries)
}

// Open replaces the entries with the contents of path and remembers the path
func (d *Document) Open(path string) error {
	entries, err := d.read(path)
	if err != nil {
		return err
	}
	d.Entries = entries
	d.Path = path
	d.logger.Info("Opened file", zap.String("path", path), zap.Int("entries", len(entries)))
	return nil
}

// Import appends the contents of path. The document path is unchanged.
func (d *Document) Import(path string) (int, error) {
	entries, err := d.read(path)
	if err != nil {
		return 0, err
	}
	d.Entries = append(d.Entries, entries...)
	d.logger.Info("Imported file", zap.String("path", path), zap.Int("entries", len(entries)))
	return len(entries), nil
}

func (d *Document) read(path string) ([]codec.Entry, error) {
	f, err := format.Detect(path)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	entries, err := format.Read(file, f, d.codec)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return entries, nil
}

// Save writes the document to path, or to the current path when path is
// empty. The format follows the file extension. Duplicate keys are rejected
// before anything is written; oversized entries are skipped, logged and
// listed in the report.
func (d *Document) Save(path string) (*codec.EncodeReport, error) {
	if path == "" {
		path = d.Path
	}
	if path == "" {
		return nil, ErrNoPath
	}
	if len(d.Entries) == 0 {
		return nil, ErrEmpty
	}
	if dups := d.DuplicateKeys(); len(dups) > 0 {
		return nil, &DuplicateKeysError{Keys: dups}
	}

	f, err := format.Detect(path)
	if err != nil {
		return nil, err
	}

	d.logger.Info("Saving file", zap.String("path", path), zap.String("format", string(f)))

	var report *codec.EncodeReport
	err = writeAtomic(path, func(w *os.File) error {
		var err error
		report, err = format.Write(w, f, d.Entries, d.codec)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save %s: %w", path, err)
	}

	for _, s := range report.Skipped {
		d.logger.Info("Skipping entry", zap.String("key", s.Key.String()), zap.Error(s.Reason))
	}

	d.Path = path
	return report, nil
}

// writeAtomic writes through a temp file in the target directory and renames
// it into place. The temp file is closed and removed on every failure.
func writeAtomic(path string, write func(*os.File) error) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".bsfedit-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err = write(tmp); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Encode writes the document in format f without touching the file system
func (d *Document) Encode(w io.Writer, f format.Format) (*codec.EncodeReport, error) {
	return format.Write(w, f, d.Entries, d.codec)
}
