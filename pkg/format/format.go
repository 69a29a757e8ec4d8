// Package format converts entry sequences between BSF and structured text
// formats. JSON, YAML and MessagePack files hold a single ordered map of
// string keys to string values.
package format

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ssargent/bsfedit/pkg/codec"
)

// Format identifies a file format
type Format string

const (
	BSF         Format = "bsf"
	JSON        Format = "json"
	YAML        Format = "yaml"
	MessagePack Format = "msgpack"
)

// ErrUnknownFormat is returned for file extensions and names no format claims
var ErrUnknownFormat = errors.New("unknown format")

var extensions = map[string]Format{
	".bsf":     BSF,
	".json":    JSON,
	".yaml":    YAML,
	".yml":     YAML,
	".msgpack": MessagePack,
	".mpk":     MessagePack,
}

// Formats lists every supported format
func Formats() []Format {
	return []Format{BSF, JSON, YAML, MessagePack}
}

// Detect picks the format from the file extension, ignoring case
func Detect(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if f, ok := extensions[ext]; ok {
		return f, nil
	}
	return "", fmt.Errorf("%w: extension %q", ErrUnknownFormat, filepath.Ext(path))
}

// Parse converts a format name such as "json" to a Format
func Parse(name string) (Format, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, f := range Formats() {
		if string(f) == name {
			return f, nil
		}
	}
	if name == "yml" {
		return YAML, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// ContentType returns the HTTP media type for the format
func (f Format) ContentType() string {
	switch f {
	case JSON:
		return "application/json"
	case YAML:
		return "application/yaml"
	case MessagePack:
		return "application/msgpack"
	default:
		return "application/octet-stream"
	}
}

// Read decodes a complete file in format f
func Read(r io.Reader, f Format, c *codec.Codec) ([]codec.Entry, error) {
	switch f {
	case BSF:
		return c.Decode(r)
	case JSON:
		return readJSON(r)
	case YAML:
		return readYAML(r)
	case MessagePack:
		return readMsgpack(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}

// Write encodes entries in format f. Every format applies the BSF length
// limits: oversized entries are skipped and listed in the report.
func Write(w io.Writer, f Format, entries []codec.Entry, c *codec.Codec) (*codec.EncodeReport, error) {
	if f == BSF {
		return c.Encode(w, entries)
	}

	kept, report := filter(entries)
	var err error
	switch f {
	case JSON:
		err = writeJSON(w, kept)
	case YAML:
		err = writeYAML(w, kept)
	case MessagePack:
		err = writeMsgpack(w, kept)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
	if err != nil {
		return nil, err
	}
	return report, nil
}

func filter(entries []codec.Entry) ([]codec.Entry, *codec.EncodeReport) {
	report := &codec.EncodeReport{}
	kept := make([]codec.Entry, 0, len(entries))
	for i, e := range entries {
		if err := codec.CheckEntry(e); err != nil {
			report.Skipped = append(report.Skipped, codec.SkippedEntry{Index: i, Key: e.Key.Clone(), Reason: err})
			continue
		}
		kept = append(kept, e)
	}
	report.Written = len(kept)
	return kept, report
}
