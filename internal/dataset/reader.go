package dataset

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Options controls how a file is turned into a Dataset.
type Options struct {
	// Delimiter for CSV. If 0, ',' is used except for .tsv files.
	Delimiter rune
	// XLSX sheet selection: name wins over the 1-based index.
	SheetName  string
	SheetIndex int
	// MaxRows limits rows kept in memory; 0 means unlimited.
	MaxRows int
}

// Raw is the header and data rows produced by a Reader.
type Raw struct {
	Header []string
	Rows   [][]string
	Sheet  string
	Total  int
}

// Reader loads tabular files of a given kind.
type Reader interface {
	CanRead(path string) bool
	Read(path string, opt Options) (*Raw, error)
}

var registry []Reader

// Register adds a reader implementation to the registry.
func Register(r Reader) {
	registry = append(registry, r)
}

var (
	// ErrUnsupported indicates no reader accepts the file extension.
	ErrUnsupported = errors.New("unsupported dataset format")
	// ErrNoRows indicates a file with a header but no data.
	ErrNoRows = errors.New("no data rows")
	// ErrNoHeader indicates an empty file.
	ErrNoHeader = errors.New("no header row")
)

// LoadError reports a file that could not be read or parsed.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", filepath.Base(e.Path), e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Load selects a reader by file name and builds a Dataset. Any failure is
// returned as a *LoadError; no partial dataset is produced.
func Load(path string, opt Options) (*Dataset, error) {
	var rd Reader
	for _, r := range registry {
		if r.CanRead(path) {
			rd = r
			break
		}
	}
	if rd == nil {
		return nil, &LoadError{Path: path, Err: ErrUnsupported}
	}
	raw, err := rd.Read(path, opt)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	if len(raw.Header) == 0 {
		return nil, &LoadError{Path: path, Err: ErrNoHeader}
	}
	if len(raw.Rows) == 0 {
		return nil, &LoadError{Path: path, Err: ErrNoRows}
	}
	ds := New(filepath.Base(path), raw.Header, raw.Rows)
	ds.Path = path
	ds.Sheet = raw.Sheet
	if raw.Total > ds.Total {
		ds.Total = raw.Total
		ds.Warnings = append(ds.Warnings, fmt.Sprintf("processed only %d/%d rows due to MaxRows", len(raw.Rows), raw.Total))
	}
	return ds, nil
}

// ParseDelimiter maps a user supplied delimiter name to a rune.
func ParseDelimiter(s string) (rune, error) {
	switch strings.ToLower(s) {
	case "":
		return 0, nil
	case ",", "comma":
		return ',', nil
	case ";", "semicolon":
		return ';', nil
	case "\t", "tab":
		return '\t', nil
	case "|", "pipe":
		return '|', nil
	default:
		return 0, fmt.Errorf("unsupported delimiter: %s", s)
	}
}

func init() {
	Register(csvReader{})
	Register(xlsxReader{})
}
