package csvfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DefaultMaxFileSize is the largest export accepted (100MB).
const DefaultMaxFileSize int64 = 100 * 1024 * 1024

// DefaultMaxHeaderSearchRows is how many leading rows are scanned for the header.
const DefaultMaxHeaderSearchRows = 20

var (
	// ErrEmptyFile is returned when the input holds no records at all.
	ErrEmptyFile = errors.New("empty file")

	// ErrHeaderNotFound is returned when no leading row carries every
	// required header.
	ErrHeaderNotFound = errors.New("invalid csv: header row not found")

	// ErrFileTooLarge is returned when the input exceeds MaxSize.
	ErrFileTooLarge = errors.New("file too large")
)

// Options controls how an export is decoded and where its header is found.
type Options struct {
	// Encoding is a WHATWG label such as "utf-8" or "windows-1252".
	// Empty means UTF-8.
	Encoding string

	// MaxSize caps the bytes read. Zero means DefaultMaxFileSize.
	MaxSize int64

	// Required lists headers that identify the header row. When empty the
	// first non-empty row is the header.
	Required []string

	// MaxHeaderSearchRows caps the rows scanned for Required.
	MaxHeaderSearchRows int
}

// Row maps a header name to the raw cell value. Every header of the file is
// present as a key; short records pad with "".
type Row map[string]string

// File is a decoded export.
type File struct {
	Header []string
	Rows   []Row
}

// Decoder returns the decoder for an encoding label.
// UTF-8 input has its BOM removed and invalid bytes replaced.
func Decoder(label string) (*encoding.Decoder, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "", "utf-8", "utf8":
		return unicode.UTF8.NewDecoder(), nil
	}

	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("encoding error: unsupported encoding %q", label)
	}
	return enc.NewDecoder(), nil
}

// Read decodes and parses an export from r.
func Read(r io.Reader, opts Options) (*File, error) {
	dec, err := Decoder(opts.Encoding)
	if err != nil {
		return nil, err
	}

	maxSize := opts.MaxSize
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	limited := &io.LimitedReader{R: r, N: maxSize + 1}

	// BOMOverride strips a UTF-8 or UTF-16 BOM and decodes accordingly,
	// falling back to dec when there is none.
	decoded := transform.NewReader(limited, unicode.BOMOverride(dec))

	cr := csv.NewReader(decoded)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if limited.N <= 0 {
		return nil, fmt.Errorf("%w: exceeds %d bytes", ErrFileTooLarge, maxSize)
	}
	if err != nil {
		return nil, fmt.Errorf("invalid csv: %w", err)
	}

	return fromRecords(records, opts)
}

// ReadFile opens path and reads it with Read.
func ReadFile(path string, opts Options) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	return Read(f, opts)
}

func fromRecords(records [][]string, opts Options) (*File, error) {
	if len(records) == 0 {
		return nil, ErrEmptyFile
	}

	headerIdx := findHeader(records, opts.Required, opts.MaxHeaderSearchRows)
	if headerIdx < 0 {
		return nil, ErrHeaderNotFound
	}

	header := make([]string, len(records[headerIdx]))
	for i, h := range records[headerIdx] {
		header[i] = cleanHeader(h)
	}

	file := &File{Header: header}
	for _, rec := range records[headerIdx+1:] {
		if isEmptyRow(rec) {
			continue
		}
		file.Rows = append(file.Rows, makeRow(header, rec))
	}
	return file, nil
}

// makeRow keys rec by header. Blank header cells are skipped and the first
// column wins when a header name repeats.
func makeRow(header, rec []string) Row {
	row := make(Row, len(header))
	for i, name := range header {
		if name == "" {
			continue
		}
		if _, dup := row[name]; dup {
			continue
		}
		if i < len(rec) {
			row[name] = rec[i]
		} else {
			row[name] = ""
		}
	}
	return row
}

func findHeader(records [][]string, required []string, maxRows int) int {
	if maxRows <= 0 {
		maxRows = DefaultMaxHeaderSearchRows
	}
	if len(records) < maxRows {
		maxRows = len(records)
	}

	for i := 0; i < maxRows; i++ {
		if isEmptyRow(records[i]) {
			continue
		}
		if hasHeaders(records[i], required) {
			return i
		}
	}
	return -1
}

// hasHeaders matches names exactly, as rows are keyed by the exact header.
func hasHeaders(row, required []string) bool {
	present := make(map[string]bool, len(row))
	for _, cell := range row {
		present[cleanHeader(cell)] = true
	}
	for _, name := range required {
		if !present[name] {
			return false
		}
	}
	return true
}

// cleanHeader trims whitespace and a stray BOM left by tools that prepend
// one per line.
func cleanHeader(s string) string {
	return strings.TrimSpace(strings.TrimPrefix(s, "\ufeff"))
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
