// Package metadata reads the tab-separated tables published by BV-BRC:
// the AMR genome metadata, and per-genome feature and specialty gene tables.
package metadata

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrMissingColumn is returned when a required column is not in the header.
var ErrMissingColumn = errors.New("missing column")

// Reader streams rows of a tab-separated file with a header line.
type Reader struct {
	sc     *bufio.Scanner
	header []string
	index  map[string]int
	line   int
}

// NewReader reads the header line of r.
func NewReader(r io.Reader) (*Reader, error) {
	sc := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	sc.Buffer(buf, 16*1024*1024)

	tr := &Reader{sc: sc, index: make(map[string]int)}
	for sc.Scan() {
		tr.line++
		line := strings.TrimPrefix(strings.TrimRight(sc.Text(), "\r"), "\ufeff")
		if strings.TrimSpace(line) == "" {
			continue
		}
		tr.header = strings.Split(line, "\t")
		for i, name := range tr.header {
			name = strings.TrimSpace(name)
			tr.header[i] = name
			if _, dup := tr.index[name]; !dup {
				tr.index[name] = i
			}
		}
		return tr, nil
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("no header line: %w", io.ErrUnexpectedEOF)
}

// Columns returns the header.
func (r *Reader) Columns() []string {
	return r.header
}

// Column returns the position of name in the header.
func (r *Reader) Column(name string) (int, bool) {
	i, ok := r.index[name]
	return i, ok
}

// Require returns the positions of names, failing on the first absent one.
func (r *Reader) Require(names ...string) ([]int, error) {
	pos := make([]int, len(names))
	for i, name := range names {
		p, ok := r.index[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingColumn, name)
		}
		pos[i] = p
	}
	return pos, nil
}

// Read returns the next row, padded to the header width. It returns io.EOF
// after the last row. Blank lines are skipped.
func (r *Reader) Read() ([]string, error) {
	for r.sc.Scan() {
		r.line++
		line := strings.TrimRight(r.sc.Text(), "\r")
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		for len(fields) < len(r.header) {
			fields = append(fields, "")
		}
		return fields, nil
	}
	if err := r.sc.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

// Line returns the 1-based line number of the last row read.
func (r *Reader) Line() int {
	return r.line
}

// nullValues are the cell values treated as missing.
var nullValues = map[string]bool{
	"": true, "#N/A": true, "#N/A N/A": true, "#NA": true, "-NaN": true, "-nan": true,
	"<NA>": true, "N/A": true, "NA": true, "NULL": true, "NaN": true, "None": true,
	"n/a": true, "nan": true, "null": true,
}

// IsNull reports whether a cell value denotes a missing value.
func IsNull(v string) bool {
	return nullValues[strings.TrimSpace(v)]
}
