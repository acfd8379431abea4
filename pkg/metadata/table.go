package metadata

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// DefaultFilterColumn is the phenotype column of the AMR metadata file.
const DefaultFilterColumn = "resistant_phenotype"

// Table is a fully loaded metadata table.
type Table struct {
	Columns []string
	Rows    [][]string

	index map[string]int
}

// Load reads the table at path and drops every row whose column value is
// null. It fails if path does not exist or column is not in the header.
func Load(path, column string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("path %s does not exist: %w", path, err)
	}
	defer f.Close()

	return ReadFiltered(f, column)
}

// ReadFiltered is Load over an already open reader.
func ReadFiltered(r io.Reader, column string) (*Table, error) {
	tr, err := NewReader(r)
	if err != nil {
		return nil, err
	}
	pos, err := tr.Require(column)
	if err != nil {
		return nil, fmt.Errorf("%w; please provide a correct column name", err)
	}

	t := &Table{Columns: tr.Columns(), index: tr.index}
	for {
		row, err := tr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", tr.Line(), err)
		}
		if IsNull(row[pos[0]]) {
			continue
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// Len returns the number of rows kept.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Get returns the value of column in row i, or "" if the column is absent.
func (t *Table) Get(i int, column string) string {
	p, ok := t.index[column]
	if !ok || i < 0 || i >= len(t.Rows) {
		return ""
	}
	return t.Rows[i][p]
}

// Distinct returns the non-null values of column in first-seen order.
func (t *Table) Distinct(column string) ([]string, error) {
	p, ok := t.index[column]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, column)
	}
	seen := make(map[string]bool)
	var values []string
	for _, row := range t.Rows {
		v := row[p]
		if IsNull(v) || seen[v] {
			continue
		}
		seen[v] = true
		values = append(values, v)
	}
	return values, nil
}

// GenomeIDs returns the distinct genome ids of the table.
func (t *Table) GenomeIDs() ([]string, error) {
	return t.Distinct("genome_id")
}

// TaxonIDs returns the distinct taxon ids of the table.
func (t *Table) TaxonIDs() ([]string, error) {
	return t.Distinct("taxon_id")
}
