// Package codon builds per-taxon codon usage tables from the Kazusa
// codon usage database.
package codon

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Entry is one codon/frequency/count triple as scraped from the lookup page.
// Frequency is per thousand codons.
type Entry struct {
	Codon     string
	Frequency float64
	Count     int
}

// Table maps codons to relative usage frequency for one taxon. A Table is
// never modified after construction.
type Table struct {
	taxonID string
	freq    map[string]float64
	counts  map[string]int
}

// NewTable builds a table from entries, in order. Later entries for the same
// codon replace earlier ones. With normalizeToDNA every U becomes T first.
func NewTable(taxonID string, entries []Entry, normalizeToDNA bool) *Table {
	t := &Table{
		taxonID: taxonID,
		freq:    make(map[string]float64, len(entries)),
		counts:  make(map[string]int, len(entries)),
	}
	for _, e := range entries {
		codon := e.Codon
		if normalizeToDNA {
			codon = strings.ReplaceAll(codon, "U", "T")
		}
		t.freq[codon] = e.Frequency
		t.counts[codon] = e.Count
	}
	return t
}

// TaxonID returns the taxon the table was built for.
func (t *Table) TaxonID() string {
	return t.taxonID
}

// Len returns the number of codons in the table.
func (t *Table) Len() int {
	return len(t.freq)
}

// Frequency returns the usage frequency of codon.
func (t *Table) Frequency(codon string) (float64, bool) {
	f, ok := t.freq[codon]
	return f, ok
}

// Count returns the absolute count scraped alongside codon's frequency.
// Counts are not persisted.
func (t *Table) Count(codon string) (int, bool) {
	c, ok := t.counts[codon]
	return c, ok
}

// Codons returns the codons in lexical order.
func (t *Table) Codons() []string {
	codons := make([]string, 0, len(t.freq))
	for c := range t.freq {
		codons = append(codons, c)
	}
	sort.Strings(codons)
	return codons
}

// Frequencies returns a copy of the codon -> frequency mapping.
func (t *Table) Frequencies() map[string]float64 {
	m := make(map[string]float64, len(t.freq))
	for k, v := range t.freq {
		m[k] = v
	}
	return m
}

// Alphabet reports 'U' if the table is RNA-keyed, 'T' if DNA-keyed, and 0
// when it is empty or mixes both (a parse defect).
func (t *Table) Alphabet() byte {
	var hasU, hasT bool
	for c := range t.freq {
		hasU = hasU || strings.ContainsRune(c, 'U')
		hasT = hasT || strings.ContainsRune(c, 'T')
	}
	switch {
	case hasU && !hasT:
		return 'U'
	case hasT && !hasU:
		return 'T'
	case !hasU && !hasT && len(t.freq) > 0:
		// only A/C/G codons; either alphabet fits
		return 'T'
	}
	return 0
}

// Summary holds aggregate figures for a table.
type Summary struct {
	Codons int
	Total  float64 // sum of frequencies, ~1000 for a complete table
	Mean   float64
	GC3    float64 // share of usage on codons ending in G or C
}

// Summary computes aggregate figures over the table.
func (t *Table) Summary() Summary {
	s := Summary{Codons: len(t.freq)}
	if len(t.freq) == 0 {
		return s
	}

	values := make([]float64, 0, len(t.freq))
	var gc3 float64
	for _, codon := range t.Codons() {
		f := t.freq[codon]
		values = append(values, f)
		if last := codon[len(codon)-1]; last == 'G' || last == 'C' {
			gc3 += f
		}
	}
	s.Total = floats.Sum(values)
	s.Mean = stat.Mean(values, nil)
	if s.Total > 0 {
		s.GC3 = gc3 / s.Total
	}
	return s
}

// Format writes the table as the conventional 4x4 grid: rows by first and
// third base, columns by second base.
func (t *Table) Format(w io.Writer) error {
	bases := []string{"U", "C", "A", "G"}
	if t.Alphabet() != 'U' {
		bases[0] = "T"
	}

	var b strings.Builder
	b.WriteString(strings.Repeat(" ", 5) + "|")
	for _, base := range bases {
		b.WriteString(center(base, 15) + "|")
	}
	b.WriteString("\n")
	separator := strings.Repeat("-", 5) + strings.Repeat(":"+strings.Repeat("-", 15), 4) + ":" + strings.Repeat("-", 5) + "\n"
	b.WriteString(separator)

	for _, first := range bases {
		for _, third := range bases {
			fmt.Fprintf(&b, "  %-3s|", first)
			for _, second := range bases {
				codon := first + second + third
				if f, ok := t.freq[codon]; ok {
					fmt.Fprintf(&b, " %-3s %-7.1f   |", codon, f)
				} else {
					fmt.Fprintf(&b, " %-3s %-7s   |", codon, "-")
				}
			}
			fmt.Fprintf(&b, "  %-3s\n", third)
		}
		b.WriteString(separator)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func (t *Table) String() string {
	if len(t.freq) == 0 {
		return fmt.Sprintf("<CodonTable for %s (No data)>", t.taxonID)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "<CodonTable for %s with %d codons>\n", t.taxonID, len(t.freq))
	t.Format(&b)
	return b.String()
}

func center(s string, width int) string {
	pad := width - len(s)
	if pad <= 0 {
		return s
	}
	left := pad / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", pad-left)
}
