// Package features resolves gene names to contig coordinates using a genome's
// cached feature table, and cuts the matching nucleotide sequences out of its
// cached assembly.
package features

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/scttfrdmn/smartamr-go/pkg/bvbrc"
	"github.com/scttfrdmn/smartamr-go/pkg/metadata"
	"github.com/scttfrdmn/smartamr-go/pkg/storage"
)

var (
	// ErrGeneNotFound is returned by the single-gene lookups.
	ErrGeneNotFound = errors.New("gene not found")
	// ErrMalformedTable is returned for unreadable feature or gene tables.
	ErrMalformedTable = errors.New("malformed table")
)

// Feature table columns used for lookups.
const (
	colGene      = "gene"
	colAccession = "accession"
	colStart     = "start"
	colEnd       = "end"
)

// GeneLocation is where a gene sits on a contig. Start and End are copied
// verbatim from the feature table.
type GeneLocation struct {
	Contig string
	Start  int
	End    int
}

func (l GeneLocation) String() string {
	return fmt.Sprintf("%s:%d-%d", l.Contig, l.Start, l.End)
}

// Locator reads feature tables from a cache directory.
type Locator struct {
	dir string
}

// NewLocator returns a locator over dir, which must exist.
func NewLocator(dir string) (*Locator, error) {
	if err := storage.RequireDir(dir); err != nil {
		return nil, err
	}
	return &Locator{dir: dir}, nil
}

// Dir returns the cache directory.
func (l *Locator) Dir() string {
	return l.dir
}

// Locate returns the location of the first feature named gene.
func (l *Locator) Locate(genomeID, gene string) (GeneLocation, error) {
	found, err := l.scan(genomeID, []string{gene})
	if err != nil {
		return GeneLocation{}, err
	}
	loc, ok := found[gene]
	if !ok {
		return GeneLocation{}, fmt.Errorf("%w: %s in genome %s", ErrGeneNotFound, gene, genomeID)
	}
	return loc, nil
}

// LocateMany returns one location per gene found. Genes absent from the
// table are left out of the result; callers check for missing keys.
func (l *Locator) LocateMany(genomeID string, genes []string) (map[string]GeneLocation, error) {
	return l.scan(genomeID, genes)
}

// scan reads the feature table once, keeping the first row for each wanted
// gene, and stops early once every gene has been seen.
func (l *Locator) scan(genomeID string, genes []string) (map[string]GeneLocation, error) {
	if err := bvbrc.ValidateGenomeID(genomeID); err != nil {
		return nil, err
	}

	name := bvbrc.Filename(genomeID, bvbrc.FeatureTable)
	f, err := storage.OpenCached(l.dir, name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tr, err := metadata.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformedTable, name, err)
	}
	cols, err := tr.Require(colGene, colAccession, colStart, colEnd)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformedTable, name, err)
	}

	wanted := make(map[string]bool, len(genes))
	for _, g := range genes {
		wanted[g] = true
	}
	found := make(map[string]GeneLocation, len(wanted))

	for len(found) < len(wanted) {
		row, err := tr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", name, tr.Line(), err)
		}

		gene := strings.TrimSpace(row[cols[0]])
		if !wanted[gene] {
			continue
		}
		if _, seen := found[gene]; seen {
			continue
		}

		start, err1 := strconv.Atoi(strings.TrimSpace(row[cols[2]]))
		end, err2 := strconv.Atoi(strings.TrimSpace(row[cols[3]]))
		if err1 != nil || err2 != nil {
			return nil, fmt.Errorf("%w: %s line %d: bad coordinates for %s", ErrMalformedTable, name, tr.Line(), gene)
		}
		found[gene] = GeneLocation{
			Contig: strings.TrimSpace(row[cols[1]]),
			Start:  start,
			End:    end,
		}
	}
	return found, nil
}
