package features

import (
	"io"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"
	"github.com/scttfrdmn/smartamr-go/pkg/logging"
)

// ExtractedGene is the nucleotide sequence of one gene.
type ExtractedGene struct {
	Gene     string
	Location GeneLocation
	Sequence string
}

// Extractor cuts gene sequences out of cached assemblies.
type Extractor struct {
	Locator *Locator
}

// NewExtractor returns an extractor over the cache directory dir.
func NewExtractor(dir string) (*Extractor, error) {
	l, err := NewLocator(dir)
	if err != nil {
		return nil, err
	}
	return &Extractor{Locator: l}, nil
}

// Extract returns the sequence of gene. It fails with ErrGeneNotFound or
// ErrContigNotFound when either lookup comes up empty.
func (e *Extractor) Extract(genomeID, gene string) (ExtractedGene, error) {
	loc, err := e.Locator.Locate(genomeID, gene)
	if err != nil {
		return ExtractedGene{}, err
	}

	a, err := OpenAssembly(e.Locator.Dir(), genomeID)
	if err != nil {
		return ExtractedGene{}, err
	}
	defer a.Close()

	s, err := a.Slice(loc.Contig, loc.Start, loc.End)
	if err != nil {
		return ExtractedGene{}, err
	}
	return ExtractedGene{Gene: gene, Location: loc, Sequence: s}, nil
}

// ExtractMany returns one entry per gene whose location and contig were both
// found. Genes that cannot be resolved are logged and left out.
func (e *Extractor) ExtractMany(genomeID string, genes []string) (map[string]ExtractedGene, error) {
	locs, err := e.Locator.LocateMany(genomeID, genes)
	if err != nil {
		return nil, err
	}

	result := make(map[string]ExtractedGene, len(locs))
	if len(locs) == 0 {
		return result, nil
	}

	a, err := OpenAssembly(e.Locator.Dir(), genomeID)
	if err != nil {
		return nil, err
	}
	defer a.Close()

	for _, gene := range genes {
		loc, ok := locs[gene]
		if !ok {
			logging.Warn.Printf("%s: gene %s not in feature table", genomeID, gene)
			continue
		}
		if _, done := result[gene]; done {
			continue
		}
		s, err := a.Slice(loc.Contig, loc.Start, loc.End)
		if err != nil {
			logging.Warn.Printf("%s: gene %s: %v", genomeID, gene, err)
			continue
		}
		result[gene] = ExtractedGene{Gene: gene, Location: loc, Sequence: s}
	}
	return result, nil
}

// WriteFASTA writes genes as FASTA records named after the gene, with the
// location as description.
func WriteFASTA(w io.Writer, genes []ExtractedGene) error {
	fw := fasta.NewWriter(w, 60)
	for _, g := range genes {
		s := linear.NewSeq(g.Gene, alphabet.BytesToLetters([]byte(g.Sequence)), alphabet.DNAredundant)
		s.Desc = g.Location.String()
		if _, err := fw.Write(s); err != nil {
			return err
		}
	}
	return nil
}
