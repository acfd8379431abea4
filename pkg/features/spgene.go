package features

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/scttfrdmn/smartamr-go/pkg/bvbrc"
	"github.com/scttfrdmn/smartamr-go/pkg/metadata"
	"github.com/scttfrdmn/smartamr-go/pkg/storage"
)

// AntibioticResistance is the specialty gene property of AMR genes.
const AntibioticResistance = "Antibiotic Resistance"

// AMRGeneNames returns the gene names of genomeID's specialty genes with the
// given property, in file order. Rows without a gene name are skipped.
func AMRGeneNames(dir, genomeID, property string) ([]string, error) {
	if err := bvbrc.ValidateGenomeID(genomeID); err != nil {
		return nil, err
	}
	if property == "" {
		property = AntibioticResistance
	}

	name := bvbrc.Filename(genomeID, bvbrc.SpecialtyGene)
	f, err := storage.OpenCached(dir, name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tr, err := metadata.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformedTable, name, err)
	}
	cols, err := tr.Require("property", "gene")
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformedTable, name, err)
	}

	var genes []string
	for {
		row, err := tr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", name, tr.Line(), err)
		}
		if strings.TrimSpace(row[cols[0]]) != property {
			continue
		}
		if gene := strings.TrimSpace(row[cols[1]]); !metadata.IsNull(gene) {
			genes = append(genes, gene)
		}
	}
	return genes, nil
}
