package bvbrc

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// DefaultRepositoryURL is the root of the BV-BRC FTP tree.
	DefaultRepositoryURL = "ftp://ftp.bvbrc.org/"
	// DefaultGenomesURL holds one directory per genome.
	DefaultGenomesURL = DefaultRepositoryURL + "genomes/"

	// AMRMetadataFile lists genomes with AMR phenotypes.
	AMRMetadataFile = "RELEASE_NOTES/PATRIC_genomes_AMR.txt"
	// GenomeMetadataFile lists metadata for every public genome.
	GenomeMetadataFile = "RELEASE_NOTES/genome_metadata"
)

// ErrInvalidIdentifier is returned for an empty or malformed genome id.
var ErrInvalidIdentifier = errors.New("invalid genome identifier")

// ValidateGenomeID rejects ids that cannot be used as a path component.
func ValidateGenomeID(genomeID string) error {
	if strings.TrimSpace(genomeID) == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidIdentifier)
	}
	if strings.ContainsAny(genomeID, `/\`) || genomeID == "." || genomeID == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidIdentifier, genomeID)
	}
	return nil
}

// Filename returns the upstream filename of a genome's file of the given kind.
// It does not validate the id.
func Filename(genomeID string, kind FileKind) string {
	return genomeID + "." + kind.Suffix()
}

// Catalog maps genome ids and file kinds to remote locations.
type Catalog struct {
	GenomesURL string
}

// NewCatalog returns a catalog rooted at genomesURL, or at DefaultGenomesURL
// when genomesURL is empty.
func NewCatalog(genomesURL string) Catalog {
	if genomesURL == "" {
		genomesURL = DefaultGenomesURL
	}
	if !strings.HasSuffix(genomesURL, "/") {
		genomesURL += "/"
	}
	return Catalog{GenomesURL: genomesURL}
}

// GenomeBase returns the remote directory holding genomeID's files.
func (c Catalog) GenomeBase(genomeID string) string {
	return c.GenomesURL + genomeID + "/"
}

// Resolve returns the remote directory and the filename for one file.
func (c Catalog) Resolve(genomeID string, kind FileKind) (remoteBase, filename string, err error) {
	if err := ValidateGenomeID(genomeID); err != nil {
		return "", "", err
	}
	if !kind.Valid() {
		return "", "", fmt.Errorf("unknown file kind %q", kind)
	}
	return c.GenomeBase(genomeID), Filename(genomeID, kind), nil
}

// Jobs returns one FetchJob per FileKind, in Kinds order.
func (c Catalog) Jobs(genomeID, outDir string) ([]FetchJob, error) {
	if err := ValidateGenomeID(genomeID); err != nil {
		return nil, err
	}
	jobs := make([]FetchJob, 0, len(Kinds))
	for _, kind := range Kinds {
		base, name, _ := c.Resolve(genomeID, kind)
		jobs = append(jobs, FetchJob{
			GenomeID:   genomeID,
			Kind:       kind,
			RemoteBase: base,
			OutputDir:  outDir,
			Filename:   name,
		})
	}
	return jobs, nil
}
