// Package bvbrc acquires per-genome files from the BV-BRC repository.
//
// A genome's files live under <genomes-root>/<genomeId>/<genomeId>.<suffix>,
// one suffix per FileKind. Files are fetched through a rate-limited, resumable
// Fetcher into a caller-supplied cache directory.
package bvbrc

import (
	"fmt"
	"strings"
)

// FileKind is one of the per-genome files the repository publishes.
type FileKind string

const (
	Assembly      FileKind = "assembly"
	ProteinFasta  FileKind = "protein"
	FeatureTable  FileKind = "features"
	GeneFasta     FileKind = "genes"
	RnaFasta      FileKind = "rna"
	Annotation    FileKind = "annotation"
	Pathway       FileKind = "pathway"
	SpecialtyGene FileKind = "spgene"
	Subsystem     FileKind = "subsystem"
)

// Kinds lists every FileKind in bulk-fetch order.
var Kinds = []FileKind{
	Assembly,
	ProteinFasta,
	FeatureTable,
	GeneFasta,
	RnaFasta,
	Annotation,
	Pathway,
	SpecialtyGene,
	Subsystem,
}

var suffixes = map[FileKind]string{
	Assembly:      "fna",
	ProteinFasta:  "PATRIC.faa",
	FeatureTable:  "PATRIC.features.tab",
	GeneFasta:     "PATRIC.ffn",
	RnaFasta:      "PATRIC.frn",
	Annotation:    "PATRIC.gff",
	Pathway:       "PATRIC.pathway.tab",
	SpecialtyGene: "PATRIC.spgene.tab",
	Subsystem:     "PATRIC.subsystem.tab",
}

// Suffix returns the filename suffix for k, without the leading dot.
func (k FileKind) Suffix() string {
	return suffixes[k]
}

// Valid reports whether k is a known kind.
func (k FileKind) Valid() bool {
	_, ok := suffixes[k]
	return ok
}

func (k FileKind) String() string {
	return string(k)
}

// ParseFileKind accepts a kind name ("features") or its suffix
// ("PATRIC.features.tab").
func ParseFileKind(s string) (FileKind, error) {
	k := FileKind(strings.ToLower(strings.TrimSpace(s)))
	if k.Valid() {
		return k, nil
	}
	for _, kind := range Kinds {
		if strings.EqualFold(s, kind.Suffix()) {
			return kind, nil
		}
	}
	return "", fmt.Errorf("unknown file kind %q", s)
}
