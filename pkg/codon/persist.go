package codon

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/scttfrdmn/smartamr-go/pkg/storage"
	"gopkg.in/vmihailenco/msgpack.v2"
)

// Format selects the serialization used by Persist.
type Format string

const (
	FormatJSON    Format = "json"
	FormatMsgpack Format = "msgpack"
)

// ParseFormat accepts "json" or "msgpack".
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatJSON, FormatMsgpack:
		return f, nil
	case "":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unknown table format %q (expected json or msgpack)", s)
}

// document is the persisted shape of a Table.
type document struct {
	TaxonID string             `json:"taxon_id" msgpack:"taxon_id"`
	Codons  map[string]float64 `json:"codons" msgpack:"codons"`
}

// Filename returns the name a table for taxonID is persisted under.
func Filename(taxonID string, format Format) string {
	return taxonID + "." + string(format)
}

// Persist writes table to dst as <taxonId>.<format> and returns that name.
func Persist(table *Table, dst storage.Storage, format Format) (string, error) {
	if err := ValidateTaxonID(table.TaxonID()); err != nil {
		return "", err
	}

	doc := document{TaxonID: table.TaxonID(), Codons: table.Frequencies()}
	var (
		data []byte
		err  error
	)
	switch format {
	case FormatJSON:
		data, err = json.MarshalIndent(doc, "", "  ")
	case FormatMsgpack:
		data, err = msgpack.Marshal(&doc)
	default:
		return "", fmt.Errorf("unknown table format %q", format)
	}
	if err != nil {
		return "", fmt.Errorf("failed to encode table %s: %w", table.TaxonID(), err)
	}

	name := Filename(table.TaxonID(), format)
	if err := dst.WriteFile(name, data); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	return name, nil
}

// PersistTo opens outputDir (a local directory that must exist, or an
// s3:// prefix) and persists table there.
func PersistTo(ctx context.Context, table *Table, outputDir string, format Format) (string, error) {
	dst, err := storage.NewStorage(ctx, outputDir)
	if err != nil {
		return "", err
	}
	return Persist(table, dst, format)
}

// Load reads a persisted table back; the format follows the file extension.
func Load(src storage.Storage, name string) (*Table, error) {
	data, err := src.ReadFile(name)
	if err != nil {
		return nil, err
	}

	var doc document
	switch Format(strings.TrimPrefix(path.Ext(name), ".")) {
	case FormatMsgpack:
		err = msgpack.Unmarshal(data, &doc)
	default:
		err = json.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", name, err)
	}

	entries := make([]Entry, 0, len(doc.Codons))
	for c, f := range doc.Codons {
		entries = append(entries, Entry{Codon: c, Frequency: f})
	}
	return NewTable(doc.TaxonID, entries, false), nil
}
