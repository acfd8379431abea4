package codon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/scttfrdmn/smartamr-go/pkg/logging"
)

// DefaultLookupURL is the Kazusa codon usage lookup service.
const DefaultLookupURL = "https://www.kazusa.or.jp/codon/cgi-bin/showcodon.cgi"

var (
	// ErrInvalidTaxon is returned for an empty or unusable taxon id.
	ErrInvalidTaxon = errors.New("invalid taxon identifier")
	// ErrFetch wraps failures retrieving the lookup document.
	ErrFetch = errors.New("codon lookup fetch failed")
	// ErrDocumentFormat is returned when the document has no preformatted block.
	ErrDocumentFormat = errors.New("unexpected codon document format")
)

var (
	preBlock    = regexp.MustCompile(`(?is)<pre>(.*?)</pre>`)
	codonTriple = regexp.MustCompile(`([A-Z]{3})\s+([\d.]+)\s*\(\s*(\d+)\)`)
)

// Builder fetches codon usage documents and parses them into tables.
type Builder struct {
	LookupURL string
	Client    *http.Client
}

// NewBuilder returns a builder for lookupURL, or DefaultLookupURL when empty.
func NewBuilder(lookupURL string) *Builder {
	if lookupURL == "" {
		lookupURL = DefaultLookupURL
	}
	return &Builder{LookupURL: lookupURL, Client: http.DefaultClient}
}

// ValidateTaxonID rejects ids that cannot name a table or its file.
func ValidateTaxonID(taxonID string) error {
	if strings.TrimSpace(taxonID) == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidTaxon)
	}
	if strings.ContainsAny(taxonID, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidTaxon, taxonID)
	}
	return nil
}

// URL returns the lookup document address for taxonID.
func (b *Builder) URL(taxonID string) string {
	sep := "?"
	if strings.Contains(b.LookupURL, "?") {
		sep = "&"
	}
	return b.LookupURL + sep + "species=" + url.QueryEscape(taxonID)
}

// Build fetches and parses the codon usage table for taxonID.
func (b *Builder) Build(ctx context.Context, taxonID string, normalizeToDNA bool) (*Table, error) {
	if err := ValidateTaxonID(taxonID); err != nil {
		return nil, err
	}

	doc, err := b.fetch(ctx, b.URL(taxonID))
	if err != nil {
		return nil, fmt.Errorf("%w: taxon %s: %w", ErrFetch, taxonID, err)
	}

	table, err := Parse(doc, taxonID, normalizeToDNA)
	if err != nil {
		return nil, err
	}
	logging.Info.Printf("Codon table for %s: %d codons", taxonID, table.Len())
	return table, nil
}

func (b *Builder) fetch(ctx context.Context, u string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", err
	}
	client := b.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %s", resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// Parse extracts the first preformatted block of doc and reads every
// "CODON freq(count)" triple in it. Fragments that do not match are skipped.
func Parse(doc, taxonID string, normalizeToDNA bool) (*Table, error) {
	entries, err := ParseEntries(doc)
	if err != nil {
		return nil, fmt.Errorf("taxon %s: %w", taxonID, err)
	}
	return NewTable(taxonID, entries, normalizeToDNA), nil
}

// ParseEntries returns the raw triples of doc's first preformatted block.
func ParseEntries(doc string) ([]Entry, error) {
	m := preBlock.FindStringSubmatch(doc)
	if m == nil {
		return nil, fmt.Errorf("%w: no <PRE> block", ErrDocumentFormat)
	}

	var entries []Entry
	for _, triple := range codonTriple.FindAllStringSubmatch(m[1], -1) {
		freq, err := strconv.ParseFloat(triple[2], 64)
		if err != nil {
			continue
		}
		count, err := strconv.Atoi(triple[3])
		if err != nil {
			continue
		}
		entries = append(entries, Entry{Codon: triple[1], Frequency: freq, Count: count})
	}
	return entries, nil
}
