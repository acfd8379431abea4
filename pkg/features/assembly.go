package features

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"
	"github.com/biogo/hts/fai"
	"github.com/scttfrdmn/smartamr-go/pkg/bvbrc"
	"github.com/scttfrdmn/smartamr-go/pkg/logging"
	"github.com/scttfrdmn/smartamr-go/pkg/storage"
)

// ErrContigNotFound is returned when a contig id is not in the assembly.
var ErrContigNotFound = errors.New("contig not found")

// Assembly gives random access to the contigs of one genome's assembly
// file. The contig index is built once, when the assembly is opened.
type Assembly struct {
	genomeID string
	r        storage.ReadSeekCloser

	// indexed access
	file  *fai.File
	index fai.Index
	names map[string]string // contig id -> fai record name

	// fallback when the file cannot be indexed
	seqs map[string]string
}

// OpenAssembly opens the cached assembly of genomeID in dir.
func OpenAssembly(dir, genomeID string) (*Assembly, error) {
	if err := bvbrc.ValidateGenomeID(genomeID); err != nil {
		return nil, err
	}
	name := bvbrc.Filename(genomeID, bvbrc.Assembly)
	r, err := storage.OpenCached(dir, name)
	if err != nil {
		return nil, err
	}

	a := &Assembly{genomeID: genomeID, r: r}
	idx, err := fai.NewIndex(r)
	if err == nil {
		a.index = idx
		a.names = make(map[string]string, len(idx))
		for recName := range idx {
			id := contigID(recName)
			if prev, dup := a.names[id]; !dup || idx[recName].Start < idx[prev].Start {
				a.names[id] = recName
			}
		}
		a.file = fai.NewFile(r, idx)
		return a, nil
	}

	logging.Warn.Printf("%s: cannot index (%v), loading all contigs", name, err)
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		r.Close()
		return nil, err
	}
	if err := a.load(); err != nil {
		r.Close()
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return a, nil
}

// load reads every contig into memory; the first record with a given id wins.
func (a *Assembly) load() error {
	a.seqs = make(map[string]string)
	sc := seqio.NewScanner(fasta.NewReader(a.r, linear.NewSeq("", nil, alphabet.DNAredundant)))
	for sc.Next() {
		s := sc.Seq().(*linear.Seq)
		id := contigID(s.Name())
		if _, dup := a.seqs[id]; dup {
			continue
		}
		b := make([]byte, len(s.Seq))
		for i, l := range s.Seq {
			b[i] = byte(l)
		}
		a.seqs[id] = string(b)
	}
	return sc.Error()
}

// Contigs returns the number of contigs in the assembly.
func (a *Assembly) Contigs() int {
	if a.file != nil {
		return len(a.names)
	}
	return len(a.seqs)
}

// Length returns the length of contig.
func (a *Assembly) Length(contig string) (int, bool) {
	if a.file != nil {
		name, ok := a.names[contig]
		if !ok {
			return 0, false
		}
		return a.index[name].Length, true
	}
	s, ok := a.seqs[contig]
	return len(s), ok
}

// Slice returns contig[start:end], upper-cased. Bounds beyond the contig
// are truncated, so an out-of-range request yields a shorter (possibly empty)
// sequence rather than an error.
func (a *Assembly) Slice(contig string, start, end int) (string, error) {
	length, ok := a.Length(contig)
	if !ok {
		return "", fmt.Errorf("%w: %s in genome %s", ErrContigNotFound, contig, a.genomeID)
	}
	start, end = clamp(start, length), clamp(end, length)
	if end <= start {
		return "", nil
	}

	if a.file == nil {
		return strings.ToUpper(a.seqs[contig][start:end]), nil
	}

	s, err := a.file.SeqRange(a.names[contig], start, end)
	if err != nil {
		return "", fmt.Errorf("reading %s:%d-%d: %w", contig, start, end, err)
	}
	b, err := io.ReadAll(s)
	if err != nil {
		return "", fmt.Errorf("reading %s:%d-%d: %w", contig, start, end, err)
	}
	return strings.ToUpper(string(b)), nil
}

// Close releases the underlying file.
func (a *Assembly) Close() error {
	return a.r.Close()
}

func clamp(v, length int) int {
	if v < 0 {
		return 0
	}
	if v > length {
		return length
	}
	return v
}

// contigID is the first word of a FASTA header.
func contigID(header string) string {
	if f := strings.Fields(header); len(f) > 0 {
		return f[0]
	}
	return header
}
