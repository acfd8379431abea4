package storage

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

// CompressedExt is appended to the name of a zstd-compressed cache file.
const CompressedExt = ".zst"

// Compressor handles data compression
type Compressor struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewCompressor creates a new compressor
func NewCompressor() (*Compressor, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close()
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}

	return &Compressor{
		encoder: encoder,
		decoder: decoder,
	}, nil
}

// Compress compresses data using zstd
func (c *Compressor) Compress(data []byte) []byte {
	return c.encoder.EncodeAll(data, make([]byte, 0, len(data)/2))
}

// Decompress decompresses data using zstd
func (c *Compressor) Decompress(data []byte) ([]byte, error) {
	return c.decoder.DecodeAll(data, nil)
}

// Close closes the compressor
func (c *Compressor) Close() error {
	if c.encoder != nil {
		c.encoder.Close()
	}
	if c.decoder != nil {
		c.decoder.Close()
	}
	return nil
}

// ReadSeekCloser is what OpenCached hands back.
type ReadSeekCloser interface {
	io.ReadSeeker
	io.ReaderAt
	io.Closer
}

type memFile struct {
	*bytes.Reader
}

func (memFile) Close() error { return nil }

// OpenCached opens dir/name, falling back to a zstd-compressed dir/name.zst.
// Compressed files are decompressed into memory so callers can seek.
func OpenCached(dir, name string) (ReadSeekCloser, error) {
	path := filepath.Join(dir, name)
	f, err := os.Open(path)
	if err == nil {
		return f, nil
	}
	if !os.IsNotExist(err) {
		return nil, err
	}

	zf, zerr := os.Open(path + CompressedExt)
	if zerr != nil {
		// report the plain name
		return nil, err
	}
	defer zf.Close()

	dec, zerr := zstd.NewReader(zf)
	if zerr != nil {
		return nil, fmt.Errorf("failed to create decoder for %s: %w", zf.Name(), zerr)
	}
	defer dec.Close()

	data, zerr := io.ReadAll(dec)
	if zerr != nil {
		return nil, fmt.Errorf("failed to decompress %s: %w", zf.Name(), zerr)
	}
	return memFile{bytes.NewReader(data)}, nil
}
