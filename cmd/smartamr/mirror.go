package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/scttfrdmn/smartamr-go/pkg/bvbrc"
	"github.com/scttfrdmn/smartamr-go/pkg/storage"
	"github.com/spf13/cobra"
)

var (
	mirrorDir      string
	mirrorTo       string
	mirrorCompress bool
)

var mirrorCmd = &cobra.Command{
	Use:   "mirror <genomeId>",
	Short: "Copy a genome's cached files to S3 or another directory",
	Long: `Copy every cached file of a genome (<genomeId>.*) to a destination,
which may be a local directory or an s3:// prefix.

With --compress each file is zstd-compressed and stored as <name>.zst.
Compressed caches can be read back directly by locate and extract.

Examples:
  smartamr mirror 1280.10 --dir cache --to s3://my-bucket/genomes
  smartamr mirror 1280.10 --dir cache --to archive --compress`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		genomeID := args[0]
		if err := bvbrc.ValidateGenomeID(genomeID); err != nil {
			return err
		}
		if err := storage.RequireDir(mirrorDir); err != nil {
			return err
		}
		if mirrorTo == "" {
			return fmt.Errorf("--to is required")
		}

		dst, err := storage.NewStorage(cmd.Context(), mirrorTo)
		if err != nil {
			return fmt.Errorf("failed to open destination: %w", err)
		}

		var comp *storage.Compressor
		if mirrorCompress {
			if comp, err = storage.NewCompressor(); err != nil {
				return err
			}
			defer comp.Close()
		}

		entries, err := os.ReadDir(mirrorDir)
		if err != nil {
			return err
		}

		var files int
		var in, out int64
		for _, e := range entries {
			name := e.Name()
			if e.IsDir() || !strings.HasPrefix(name, genomeID+".") {
				continue
			}
			data, err := os.ReadFile(filepath.Join(mirrorDir, name))
			if err != nil {
				return err
			}
			in += int64(len(data))

			if comp != nil && !strings.HasSuffix(name, storage.CompressedExt) {
				data = comp.Compress(data)
				name += storage.CompressedExt
			}
			if err := dst.WriteFile(name, data); err != nil {
				return fmt.Errorf("failed to write %s: %w", name, err)
			}
			out += int64(len(data))
			files++
			fmt.Fprintf(os.Stderr, "  %s (%d bytes)\n", name, len(data))
		}

		if files == 0 {
			return fmt.Errorf("no cached files for genome %s in %s", genomeID, mirrorDir)
		}
		fmt.Fprintf(os.Stderr, "Mirrored %d file(s) to %s", files, dst.GetBasePath())
		if comp != nil && out > 0 {
			fmt.Fprintf(os.Stderr, " (%.2fx compression)", float64(in)/float64(out))
		}
		fmt.Fprintln(os.Stderr)
		return nil
	},
}

func init() {
	mirrorCmd.Flags().StringVarP(&mirrorDir, "dir", "d", ".", "Cache directory")
	mirrorCmd.Flags().StringVar(&mirrorTo, "to", "", "Destination directory or s3://bucket/prefix")
	mirrorCmd.Flags().BoolVar(&mirrorCompress, "compress", false, "zstd-compress files on the way")
}
