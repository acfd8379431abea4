package main

import (
	"fmt"
	"os"

	"github.com/scttfrdmn/smartamr-go/pkg/bvbrc"
	"github.com/spf13/cobra"
)

var (
	metadataDir    string
	genomeMetadata bool
)

var metadataCmd = &cobra.Command{
	Use:   "metadata",
	Short: "Download repository metadata files",
	Long: `Download the BV-BRC AMR phenotype table (PATRIC_genomes_AMR.txt) and,
with --genome-metadata, the full genome metadata table.

Example:
  smartamr metadata --dir cache --genome-metadata`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, closeJournal, err := newDownloader(metadataDir)
		if err != nil {
			return err
		}
		defer closeJournal()

		files := []string{bvbrc.AMRMetadataFile}
		if genomeMetadata {
			files = append(files, bvbrc.GenomeMetadataFile)
		}

		report := d.UpdateMetadata(cmd.Context(), files...)
		for _, res := range report.Results {
			if res.OK() {
				fmt.Fprintf(os.Stderr, "  %s (%d bytes)\n", res.Job.Target(), res.Bytes)
			}
		}
		if failed := report.Failed(); len(failed) > 0 {
			return fmt.Errorf("%d metadata file(s) failed: %w", len(failed), failed[0].Err)
		}
		return nil
	},
}

func init() {
	metadataCmd.Flags().StringVarP(&metadataDir, "dir", "d", ".", "Output directory (must exist)")
	metadataCmd.Flags().BoolVar(&genomeMetadata, "genome-metadata", false, "Also fetch the genome metadata table")
}
