package main

import (
	"fmt"
	"os"
	"time"

	"github.com/scttfrdmn/smartamr-go/pkg/bvbrc"
	"github.com/scttfrdmn/smartamr-go/pkg/logging"
	"github.com/spf13/cobra"
	"gopkg.in/cheggaaa/pb.v1"
)

var (
	fetchDir   string
	fetchKinds []string
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <genomeId>...",
	Short: "Download genome files from BV-BRC",
	Long: `Download the files of one or more genomes into a cache directory.

Without --kind every file kind is fetched, in this order:
  assembly, protein, features, genes, rna, annotation, pathway,
  spgene, subsystem

Partial files are resumed and complete files are left alone, so running
the same fetch twice is safe. A file that fails to download is logged
and skipped; the remaining files are still fetched.

Examples:
  # Everything for one genome
  smartamr fetch 1280.10 --dir cache

  # Only assemblies and feature tables, two genomes
  smartamr fetch 1280.10 562.2 --dir cache --kind assembly --kind features`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kinds := make([]bvbrc.FileKind, 0, len(fetchKinds))
		for _, s := range fetchKinds {
			k, err := bvbrc.ParseFileKind(s)
			if err != nil {
				return err
			}
			kinds = append(kinds, k)
		}
		for _, id := range args {
			if err := bvbrc.ValidateGenomeID(id); err != nil {
				return err
			}
		}

		d, closeJournal, err := newDownloader(fetchDir)
		if err != nil {
			return err
		}
		defer closeJournal()

		var bar *pb.ProgressBar
		if len(args) > 1 {
			bar = pb.New(len(args))
			bar.Output = os.Stderr
			bar.Start()
		}

		start := time.Now()
		var total, failed int
		for _, id := range args {
			results, err := fetchGenome(cmd, d, id, kinds)
			if err != nil {
				return err
			}
			for _, res := range results {
				total++
				if !res.OK() {
					failed++
				}
			}
			if bar != nil {
				bar.Increment()
			}
		}
		if bar != nil {
			bar.Finish()
		}

		fmt.Fprintf(os.Stderr, "Fetched %d of %d files for %d genome(s) in %s\n",
			total-failed, total, len(args), formatDuration(time.Since(start)))
		if failed > 0 {
			fmt.Fprintf(os.Stderr, "%d file(s) failed; rerun to resume\n", failed)
		}
		return nil
	},
}

func fetchGenome(cmd *cobra.Command, d *bvbrc.Downloader, genomeID string, kinds []bvbrc.FileKind) ([]bvbrc.FetchResult, error) {
	if len(kinds) == 0 {
		report, err := d.DownloadAll(cmd.Context(), genomeID)
		if err != nil {
			return nil, err
		}
		return report.Results, nil
	}

	results := make([]bvbrc.FetchResult, 0, len(kinds))
	for _, k := range kinds {
		res, err := d.Download(cmd.Context(), genomeID, k)
		if err != nil {
			return nil, err
		}
		if !res.OK() {
			logging.Warn.Printf("%s: %s failed: %v", genomeID, k, res.Err)
		}
		results = append(results, res)
	}
	return results, nil
}

func init() {
	fetchCmd.Flags().StringVarP(&fetchDir, "dir", "d", ".", "Cache directory (must exist)")
	fetchCmd.Flags().StringSliceVarP(&fetchKinds, "kind", "k", nil, "File kind to fetch (repeatable; default all)")
}
