package main

import (
	"fmt"
	"io"
	"os"

	"github.com/scttfrdmn/smartamr-go/pkg/features"
	"github.com/spf13/cobra"
)

var (
	extractDir    string
	extractAMR    bool
	extractOutput string
)

var extractCmd = &cobra.Command{
	Use:   "extract <genomeId> [gene]...",
	Short: "Extract gene sequences from a cached assembly",
	Long: `Cut gene sequences out of a genome's cached assembly, using the
coordinates from its feature table, and write them as FASTA.

With --amr, the genes listed as Antibiotic Resistance in the cached
specialty gene table are extracted as well.

Genes that cannot be located are logged and skipped, unless exactly one
gene was requested, in which case that is an error.

Examples:
  smartamr extract 1280.10 mecA --dir cache
  smartamr extract 1280.10 --amr --dir cache --output 1280.10.amr.fna`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		genomeID, genes := args[0], args[1:]

		e, err := features.NewExtractor(extractDir)
		if err != nil {
			return err
		}

		if extractAMR {
			amr, err := features.AMRGeneNames(extractDir, genomeID, features.AntibioticResistance)
			if err != nil {
				return err
			}
			genes = append(genes, amr...)
		}
		if len(genes) == 0 {
			return fmt.Errorf("no genes to extract")
		}

		var out []features.ExtractedGene
		if len(genes) == 1 && !extractAMR {
			g, err := e.Extract(genomeID, genes[0])
			if err != nil {
				return err
			}
			out = append(out, g)
		} else {
			found, err := e.ExtractMany(genomeID, genes)
			if err != nil {
				return err
			}
			for _, g := range genes {
				if eg, ok := found[g]; ok {
					out = append(out, eg)
					delete(found, g)
				}
			}
		}

		var w io.Writer = os.Stdout
		if extractOutput != "" && extractOutput != "-" {
			f, err := os.Create(extractOutput)
			if err != nil {
				return fmt.Errorf("failed to create output: %w", err)
			}
			defer f.Close()
			w = f
		}
		if err := features.WriteFASTA(w, out); err != nil {
			return err
		}

		fmt.Fprintf(os.Stderr, "Extracted %d of %d gene(s)\n", len(out), len(genes))
		return nil
	},
}

func init() {
	extractCmd.Flags().StringVarP(&extractDir, "dir", "d", ".", "Cache directory holding the feature table and assembly")
	extractCmd.Flags().BoolVar(&extractAMR, "amr", false, "Also extract the genome's antibiotic resistance genes")
	extractCmd.Flags().StringVarP(&extractOutput, "output", "o", "-", "FASTA output file")
}
