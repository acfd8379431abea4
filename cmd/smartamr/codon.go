package main

import (
	"fmt"
	"os"

	"github.com/scttfrdmn/smartamr-go/pkg/codon"
	"github.com/spf13/cobra"
)

var (
	codonDNA    bool
	codonOut    string
	codonFormat string
	codonPlot   string
	codonShow   bool
)

var codonCmd = &cobra.Command{
	Use:   "codon <taxonId>",
	Short: "Build a codon usage table for a taxon",
	Long: `Build a codon usage table from the Kazusa codon usage database.

Frequencies are per thousand codons, as published. With --dna, RNA codons
(U) are rewritten to DNA (T).

Output:
  --out    Directory (must exist) or s3://bucket/prefix for <taxonId>.<format>
  --format json (default) or msgpack
  --plot   Bar chart of codon frequencies (.png, .svg, .pdf)
  --show   Print the codon table grid

Examples:
  smartamr codon 1280 --dna --show
  smartamr codon 1280 --dna --out s3://my-bucket/codon --format msgpack`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := codon.ParseFormat(codonFormat)
		if err != nil {
			return err
		}

		b := codon.NewBuilder(cfg.GetString(keyCodonURL))
		table, err := b.Build(cmd.Context(), args[0], codonDNA)
		if err != nil {
			return err
		}

		if codonShow {
			fmt.Print(table.String())
		}

		s := table.Summary()
		fmt.Fprintf(os.Stderr, "Taxon %s: %d codons, total %.1f, mean %.2f, GC3 %.1f%%\n",
			table.TaxonID(), s.Codons, s.Total, s.Mean, s.GC3*100)

		if codonOut != "" {
			name, err := codon.PersistTo(cmd.Context(), table, codonOut, format)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Wrote %s to %s\n", name, codonOut)
		}
		if codonPlot != "" {
			if err := table.Plot(codonPlot); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Wrote %s\n", codonPlot)
		}
		return nil
	},
}

func init() {
	codonCmd.Flags().BoolVar(&codonDNA, "dna", false, "Normalize codons to DNA (U -> T)")
	codonCmd.Flags().StringVarP(&codonOut, "out", "o", "", "Persist the table to this directory or s3:// prefix")
	codonCmd.Flags().StringVarP(&codonFormat, "format", "f", "json", "Persisted format: json or msgpack")
	codonCmd.Flags().StringVar(&codonPlot, "plot", "", "Write a codon usage chart to this file")
	codonCmd.Flags().BoolVar(&codonShow, "show", false, "Print the codon table")
}
