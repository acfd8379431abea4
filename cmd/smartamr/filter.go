package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/scttfrdmn/smartamr-go/pkg/metadata"
	"github.com/spf13/cobra"
)

var (
	filterColumn string
	filterIDs    string
)

var filterCmd = &cobra.Command{
	Use:   "filter <metadata.tsv>",
	Short: "Drop metadata rows with a null value in a column",
	Long: `Load a tab-separated metadata table and keep only rows whose --column
value is present. Empty cells and NA markers (NaN, NA, null, ...) count
as null.

With --ids genome or --ids taxon, print the distinct genome or taxon ids
of the kept rows instead of the rows themselves.

Examples:
  smartamr filter PATRIC_genomes_AMR.txt --ids genome > genomes.txt
  smartamr filter genome_metadata --column antimicrobial_resistance`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := metadata.Load(args[0], filterColumn)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Kept %d rows with %s\n", t.Len(), filterColumn)

		w := bufio.NewWriter(os.Stdout)
		defer w.Flush()

		var ids []string
		switch filterIDs {
		case "":
			fmt.Fprintln(w, strings.Join(t.Columns, "\t"))
			for _, row := range t.Rows {
				fmt.Fprintln(w, strings.Join(row, "\t"))
			}
			return nil
		case "genome":
			ids, err = t.GenomeIDs()
		case "taxon":
			ids, err = t.TaxonIDs()
		default:
			return fmt.Errorf("invalid --ids %q (must be genome or taxon)", filterIDs)
		}
		if err != nil {
			return err
		}
		for _, id := range ids {
			fmt.Fprintln(w, id)
		}
		return nil
	},
}

func init() {
	filterCmd.Flags().StringVarP(&filterColumn, "column", "c", metadata.DefaultFilterColumn, "Rows with a null value here are dropped")
	filterCmd.Flags().StringVar(&filterIDs, "ids", "", "Print distinct ids instead of rows: genome or taxon")
}
