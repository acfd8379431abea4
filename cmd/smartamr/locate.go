package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/scttfrdmn/smartamr-go/pkg/features"
	"github.com/spf13/cobra"
)

var locateDir string

var locateCmd = &cobra.Command{
	Use:   "locate <genomeId> <gene>...",
	Short: "Find gene coordinates in a cached feature table",
	Long: `Look genes up in a genome's cached feature table and print their
contig and coordinates. When a gene occurs more than once, the first
occurrence is reported.

With one gene, a missing gene is an error. With several, missing genes
are listed on stderr and the rest are printed.

Example:
  smartamr locate 1280.10 mecA blaZ --dir cache`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		genomeID, genes := args[0], args[1:]

		l, err := features.NewLocator(locateDir)
		if err != nil {
			return err
		}

		locs := make(map[string]features.GeneLocation, len(genes))
		if len(genes) == 1 {
			loc, err := l.Locate(genomeID, genes[0])
			if err != nil {
				return err
			}
			locs[genes[0]] = loc
		} else {
			if locs, err = l.LocateMany(genomeID, genes); err != nil {
				return err
			}
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
		fmt.Fprintln(w, "GENE\tCONTIG\tSTART\tEND")
		printed := make(map[string]bool, len(genes))
		for _, g := range genes {
			if printed[g] {
				continue
			}
			printed[g] = true
			loc, ok := locs[g]
			if !ok {
				fmt.Fprintf(os.Stderr, "%s: not found\n", g)
				continue
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", g, loc.Contig, loc.Start, loc.End)
		}
		return w.Flush()
	},
}

func init() {
	locateCmd.Flags().StringVarP(&locateDir, "dir", "d", ".", "Cache directory holding <genomeId>.PATRIC.features.tab")
}
