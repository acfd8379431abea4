package main

import (
	"fmt"

	"github.com/scttfrdmn/smartamr-go/pkg/features"
	"github.com/spf13/cobra"
)

var (
	amrGenesDir      string
	amrGenesProperty string
)

var amrGenesCmd = &cobra.Command{
	Use:   "amr-genes <genomeId>",
	Short: "List specialty genes of a genome",
	Long: `List gene names from a genome's cached specialty gene table
(<genomeId>.PATRIC.spgene.tab) whose property matches --property.

Example:
  smartamr amr-genes 1280.10 --dir cache`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		genes, err := features.AMRGeneNames(amrGenesDir, args[0], amrGenesProperty)
		if err != nil {
			return err
		}
		for _, g := range genes {
			fmt.Println(g)
		}
		return nil
	},
}

func init() {
	amrGenesCmd.Flags().StringVarP(&amrGenesDir, "dir", "d", ".", "Cache directory")
	amrGenesCmd.Flags().StringVar(&amrGenesProperty, "property", features.AntibioticResistance, "Specialty gene property to select")
}
