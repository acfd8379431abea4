package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "smartamr",
	Short: "smartamr - BV-BRC genome data acquisition for AMR studies",
	Long: `smartamr acquires per-genome files from the BV-BRC repository, builds
codon usage tables from the Kazusa codon usage database, and cuts gene
sequences out of cached assemblies using their feature tables.

All downloads go through one rate-limited fetcher, so requests to the
remote repository are always at least --wait apart.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	registerConfigFlags(rootCmd)

	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(metadataCmd)
	rootCmd.AddCommand(codonCmd)
	rootCmd.AddCommand(locateCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(amrGenesCmd)
	rootCmd.AddCommand(filterCmd)
	rootCmd.AddCommand(mirrorCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("smartamr-go version %s\n", version)
		fmt.Println("BV-BRC genome acquisition and codon usage tools")
	},
}
