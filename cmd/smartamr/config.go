package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/scttfrdmn/smartamr-go/pkg/bvbrc"
	"github.com/scttfrdmn/smartamr-go/pkg/codon"
	"github.com/scttfrdmn/smartamr-go/pkg/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Configuration keys. Each can be set by flag, by SMARTAMR_<KEY> in the
// environment, or in smartamr.yaml.
const (
	keyGenomesURL    = "genomes_url"
	keyRepositoryURL = "repository_url"
	keyCodonURL      = "codon_url"
	keyWait          = "wait"
	keyTimeout       = "timeout"
	keyJournal       = "journal"
	keyQuiet         = "quiet"
)

var (
	cfg     = viper.New()
	cfgFile string
)

func registerConfigFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "Config file (default: ./smartamr.yaml or ~/.config/smartamr/smartamr.yaml)")
	flags.String("genomes-url", bvbrc.DefaultGenomesURL, "Remote root holding one directory per genome")
	flags.String("repository-url", bvbrc.DefaultRepositoryURL, "Remote repository root for metadata files")
	flags.String("codon-url", codon.DefaultLookupURL, "Codon usage lookup endpoint")
	flags.Duration("wait", bvbrc.DefaultMinDelay, "Minimum delay between remote requests")
	flags.Duration("timeout", bvbrc.DefaultTimeout, "Timeout for each transfer")
	flags.String("journal", "", "Record fetch outcomes in this database file")
	flags.BoolP("quiet", "q", false, "Only log warnings")

	bind := map[string]string{
		keyGenomesURL:    "genomes-url",
		keyRepositoryURL: "repository-url",
		keyCodonURL:      "codon-url",
		keyWait:          "wait",
		keyTimeout:       "timeout",
		keyJournal:       "journal",
		keyQuiet:         "quiet",
	}
	for key, flag := range bind {
		if err := cfg.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(err)
		}
	}
}

func loadConfig(cmd *cobra.Command, args []string) error {
	cfg.SetEnvPrefix("SMARTAMR")
	cfg.AutomaticEnv()

	if cfgFile != "" {
		cfg.SetConfigFile(cfgFile)
	} else {
		cfg.SetConfigName("smartamr")
		cfg.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			cfg.AddConfigPath(filepath.Join(home, ".config", "smartamr"))
		}
	}
	if err := cfg.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	logging.SetQuiet(cfg.GetBool(keyQuiet))
	return nil
}

// newDownloader builds the shared fetcher and downloader for dir, opening
// the journal when one is configured. The returned func releases it.
func newDownloader(dir string) (*bvbrc.Downloader, func(), error) {
	fetcher, err := bvbrc.NewFetcher(dir,
		bvbrc.WithMinDelay(cfg.GetDuration(keyWait)),
		bvbrc.WithTimeout(cfg.GetDuration(keyTimeout)),
	)
	if err != nil {
		return nil, nil, err
	}

	d := bvbrc.NewDownloader(bvbrc.NewCatalog(cfg.GetString(keyGenomesURL)), fetcher)
	d.RepositoryURL = cfg.GetString(keyRepositoryURL)

	closer := func() {}
	if path := cfg.GetString(keyJournal); path != "" {
		j, err := bvbrc.OpenJournal(path)
		if err != nil {
			return nil, nil, err
		}
		d.Journal = j
		closer = func() {
			if err := j.Close(); err != nil {
				logging.Warn.Printf("journal: %v", err)
			}
		}
	}
	return d, closer, nil
}

func formatDuration(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}
