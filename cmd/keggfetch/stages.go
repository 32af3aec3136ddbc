package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/diegfern/kegg-api-async/internal/cache"
	"github.com/diegfern/kegg-api-async/internal/kegg"
	"github.com/diegfern/kegg-api-async/internal/stage"
)

func newClient() *kegg.Client {
	return kegg.NewClient(kegg.ClientConfig{
		BaseURL:      cfg.API.BaseURL,
		Timeout:      cfg.API.Timeout,
		MaxPerSecond: cfg.API.MaxPerSecond,
		Retries:      cfg.API.Retries,
	}, logger)
}

func newCache(dir string) *cache.Cache {
	if dir == "" {
		dir = cfg.Cache.Dir
	}
	if dir == "" {
		return nil
	}

	return cache.New(dir)
}

// dataPath resolves an output flag against the configured data directory.
func dataPath(flagValue, name string) string {
	if flagValue != "" {
		return flagValue
	}

	return filepath.Join(cfg.Data.Dir, name)
}

var organismsCmd = func() *cobra.Command {
	var (
		output string
		force  bool
	)
	cmd := &cobra.Command{
		Use:   "organisms",
		Short: "Download the KEGG organism list",
		RunE: func(cmd *cobra.Command, args []string) error {
			st := &stage.Organisms{
				Client:   newClient(),
				Output:   dataPath(output, "organisms.csv"),
				Force:    force,
				GraphDir: graphDir,
				Log:      logger,
			}

			return st.Run(cmd.Context())
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <data dir>/organisms.csv)")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "force download even if output file exists")

	return cmd
}()

var pathwaysCmd = func() *cobra.Command {
	var (
		input    string
		output   string
		splitDir string
		chunks   int
		force    bool
	)
	cmd := &cobra.Command{
		Use:   "pathways",
		Short: "Download the pathway list of every organism",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := dataPath(output, "pathways.csv")
			split := splitDir
			if split == "" {
				split = filepath.Join(filepath.Dir(out), "pathways_split")
			}
			st := &stage.Pathways{
				Client:      newClient(),
				Input:       dataPath(input, "organisms.csv"),
				Output:      out,
				SplitDir:    split,
				Chunks:      chunks,
				Concurrency: cfg.API.MaxInFlight,
				Force:       force,
				GraphDir:    graphDir,
				Log:         logger,
			}

			return st.Run(cmd.Context())
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "organisms file (default: <data dir>/organisms.csv)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <data dir>/pathways.csv)")
	cmd.Flags().StringVar(&splitDir, "split-dir", "", "split directory (default: next to the output file)")
	cmd.Flags().IntVar(&chunks, "chunks", 1, "number of chunk files to split the pathway list into")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "force download even if output file exists")

	return cmd
}()

var enzymesCmd = func() *cobra.Command {
	var (
		input    string
		output   string
		unique   string
		cacheDir string
		force    bool
	)
	cmd := &cobra.Command{
		Use:   "enzymes",
		Short: "Extract the EC numbers referenced by every pathway",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := dataPath(output, "enzymes.csv")
			if unique == "" {
				unique = filepath.Join(filepath.Dir(out), "enzymes_unique.txt")
			}
			st := &stage.Enzymes{
				Client:       newClient(),
				Input:        dataPath(input, filepath.Join("pathways_split", "pathways.csv")),
				Output:       out,
				UniqueOutput: unique,
				Cache:        newCache(cacheDir),
				Concurrency:  cfg.API.MaxInFlight,
				Force:        force,
				GraphDir:     graphDir,
				Log:          logger,
			}

			return st.Run(cmd.Context())
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "pathways file (default: <data dir>/pathways_split/pathways.csv)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <data dir>/enzymes.csv)")
	cmd.Flags().StringVar(&unique, "unique", "", "unique EC list file (default: next to the output file)")
	cmd.Flags().StringVarP(&cacheDir, "cache-dir", "s", "", "cache directory for KEGG API responses")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "force download even if output file exists")

	return cmd
}()

var sequencesCmd = func() *cobra.Command {
	var (
		input    string
		output   string
		cacheDir string
		force    bool
	)
	cmd := &cobra.Command{
		Use:   "sequences",
		Short: "Fetch the amino-acid sequences of every enzyme gene",
		RunE: func(cmd *cobra.Command, args []string) error {
			st := &stage.Sequences{
				Client:      newClient(),
				Input:       dataPath(input, "enzymes_unique.txt"),
				Output:      dataPath(output, "sequences.csv"),
				Cache:       newCache(cacheDir),
				Concurrency: cfg.API.MaxInFlight,
				Force:       force,
				GraphDir:    graphDir,
				Log:         logger,
			}

			return st.Run(cmd.Context())
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "enzyme list (default: <data dir>/enzymes_unique.txt)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <data dir>/sequences.csv)")
	cmd.Flags().StringVarP(&cacheDir, "cache-dir", "c", "", "cache directory for KEGG API responses")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "force download even if output file exists")

	return cmd
}()
