package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/diegfern/kegg-api-async/internal/driver"
	"github.com/diegfern/kegg-api-async/internal/stage"
)

var runCmd = func() *cobra.Command {
	var (
		dataDir  string
		cacheDir string
		chunks   int
		force    bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run all four stages in order",
		Long: `Run invokes the organisms, pathways, enzymes and sequences stages
sequentially with the standard file layout under the data directory. It
aborts on the first failing stage and checks that every stage produced its
declared outputs before starting the next one.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dataDir == "" {
				dataDir = cfg.Data.Dir
			}
			client := newClient()
			responseCache := newCache(cacheDir)
			splitDir := filepath.Join(dataDir, "pathways_split")

			organisms := &stage.Organisms{
				Client:   client,
				Output:   filepath.Join(dataDir, "organisms.csv"),
				Force:    force,
				GraphDir: graphDir,
				Log:      logger,
			}
			pathways := &stage.Pathways{
				Client:      client,
				Input:       organisms.Output,
				Output:      filepath.Join(dataDir, "pathways.csv"),
				SplitDir:    splitDir,
				Chunks:      chunks,
				Concurrency: cfg.API.MaxInFlight,
				Force:       force,
				GraphDir:    graphDir,
				Log:         logger,
			}
			enzymes := &stage.Enzymes{
				Client:       client,
				Input:        filepath.Join(splitDir, "pathways.csv"),
				Output:       filepath.Join(dataDir, "enzymes.csv"),
				UniqueOutput: filepath.Join(dataDir, "enzymes_unique.txt"),
				Cache:        responseCache,
				Concurrency:  cfg.API.MaxInFlight,
				Force:        force,
				GraphDir:     graphDir,
				Log:          logger,
			}
			sequences := &stage.Sequences{
				Client:      client,
				Input:       enzymes.UniqueOutput,
				Output:      filepath.Join(dataDir, "sequences.csv"),
				Cache:       responseCache,
				Concurrency: cfg.API.MaxInFlight,
				Force:       force,
				GraphDir:    graphDir,
				Log:         logger,
			}

			return driver.New(logger, organisms, pathways, enzymes, sequences).Run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "directory for stage outputs (default: from config)")
	cmd.Flags().StringVarP(&cacheDir, "cache-dir", "c", "", "cache directory for KEGG API responses (default: from config)")
	cmd.Flags().IntVar(&chunks, "chunks", 1, "number of chunk files to split the pathway list into")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "force download even if output files exist")

	return cmd
}()
