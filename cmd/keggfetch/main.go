// keggfetch scrapes the KEGG REST API in four file-connected stages:
// organisms, pathways, enzymes and amino-acid sequences.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/diegfern/kegg-api-async/internal/config"
)

var (
	// Global flags
	cfgPath  string
	debug    bool
	graphDir string

	logger *zap.Logger
	cfg    *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "keggfetch",
	Short: "Scrape organisms, pathways, enzymes and sequences from KEGG",
	Long: `keggfetch downloads the KEGG organism list, the pathways of every
organism, the EC numbers referenced by every pathway, and finally the
amino-acid sequence of every gene implementing those enzymes.

Each stage reads the output files of the previous one, so stages can be run
individually or all at once with "keggfetch run". Raw API responses are
cached on disk and reused across runs.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zapCfg := zap.NewProductionConfig()
		if debug {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zapCfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		cfg, err = config.Load(cfgPath)
		if err != nil {
			return err
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (default: ./"+config.DefaultFileName+" when present)")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "show debug messages")
	rootCmd.PersistentFlags().StringVar(&graphDir, "graph-dir", "", "dump annotated pipeline graphs (DOT) into this directory")

	rootCmd.AddCommand(organismsCmd)
	rootCmd.AddCommand(pathwaysCmd)
	rootCmd.AddCommand(enzymesCmd)
	rootCmd.AddCommand(sequencesCmd)
	rootCmd.AddCommand(runCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
