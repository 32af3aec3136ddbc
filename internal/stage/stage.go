// Package stage implements the four steps of the KEGG scraping pipeline:
// organisms, pathways, enzymes and sequences. Stages are connected only
// through the files they read and write.
package stage

import (
	"context"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/diegfern/kegg-api-async/pkg/pipeline"
)

// Stage is one unit of the scraping pipeline.
type Stage interface {
	Name() string
	// Outputs lists the files the stage must have produced after a
	// successful Run.
	Outputs() []string
	Run(ctx context.Context) error
}

// skipExisting reports whether the stage should be skipped because every
// declared output already exists and force is not set. A single missing
// output reruns the whole stage so the outputs stay consistent.
func skipExisting(log *zap.Logger, force bool, outputs ...string) bool {
	if force {
		return false
	}
	for _, output := range outputs {
		_, err := os.Stat(output)
		if err != nil {
			return false
		}
	}
	log.Info("outputs exist, not downloading", zap.Strings("outputs", outputs))

	return true
}

func ensureParent(path string) error {
	err := os.MkdirAll(filepath.Dir(path), 0o755)
	if err != nil {
		return errors.Wrapf(err, "unable to create directory for %s", path)
	}

	return nil
}

// writeCSV writes rows (a pointer to a slice of tagged structs) to path,
// creating parent directories as needed.
func writeCSV(path string, rows interface{}) error {
	err := ensureParent(path)
	if err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "unable to create %s", path)
	}
	defer file.Close()

	err = gocsv.MarshalFile(rows, file)
	if err != nil {
		return errors.Wrapf(err, "unable to write %s", path)
	}

	return nil
}

// readCSV reads path into out, a pointer to a slice of tagged structs.
func readCSV(path string, out interface{}) error {
	file, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "unable to open %s", path)
	}
	defer file.Close()

	err = gocsv.UnmarshalFile(file, out)
	if err != nil {
		return errors.Wrapf(err, "unable to parse %s", path)
	}

	return nil
}

// pipelineOptions builds the options of a stage pipeline. When graphDir is
// set, the step graph and its timings are dumped there, one DOT file per
// pipeline.
func pipelineOptions(graphDir, name string) []pipeline.Option {
	if graphDir == "" {
		return nil
	}

	return []pipeline.Option{
		pipeline.PipelineDrawer(filepath.Join(graphDir, name+".gv")),
		pipeline.PipelineMeasure(),
	}
}
