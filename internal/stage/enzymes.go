package stage

import (
	"context"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/diegfern/kegg-api-async/internal/cache"
	"github.com/diegfern/kegg-api-async/internal/kegg"
	"github.com/diegfern/kegg-api-async/pkg/pipeline"
)

// Enzymes downloads the entry of every pathway and extracts the EC numbers
// it references. Pathway entries already present in the cache are parsed
// from disk instead of fetched.
type Enzymes struct {
	Client       *kegg.Client
	Input        string
	Output       string
	UniqueOutput string
	Cache        *cache.Cache
	Concurrency  int
	Force        bool
	GraphDir     string
	Log          *zap.Logger
}

// cachedPathway carries a pathway row together with the cached entry text.
type cachedPathway struct {
	row  kegg.PathwayRow
	text string
}

func (s *Enzymes) Name() string { return "enzymes" }

func (s *Enzymes) Outputs() []string {
	outputs := []string{s.Output}
	if s.UniqueOutput != "" {
		outputs = append(outputs, s.UniqueOutput)
	}

	return outputs
}

func (s *Enzymes) Run(ctx context.Context) error {
	if skipExisting(s.Log, s.Force, s.Outputs()...) {
		return nil
	}

	var pathways []kegg.PathwayRow
	err := readCSV(s.Input, &pathways)
	if err != nil {
		return err
	}

	hits, misses, err := s.partition(pathways)
	if err != nil {
		return err
	}
	s.Log.Debug("pathway cache lookup",
		zap.Int("hits", len(hits)), zap.Int("total", len(pathways)))

	pipe, err := pipeline.New(ctx, pipelineOptions(s.GraphDir, s.Name())...)
	if err != nil {
		return err
	}

	cachedSrc, err := pipeline.AddSource(pipe, "cached-pathways", func(ctx context.Context, output chan<- cachedPathway) error {
		for _, hit := range hits {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case output <- hit:
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	parsed, err := pipeline.AddStepOneToMany(pipe, "parse-cached", cachedSrc, func(_ context.Context, hit cachedPathway) ([]kegg.EnzymeRow, error) {
		return enzymeRows(hit.row, hit.text), nil
	})
	if err != nil {
		return err
	}

	missSrc, err := pipeline.AddSource(pipe, "uncached-pathways", func(ctx context.Context, output chan<- kegg.PathwayRow) error {
		for _, row := range misses {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case output <- row:
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	fetched, err := pipeline.AddStepOneToMany(pipe, "fetch-pathway-entries", missSrc, s.fetchPathway,
		pipeline.StepConcurrency[kegg.EnzymeRow](s.Concurrency))
	if err != nil {
		return err
	}

	merged, err := pipeline.AddMerger(pipe, "merge-enzymes", parsed, fetched)
	if err != nil {
		return err
	}

	var rows []kegg.EnzymeRow
	err = pipeline.AddSinkFromChan(pipe, "collect-enzymes", merged, func(_ context.Context, input <-chan kegg.EnzymeRow) error {
		for row := range input {
			rows = append(rows, row)
		}

		return nil
	})
	if err != nil {
		return err
	}

	err = pipe.Wait()
	if err != nil {
		return err
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Organism != rows[j].Organism {
			return rows[i].Organism < rows[j].Organism
		}
		if rows[i].Pathway != rows[j].Pathway {
			return rows[i].Pathway < rows[j].Pathway
		}

		return rows[i].EC < rows[j].EC
	})
	s.Log.Info("enzymes extracted",
		zap.Int("pathways", len(pathways)), zap.Int("rows", len(rows)))

	err = writeCSV(s.Output, &rows)
	if err != nil {
		return err
	}

	return s.writeUnique(rows)
}

// partition splits the pathway rows into cache hits, carrying the cached
// text, and rows that still need to be fetched.
func (s *Enzymes) partition(pathways []kegg.PathwayRow) ([]cachedPathway, []kegg.PathwayRow, error) {
	if s.Cache == nil {
		return nil, pathways, nil
	}

	hits := []cachedPathway{}
	misses := []kegg.PathwayRow{}
	for _, row := range pathways {
		text, ok, err := s.Cache.GetPathway(row.Organism, row.PathID)
		if err != nil {
			return nil, nil, err
		}
		if ok {
			hits = append(hits, cachedPathway{row: row, text: text})
		} else {
			misses = append(misses, row)
		}
	}

	return hits, misses, nil
}

func (s *Enzymes) fetchPathway(ctx context.Context, row kegg.PathwayRow) ([]kegg.EnzymeRow, error) {
	body, err := s.Client.Get(ctx, "/get/"+row.PathID)
	if err != nil {
		return nil, err
	}

	if s.Cache != nil {
		err = s.Cache.PutPathway(row.Organism, row.PathID, body)
		if err != nil {
			return nil, err
		}
	}

	rows := enzymeRows(row, body)
	s.Log.Debug("fetched pathway entry",
		zap.String("pathway", row.PathID), zap.Int("enzymes", len(rows)))

	return rows, nil
}

func enzymeRows(row kegg.PathwayRow, text string) []kegg.EnzymeRow {
	ecs := kegg.ECNumbers(text)
	rows := make([]kegg.EnzymeRow, 0, len(ecs))
	for _, ec := range ecs {
		rows = append(rows, kegg.EnzymeRow{
			Organism: row.Organism,
			Pathway:  row.PathID,
			EC:       ec,
		})
	}

	return rows
}

// writeUnique writes the deduplicated sorted EC list consumed by the
// sequences stage, one number per line.
func (s *Enzymes) writeUnique(rows []kegg.EnzymeRow) error {
	if s.UniqueOutput == "" {
		return nil
	}

	set := map[string]struct{}{}
	for _, row := range rows {
		set[row.EC] = struct{}{}
	}
	ecs := make([]string, 0, len(set))
	for ec := range set {
		ecs = append(ecs, ec)
	}
	sort.Strings(ecs)

	err := ensureParent(s.UniqueOutput)
	if err != nil {
		return err
	}

	out := ""
	if len(ecs) > 0 {
		out = strings.Join(ecs, "\n") + "\n"
	}

	return errors.Wrapf(os.WriteFile(s.UniqueOutput, []byte(out), 0o644),
		"unable to write %s", s.UniqueOutput)
}
