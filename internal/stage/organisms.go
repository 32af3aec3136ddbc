package stage

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/diegfern/kegg-api-async/internal/kegg"
	"github.com/diegfern/kegg-api-async/pkg/pipeline"
)

// Organisms downloads the KEGG organism list.
type Organisms struct {
	Client   *kegg.Client
	Output   string
	Force    bool
	GraphDir string
	Log      *zap.Logger
}

func (s *Organisms) Name() string { return "organisms" }

func (s *Organisms) Outputs() []string { return []string{s.Output} }

func (s *Organisms) Run(ctx context.Context) error {
	if skipExisting(s.Log, s.Force, s.Output) {
		return nil
	}

	pipe, err := pipeline.New(ctx, pipelineOptions(s.GraphDir, s.Name())...)
	if err != nil {
		return err
	}

	lines, err := pipeline.AddSource(pipe, "list-organisms", func(ctx context.Context, output chan<- string) error {
		body, err := s.Client.Get(ctx, "/list/organism")
		if err != nil {
			return err
		}
		for _, line := range strings.Split(strings.TrimRight(body, "\n"), "\n") {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case output <- line:
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	parsed, err := pipeline.AddStepOneToOne(pipe, "parse-organism", lines, func(_ context.Context, line string) (kegg.Organism, error) {
		return kegg.ParseOrganismLine(line)
	})
	if err != nil {
		return err
	}

	var organisms []kegg.Organism
	err = pipeline.AddSinkFromChan(pipe, "collect-organisms", parsed, func(_ context.Context, input <-chan kegg.Organism) error {
		for org := range input {
			organisms = append(organisms, org)
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

	sort.Slice(organisms, func(i, j int) bool {
		return organisms[i].IDCode < organisms[j].IDCode
	})
	s.Log.Info("organism list downloaded", zap.Int("organisms", len(organisms)))

	return writeCSV(s.Output, &organisms)
}
