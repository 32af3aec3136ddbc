package stage

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"github.com/diegfern/kegg-api-async/internal/kegg"
	"github.com/diegfern/kegg-api-async/pkg/pipeline"
)

// Pathways downloads the pathway list of every organism, one request per
// organism code, bounded by Concurrency workers.
type Pathways struct {
	Client      *kegg.Client
	Input       string
	Output      string
	SplitDir    string
	Chunks      int
	Concurrency int
	Force       bool
	GraphDir    string
	Log         *zap.Logger
}

func (s *Pathways) Name() string { return "pathways" }

func (s *Pathways) Outputs() []string {
	outputs := []string{s.Output}
	if s.SplitDir != "" {
		outputs = append(outputs, filepath.Join(s.SplitDir, filepath.Base(s.Output)))
	}

	return outputs
}

func (s *Pathways) Run(ctx context.Context) error {
	if skipExisting(s.Log, s.Force, s.Outputs()...) {
		return nil
	}

	var organisms []kegg.Organism
	err := readCSV(s.Input, &organisms)
	if err != nil {
		return err
	}

	pipe, err := pipeline.New(ctx, pipelineOptions(s.GraphDir, s.Name())...)
	if err != nil {
		return err
	}

	codes, err := pipeline.AddSource(pipe, "organism-codes", func(ctx context.Context, output chan<- string) error {
		for _, org := range organisms {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case output <- org.Code:
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	fetched, err := pipeline.AddStepOneToMany(pipe, "fetch-pathways", codes, func(ctx context.Context, code string) ([]kegg.PathwayRow, error) {
		body, err := s.Client.Get(ctx, "/list/pathway/"+code)
		if err != nil {
			return nil, err
		}
		rows := kegg.ParsePathwayList(code, body)
		s.Log.Debug("fetched pathways", zap.String("organism", code), zap.Int("pathways", len(rows)))

		return rows, nil
	}, pipeline.StepConcurrency[kegg.PathwayRow](s.Concurrency))
	if err != nil {
		return err
	}

	var rows []kegg.PathwayRow
	err = pipeline.AddSinkFromChan(pipe, "collect-pathways", fetched, func(_ context.Context, input <-chan kegg.PathwayRow) error {
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

		return rows[i].PathID < rows[j].PathID
	})
	s.Log.Info("pathway list downloaded",
		zap.Int("organisms", len(organisms)), zap.Int("pathways", len(rows)))

	err = writeCSV(s.Output, &rows)
	if err != nil {
		return err
	}

	return s.writeSplit(rows)
}

// writeSplit writes the copy of the pathway list consumed by the enzymes
// stage, and with Chunks > 1 also partitions the rows by organism into
// numbered chunk directories so several hosts can share the work.
func (s *Pathways) writeSplit(rows []kegg.PathwayRow) error {
	if s.SplitDir == "" {
		return nil
	}

	name := filepath.Base(s.Output)
	err := writeCSV(filepath.Join(s.SplitDir, name), &rows)
	if err != nil {
		return err
	}

	if s.Chunks <= 1 {
		return nil
	}

	chunkIdx := map[string]int{}
	chunks := make([][]kegg.PathwayRow, s.Chunks)
	for _, row := range rows {
		idx, ok := chunkIdx[row.Organism]
		if !ok {
			idx = len(chunkIdx) % s.Chunks
			chunkIdx[row.Organism] = idx
		}
		chunks[idx] = append(chunks[idx], row)
	}

	for i, chunk := range chunks {
		localChunk := chunk
		err := writeCSV(filepath.Join(s.SplitDir, fmt.Sprintf("%02d", i), name), &localChunk)
		if err != nil {
			return err
		}
	}

	return nil
}
