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

// enzymeFetchAttempts bounds the validation loop around enzyme entries: the
// API sometimes answers 200 with a truncated body, so each entry is fetched
// again until it looks complete.
const enzymeFetchAttempts = 3

// Sequences resolves every unique EC number into the genes of its GENES
// section, then fetches the amino-acid sequence of every unique
// (organism, gene) pair and joins the two.
type Sequences struct {
	Client      *kegg.Client
	Input       string
	Output      string
	Cache       *cache.Cache
	Concurrency int
	Force       bool
	GraphDir    string
	Log         *zap.Logger
}

// fetchedSeq is the result of one sequence lookup. ok is false when the
// sequence could not be fetched; the gene rows of that key keep empty
// sequence columns.
type fetchedSeq struct {
	key    kegg.SeqKey
	header string
	seq    string
	ok     bool
}

func (s *Sequences) Name() string { return "sequences" }

func (s *Sequences) Outputs() []string { return []string{s.Output} }

func (s *Sequences) Run(ctx context.Context) error {
	if skipExisting(s.Log, s.Force, s.Output) {
		return nil
	}

	ecs, err := readLines(s.Input)
	if err != nil {
		return err
	}

	genes, targets, err := s.collectGenes(ctx, ecs)
	if err != nil {
		return err
	}
	s.Log.Info("genes resolved",
		zap.Int("enzymes", len(ecs)), zap.Int("genes", len(genes)), zap.Int("sequences", len(targets)))

	sequences, err := s.collectSequences(ctx, targets)
	if err != nil {
		return err
	}

	rows := make([]kegg.SequenceRow, 0, len(genes))
	for _, gene := range genes {
		row := kegg.SequenceRow{
			EC:         gene.EC,
			Organism:   gene.Organism,
			SequenceID: gene.GeneID,
		}
		seq, ok := sequences[kegg.SeqKey{Organism: gene.Organism, GeneID: gene.GeneID}]
		if ok {
			row.SequenceDescription = seq.header
			row.SequenceAA = seq.seq
		} else {
			s.Log.Warn("no sequence for gene",
				zap.String("organism", gene.Organism), zap.String("gene", gene.GeneID))
		}
		rows = append(rows, row)
	}

	return writeCSV(s.Output, &rows)
}

// collectGenes runs the first pipeline: fetch every enzyme entry and parse
// its GENES section. The gene stream is split into the full row list and
// the deduplicated set of sequences to fetch.
func (s *Sequences) collectGenes(ctx context.Context, ecs []string) ([]kegg.GeneRow, []kegg.SeqKey, error) {
	pipe, err := pipeline.New(ctx, pipelineOptions(s.GraphDir, s.Name()+"-genes")...)
	if err != nil {
		return nil, nil, err
	}

	ecSrc, err := pipeline.AddSource(pipe, "ec-numbers", func(ctx context.Context, output chan<- string) error {
		for _, ec := range ecs {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case output <- ec:
			}
		}

		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	genes, err := pipeline.AddStepOneToMany(pipe, "fetch-genes", ecSrc, s.fetchGenes,
		pipeline.StepConcurrency[kegg.GeneRow](s.Concurrency))
	if err != nil {
		return nil, nil, err
	}

	split, err := pipeline.AddSplitter(pipe, "gene-split", genes, 2)
	if err != nil {
		return nil, nil, err
	}

	rowsBranch, _ := split.Get()
	keysBranch, _ := split.Get()

	var geneRows []kegg.GeneRow
	err = pipeline.AddSinkFromChan(pipe, "collect-genes", rowsBranch, func(_ context.Context, input <-chan kegg.GeneRow) error {
		for row := range input {
			geneRows = append(geneRows, row)
		}

		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	keySet := map[kegg.SeqKey]struct{}{}
	err = pipeline.AddSinkFromChan(pipe, "collect-targets", keysBranch, func(_ context.Context, input <-chan kegg.GeneRow) error {
		for row := range input {
			keySet[kegg.SeqKey{Organism: row.Organism, GeneID: row.GeneID}] = struct{}{}
		}

		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	err = pipe.Wait()
	if err != nil {
		return nil, nil, err
	}

	targets := make([]kegg.SeqKey, 0, len(keySet))
	for key := range keySet {
		targets = append(targets, key)
	}
	sort.Slice(targets, func(i, j int) bool {
		if targets[i].Organism != targets[j].Organism {
			return targets[i].Organism < targets[j].Organism
		}

		return targets[i].GeneID < targets[j].GeneID
	})

	return geneRows, targets, nil
}

// collectSequences runs the second pipeline: fetch the amino-acid sequence
// of every target and index the results by key.
func (s *Sequences) collectSequences(ctx context.Context, targets []kegg.SeqKey) (map[kegg.SeqKey]fetchedSeq, error) {
	pipe, err := pipeline.New(ctx, pipelineOptions(s.GraphDir, s.Name()+"-aaseq")...)
	if err != nil {
		return nil, err
	}

	targetSrc, err := pipeline.AddSource(pipe, "sequence-targets", func(ctx context.Context, output chan<- kegg.SeqKey) error {
		for _, key := range targets {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case output <- key:
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	fetched, err := pipeline.AddStepOneToOne(pipe, "fetch-sequences", targetSrc, s.fetchSequence,
		pipeline.StepConcurrency[fetchedSeq](s.Concurrency))
	if err != nil {
		return nil, err
	}

	sequences := map[kegg.SeqKey]fetchedSeq{}
	err = pipeline.AddSinkFromChan(pipe, "collect-sequences", fetched, func(_ context.Context, input <-chan fetchedSeq) error {
		for seq := range input {
			if seq.ok {
				sequences[seq.key] = seq
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	err = pipe.Wait()
	if err != nil {
		return nil, err
	}

	return sequences, nil
}

// fetchGenes returns the gene rows of one enzyme entry, from the cache when
// possible. An entry that never validates, or that the API no longer knows,
// is logged and skipped, matching the tolerant behavior of the rest of the
// pipeline towards single broken records.
func (s *Sequences) fetchGenes(ctx context.Context, ec string) ([]kegg.GeneRow, error) {
	if s.Cache != nil {
		text, ok, err := s.Cache.GetEnzyme(ec)
		if err != nil {
			return nil, err
		}
		if ok {
			return kegg.ParseGenes(ec, text), nil
		}
	}

	for attempt := 0; attempt < enzymeFetchAttempts; attempt++ {
		body, err := s.Client.Get(ctx, "/get/ec:"+ec)
		if errors.Is(err, kegg.ErrNotFound) {
			break
		}
		if err != nil {
			return nil, err
		}
		if !kegg.ValidEnzymeEntry(ec, body) {
			continue
		}

		if s.Cache != nil {
			err = s.Cache.PutEnzyme(ec, body)
			if err != nil {
				return nil, err
			}
		}
		rows := kegg.ParseGenes(ec, body)
		s.Log.Debug("fetched enzyme entry", zap.String("ec", ec), zap.Int("genes", len(rows)))

		return rows, nil
	}

	s.Log.Warn("enzyme entry never validated, skipping", zap.String("ec", ec))

	return nil, nil
}

// fetchSequence returns the FASTA sequence of one (organism, gene) pair,
// from the cache when possible. A sequence that never parses, or a retired
// gene the API answers 404 for, is soft: the key is reported as missing
// instead of failing the stage.
func (s *Sequences) fetchSequence(ctx context.Context, key kegg.SeqKey) (fetchedSeq, error) {
	if s.Cache != nil {
		text, ok, err := s.Cache.GetSequence(key.Organism, key.GeneID)
		if err != nil {
			return fetchedSeq{}, err
		}
		if ok {
			header, seq, err := kegg.ParseFASTA(text)
			if err == nil {
				return fetchedSeq{key: key, header: header, seq: seq, ok: true}, nil
			}
		}
	}

	for attempt := 0; attempt < enzymeFetchAttempts; attempt++ {
		body, err := s.Client.Get(ctx, "/get/"+key.Organism+":"+key.GeneID+"/aaseq")
		if errors.Is(err, kegg.ErrNotFound) {
			break
		}
		if err != nil {
			return fetchedSeq{}, err
		}
		header, seq, err := kegg.ParseFASTA(body)
		if err != nil {
			continue
		}

		if s.Cache != nil {
			err = s.Cache.PutSequence(key.Organism, key.GeneID, body)
			if err != nil {
				return fetchedSeq{}, err
			}
		}
		s.Log.Debug("fetched sequence",
			zap.String("organism", key.Organism), zap.String("gene", key.GeneID))

		return fetchedSeq{key: key, header: header, seq: seq, ok: true}, nil
	}

	s.Log.Warn("could not get sequence",
		zap.String("organism", key.Organism), zap.String("gene", key.GeneID))

	return fetchedSeq{key: key}, nil
}

// readLines reads a newline-separated list, skipping empty lines.
func readLines(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read %s", path)
	}

	lines := []string{}
	for _, line := range strings.Split(string(b), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}

	return lines, nil
}
