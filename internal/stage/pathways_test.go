package stage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/diegfern/kegg-api-async/internal/kegg"
)

const organismsCSV = "id_code,code,name_organism,description\n" +
	"T00007,eco,Escherichia coli K-12 MG1655,Prokaryotes\n" +
	"T01001,hsa,Homo sapiens (human),Eukaryotes\n"

func TestPathwaysRun(t *testing.T) {
	fake := newFakeKEGG(t, map[string]string{
		"/list/pathway/eco": "path:eco00010\tGlycolysis / Gluconeogenesis - Escherichia coli K-12 MG1655\n",
		"/list/pathway/hsa": "path:hsa00020\tCitrate cycle (TCA cycle) - Homo sapiens (human)\n" +
			"path:hsa00010\tGlycolysis / Gluconeogenesis - Homo sapiens (human)\n",
	})

	dir := t.TempDir()
	input := filepath.Join(dir, "organisms.csv")
	writeFile(t, input, organismsCSV)
	output := filepath.Join(dir, "pathways.csv")

	s := &Pathways{
		Client:      fake.client(t),
		Input:       input,
		Output:      output,
		Concurrency: 2,
		Log:         zap.NewNop(),
	}
	require.NoError(t, s.Run(context.Background()))

	expected := "organism,path_id,description_path\n" +
		"eco,eco00010,Glycolysis / Gluconeogenesis - Escherichia coli K-12 MG1655\n" +
		"hsa,hsa00010,Glycolysis / Gluconeogenesis - Homo sapiens (human)\n" +
		"hsa,hsa00020,Citrate cycle (TCA cycle) - Homo sapiens (human)\n"
	assert.Equal(t, expected, readFile(t, output))
	assert.Equal(t, int64(2), fake.requests.Load())
}

func TestPathwaysRunWritesSplit(t *testing.T) {
	fake := newFakeKEGG(t, map[string]string{
		"/list/pathway/eco": "path:eco00010\tGlycolysis\n",
		"/list/pathway/hsa": "path:hsa00010\tGlycolysis\npath:hsa00020\tCitrate cycle\n",
	})

	dir := t.TempDir()
	input := filepath.Join(dir, "organisms.csv")
	writeFile(t, input, organismsCSV)
	output := filepath.Join(dir, "pathways.csv")
	splitDir := filepath.Join(dir, "pathways_split")

	s := &Pathways{
		Client:   fake.client(t),
		Input:    input,
		Output:   output,
		SplitDir: splitDir,
		Chunks:   2,
		Log:      zap.NewNop(),
	}
	require.NoError(t, s.Run(context.Background()))

	// the split dir always carries the full copy
	assert.Equal(t, readFile(t, output), readFile(t, filepath.Join(splitDir, "pathways.csv")))

	var first, second []kegg.PathwayRow
	require.NoError(t, readCSV(filepath.Join(splitDir, "00", "pathways.csv"), &first))
	require.NoError(t, readCSV(filepath.Join(splitDir, "01", "pathways.csv"), &second))
	require.Len(t, first, 1)
	assert.Equal(t, "eco", first[0].Organism)
	require.Len(t, second, 2)
	assert.Equal(t, "hsa", second[0].Organism)
	assert.Equal(t, "hsa", second[1].Organism)

	assert.Equal(t, []string{output, filepath.Join(splitDir, "pathways.csv")}, s.Outputs())
}

func TestPathwaysRunRegeneratesMissingSplit(t *testing.T) {
	fake := newFakeKEGG(t, map[string]string{
		"/list/pathway/eco": "path:eco00010\tGlycolysis\n",
		"/list/pathway/hsa": "path:hsa00010\tGlycolysis\n",
	})

	dir := t.TempDir()
	input := filepath.Join(dir, "organisms.csv")
	writeFile(t, input, organismsCSV)
	output := filepath.Join(dir, "pathways.csv")
	splitDir := filepath.Join(dir, "pathways_split")

	// the main output exists but the split copy was removed, so the stage
	// must run again instead of skipping
	writeFile(t, output, "stale")

	s := &Pathways{
		Client:   fake.client(t),
		Input:    input,
		Output:   output,
		SplitDir: splitDir,
		Log:      zap.NewNop(),
	}
	require.NoError(t, s.Run(context.Background()))

	assert.Equal(t, int64(2), fake.requests.Load())
	assert.Equal(t, readFile(t, output), readFile(t, filepath.Join(splitDir, "pathways.csv")))
	assert.Contains(t, readFile(t, output), "eco,eco00010")
}

func TestPathwaysRunMissingInput(t *testing.T) {
	fake := newFakeKEGG(t, map[string]string{})
	dir := t.TempDir()

	s := &Pathways{
		Client: fake.client(t),
		Input:  filepath.Join(dir, "organisms.csv"),
		Output: filepath.Join(dir, "pathways.csv"),
		Log:    zap.NewNop(),
	}
	err := s.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "organisms.csv")
}

func TestPathwaysRunFailedOrganism(t *testing.T) {
	fake := newFakeKEGG(t, map[string]string{
		"/list/pathway/eco": "path:eco00010\tGlycolysis\n",
		// hsa is not served and answers 404
	})

	dir := t.TempDir()
	input := filepath.Join(dir, "organisms.csv")
	writeFile(t, input, organismsCSV)
	output := filepath.Join(dir, "pathways.csv")

	s := &Pathways{
		Client: fake.client(t),
		Input:  input,
		Output: output,
		Log:    zap.NewNop(),
	}
	err := s.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 404")
	assert.NoFileExists(t, output)
}
