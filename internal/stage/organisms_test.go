package stage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const organismListBody = "T01001\thsa\tHomo sapiens (human)\tEukaryotes;Animals;Mammals\n" +
	"T00007\teco\tEscherichia coli K-12 MG1655\tProkaryotes;Bacteria;Gammaproteobacteria\n"

func TestOrganismsRun(t *testing.T) {
	fake := newFakeKEGG(t, map[string]string{
		"/list/organism": organismListBody,
	})
	output := filepath.Join(t.TempDir(), "organisms.csv")

	s := &Organisms{
		Client: fake.client(t),
		Output: output,
		Log:    zap.NewNop(),
	}
	require.NoError(t, s.Run(context.Background()))

	expected := "id_code,code,name_organism,description\n" +
		"T00007,eco,Escherichia coli K-12 MG1655,Prokaryotes;Bacteria;Gammaproteobacteria\n" +
		"T01001,hsa,Homo sapiens (human),Eukaryotes;Animals;Mammals\n"
	assert.Equal(t, expected, readFile(t, output))
	assert.Equal(t, []string{output}, s.Outputs())
}

func TestOrganismsRunSkipsExistingOutput(t *testing.T) {
	fake := newFakeKEGG(t, map[string]string{})
	output := filepath.Join(t.TempDir(), "organisms.csv")
	writeFile(t, output, "already here")

	s := &Organisms{
		Client: fake.client(t),
		Output: output,
		Log:    zap.NewNop(),
	}
	require.NoError(t, s.Run(context.Background()))

	assert.Equal(t, "already here", readFile(t, output))
	assert.Zero(t, fake.requests.Load())
}

func TestOrganismsRunForceOverwrites(t *testing.T) {
	fake := newFakeKEGG(t, map[string]string{
		"/list/organism": "T00007\teco\tEscherichia coli K-12 MG1655\tProkaryotes\n",
	})
	output := filepath.Join(t.TempDir(), "organisms.csv")
	writeFile(t, output, "stale")

	s := &Organisms{
		Client: fake.client(t),
		Output: output,
		Force:  true,
		Log:    zap.NewNop(),
	}
	require.NoError(t, s.Run(context.Background()))

	assert.Contains(t, readFile(t, output), "T00007,eco")
	assert.Equal(t, int64(1), fake.requests.Load())
}

func TestOrganismsRunMalformedLine(t *testing.T) {
	fake := newFakeKEGG(t, map[string]string{
		"/list/organism": "not a tab separated line\n",
	})
	output := filepath.Join(t.TempDir(), "organisms.csv")

	s := &Organisms{
		Client: fake.client(t),
		Output: output,
		Log:    zap.NewNop(),
	}
	err := s.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "organism line")
	assert.NoFileExists(t, output)
}
