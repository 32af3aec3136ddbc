package driver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeStage records its invocation and writes its declared outputs unless
// told to fail or to forget one.
type fakeStage struct {
	name      string
	outputs   []string
	err       error
	skipWrite bool
	calls     *[]string
}

func (s *fakeStage) Name() string { return s.name }

func (s *fakeStage) Outputs() []string { return s.outputs }

func (s *fakeStage) Run(context.Context) error {
	*s.calls = append(*s.calls, s.name)
	if s.err != nil {
		return s.err
	}
	if s.skipWrite {
		return nil
	}
	for _, output := range s.outputs {
		err := os.WriteFile(output, []byte("data"), 0o644)
		if err != nil {
			return err
		}
	}

	return nil
}

func TestRunOrder(t *testing.T) {
	dir := t.TempDir()
	calls := []string{}

	d := New(zap.NewNop(),
		&fakeStage{name: "first", outputs: []string{filepath.Join(dir, "a")}, calls: &calls},
		&fakeStage{name: "second", outputs: []string{filepath.Join(dir, "b")}, calls: &calls},
		&fakeStage{name: "third", outputs: []string{filepath.Join(dir, "c")}, calls: &calls},
	)
	require.NoError(t, d.Run(context.Background()))
	assert.Equal(t, []string{"first", "second", "third"}, calls)
}

func TestRunAbortsOnFailure(t *testing.T) {
	dir := t.TempDir()
	calls := []string{}

	d := New(zap.NewNop(),
		&fakeStage{name: "first", outputs: []string{filepath.Join(dir, "a")}, calls: &calls},
		&fakeStage{name: "second", err: errors.New("boom"), calls: &calls},
		&fakeStage{name: "third", outputs: []string{filepath.Join(dir, "c")}, calls: &calls},
	)
	err := d.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stage second failed")
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestRunChecksOutputs(t *testing.T) {
	dir := t.TempDir()
	calls := []string{}
	missing := filepath.Join(dir, "never-written")

	d := New(zap.NewNop(),
		&fakeStage{name: "first", outputs: []string{missing}, skipWrite: true, calls: &calls},
		&fakeStage{name: "second", outputs: []string{filepath.Join(dir, "b")}, calls: &calls},
	)
	err := d.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stage first did not produce")
	assert.Contains(t, err.Error(), missing)
	assert.Equal(t, []string{"first"}, calls)
}

func TestRunCancelledContext(t *testing.T) {
	calls := []string{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := New(zap.NewNop(), &fakeStage{name: "first", calls: &calls})
	err := d.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, calls)
}
