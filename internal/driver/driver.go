// Package driver runs the scraping stages in their fixed order.
package driver

import (
	"context"
	"os"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/diegfern/kegg-api-async/internal/stage"
)

// Driver invokes its stages sequentially. It aborts on the first failing
// stage and verifies that every declared output exists before moving on, so
// a broken stage can never feed garbage paths into the next one.
type Driver struct {
	stages []stage.Stage
	log    *zap.Logger
}

func New(log *zap.Logger, stages ...stage.Stage) *Driver {
	return &Driver{stages: stages, log: log}
}

func (d *Driver) Run(ctx context.Context) error {
	for _, st := range d.stages {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		d.log.Info("running stage", zap.String("stage", st.Name()))
		start := time.Now()

		err := st.Run(ctx)
		if err != nil {
			return errors.Wrapf(err, "stage %s failed", st.Name())
		}

		for _, output := range st.Outputs() {
			_, err := os.Stat(output)
			if err != nil {
				return errors.Wrapf(err, "stage %s did not produce %s", st.Name(), output)
			}
		}

		d.log.Info("stage finished",
			zap.String("stage", st.Name()), zap.Duration("elapsed", time.Since(start)))
	}

	return nil
}
