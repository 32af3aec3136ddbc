package pipeline

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// Pipeline owns the shared context and the error channels of every step
// added to it. Steps start running as soon as they are added; Wait blocks
// until they all finish or one of them fails.
type Pipeline struct {
	ctx       context.Context
	cancel    context.CancelFunc
	errcList  *errorChans
	drawer    *drawer
	measure   *measure
	startTime time.Time
}

// New creates a pipeline bound to ctx. The derived context is cancelled when
// Wait returns, stopping every step that is still running.
func New(ctx context.Context, opts ...Option) (*Pipeline, error) {
	dCtx, cancel := context.WithCancel(ctx)
	pipe := &Pipeline{
		ctx:       dCtx,
		cancel:    cancel,
		errcList:  &errorChans{},
		startTime: time.Now(),
	}

	for _, opt := range opts {
		err := opt(pipe)
		if err != nil {
			cancel()

			return nil, errors.Wrap(err, "unable to apply pipeline option")
		}
	}

	return pipe, nil
}

// waitForPipeline waits for results from all error channels.
// It returns early on the first error.
func waitForPipeline(errs ...*errorChan) error {
	errc := mergeErrors(errs...)
	for err := range errc {
		if err != nil {
			return err
		}
	}

	return nil
}

// Wait blocks until every step has finished and returns the first error
// encountered, then runs the finishers of the enabled options.
func (p *Pipeline) Wait() error {
	err := waitForPipeline(p.errcList.list...)
	p.cancel()
	if err != nil {
		return err
	}

	return p.finish()
}

func (p *Pipeline) finish() error {
	if p.drawer == nil {
		return nil
	}
	if p.measure != nil {
		err := p.drawer.addMeasure(p.measure)
		if err != nil {
			return errors.Wrap(err, "unable to add measures to drawer")
		}
	}

	err := p.drawer.draw()
	if err != nil {
		return errors.Wrap(err, "unable to draw pipeline")
	}

	return nil
}

// Measure returns the recorded metrics, or nil when PipelineMeasure was not
// enabled.
func (p *Pipeline) Measure() *measure {
	return p.measure
}

// registerStep records the step in the graph and the measures. parentNames
// may be empty for sources.
func registerStep(p *Pipeline, info *StepInfo, parentNames ...string) (*metric, error) {
	if p.drawer != nil {
		err := p.drawer.addStep(info.Name)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to add step %s to drawer", info.Name)
		}
		for _, parent := range parentNames {
			err = p.drawer.addLink(parent, info.Name)
			if err != nil {
				return nil, errors.Wrapf(err, "unable to link %s to %s", parent, info.Name)
			}
		}
	}

	if p.measure == nil {
		return nil, nil
	}

	return p.measure.addStep(info.Name, info.Concurrent), nil
}
