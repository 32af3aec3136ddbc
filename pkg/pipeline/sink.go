package pipeline

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

func prepareSink[I any](p *Pipeline, name string, input *Step[I]) (*Step[I], error) {
	step := &Step[I]{
		details: &StepInfo{
			Type:       sinkStepType,
			Name:       name,
			Concurrent: 1,
		},
	}

	mt, err := registerStep(p, step.details, input.details.Name)
	if err != nil {
		return nil, err
	}
	step.metric = mt

	if p.drawer != nil {
		err = p.drawer.addLink(name, endStepName)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to link %s to %s", name, endStepName)
		}
	}

	return step, nil
}

// AddSink adds a final step consuming the input one element at a time.
func AddSink[I any](p *Pipeline, name string, input *Step[I], sinkFn func(ctx context.Context, input I) error) error {
	if p == nil {
		return ErrPipelineMustBeSet
	}
	if input == nil {
		return ErrInputMustBeSet
	}
	step, err := prepareSink(p, name, input)
	if err != nil {
		return err
	}

	errC := make(chan error, 1)
	decoratedError := newErrorChan(name, errC)
	go func() {
		defer close(errC)
	outer:
		for {
			start := time.Now()
			select {
			case <-p.ctx.Done():
				errC <- p.ctx.Err()

				break outer
			case in, ok := <-input.Output:
				if !ok {
					break outer
				}
				startFn := time.Now()
				err := sinkFn(p.ctx, in)
				if err != nil {
					errC <- err

					break outer
				}
				if step.metric != nil {
					step.metric.add(time.Since(startFn))
					step.metric.addTransport(input.details.Name, time.Since(start))
				}
			}
		}
		if step.metric != nil {
			step.metric.end(time.Since(p.startTime))
		}
	}()
	p.errcList.add(decoratedError)

	return nil
}

// AddSinkFromChan adds a final step that owns the whole input channel, for
// sinks that need to see the stream end before producing their result.
func AddSinkFromChan[I any](p *Pipeline, name string, input *Step[I], sinkFn func(ctx context.Context, input <-chan I) error) error {
	if p == nil {
		return ErrPipelineMustBeSet
	}
	if input == nil {
		return ErrInputMustBeSet
	}
	step, err := prepareSink(p, name, input)
	if err != nil {
		return err
	}

	errC := make(chan error, 1)
	decoratedError := newErrorChan(name, errC)
	go func() {
		defer close(errC)
		err := sinkFn(p.ctx, input.Output)
		if err != nil {
			errC <- err
		}
		if step.metric != nil {
			step.metric.end(time.Since(p.startTime))
		}
	}()
	p.errcList.add(decoratedError)

	return nil
}
