package pipeline

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

type stepType string

const (
	sourceStepType   stepType = "source"
	normalStepType   stepType = "step"
	splitterStepType stepType = "splitter"
	mergerStepType   stepType = "merger"
	sinkStepType     stepType = "sink"
)

// StepInfo describes a step independently of its element type.
type StepInfo struct {
	Type       stepType
	Name       string
	Concurrent int
}

// Step is a stage of the pipeline producing elements of type O.
type Step[O any] struct {
	Output  chan O
	details *StepInfo
	metric  *metric
}

func sequentialOneToOneFn[I, O any](ctx context.Context, goIdx int, input *Step[I], output *Step[O], oneToOneFn func(context.Context, I) (O, error)) error {
outer:
	for {
		start := time.Now()
		select {
		case <-ctx.Done():
			return errors.Wrapf(ctx.Err(), "go routine %d:", goIdx)
		case in, ok := <-input.Output:
			if !ok {
				break outer
			}
			startFn := time.Now()
			out, err := oneToOneFn(ctx, in)
			if err != nil {
				return errors.Wrapf(err, "go routine %d:", goIdx)
			}
			endFn := time.Since(startFn)

			// check the context again so running workers stop adding
			// elements once the pipeline is cancelled
			select {
			case <-ctx.Done():
				return errors.Wrapf(ctx.Err(), "go routine %d:", goIdx)
			case output.Output <- out:
				if output.metric != nil {
					output.metric.add(endFn)
					output.metric.addTransport(input.details.Name, time.Since(start))
				}
			}
		}
	}

	return nil
}

func concurrentOneToOneFn[I, O any](ctx context.Context, input *Step[I], output *Step[O], oneToOneFn func(context.Context, I) (O, error)) error {
	errGrp, dCtx := errgroup.WithContext(ctx)
	errGrp.SetLimit(output.details.Concurrent)
	// many workers consume the same input channel
	// each of them stops as soon as an error happens
	for goIdx := 0; goIdx < output.details.Concurrent; goIdx++ {
		localGoIdx := goIdx
		errGrp.Go(func() error {
			return sequentialOneToOneFn(dCtx, localGoIdx, input, output, oneToOneFn)
		})
	}

	return errGrp.Wait()
}

func oneToOne[I, O any](ctx context.Context, input *Step[I], output *Step[O], oneToOneFn func(context.Context, I) (O, error)) error {
	if output.details.Concurrent == 0 {
		output.details.Concurrent = 1
	}
	if output.details.Concurrent == 1 {
		return sequentialOneToOneFn(ctx, 1, input, output, oneToOneFn)
	}

	return concurrentOneToOneFn(ctx, input, output, oneToOneFn)
}

func sequentialOneToManyFn[I, O any](ctx context.Context, goIdx int, input *Step[I], output *Step[O], oneToManyFn func(context.Context, I) ([]O, error)) error {
outer:
	for {
		start := time.Now()
		select {
		case <-ctx.Done():
			return errors.Wrapf(ctx.Err(), "go routine %d:", goIdx)
		case in, ok := <-input.Output:
			if !ok {
				break outer
			}
			startFn := time.Now()
			outs, err := oneToManyFn(ctx, in)
			if err != nil {
				return errors.Wrapf(err, "go routine %d:", goIdx)
			}
			endFn := time.Since(startFn)
			for _, out := range outs {
				select {
				case <-ctx.Done():
					return errors.Wrapf(ctx.Err(), "go routine %d:", goIdx)
				case output.Output <- out:
					if output.metric != nil {
						output.metric.add(endFn)
						output.metric.addTransport(input.details.Name, time.Since(start)-endFn)
					}
				}
			}
		}
	}

	return nil
}

func concurrentOneToManyFn[I, O any](ctx context.Context, input *Step[I], output *Step[O], oneToManyFn func(context.Context, I) ([]O, error)) error {
	errGrp, dCtx := errgroup.WithContext(ctx)
	errGrp.SetLimit(output.details.Concurrent)
	for goIdx := 0; goIdx < output.details.Concurrent; goIdx++ {
		localGoIdx := goIdx
		errGrp.Go(func() error {
			return sequentialOneToManyFn(dCtx, localGoIdx, input, output, oneToManyFn)
		})
	}

	return errGrp.Wait()
}

func oneToMany[I, O any](ctx context.Context, input *Step[I], output *Step[O], oneToManyFn func(context.Context, I) ([]O, error)) error {
	if output.details.Concurrent == 0 {
		output.details.Concurrent = 1
	}
	if output.details.Concurrent == 1 {
		return sequentialOneToManyFn(ctx, 1, input, output, oneToManyFn)
	}

	return concurrentOneToManyFn(ctx, input, output, oneToManyFn)
}

func prepareStep[I, O any](p *Pipeline, name string, input *Step[I], opts ...StepOption[O]) (*Step[O], error) {
	step := &Step[O]{
		details: &StepInfo{
			Type: normalStepType,
			Name: name,
		},
		Output: make(chan O),
	}
	for _, opt := range opts {
		opt(step)
	}

	mt, err := registerStep(p, step.details, input.details.Name)
	if err != nil {
		return nil, err
	}
	step.metric = mt

	return step, nil
}

func addStep[I, O any](p *Pipeline, name string, input *Step[I], step *Step[O], stepToStepFn func(ctx context.Context, input *Step[I], output *Step[O]) error) (*Step[O], error) {
	errC := make(chan error, 1)
	decoratedError := newErrorChan(name, errC)

	go func() {
		defer func() {
			close(errC)
			close(step.Output)
		}()
		err := stepToStepFn(p.ctx, input, step)
		if err != nil {
			errC <- err
		}
	}()
	p.errcList.add(decoratedError)

	return step, nil
}

// AddStepOneToOne adds a step that transforms every input element into
// exactly one output element.
func AddStepOneToOne[I, O any](p *Pipeline, name string, input *Step[I], oneToOneFn func(context.Context, I) (O, error), opts ...StepOption[O]) (*Step[O], error) {
	if p == nil {
		return nil, ErrPipelineMustBeSet
	}
	if input == nil {
		return nil, ErrInputMustBeSet
	}
	step, err := prepareStep(p, name, input, opts...)
	if err != nil {
		return nil, err
	}

	return addStep(p, name, input, step, func(ctx context.Context, in *Step[I], out *Step[O]) error {
		return oneToOne(ctx, in, out, oneToOneFn)
	})
}

// AddStepOneToMany adds a step that expands every input element into zero or
// more output elements.
func AddStepOneToMany[I, O any](p *Pipeline, name string, input *Step[I], oneToManyFn func(context.Context, I) ([]O, error), opts ...StepOption[O]) (*Step[O], error) {
	if p == nil {
		return nil, ErrPipelineMustBeSet
	}
	if input == nil {
		return nil, ErrInputMustBeSet
	}
	step, err := prepareStep(p, name, input, opts...)
	if err != nil {
		return nil, err
	}

	return addStep(p, name, input, step, func(ctx context.Context, in *Step[I], out *Step[O]) error {
		return oneToMany(ctx, in, out, oneToManyFn)
	})
}
