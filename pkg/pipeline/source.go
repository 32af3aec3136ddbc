package pipeline

import (
	"context"
)

// AddSource adds a step that feeds the pipeline. sourceFn must push its
// elements to output and return; the channel is closed for it.
func AddSource[O any](p *Pipeline, name string, sourceFn func(ctx context.Context, output chan<- O) error, opts ...StepOption[O]) (*Step[O], error) {
	if p == nil {
		return nil, ErrPipelineMustBeSet
	}

	step := &Step[O]{
		details: &StepInfo{
			Type:       sourceStepType,
			Name:       name,
			Concurrent: 1,
		},
		Output: make(chan O),
	}
	for _, opt := range opts {
		opt(step)
	}

	mt, err := registerStep(p, step.details, startStepName)
	if err != nil {
		return nil, err
	}
	step.metric = mt

	errC := make(chan error, 1)
	decoratedError := newErrorChan(name, errC)

	go func() {
		defer func() {
			close(step.Output)
			close(errC)
		}()
		err := sourceFn(p.ctx, step.Output)
		if err != nil {
			errC <- err
		}
	}()
	p.errcList.add(decoratedError)

	return step, nil
}
