package pipeline

import (
	"sync"
)

// AddMerger adds a step that fans the outputs of several steps into a single
// channel. The output closes once every input is drained.
func AddMerger[I any](p *Pipeline, name string, steps ...*Step[I]) (*Step[I], error) {
	if p == nil {
		return nil, ErrPipelineMustBeSet
	}
	if len(steps) == 0 {
		return nil, ErrMergerInput
	}

	outputStep := &Step[I]{
		details: &StepInfo{
			Type:       mergerStepType,
			Name:       name,
			Concurrent: 1,
		},
		Output: make(chan I),
	}

	parents := make([]string, len(steps))
	for i, step := range steps {
		if step == nil {
			return nil, ErrInputMustBeSet
		}
		parents[i] = step.details.Name
	}

	mt, err := registerStep(p, outputStep.details, parents...)
	if err != nil {
		return nil, err
	}
	outputStep.metric = mt

	errC := make(chan error, len(steps))
	decoratedError := newErrorChan(name, errC)

	wgrp := sync.WaitGroup{}
	wgrp.Add(len(steps))
	go func() {
		wgrp.Wait()
		close(errC)
		close(outputStep.Output)
	}()

	for _, step := range steps {
		localStep := step
		go func() {
			defer wgrp.Done()
			for {
				select {
				case <-p.ctx.Done():
					errC <- p.ctx.Err()

					return
				case entry, ok := <-localStep.Output:
					if !ok {
						return
					}
					select {
					case <-p.ctx.Done():
						errC <- p.ctx.Err()

						return
					case outputStep.Output <- entry:
					}
				}
			}
		}()
	}
	p.errcList.add(decoratedError)

	return outputStep, nil
}
