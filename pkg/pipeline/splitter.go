package pipeline

import (
	"sync"
)

// Splitter broadcasts every element of its input to a fixed number of
// identical output steps.
type Splitter[I any] struct {
	mu         sync.Mutex
	currIdx    int
	details    *StepInfo
	branches   []*Step[I]
	bufferSize int
	Total      int
}

// Get returns the next unclaimed branch of the splitter.
func (s *Splitter[I]) Get() (*Step[I], bool) {
	s.mu.Lock()
	defer func() {
		s.currIdx++
		s.mu.Unlock()
	}()
	if s.currIdx >= len(s.branches) {
		return nil, false
	}

	return s.branches[s.currIdx], true
}

// AddSplitter adds a step that duplicates the input stream into total
// branches. Each branch is relayed through a small buffer so a slow consumer
// only stalls the splitter once its buffer is full.
func AddSplitter[I any](p *Pipeline, name string, input *Step[I], total int, opts ...SplitterOption[I]) (*Splitter[I], error) {
	if p == nil {
		return nil, ErrPipelineMustBeSet
	}
	if input == nil {
		return nil, ErrInputMustBeSet
	}
	if total == 0 {
		return nil, ErrSplitterTotal
	}

	splitter := &Splitter[I]{
		Total: total,
		details: &StepInfo{
			Type:       splitterStepType,
			Name:       name,
			Concurrent: 1,
		},
	}
	for _, opt := range opts {
		opt(splitter)
	}
	if splitter.bufferSize == 0 {
		splitter.bufferSize = 1
	}

	_, err := registerStep(p, splitter.details, input.details.Name)
	if err != nil {
		return nil, err
	}

	splitter.branches = make([]*Step[I], total)
	buffers := make([]chan I, total)
	for i := 0; i < total; i++ {
		buffers[i] = make(chan I, splitter.bufferSize)
		splitter.branches[i] = &Step[I]{
			details: splitter.details,
			Output:  make(chan I),
		}
	}

	errC := make(chan error, total+1)
	decoratedError := newErrorChan(name, errC)

	wgrp := &sync.WaitGroup{}
	wgrp.Add(total)
	for i, buf := range buffers {
		localBuf := buf
		localIdx := i
		go func() {
			defer wgrp.Done()
		outer:
			for {
				select {
				case <-p.ctx.Done():
					errC <- p.ctx.Err()

					break outer
				case elem, ok := <-localBuf:
					if !ok {
						break outer
					}
					select {
					case <-p.ctx.Done():
						errC <- p.ctx.Err()

						break outer
					case splitter.branches[localIdx].Output <- elem:
					}
				}
			}
			close(splitter.branches[localIdx].Output)
		}()
	}

	go func() {
		defer func() {
			for _, buf := range buffers {
				close(buf)
			}
			wgrp.Wait()
			close(errC)
		}()

	outer:
		for {
			select {
			case <-p.ctx.Done():
				errC <- p.ctx.Err()

				break outer
			case entry, ok := <-input.Output:
				if !ok {
					break outer
				}
				for _, buf := range buffers {
					select {
					case <-p.ctx.Done():
						errC <- p.ctx.Err()

						break outer
					case buf <- entry:
					}
				}
			}
		}
	}()
	p.errcList.add(decoratedError)

	return splitter, nil
}
