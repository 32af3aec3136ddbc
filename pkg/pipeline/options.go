package pipeline

// Option configures a pipeline at creation time.
type Option func(p *Pipeline) error

// PipelineDrawer records the step graph and dumps it in DOT format to
// fileName once the pipeline finishes. When PipelineMeasure is also enabled
// the graph is annotated with average step durations and heat-colored.
func PipelineDrawer(fileName string) Option {
	return func(p *Pipeline) error {
		d, err := newDrawer(fileName)
		if err != nil {
			return err
		}
		p.drawer = d

		return nil
	}
}

// PipelineMeasure records per-step counters and average durations.
func PipelineMeasure() Option {
	return func(p *Pipeline) error {
		p.measure = newMeasure()

		return nil
	}
}

// StepOption configures a single step.
type StepOption[O any] func(s *Step[O])

// StepConcurrency runs the step function over concurrent workers consuming
// the same input channel.
func StepConcurrency[O any](concurrent int) StepOption[O] {
	return func(s *Step[O]) {
		s.details.Concurrent = concurrent
	}
}

// SplitterOption configures a splitter.
type SplitterOption[I any] func(s *Splitter[I])

// SplitterBufferSize sets the relay buffer of every splitter branch.
func SplitterBufferSize[I any](bufferSize int) SplitterOption[I] {
	return func(s *Splitter[I]) {
		s.bufferSize = bufferSize
	}
}
