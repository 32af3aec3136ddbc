package pipeline

import (
	"sync"
	"time"
)

type transportInfo struct {
	elapsed time.Duration
	total   int64
}

type metric struct {
	mu          *sync.Mutex
	concurrent  int
	total       int64
	stepElapsed time.Duration
	endDuration time.Duration
	transports  map[string]*transportInfo
}

func (mt *metric) add(elapsed time.Duration) {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	mt.total++
	mt.stepElapsed += elapsed
}

func (mt *metric) end(endDuration time.Duration) {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	mt.endDuration = endDuration
}

func (mt *metric) addTransport(inputStepName string, elapsed time.Duration) {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	if mt.transports[inputStepName] == nil {
		mt.transports[inputStepName] = &transportInfo{}
	}
	tr := mt.transports[inputStepName]
	tr.elapsed += elapsed
	tr.total++
}

func (mt *metric) avgStep() time.Duration {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	if mt.total == 0 {
		return time.Duration(0)
	}

	return round(time.Duration(float64(mt.stepElapsed) / float64(mt.total)))
}

func (mt *metric) totalDuration() time.Duration {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	return mt.endDuration
}

// avgTransports returns the average waiting time per input channel, spread
// over the number of workers of the step.
func (mt *metric) avgTransports() map[string]time.Duration {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	res := make(map[string]time.Duration, len(mt.transports))
	for name, tr := range mt.transports {
		if tr.total == 0 {
			continue
		}
		avg := time.Duration(float64(tr.elapsed) / float64(tr.total))
		if mt.concurrent > 1 {
			avg /= time.Duration(mt.concurrent)
		}
		res[name] = round(avg)
	}

	return res
}

func round(d time.Duration) time.Duration {
	switch {
	case d > time.Second:
		return d.Round(10 * time.Millisecond)
	case d > time.Millisecond:
		return d.Round(10 * time.Microsecond)
	case d > time.Microsecond:
		return d.Round(10 * time.Nanosecond)
	default:
		return d
	}
}

type measure struct {
	mu    sync.Mutex
	steps map[string]*metric
}

func newMeasure() *measure {
	return &measure{
		steps: make(map[string]*metric),
	}
}

func (m *measure) addStep(name string, concurrent int) *metric {
	m.mu.Lock()
	defer m.mu.Unlock()
	if concurrent == 0 {
		concurrent = 1
	}
	mt := &metric{
		mu:         &sync.Mutex{},
		concurrent: concurrent,
		transports: make(map[string]*transportInfo),
	}
	m.steps[name] = mt

	return mt
}

// Step returns the metric recorded for a step name, or nil.
func (m *measure) Step(name string) *metric {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.steps[name]
}

func (m *measure) allSteps() map[string]*metric {
	m.mu.Lock()
	defer m.mu.Unlock()

	res := make(map[string]*metric, len(m.steps))
	for name, mt := range m.steps {
		res[name] = mt
	}

	return res
}
