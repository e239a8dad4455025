package perf

import (
	"sync"
	"time"
)

// meterSamples is the number of frame times averaged by a Meter.
const meterSamples = 10

// Meter keeps a rolling average of the most recent frame durations.
type Meter struct {
	mu      sync.Mutex
	times   [meterSamples]time.Duration
	avg     time.Duration
	index   int
	samples int
	now     func() time.Time
}

// NewMeter returns an empty meter.
func NewMeter() *Meter {
	return &Meter{now: time.Now}
}

// Sampler measures one interval; call Stop when the work is done.
type Sampler struct {
	meter   *Meter
	started time.Time
}

// Sample starts timing an interval.
func (m *Meter) Sample() Sampler {
	return Sampler{meter: m, started: m.now()}
}

// Stop records the elapsed time since Sample.
func (s Sampler) Stop() {
	if s.meter == nil {
		return
	}
	s.meter.Add(s.meter.now().Sub(s.started))
}

// Add records a sample, replacing the oldest once the window is full.
func (m *Meter) Add(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.times[m.index] = d
	m.index = (m.index + 1) % meterSamples
	if m.samples < meterSamples {
		m.samples++
	}

	// Slots fill from zero, so the first m.samples entries are live.
	var total time.Duration
	for _, t := range m.times[:m.samples] {
		total += t
	}
	m.avg = total / time.Duration(m.samples)
}

// Average returns the rolling average.
func (m *Meter) Average() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.avg
}

// AverageMicros returns the rolling average in microseconds.
func (m *Meter) AverageMicros() float64 {
	return float64(m.Average()) / float64(time.Microsecond)
}
